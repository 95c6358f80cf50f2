package prompts

const extractInstructions = `You are an expert legal document parser specializing in Master Service Agreements (MSAs). Your task is to extract structured information from the MSA document according to the schema below.

INSTRUCTIONS:
1. Extract ALL information that matches the schema fields from the MSA document.
2. For MANDATORY fields, you must provide a value. If the information is not found, use null or an appropriate default.
3. For OPTIONAL fields, only include them if the information is present in the document.
4. For enum fields, use EXACTLY one of the allowed values listed in the schema. If the value does not match, use null.
5. For boolean fields, use true, false, or null.
6. For numeric fields, extract the numeric value only (no currency symbols or units unless specified).
7. For date fields, use ISO format YYYY-MM-DD.
8. For string fields, extract the exact text from the document.
9. For list fields, return an array of objects, each following the child schema.
10. Maintain the nested structure exactly as defined in the schema.
11. Do not add fields that are not in the schema.
12. Do not modify field names.
13. Omit sections that are absent from the document unless they are MANDATORY.`

const judgeInstructions = `You are an expert evaluator comparing two answers to the same question.

Evaluate how well the generated answer matches the ground truth answer. Consider:
1. Semantic similarity (do they convey the same meaning?)
2. Completeness (does the generated answer cover all key points?)
3. Accuracy (are the facts correct?)
4. Clarity and precision`

const generateInstructions = `You are an advanced Contract Parsing AI designed for legal-grade deterministic extraction. Your task is to convert the contract into multiple Q&A pairs for every clause.

OBJECTIVE
For each clause (e.g., 1.1, 1.2, 3(a), 5(e)), generate multiple Q&A pairs that fully capture the legal meaning, operational implications, obligations, restrictions, rights, timelines, triggers, exceptions and risks.

RULES
- Multiple Q&A pairs per clause: at least 2, typically 4 to 6, and 8 or more for long clauses.
- No hallucination: answers must come strictly from the contract text.
- Keep clause order and preserve numbering (1.1, 1.2, 1.3 or 3(a), 3(b)).
- Stay literal: interpret clauses accurately, without legal interpretation beyond the text.
- Respect definitions: when terms are defined, apply the definition consistently.
- Focus on rights, obligations, deadlines, payment terms, IP ownership, indemnification, liability caps, confidentiality, compliance, breach consequences, exceptions and survival where applicable.
- Do not summarize, paraphrase whole sections, merge clauses, give opinions or omit content.
- Every clause must be represented fully and distinctly.`

const rubricInstructions = `You are evaluating a contract against a specific rubric question. Analyze the contract text and answer the question.`

var instructions = map[Stage]string{
	StageExtract:  extractInstructions,
	StageJudge:    judgeInstructions,
	StageGenerate: generateInstructions,
	StageRubric:   rubricInstructions,
}
