package prompts

const extractSpec = `OUTPUT FORMAT:
Return ONLY valid JSON that matches the schema structure. The JSON should be properly formatted and parseable.

IMPORTANT:
- Extract information accurately from the document
- Do not infer or assume information that is not explicitly stated
- Keep the nested structure of the schema
- Use arrays for list fields even when there is only one item
- Use null for missing optional fields
- Empty strings are allowed when a field is present but blank

Now, parse the following MSA document and extract the structured data:`

const judgeSpec = `Provide your evaluation in the following JSON format:
{
    "score": <float between 0.0 and 1.0>,
    "reasoning": "<brief explanation of your scoring>",
    "key_points_matched": <list of key points that match>,
    "key_points_missing": <list of important points from ground truth that are missing>,
    "key_points_incorrect": <list of points in generated answer that contradict ground truth>
}

Score Guidelines:
- 1.0: Perfect match, all information present and correct
- 0.8-0.9: Very good match, minor details missing or slightly different wording
- 0.6-0.7: Good match, some important details missing but core meaning preserved
- 0.4-0.5: Partial match, core meaning somewhat preserved but significant gaps
- 0.2-0.3: Poor match, only basic similarity
- 0.0-0.1: No meaningful match

Return ONLY valid JSON, no additional text.`

const generateSpec = `OUTPUT FORMAT (MANDATORY)
For each clause:
SECTION X.X - [CLAUSE TITLE]
Q1: ...
A1: ...
Q2: ...
A2: ...`

const rubricSpec = `Please provide:
1. A direct answer to the question based on what you find (or don't find) in the contract
2. A score from 1-5 where:
   - 5 = Excellent/Comprehensive: Fully addresses the concern, very favorable to client
   - 4 = Good: Addresses most concerns, generally favorable
   - 3 = Acceptable: Basic coverage, neutral or mixed
   - 2 = Poor: Missing important elements, unfavorable to client
   - 1 = Critical: Major gaps or very unfavorable terms
3. Brief reasoning for your score
4. Risk level: LOW, MEDIUM, HIGH, or CRITICAL

Format your response as JSON:
{
    "answer": "<your answer>",
    "score": <1-5>,
    "reasoning": "<brief explanation>",
    "risk_level": "<LOW|MEDIUM|HIGH|CRITICAL>"
}`

const assessSpec = `Return a JSON object with:
{
    "compliance_score": <0-100>,
    "risk_level": "<LOW|MEDIUM|HIGH|CRITICAL>",
    "risk_factors": ["list of specific risk factors"],
    "recommendations": ["list of recommendations"],
    "details": {additional structured details}
}`

var specs = map[Stage]string{
	StageExtract:  extractSpec,
	StageJudge:    judgeSpec,
	StageGenerate: generateSpec,
	StageRubric:   rubricSpec,
}

// Spec returns the output format specification for a stage. Specs define the
// response shape the parsers depend on and cannot be overridden.
func Spec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
