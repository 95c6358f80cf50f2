package prompts

import (
	"fmt"
	"strings"
)

type clause struct {
	key     string
	subject string
	section string
	focus   []string
	factors []string
}

var clauses = []clause{
	{
		key:     "commercial_terms",
		subject: "commercial terms and pricing structures",
		section: "the commercial terms section of this MSA",
		focus: []string{
			"Payment terms (due days, late fees, interest rates)",
			"Rate cards and pricing transparency",
			"Volume discounts and pricing fairness",
			"Expense reimbursement policies",
			"Tax provisions and responsibilities",
			"Fee structures and surcharges",
		},
		factors: []string{
			"Payment terms > 60 days = HIGH RISK",
			"Missing late payment penalties = MEDIUM RISK",
			"Unclear pricing structures = MEDIUM-HIGH RISK",
			"Customer responsible for all taxes = MEDIUM RISK",
			"No volume discounts for large contracts = LOW-MEDIUM RISK",
			"High expense markups (>20%) = MEDIUM RISK",
			"Missing accepted payment methods = LOW RISK",
		},
	},
	{
		key:     "liability_indemnification",
		subject: "liability and indemnification clauses",
		section: "the liability and indemnification section",
		focus: []string{
			"Liability caps and limitations",
			"Indemnification scope and mutual vs one-sided",
			"Exclusions from liability limitations",
			"Defense obligations",
			"Notice requirements",
		},
		factors: []string{
			"Liability cap < $1M or very low = HIGH RISK",
			"One-sided indemnification (only provider indemnifies) = HIGH RISK",
			"Missing exclusions for gross negligence/willful misconduct = CRITICAL RISK",
			"No defense obligations = MEDIUM RISK",
			"Unclear notice requirements = LOW-MEDIUM RISK",
			"Liability cap based on fees (good) vs fixed amount = LOWER RISK",
			"Missing IP infringement indemnification = HIGH RISK",
		},
	},
	{
		key:     "intellectual_property",
		subject: "intellectual property rights",
		section: "the intellectual property section",
		focus: []string{
			"IP ownership model (work for hire, customer owned, provider owned)",
			"License grants and scope",
			"Pre-existing IP handling",
			"Deliverable ownership",
		},
		factors: []string{
			"Provider retains ownership of deliverables = HIGH RISK",
			"Unclear IP ownership = HIGH RISK",
			"Missing license grants = HIGH RISK",
			"Pre-existing IP not properly addressed = MEDIUM RISK",
			"No perpetual license for deliverables = MEDIUM RISK",
			"Customer owns all IP (work for hire) = LOW RISK",
			"Clear license grants with proper scope = LOW RISK",
		},
	},
	{
		key:     "data_protection",
		subject: "data protection and privacy compliance",
		section: "the data protection section",
		focus: []string{
			"Applicable regulations (GDPR, CCPA, HIPAA, etc.)",
			"Data processing agreements",
			"Data location restrictions",
			"Breach notification requirements",
			"Data retention policies",
		},
		factors: []string{
			"Missing GDPR compliance for EU data = CRITICAL RISK",
			"No breach notification period specified = HIGH RISK",
			"No data location restrictions = MEDIUM RISK",
			"Missing DPA requirement = HIGH RISK",
			"Breach notification > 72 hours = HIGH RISK",
			"No data retention policy = MEDIUM RISK",
			"Multiple regulations properly addressed = LOW RISK",
		},
	},
	{
		key:     "compliance_requirements",
		subject: "regulatory compliance",
		section: "the compliance requirements section",
		focus: []string{
			"Regulatory compliance (GDPR, HIPAA, SOX, PCI DSS, etc.)",
			"Import/export compliance",
			"Hazmat provisions",
			"Industry-specific requirements",
		},
		factors: []string{
			"Missing regulatory compliance requirements = HIGH RISK",
			"No export control compliance = MEDIUM-HIGH RISK",
			"Missing industry-specific compliance = HIGH RISK",
			"Hazmat provisions missing when needed = CRITICAL RISK",
			"Unclear compliance responsibilities = MEDIUM RISK",
			"Comprehensive compliance coverage = LOW RISK",
		},
	},
	{
		key:     "warranties",
		subject: "warranties and service level agreements",
		section: "the warranties section",
		focus: []string{
			"Service warranties and periods",
			"Performance standards and SLAs",
			"Availability SLAs",
			"Response and resolution time SLAs",
			"Warranty disclaimers",
		},
		factors: []string{
			"Missing SLAs = HIGH RISK",
			"No availability SLA = HIGH RISK",
			"Response time SLA > 24 hours = MEDIUM RISK",
			"No warranty period specified = MEDIUM RISK",
			"Overly broad warranty disclaimers = MEDIUM RISK",
			"Comprehensive SLAs with clear metrics = LOW RISK",
			"No performance standards = HIGH RISK",
		},
	},
	{
		key:     "termination",
		subject: "termination provisions",
		section: "the termination section",
		focus: []string{
			"Termination for convenience rights",
			"Notice periods",
			"Cure periods",
			"Termination for cause grounds",
			"Survival clauses",
		},
		factors: []string{
			"No termination for convenience = HIGH RISK",
			"Notice period < 30 days = MEDIUM RISK",
			"Cure period < 30 days = MEDIUM RISK",
			"Unclear termination grounds = MEDIUM RISK",
			"Missing survival clauses = HIGH RISK",
			"One-sided termination rights = HIGH RISK",
			"Clear mutual termination rights = LOW RISK",
		},
	},
	{
		key:     "dispute_resolution",
		subject: "dispute resolution mechanisms",
		section: "the dispute resolution section",
		focus: []string{
			"Dispute resolution method (litigation, arbitration, mediation)",
			"Arbitration rules (AAA, JAMS, ICC, etc.)",
			"Venue and jurisdiction",
			"Escalation process",
			"Attorneys fees provisions",
		},
		factors: []string{
			"Litigation in unfavorable jurisdiction = HIGH RISK",
			"No escalation process = MEDIUM RISK",
			"Unclear arbitration rules = MEDIUM RISK",
			`"Each party bears own fees" = MEDIUM RISK`,
			"No venue specified = HIGH RISK",
			"Arbitration with clear rules = LOW-MEDIUM RISK",
			"Prevailing party gets fees = LOW RISK",
		},
	},
	{
		key:     "confidentiality",
		subject: "confidentiality and non-disclosure provisions",
		section: "the confidentiality section",
		focus: []string{
			"Mutual vs one-sided NDA",
			"Confidentiality period",
			"Exceptions to confidentiality",
			"Return/destruction requirements",
		},
		factors: []string{
			"One-sided confidentiality = HIGH RISK",
			"No confidentiality period specified = MEDIUM RISK",
			"Confidentiality period < 2 years = MEDIUM RISK",
			"Missing standard exceptions = MEDIUM RISK",
			"No return/destruction requirements = MEDIUM RISK",
			"Mutual NDA with proper exceptions = LOW RISK",
		},
	},
	{
		key:     "insurance",
		subject: "insurance requirements",
		section: "the insurance section",
		focus: []string{
			"General liability insurance",
			"Professional liability/E&O insurance",
			"Cyber liability insurance",
			"Workers compensation",
			"Coverage amounts",
		},
		factors: []string{
			"Missing general liability = HIGH RISK",
			"Missing professional liability = HIGH RISK",
			"Coverage < $1M = MEDIUM RISK",
			"Missing cyber liability = MEDIUM-HIGH RISK",
			"No workers comp = HIGH RISK",
			"Comprehensive coverage with adequate amounts = LOW RISK",
		},
	},
}

// ClauseKeys returns the keys of the built-in clause prompts in assessment
// order.
func ClauseKeys() []string {
	keys := make([]string, len(clauses))
	for i, c := range clauses {
		keys[i] = c.key
	}
	return keys
}

func (c clause) render() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are an expert contract risk assessor specializing in %s.\n\n", c.subject)
	fmt.Fprintf(&sb, "Analyze %s and assess compliance risk based on:\n", c.section)
	for i, f := range c.focus {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, f)
	}
	sb.WriteString("\nRISK FACTORS TO CONSIDER:\n")
	for _, f := range c.factors {
		sb.WriteString("- " + f + "\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func clauseTemplate(instructions string) string {
	if strings.TrimSpace(instructions) == "" {
		return ""
	}
	return instructions + "\n\n" + assessSpec
}
