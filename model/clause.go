package model

// Clause is a single extracted legal provision. Index is the stable position
// of the clause in its document; for a document with n clauses the indices
// are exactly 0..n-1.
type Clause struct {
	DocumentID    string `json:"document_id"`
	Index         int    `json:"index"`
	Text          string `json:"text"`
	Type          string `json:"type"`
	RiskLevel     string `json:"risk_level,omitempty"`
	RiskRationale string `json:"risk_rationale,omitempty"`
}

// Clause type labels. Anything the extractor cannot classify into a known
// label is rejected as a parse failure rather than silently relabeled.
const (
	ClauseIndemnification = "indemnification"
	ClauseTermination     = "termination"
	ClauseConfidentiality = "confidentiality"
	ClauseLiability       = "liability"
	ClausePayment         = "payment"
	ClauseOther           = "other"
)

// Risk levels assigned by the risk assessor.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

var clauseTypes = map[string]bool{
	ClauseIndemnification: true,
	ClauseTermination:     true,
	ClauseConfidentiality: true,
	ClauseLiability:       true,
	ClausePayment:         true,
	ClauseOther:           true,
}

// ValidClauseType reports whether t is one of the fixed clause type labels.
func ValidClauseType(t string) bool {
	return clauseTypes[t]
}

var riskLevels = map[string]bool{
	RiskLow:    true,
	RiskMedium: true,
	RiskHigh:   true,
}

// ValidRiskLevel reports whether level is one of low, medium, high.
func ValidRiskLevel(level string) bool {
	return riskLevels[level]
}
