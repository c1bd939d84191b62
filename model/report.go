package model

import "time"

// Compliance statuses for a finished report.
const (
	ComplianceOK          = "COMPLIANT"
	ComplianceNeedsReview = "NEEDS_REVIEW"
)

// ReportSummary is the executive summary block of a report.
type ReportSummary struct {
	ClauseCount     int     `json:"clause_count"`
	HighRiskCount   int     `json:"high_risk_count"`
	SuggestionCount int     `json:"suggestion_count"`
	RiskScore       float64 `json:"risk_score"`
}

// ReportRow is one line of the per-clause table.
type ReportRow struct {
	ClauseIndex   int    `json:"clause_index"`
	Type          string `json:"type"`
	RiskLevel     string `json:"risk_level"`
	RiskRationale string `json:"risk_rationale"`
	Suggested     bool   `json:"suggested"`
}

// RecommendedAction is one prioritized action item. Actions are ordered
// high before medium before low, and by clause index within a risk level.
type RecommendedAction struct {
	ClauseIndex int    `json:"clause_index"`
	RiskLevel   string `json:"risk_level"`
	Action      string `json:"action"`
}

// Report aggregates suggestions, risk scores and the audit trail for one
// document. Identical inputs always synthesize an identical report apart
// from GeneratedAt.
type Report struct {
	DocumentID         string              `json:"document_id"`
	Summary            ReportSummary       `json:"summary"`
	Status             string              `json:"status"`
	Rows               []ReportRow         `json:"rows"`
	Suggestions        []Suggestion        `json:"suggestions"`
	RecommendedActions []RecommendedAction `json:"recommended_actions"`
	AuditEntryCount    int                 `json:"audit_entry_count"`
	GeneratedAt        time.Time           `json:"generated_at"`
}
