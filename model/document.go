package model

import (
	"time"
)

// Document represents one legal document moving through the pipeline.
type Document struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Tenant     string    `json:"tenant"`
	SourceURL  string    `json:"source_url,omitempty"`
	Text       string    `json:"text,omitempty"`
	PageCount  int       `json:"page_count"`
	Complexity float64   `json:"complexity"`
	Tier       Tier      `json:"tier,omitempty"`
	Status     string    `json:"status"`
	RiskScore  float64   `json:"risk_score"`
	ErrorMsg   string    `json:"error_msg,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Document lifecycle states. Status only ever advances in this order,
// or drops to StatusFailed.
const (
	StatusReceived             = "received"
	StatusExtracted            = "extracted"
	StatusClausesIdentified    = "clauses_identified"
	StatusRiskAssessed         = "risk_assessed"
	StatusSuggestionsGenerated = "suggestions_generated"
	StatusReported             = "reported"
	StatusFailed               = "failed"
)

// Tier selects which inference configuration a stage uses.
type Tier string

const (
	TierFast Tier = "fast"
	TierDeep Tier = "deep"
)

// DocumentResult is the document-scoped result object exposed by Pipeline A.
type DocumentResult struct {
	Document *Document `json:"document"`
	Clauses  []Clause  `json:"clauses"`
}
