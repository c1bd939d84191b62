package model

import "time"

// Transfer statuses. Delivered is terminal: a record never leaves it.
// InFlight falls back to Pending on a failed attempt and never skips
// straight to Delivered.
const (
	TransferPending   = "pending"
	TransferInFlight  = "in_flight"
	TransferDelivered = "delivered"
	TransferFailed    = "failed"
)

// TransferRecord tracks delivery of one document's output from the
// processor to the advisor.
type TransferRecord struct {
	DocumentID  string    `json:"document_id"`
	Status      string    `json:"status"`
	Attempts    int       `json:"attempts"`
	LastAttempt time.Time `json:"last_attempt,omitempty"`
}

// TransferPayload is the message handed across the service boundary. Both
// push and pull delivery converge on this contract.
type TransferPayload struct {
	DocumentID string       `json:"document_id"`
	RiskScore  float64      `json:"risk_score"`
	Clauses    []Clause     `json:"clauses"`
	AuditTrail []AuditEntry `json:"audit_trail,omitempty"`
}
