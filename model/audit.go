package model

import "time"

// Audit entry statuses.
const (
	AuditOK    = "ok"
	AuditError = "error"
)

// AuditEntry is one immutable record of a pipeline step. Seq is assigned by
// the audit store and forms a gap-free strictly increasing sequence per
// document; entries are never edited or deleted.
type AuditEntry struct {
	DocumentID string         `json:"document_id"`
	Seq        int64          `json:"seq"`
	Actor      string         `json:"actor"`
	Timestamp  time.Time      `json:"timestamp"`
	Status     string         `json:"status"`
	Summary    map[string]any `json:"summary,omitempty"`
	DurationMS int64          `json:"duration_ms"`
}
