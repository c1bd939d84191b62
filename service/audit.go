package service

import (
	"sync"
	"time"

	"github.com/Anshul-ydv/Legal-document-agentic-assistant/model"
)

// AuditLog is the append-only record of every pipeline step. The store
// assigns sequence numbers itself so that, per document, they form a
// gap-free strictly increasing sequence under concurrent appends.
type AuditLog interface {
	// Append records one entry and returns the assigned sequence number.
	// The entry's Seq and Timestamp fields are set by the store.
	Append(entry model.AuditEntry) (int64, error)
	// Entries returns all entries for a document in sequence order.
	Entries(documentID string) ([]model.AuditEntry, error)
}

// MemoryAuditLog keeps the audit trail in memory.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries map[string][]model.AuditEntry
	nextSeq map[string]int64
}

// NewMemoryAuditLog creates an empty audit log.
func NewMemoryAuditLog() *MemoryAuditLog {
	return &MemoryAuditLog{
		entries: make(map[string][]model.AuditEntry),
		nextSeq: make(map[string]int64),
	}
}

func (l *MemoryAuditLog) Append(entry model.AuditEntry) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	seq := l.nextSeq[entry.DocumentID] + 1
	l.nextSeq[entry.DocumentID] = seq

	entry.Seq = seq
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	l.entries[entry.DocumentID] = append(l.entries[entry.DocumentID], entry)
	return seq, nil
}

func (l *MemoryAuditLog) Entries(documentID string) ([]model.AuditEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]model.AuditEntry(nil), l.entries[documentID]...), nil
}
