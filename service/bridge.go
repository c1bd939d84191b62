package service

import (
	"context"
	"sync"
	"time"

	"github.com/Anshul-ydv/Legal-document-agentic-assistant/config"
	"github.com/Anshul-ydv/Legal-document-agentic-assistant/model"
	"github.com/Anshul-ydv/Legal-document-agentic-assistant/pkg/logger"
)

// TransferStore holds bridge state. Transition is a single conditional
// update and is the sole serialization point between concurrent push and
// pull delivery of the same document; no lock is held across network calls.
type TransferStore interface {
	// Ensure creates a pending record for the document if none exists.
	Ensure(documentID string) error
	GetTransfer(documentID string) (*model.TransferRecord, error)
	// Transition atomically moves a record from one status to another,
	// reporting whether this caller won the transition.
	Transition(documentID, from, to string) (bool, error)
	RecordAttempt(documentID string) error
}

// MemoryTransferStore is the in-memory TransferStore.
type MemoryTransferStore struct {
	mu      sync.Mutex
	records map[string]*model.TransferRecord
}

// NewMemoryTransferStore creates an empty transfer store.
func NewMemoryTransferStore() *MemoryTransferStore {
	return &MemoryTransferStore{records: make(map[string]*model.TransferRecord)}
}

func (s *MemoryTransferStore) Ensure(documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[documentID]; !ok {
		s.records[documentID] = &model.TransferRecord{
			DocumentID: documentID,
			Status:     model.TransferPending,
		}
	}
	return nil
}

func (s *MemoryTransferStore) GetTransfer(documentID string) (*model.TransferRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[documentID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryTransferStore) Transition(documentID, from, to string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[documentID]
	if !ok || rec.Status != from {
		return false, nil
	}
	rec.Status = to
	rec.LastAttempt = time.Now()
	return true, nil
}

func (s *MemoryTransferStore) RecordAttempt(documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[documentID]; ok {
		rec.Attempts++
		rec.LastAttempt = time.Now()
	}
	return nil
}

// AdvisorIntake is Pipeline B's intake operation. Both push and pull
// delivery converge on it; it must treat repeated delivery of the same
// document id as a no-op.
type AdvisorIntake interface {
	GenerateSuggestions(ctx context.Context, payload model.TransferPayload) error
}

// Bridge moves finished Pipeline A output to Pipeline B, at least once.
type Bridge struct {
	store     DocumentStore
	audit     AuditLog
	transfers TransferStore
	intake    AdvisorIntake
	cfg       config.BridgeConfig
}

// NewBridge wires the bridge.
func NewBridge(store DocumentStore, audit AuditLog, transfers TransferStore, intake AdvisorIntake, cfg config.BridgeConfig) *Bridge {
	return &Bridge{store: store, audit: audit, transfers: transfers, intake: intake, cfg: cfg}
}

// Payload assembles the transfer message for one document.
func (b *Bridge) Payload(documentID string) (model.TransferPayload, error) {
	doc, err := b.store.GetDocument(documentID)
	if err != nil {
		return model.TransferPayload{}, err
	}
	clauses, err := b.store.GetClauses(documentID)
	if err != nil {
		return model.TransferPayload{}, err
	}
	trail, err := b.audit.Entries(documentID)
	if err != nil {
		return model.TransferPayload{}, err
	}
	return model.TransferPayload{
		DocumentID: documentID,
		RiskScore:  doc.RiskScore,
		Clauses:    clauses,
		AuditTrail: trail,
	}, nil
}

// Deliver pushes one document to the advisor, retrying with exponential
// backoff up to the configured budget. A record already delivered, or
// claimed by a concurrent deliverer, is left alone.
func (b *Bridge) Deliver(ctx context.Context, documentID string) error {
	ctx = logger.WithDocument(ctx, documentID)

	if err := b.transfers.Ensure(documentID); err != nil {
		return err
	}

	maxAttempts := b.cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		claimed, err := b.transfers.Transition(documentID, model.TransferPending, model.TransferInFlight)
		if err != nil {
			return err
		}
		if !claimed {
			// Delivered already, or another deliverer holds the claim.
			return nil
		}

		if err := b.transfers.RecordAttempt(documentID); err != nil {
			return err
		}

		payload, err := b.Payload(documentID)
		if err == nil {
			err = b.intake.GenerateSuggestions(ctx, payload)
		}

		if err == nil {
			if _, err := b.transfers.Transition(documentID, model.TransferInFlight, model.TransferDelivered); err != nil {
				return err
			}
			logger.Info(ctx, "document delivered to advisor", "attempt", attempt)
			return nil
		}

		lastErr = err
		logger.Warn(ctx, "delivery attempt failed",
			"attempt", attempt, "max_attempts", maxAttempts, "error", err)
		b.auditError(documentID, map[string]any{
			"attempt":      attempt,
			"max_attempts": maxAttempts,
			"error":        err.Error(),
		})

		if attempt == maxAttempts {
			if _, err := b.transfers.Transition(documentID, model.TransferInFlight, model.TransferFailed); err != nil {
				return err
			}
			b.auditError(documentID, map[string]any{
				"event":    "transfer_failed",
				"attempts": maxAttempts,
				"error":    lastErr.Error(),
			})
			break
		}

		if _, err := b.transfers.Transition(documentID, model.TransferInFlight, model.TransferPending); err != nil {
			return err
		}

		backoff := time.Duration(b.cfg.BackoffSeconds) * time.Second * (1 << (attempt - 1))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return &TransferFailure{DocumentID: documentID, Attempts: maxAttempts, Err: lastErr}
}

func (b *Bridge) auditError(documentID string, summary map[string]any) {
	if _, err := b.audit.Append(model.AuditEntry{
		DocumentID: documentID,
		Actor:      "transfer",
		Status:     model.AuditError,
		Summary:    summary,
	}); err != nil {
		logger.Error(context.Background(), "audit append failed", "document_id", documentID, "error", err)
	}
}

// PollBatch returns a bounded batch of documents that finished risk
// assessment and are still awaiting transfer. Returned documents are
// claimed (in_flight) and stay undelivered until Acknowledge.
func (b *Bridge) PollBatch(limit int) ([]model.TransferPayload, error) {
	if limit <= 0 || limit > b.cfg.BatchSize {
		limit = b.cfg.BatchSize
	}

	docs, err := b.store.ListByStatus(model.StatusRiskAssessed, 0)
	if err != nil {
		return nil, err
	}

	var batch []model.TransferPayload
	for _, doc := range docs {
		if len(batch) >= limit {
			break
		}
		if err := b.transfers.Ensure(doc.ID); err != nil {
			return nil, err
		}
		claimed, err := b.transfers.Transition(doc.ID, model.TransferPending, model.TransferInFlight)
		if err != nil {
			return nil, err
		}
		if !claimed {
			continue
		}
		payload, err := b.Payload(doc.ID)
		if err != nil {
			return nil, err
		}
		batch = append(batch, payload)
	}
	return batch, nil
}

// Acknowledge marks a polled document as delivered.
func (b *Bridge) Acknowledge(documentID string) error {
	ok, err := b.transfers.Transition(documentID, model.TransferInFlight, model.TransferDelivered)
	if err != nil {
		return err
	}
	if !ok {
		// Already delivered (or never claimed); acknowledgement of a
		// repeated delivery is a no-op.
		rec, err := b.transfers.GetTransfer(documentID)
		if err != nil {
			return err
		}
		if rec.Status == model.TransferDelivered {
			return nil
		}
	}
	return nil
}

// Requeue releases a stale claim so the document can be polled again.
func (b *Bridge) Requeue(documentID string) error {
	_, err := b.transfers.Transition(documentID, model.TransferInFlight, model.TransferPending)
	return err
}
