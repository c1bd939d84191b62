package service

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Anshul-ydv/Legal-document-agentic-assistant/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreDocumentRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)

	doc := &model.Document{
		ID:        "doc-1",
		Filename:  "contract.pdf",
		Status:    model.StatusReceived,
		PageCount: 4,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := store.SaveDocument(doc); err != nil {
		t.Fatalf("Failed to save document: %v", err)
	}

	got, err := store.GetDocument("doc-1")
	if err != nil {
		t.Fatalf("Failed to load document: %v", err)
	}
	if got.Filename != "contract.pdf" {
		t.Errorf("Expected filename contract.pdf, got %s", got.Filename)
	}
	if got.Status != model.StatusReceived {
		t.Errorf("Expected status received, got %s", got.Status)
	}

	if _, err := store.GetDocument("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStoreAdvanceStatus(t *testing.T) {
	store := newTestSQLiteStore(t)

	doc := &model.Document{ID: "doc-1", Status: model.StatusReceived}
	if err := store.SaveDocument(doc); err != nil {
		t.Fatalf("Failed to save document: %v", err)
	}

	ok, err := store.AdvanceStatus("doc-1", model.StatusReceived, model.StatusExtracted)
	if err != nil || !ok {
		t.Fatalf("Expected advance to succeed, ok=%v err=%v", ok, err)
	}

	ok, err = store.AdvanceStatus("doc-1", model.StatusReceived, model.StatusExtracted)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ok {
		t.Error("Expected stale advance to lose")
	}

	got, _ := store.GetDocument("doc-1")
	if got.Status != model.StatusExtracted {
		t.Errorf("Expected status extracted, got %s", got.Status)
	}

	if _, err := store.AdvanceStatus("missing", model.StatusReceived, model.StatusExtracted); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStoreAuditSequence(t *testing.T) {
	store := newTestSQLiteStore(t)

	for i := 0; i < 5; i++ {
		seq, err := store.Append(model.AuditEntry{
			DocumentID: "doc-1",
			Actor:      "clause_extraction",
			Status:     model.AuditOK,
			Timestamp:  time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("Failed to append entry %d: %v", i, err)
		}
		if seq != int64(i+1) {
			t.Errorf("Expected seq %d, got %d", i+1, seq)
		}
	}

	// A second document gets its own sequence.
	seq, err := store.Append(model.AuditEntry{
		DocumentID: "doc-2",
		Actor:      "text_extraction",
		Status:     model.AuditOK,
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Failed to append: %v", err)
	}
	if seq != 1 {
		t.Errorf("Expected seq 1 for second document, got %d", seq)
	}

	entries, err := store.Entries("doc-1")
	if err != nil {
		t.Fatalf("Failed to load entries: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("Expected 5 entries, got %d", len(entries))
	}
	for i, entry := range entries {
		if entry.Seq != int64(i+1) {
			t.Errorf("Expected seq %d at position %d, got %d", i+1, i, entry.Seq)
		}
	}
}

func TestSQLiteStoreClausesAndReport(t *testing.T) {
	store := newTestSQLiteStore(t)

	clauses := []model.Clause{
		{DocumentID: "doc-1", Index: 0, Type: model.ClauseLiability, Text: "Liability is unlimited.", RiskLevel: model.RiskHigh},
		{DocumentID: "doc-1", Index: 1, Type: model.ClausePayment, Text: "Net thirty days.", RiskLevel: model.RiskLow},
	}
	if err := store.SaveClauses("doc-1", clauses); err != nil {
		t.Fatalf("Failed to save clauses: %v", err)
	}

	got, err := store.GetClauses("doc-1")
	if err != nil {
		t.Fatalf("Failed to load clauses: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 clauses, got %d", len(got))
	}
	if got[0].Type != model.ClauseLiability {
		t.Errorf("Expected liability clause first, got %s", got[0].Type)
	}

	if _, err := store.GetReport("doc-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound before report save, got %v", err)
	}

	report := &model.Report{
		DocumentID:  "doc-1",
		Status:      model.ComplianceNeedsReview,
		GeneratedAt: time.Now().UTC(),
	}
	if err := store.SaveReport(report); err != nil {
		t.Fatalf("Failed to save report: %v", err)
	}

	loaded, err := store.GetReport("doc-1")
	if err != nil {
		t.Fatalf("Failed to load report: %v", err)
	}
	if loaded.Status != model.ComplianceNeedsReview {
		t.Errorf("Expected NEEDS_REVIEW, got %s", loaded.Status)
	}
}

func TestSQLiteStoreTransferLifecycle(t *testing.T) {
	store := newTestSQLiteStore(t)

	if err := store.Ensure("doc-1"); err != nil {
		t.Fatalf("Failed to ensure transfer: %v", err)
	}
	// Ensure is idempotent.
	if err := store.Ensure("doc-1"); err != nil {
		t.Fatalf("Second ensure failed: %v", err)
	}

	rec, err := store.GetTransfer("doc-1")
	if err != nil {
		t.Fatalf("Failed to load transfer: %v", err)
	}
	if rec.Status != model.TransferPending {
		t.Errorf("Expected pending, got %s", rec.Status)
	}
	if rec.Attempts != 0 {
		t.Errorf("Expected 0 attempts, got %d", rec.Attempts)
	}

	ok, err := store.Transition("doc-1", model.TransferPending, model.TransferInFlight)
	if err != nil || !ok {
		t.Fatalf("Expected claim to succeed, ok=%v err=%v", ok, err)
	}
	ok, _ = store.Transition("doc-1", model.TransferPending, model.TransferInFlight)
	if ok {
		t.Error("Expected second claim to lose")
	}

	if err := store.RecordAttempt("doc-1"); err != nil {
		t.Fatalf("Failed to record attempt: %v", err)
	}

	ok, err = store.Transition("doc-1", model.TransferInFlight, model.TransferDelivered)
	if err != nil || !ok {
		t.Fatalf("Expected delivery transition, ok=%v err=%v", ok, err)
	}

	rec, _ = store.GetTransfer("doc-1")
	if rec.Status != model.TransferDelivered {
		t.Errorf("Expected delivered, got %s", rec.Status)
	}
	if rec.Attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", rec.Attempts)
	}

	if _, err := store.GetTransfer("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
