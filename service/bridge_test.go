package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Anshul-ydv/Legal-document-agentic-assistant/model"
)

func newTestBridge(intake AdvisorIntake) (*Bridge, *MemoryStore, *MemoryTransferStore) {
	store := NewMemoryStore(nil)
	audit := NewMemoryAuditLog()
	transfers := NewMemoryTransferStore()
	bridge := NewBridge(store, audit, transfers, intake, testBridgeConfig())
	return bridge, store, transfers
}

func seedAssessedDocument(store *MemoryStore, id string) {
	store.SaveDocument(&model.Document{ID: id, Status: model.StatusRiskAssessed, RiskScore: 5.5})
	store.SaveClauses(id, []model.Clause{
		{DocumentID: id, Index: 0, Type: model.ClauseLiability, Text: "Unlimited.", RiskLevel: model.RiskHigh, RiskRationale: "Uncapped."},
	})
}

func TestBridgeDeliverSuccess(t *testing.T) {
	intake := &fakeIntake{}
	bridge, store, transfers := newTestBridge(intake)
	seedAssessedDocument(store, "doc-1")

	if err := bridge.Deliver(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}

	rec, _ := transfers.GetTransfer("doc-1")
	if rec.Status != model.TransferDelivered {
		t.Errorf("Expected delivered, got %s", rec.Status)
	}
	if rec.Attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", rec.Attempts)
	}
	if len(intake.payloads) != 1 {
		t.Fatalf("Expected 1 delivered payload, got %d", len(intake.payloads))
	}
	payload := intake.payloads[0]
	if payload.DocumentID != "doc-1" || payload.RiskScore != 5.5 || len(payload.Clauses) != 1 {
		t.Errorf("Unexpected payload: %+v", payload)
	}
}

func TestBridgeDeliveredIsTerminal(t *testing.T) {
	intake := &fakeIntake{}
	bridge, store, transfers := newTestBridge(intake)
	seedAssessedDocument(store, "doc-1")

	if err := bridge.Deliver(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	// Redelivery of a delivered record is a no-op, not a new attempt.
	if err := bridge.Deliver(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Second Deliver failed: %v", err)
	}

	rec, _ := transfers.GetTransfer("doc-1")
	if rec.Status != model.TransferDelivered {
		t.Errorf("Expected delivered to stay terminal, got %s", rec.Status)
	}
	if intake.callCount() != 1 {
		t.Errorf("Expected 1 intake call, got %d", intake.callCount())
	}
}

func TestBridgeRetriesThenSucceeds(t *testing.T) {
	intake := &fakeIntake{failFirst: 2, failWith: fmt.Errorf("advisor unavailable")}
	bridge, store, transfers := newTestBridge(intake)
	seedAssessedDocument(store, "doc-1")

	if err := bridge.Deliver(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}

	rec, _ := transfers.GetTransfer("doc-1")
	if rec.Status != model.TransferDelivered {
		t.Errorf("Expected delivered after retries, got %s", rec.Status)
	}
	if rec.Attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", rec.Attempts)
	}
}

func TestBridgeExhaustionMarksFailed(t *testing.T) {
	intake := &fakeIntake{failFirst: 10, failWith: fmt.Errorf("advisor down")}
	bridge, store, transfers := newTestBridge(intake)
	seedAssessedDocument(store, "doc-1")

	err := bridge.Deliver(context.Background(), "doc-1")
	var tf *TransferFailure
	if !errors.As(err, &tf) {
		t.Fatalf("Expected TransferFailure, got %v", err)
	}
	if tf.Attempts != 3 {
		t.Errorf("Expected 3 attempts in failure, got %d", tf.Attempts)
	}

	rec, _ := transfers.GetTransfer("doc-1")
	if rec.Status != model.TransferFailed {
		t.Errorf("Expected failed transfer, got %s", rec.Status)
	}

	// Delivery failure never corrupts the processor's document state.
	doc, _ := store.GetDocument("doc-1")
	if doc.Status != model.StatusRiskAssessed {
		t.Errorf("Expected document untouched at risk_assessed, got %s", doc.Status)
	}
}

func TestBridgeAuditsFailedDelivery(t *testing.T) {
	intake := &fakeIntake{failFirst: 10, failWith: fmt.Errorf("advisor down")}
	store := NewMemoryStore(nil)
	audit := NewMemoryAuditLog()
	transfers := NewMemoryTransferStore()
	bridge := NewBridge(store, audit, transfers, intake, testBridgeConfig())
	seedAssessedDocument(store, "doc-1")

	err := bridge.Deliver(context.Background(), "doc-1")
	var tf *TransferFailure
	if !errors.As(err, &tf) {
		t.Fatalf("Expected TransferFailure, got %v", err)
	}

	entries, _ := audit.Entries("doc-1")
	// One error entry per failed attempt plus one exhaustion entry.
	if len(entries) != 4 {
		t.Fatalf("Expected 4 audit entries, got %d", len(entries))
	}
	for i := 0; i < 3; i++ {
		entry := entries[i]
		if entry.Actor != "transfer" || entry.Status != model.AuditError {
			t.Errorf("Entry %d: expected transfer error entry, got actor=%s status=%s", i, entry.Actor, entry.Status)
		}
		if entry.Summary["attempt"] != i+1 {
			t.Errorf("Entry %d: expected attempt %d, got %v", i, i+1, entry.Summary["attempt"])
		}
		if entry.Summary["error"] != "advisor down" {
			t.Errorf("Entry %d: expected error message, got %v", i, entry.Summary["error"])
		}
	}
	final := entries[3]
	if final.Summary["event"] != "transfer_failed" {
		t.Errorf("Expected transfer_failed event, got %v", final.Summary["event"])
	}
	if final.Summary["attempts"] != 3 {
		t.Errorf("Expected 3 attempts in final entry, got %v", final.Summary["attempts"])
	}
}

func TestBridgePollBatch(t *testing.T) {
	bridge, store, transfers := newTestBridge(nil)
	for i := 0; i < 5; i++ {
		seedAssessedDocument(store, fmt.Sprintf("doc-%d", i))
	}

	batch, err := bridge.PollBatch(3)
	if err != nil {
		t.Fatalf("PollBatch failed: %v", err)
	}
	if len(batch) != 3 {
		t.Fatalf("Expected batch of 3, got %d", len(batch))
	}

	// Claimed documents are in flight and not re-polled.
	for _, p := range batch {
		rec, _ := transfers.GetTransfer(p.DocumentID)
		if rec.Status != model.TransferInFlight {
			t.Errorf("Expected in_flight for %s, got %s", p.DocumentID, rec.Status)
		}
	}

	rest, err := bridge.PollBatch(10)
	if err != nil {
		t.Fatalf("Second PollBatch failed: %v", err)
	}
	if len(rest) != 2 {
		t.Errorf("Expected remaining 2 documents, got %d", len(rest))
	}
}

func TestBridgeAcknowledgeAndRequeue(t *testing.T) {
	bridge, store, transfers := newTestBridge(nil)
	seedAssessedDocument(store, "doc-1")
	seedAssessedDocument(store, "doc-2")

	if _, err := bridge.PollBatch(10); err != nil {
		t.Fatalf("PollBatch failed: %v", err)
	}

	if err := bridge.Acknowledge("doc-1"); err != nil {
		t.Fatalf("Acknowledge failed: %v", err)
	}
	rec, _ := transfers.GetTransfer("doc-1")
	if rec.Status != model.TransferDelivered {
		t.Errorf("Expected delivered, got %s", rec.Status)
	}

	// Acknowledging an already delivered transfer is a no-op.
	if err := bridge.Acknowledge("doc-1"); err != nil {
		t.Errorf("Repeat Acknowledge should be a no-op, got %v", err)
	}

	if err := bridge.Requeue("doc-2"); err != nil {
		t.Fatalf("Requeue failed: %v", err)
	}
	rec2, _ := transfers.GetTransfer("doc-2")
	if rec2.Status != model.TransferPending {
		t.Errorf("Expected pending after requeue, got %s", rec2.Status)
	}

	// The requeued document is pollable again.
	batch, _ := bridge.PollBatch(10)
	if len(batch) != 1 || batch[0].DocumentID != "doc-2" {
		t.Errorf("Expected doc-2 to be re-polled, got %+v", batch)
	}
}

func TestBridgePayloadIncludesAuditTrail(t *testing.T) {
	store := NewMemoryStore(nil)
	audit := NewMemoryAuditLog()
	transfers := NewMemoryTransferStore()
	bridge := NewBridge(store, audit, transfers, &fakeIntake{}, testBridgeConfig())

	seedAssessedDocument(store, "doc-1")
	audit.Append(model.AuditEntry{DocumentID: "doc-1", Actor: StageExtraction, Status: model.AuditOK})
	audit.Append(model.AuditEntry{DocumentID: "doc-1", Actor: StageRisk, Status: model.AuditOK})

	payload, err := bridge.Payload("doc-1")
	if err != nil {
		t.Fatalf("Payload failed: %v", err)
	}
	if len(payload.AuditTrail) != 2 {
		t.Errorf("Expected 2 audit entries in payload, got %d", len(payload.AuditTrail))
	}
}
