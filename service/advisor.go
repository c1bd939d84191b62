package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Anshul-ydv/Legal-document-agentic-assistant/config"
	"github.com/Anshul-ydv/Legal-document-agentic-assistant/model"
	"github.com/Anshul-ydv/Legal-document-agentic-assistant/pkg/logger"
)

// Advisor stage names for the audit trail.
const (
	StageSuggestions = "suggestion_generation"
	StageReport      = "report_synthesis"
)

// Advisor is the compliance advisory pipeline. It receives finished analysis
// payloads, drafts replacement language for risky clauses and synthesizes the
// final report. Intake is idempotent per document id so at-least-once
// delivery from the bridge is safe.
type Advisor struct {
	store      DocumentStore
	audit      AuditLog
	suggester  *SuggestionGenerator
	reporter   *ReportSynthesizer
	riskConfig config.RiskConfig
}

func NewAdvisor(store DocumentStore, audit AuditLog, suggester *SuggestionGenerator, reporter *ReportSynthesizer, riskConfig config.RiskConfig) *Advisor {
	return &Advisor{
		store:      store,
		audit:      audit,
		suggester:  suggester,
		reporter:   reporter,
		riskConfig: riskConfig,
	}
}

// GenerateSuggestions is the advisor's intake operation. Redelivery of a
// payload whose report already exists is a no-op; a payload that previously
// got partway through resumes from where it stopped.
func (a *Advisor) GenerateSuggestions(ctx context.Context, payload model.TransferPayload) error {
	ctx = logger.WithDocument(ctx, payload.DocumentID)

	if _, err := a.store.GetReport(payload.DocumentID); err == nil {
		logger.Debug(ctx, "intake replay ignored, report exists")
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	doc, err := a.store.GetDocument(payload.DocumentID)
	if errors.Is(err, ErrNotFound) {
		doc = &model.Document{
			ID:        payload.DocumentID,
			Status:    model.StatusRiskAssessed,
			RiskScore: payload.RiskScore,
			CreatedAt: time.Now().UTC(),
		}
		if err := a.store.SaveDocument(doc); err != nil {
			return err
		}
		if err := a.store.SaveClauses(payload.DocumentID, payload.Clauses); err != nil {
			return err
		}
		a.auditOK(payload.DocumentID, "payload_received", map[string]any{
			"clause_count": len(payload.Clauses),
			"risk_score":   payload.RiskScore,
		}, 0)
	} else if err != nil {
		return err
	}

	if doc.Status == model.StatusRiskAssessed {
		if err := a.runSuggestions(ctx, doc, payload.Clauses); err != nil {
			return err
		}
	}
	if doc.Status == model.StatusSuggestionsGenerated {
		if err := a.runReport(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

func (a *Advisor) runSuggestions(ctx context.Context, doc *model.Document, clauses []model.Clause) error {
	started := time.Now()

	if len(clauses) == 0 {
		stored, err := a.store.GetClauses(doc.ID)
		if err != nil {
			return err
		}
		clauses = stored
	}

	var suggestions []model.Suggestion
	for _, clause := range clauses {
		if !a.suggester.Eligible(clause) {
			continue
		}
		s, err := a.suggester.Suggest(ctx, clause)
		if err != nil {
			a.auditError(doc.ID, StageSuggestions, map[string]any{
				"clause_index": clause.Index,
				"error":        err.Error(),
			}, time.Since(started).Milliseconds())
			return fmt.Errorf("suggest clause %d: %w", clause.Index, err)
		}
		suggestions = append(suggestions, s)
	}

	if err := a.store.SaveSuggestions(doc.ID, suggestions); err != nil {
		return err
	}
	a.auditOK(doc.ID, StageSuggestions, map[string]any{
		"suggestion_count": len(suggestions),
	}, time.Since(started).Milliseconds())

	advanced, err := a.store.AdvanceStatus(doc.ID, model.StatusRiskAssessed, model.StatusSuggestionsGenerated)
	if err != nil {
		return err
	}
	if advanced {
		doc.Status = model.StatusSuggestionsGenerated
	} else {
		refreshed, err := a.store.GetDocument(doc.ID)
		if err != nil {
			return err
		}
		*doc = *refreshed
	}
	return nil
}

func (a *Advisor) runReport(ctx context.Context, doc *model.Document) error {
	started := time.Now()

	clauses, err := a.store.GetClauses(doc.ID)
	if err != nil {
		return err
	}
	suggestions, err := a.store.GetSuggestions(doc.ID)
	if err != nil {
		return err
	}
	trail, err := a.audit.Entries(doc.ID)
	if err != nil {
		return err
	}

	report := a.reporter.Synthesize(doc.ID, clauses, suggestions, trail)
	if err := a.store.SaveReport(&report); err != nil {
		return err
	}
	a.auditOK(doc.ID, StageReport, map[string]any{
		"status":     report.Status,
		"risk_score": report.Summary.RiskScore,
	}, time.Since(started).Milliseconds())

	if _, err := a.store.AdvanceStatus(doc.ID, model.StatusSuggestionsGenerated, model.StatusReported); err != nil {
		return err
	}
	doc.Status = model.StatusReported
	logger.Info(ctx, "report ready", "status", report.Status)
	return nil
}

// GetReport returns the stored report for a document.
func (a *Advisor) GetReport(documentID string) (*model.Report, error) {
	return a.store.GetReport(documentID)
}

func (a *Advisor) auditOK(documentID, actor string, summary map[string]any, durationMS int64) {
	if _, err := a.audit.Append(model.AuditEntry{
		DocumentID: documentID,
		Actor:      actor,
		Status:     model.AuditOK,
		Summary:    summary,
		DurationMS: durationMS,
	}); err != nil {
		logger.Error(context.Background(), "audit append failed", "document_id", documentID, "error", err)
	}
}

func (a *Advisor) auditError(documentID, actor string, summary map[string]any, durationMS int64) {
	if _, err := a.audit.Append(model.AuditEntry{
		DocumentID: documentID,
		Actor:      actor,
		Status:     model.AuditError,
		Summary:    summary,
		DurationMS: durationMS,
	}); err != nil {
		logger.Error(context.Background(), "audit append failed", "document_id", documentID, "error", err)
	}
}
