package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Anshul-ydv/Legal-document-agentic-assistant/config"
	"github.com/Anshul-ydv/Legal-document-agentic-assistant/model"
	"github.com/Anshul-ydv/Legal-document-agentic-assistant/pkg/logger"
)

// Pipeline A stage names, as they appear in audit entries and errors.
const (
	StageExtraction = "text_extraction"
	StageClauses    = "clause_extraction"
	StageRisk       = "risk_assessment"
)

// Processor is Pipeline A: text extraction, clause extraction and risk
// assessment, sequenced as an atomic state machine over the document
// lifecycle. Each stage persists its output before the status advances, so
// a crash mid-stage leaves the document re-runnable from its prior state.
type Processor struct {
	store     DocumentStore
	audit     AuditLog
	extractor TextExtractor
	clauses   *ClauseExtractor
	risk      *RiskAssessor
	router    *TierRouter
	transfers TransferStore
	cfg       config.PipelineConfig
}

// NewProcessor wires Pipeline A.
func NewProcessor(
	store DocumentStore,
	audit AuditLog,
	extractor TextExtractor,
	clauses *ClauseExtractor,
	risk *RiskAssessor,
	router *TierRouter,
	transfers TransferStore,
	cfg config.PipelineConfig,
) *Processor {
	return &Processor{
		store:     store,
		audit:     audit,
		extractor: extractor,
		clauses:   clauses,
		risk:      risk,
		router:    router,
		transfers: transfers,
		cfg:       cfg,
	}
}

// Process runs a document through all Pipeline A stages, resuming from the
// last durably recorded state. Resubmitting a document that already reached
// `reported` is a caller error.
func (p *Processor) Process(ctx context.Context, id, source string) (*model.DocumentResult, error) {
	ctx = logger.WithDocument(ctx, id)

	doc, err := p.store.GetDocument(id)
	if errors.Is(err, ErrNotFound) {
		doc = &model.Document{
			ID:        id,
			Filename:  source,
			SourceURL: source,
			Status:    model.StatusReceived,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := p.store.SaveDocument(doc); err != nil {
			return nil, err
		}
		p.auditOK(id, "Processor", map[string]any{"event": "document_received", "source": source}, 0)
	} else if err != nil {
		return nil, err
	}

	switch doc.Status {
	case model.StatusReported:
		return nil, ErrAlreadyReported
	case model.StatusFailed:
		return nil, &ProcessingError{Stage: "intake", Cause: fmt.Errorf("document is failed: %s", doc.ErrorMsg)}
	}

	if doc.Status == model.StatusReceived {
		if err := p.runExtraction(ctx, doc); err != nil {
			return nil, err
		}
	}
	if doc.Status == model.StatusExtracted {
		if err := p.runClauseExtraction(ctx, doc); err != nil {
			return nil, err
		}
	}
	if doc.Status == model.StatusClausesIdentified {
		if err := p.runRiskAssessment(ctx, doc); err != nil {
			return nil, err
		}
	}

	// Finished documents become visible to the bridge.
	if doc.Status == model.StatusRiskAssessed {
		if err := p.transfers.Ensure(id); err != nil {
			return nil, err
		}
	}

	return p.Result(id)
}

// Result returns the document-scoped result object.
func (p *Processor) Result(id string) (*model.DocumentResult, error) {
	doc, err := p.store.GetDocument(id)
	if err != nil {
		return nil, err
	}
	clauses, err := p.store.GetClauses(id)
	if err != nil {
		return nil, err
	}
	return &model.DocumentResult{Document: doc, Clauses: clauses}, nil
}

// ProcessBatch runs several documents concurrently, bounded by the
// configured worker limit. Documents never share mutable state beyond the
// audit log and transfer store.
func (p *Processor) ProcessBatch(ctx context.Context, ids []string, sources []string) error {
	g, ctx := errgroup.WithContext(ctx)
	workers := p.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)

	for i := range ids {
		i := i
		g.Go(func() error {
			_, err := p.Process(ctx, ids[i], sources[i])
			return err
		})
	}
	return g.Wait()
}

func (p *Processor) runExtraction(ctx context.Context, doc *model.Document) error {
	return p.runStage(ctx, doc, StageExtraction, model.StatusReceived, model.StatusExtracted,
		func(ctx context.Context) (map[string]any, error) {
			text, meta, err := p.extractor.Extract(ctx, doc.SourceURL)
			if err != nil {
				return nil, err
			}

			doc.Text = text
			doc.PageCount = meta.PageCount
			doc.Complexity = p.router.Score(text, meta)
			doc.Tier = p.router.Classify(text, meta)
			if err := p.store.SaveDocument(doc); err != nil {
				return nil, err
			}

			return map[string]any{
				"text_length": len(text),
				"page_count":  meta.PageCount,
				"complexity":  doc.Complexity,
				"tier":        string(doc.Tier),
			}, nil
		})
}

func (p *Processor) runClauseExtraction(ctx context.Context, doc *model.Document) error {
	return p.runStage(ctx, doc, StageClauses, model.StatusExtracted, model.StatusClausesIdentified,
		func(ctx context.Context) (map[string]any, error) {
			clauses, err := p.clauses.Extract(ctx, doc.ID, doc.Text, doc.Tier)
			if err != nil {
				return nil, err
			}
			if err := p.store.SaveClauses(doc.ID, clauses); err != nil {
				return nil, err
			}
			return map[string]any{"clause_count": len(clauses)}, nil
		})
}

func (p *Processor) runRiskAssessment(ctx context.Context, doc *model.Document) error {
	return p.runStage(ctx, doc, StageRisk, model.StatusClausesIdentified, model.StatusRiskAssessed,
		func(ctx context.Context) (map[string]any, error) {
			clauses, err := p.store.GetClauses(doc.ID)
			if err != nil {
				return nil, err
			}

			highRisk := 0
			assessed := make([]model.Clause, 0, len(clauses))
			for _, clause := range clauses {
				c, err := p.risk.Assess(ctx, clause, doc.Tier)
				if err != nil {
					return nil, err
				}
				if c.RiskLevel == model.RiskHigh {
					highRisk++
				}
				assessed = append(assessed, c)
			}

			doc.RiskScore = p.risk.AggregateScore(assessed)
			if err := p.store.SaveClauses(doc.ID, assessed); err != nil {
				return nil, err
			}
			if err := p.store.SaveDocument(doc); err != nil {
				return nil, err
			}

			return map[string]any{
				"clause_count":    len(assessed),
				"high_risk_count": highRisk,
				"risk_score":      doc.RiskScore,
			}, nil
		})
}

// runStage executes one stage with the retry budget, audits every attempt
// and advances the document status only after the stage's output is
// durably recorded.
func (p *Processor) runStage(
	ctx context.Context,
	doc *model.Document,
	stage, from, to string,
	fn func(ctx context.Context) (map[string]any, error),
) error {
	budget := p.cfg.RetryBudget
	if budget <= 0 {
		budget = 1
	}

	var lastErr error
	for attempt := 1; attempt <= budget; attempt++ {
		start := time.Now()
		summary, err := fn(ctx)
		if err == nil {
			p.auditOK(doc.ID, stage, summary, time.Since(start).Milliseconds())
			advanced, err := p.store.AdvanceStatus(doc.ID, from, to)
			if err != nil {
				return err
			}
			if advanced {
				doc.Status = to
			} else {
				// Another worker advanced the document first; refresh.
				fresh, err := p.store.GetDocument(doc.ID)
				if err != nil {
					return err
				}
				*doc = *fresh
			}
			return nil
		}

		lastErr = err
		if !IsRetryable(err) {
			break
		}

		p.auditError(doc.ID, stage, map[string]any{
			"attempt": attempt,
			"error":   err.Error(),
		}, time.Since(start).Milliseconds())

		logger.Warn(ctx, "stage attempt failed",
			"stage", stage, "attempt", attempt, "budget", budget, "error", err)

		if attempt < budget {
			backoff := time.Duration(p.cfg.BackoffSeconds) * time.Second * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	procErr := &ProcessingError{Stage: stage, Cause: lastErr}
	p.auditError(doc.ID, stage, map[string]any{
		"event": "stage_failed",
		"error": lastErr.Error(),
	}, 0)
	if err := p.store.SetFailed(doc.ID, procErr.Error()); err != nil {
		logger.Error(ctx, "failed to mark document failed", "error", err)
	}
	doc.Status = model.StatusFailed
	logger.Error(ctx, "stage failed, document marked failed", "stage", stage, "error", lastErr)
	return procErr
}

func (p *Processor) auditOK(documentID, actor string, summary map[string]any, durationMS int64) {
	if _, err := p.audit.Append(model.AuditEntry{
		DocumentID: documentID,
		Actor:      actor,
		Status:     model.AuditOK,
		Summary:    summary,
		DurationMS: durationMS,
	}); err != nil {
		logger.Error(context.Background(), "audit append failed", "document_id", documentID, "error", err)
	}
}

func (p *Processor) auditError(documentID, actor string, summary map[string]any, durationMS int64) {
	if _, err := p.audit.Append(model.AuditEntry{
		DocumentID: documentID,
		Actor:      actor,
		Status:     model.AuditError,
		Summary:    summary,
		DurationMS: durationMS,
	}); err != nil {
		logger.Error(context.Background(), "audit append failed", "document_id", documentID, "error", err)
	}
}
