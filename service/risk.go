package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Anshul-ydv/Legal-document-agentic-assistant/config"
	"github.com/Anshul-ydv/Legal-document-agentic-assistant/model"
	"github.com/Anshul-ydv/Legal-document-agentic-assistant/pkg/logger"
)

const riskAssessorName = "RiskAssessor"

// Rationale used when the oracle's risk response cannot be parsed and the
// assessment degrades to medium instead of failing the document.
const unparsedRationale = "unparsed - defaulted"

const riskPromptTemplate = `You are a legal risk analyst. Assess the risk of this clause.

Clause Type: %s
Clause Text: %s

Relevant precedents:
%s

Return ONLY a valid JSON object:
{"risk_level": "low|medium|high", "rationale": "plain language explanation"}`

// Per-type defaults used when the retrieval oracle is unavailable; risk
// still comes from inference, these only replace the precedent context.
var typeRiskContext = map[string]string{
	model.ClauseIndemnification: "Indemnification clauses commonly shift broad liability to one party.",
	model.ClauseLiability:       "Uncapped liability exposure is a frequent negotiation point.",
	model.ClauseTermination:     "One-sided termination rights disadvantage the other party.",
	model.ClauseConfidentiality: "Unbounded confidentiality terms may be unenforceable.",
	model.ClausePayment:         "Payment terms without cure periods create default risk.",
}

type rawRisk struct {
	RiskLevel string `json:"risk_level"`
	Rationale string `json:"rationale"`
}

// RiskAssessor scores clauses using retrieval-augmented inference.
type RiskAssessor struct {
	oracle    InferenceOracle
	retriever RetrievalOracle
	cfg       config.RiskConfig
	topK      int
}

// NewRiskAssessor creates a risk assessor.
func NewRiskAssessor(oracle InferenceOracle, retriever RetrievalOracle, cfg config.RiskConfig, topK int) *RiskAssessor {
	if topK <= 0 {
		topK = 2
	}
	return &RiskAssessor{oracle: oracle, retriever: retriever, cfg: cfg, topK: topK}
}

// Assess returns a copy of the clause with risk level and rationale set.
// Exactly one risk level is assigned; an unparseable oracle response
// degrades to medium rather than failing the document.
func (a *RiskAssessor) Assess(ctx context.Context, clause model.Clause, tier model.Tier) (model.Clause, error) {
	snippets, err := a.retriever.Retrieve(ctx, clause.Text, a.topK)
	if err != nil {
		if IsRetryable(err) {
			return clause, err
		}
		// Retrieval is supporting context only; fall back to the per-type
		// notes rather than blocking the assessment.
		logger.Warn(ctx, "retrieval failed, using type context",
			"document_id", clause.DocumentID, "clause_index", clause.Index, "error", err)
		if note, ok := typeRiskContext[clause.Type]; ok {
			snippets = []string{note}
		}
	}

	contextBlock := "(none)"
	if len(snippets) > 0 {
		contextBlock = "- " + strings.Join(snippets, "\n- ")
	}

	prompt := fmt.Sprintf(riskPromptTemplate, clause.Type, clause.Text, contextBlock)
	response, err := a.oracle.Infer(ctx, prompt, tier)
	if err != nil {
		return clause, err
	}

	assessed := clause
	var raw rawRisk
	if err := json.Unmarshal([]byte(StripCodeFences(response)), &raw); err == nil {
		level := strings.ToLower(strings.TrimSpace(raw.RiskLevel))
		if model.ValidRiskLevel(level) && strings.TrimSpace(raw.Rationale) != "" {
			assessed.RiskLevel = level
			assessed.RiskRationale = strings.TrimSpace(raw.Rationale)
			return assessed, nil
		}
	}

	logger.Warn(ctx, "risk response unparseable, defaulting to medium",
		"document_id", clause.DocumentID, "clause_index", clause.Index)
	assessed.RiskLevel = model.RiskMedium
	assessed.RiskRationale = unparsedRationale
	return assessed, nil
}

// Weight returns the configured numeric weight for a risk level.
func (a *RiskAssessor) Weight(level string) float64 {
	return RiskWeight(a.cfg, level)
}

// AggregateScore is the mean of per-clause risk weights on a 0-10 scale.
func (a *RiskAssessor) AggregateScore(clauses []model.Clause) float64 {
	return AggregateRiskScore(a.cfg, clauses)
}

// RiskWeight maps a risk level to its configured numeric weight.
func RiskWeight(cfg config.RiskConfig, level string) float64 {
	switch level {
	case model.RiskLow:
		return cfg.LowWeight
	case model.RiskMedium:
		return cfg.MediumWeight
	case model.RiskHigh:
		return cfg.HighWeight
	default:
		return cfg.MediumWeight
	}
}

// AggregateRiskScore computes the weighted mean risk score for a clause set.
func AggregateRiskScore(cfg config.RiskConfig, clauses []model.Clause) float64 {
	if len(clauses) == 0 {
		return 0
	}
	total := 0.0
	for _, c := range clauses {
		total += RiskWeight(cfg, c.RiskLevel)
	}
	return total / float64(len(clauses))
}

// AtOrAbove reports whether level meets the threshold level (low < medium < high).
func AtOrAbove(level, threshold string) bool {
	rank := map[string]int{model.RiskLow: 0, model.RiskMedium: 1, model.RiskHigh: 2}
	lr, ok1 := rank[level]
	tr, ok2 := rank[threshold]
	if !ok1 || !ok2 {
		return false
	}
	return lr >= tr
}
