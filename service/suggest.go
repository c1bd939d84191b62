package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Anshul-ydv/Legal-document-agentic-assistant/config"
	"github.com/Anshul-ydv/Legal-document-agentic-assistant/model"
	"github.com/Anshul-ydv/Legal-document-agentic-assistant/pkg/logger"
)

const suggestPromptTemplate = `You are a legal drafting assistant. Rewrite the following contract clause so that it is compliant and balanced between the parties, preserving the clause's commercial intent.

Clause type: %s
Risk level: %s
Risk rationale: %s

Original clause:
%s

Respond with only the rewritten clause text. Do not add commentary.`

// SuggestionGenerator produces replacement text for risky clauses, preferring
// library templates and falling back to oracle generation.
type SuggestionGenerator struct {
	templates *TemplateLibrary
	scorer    SimilarityScorer
	oracle    InferenceOracle
	cfg       config.RiskConfig
}

func NewSuggestionGenerator(templates *TemplateLibrary, scorer SimilarityScorer, oracle InferenceOracle, cfg config.RiskConfig) *SuggestionGenerator {
	if scorer == nil {
		scorer = TokenOverlapScorer{}
	}
	return &SuggestionGenerator{templates: templates, scorer: scorer, oracle: oracle, cfg: cfg}
}

// Eligible reports whether a clause's risk level warrants a suggestion.
func (g *SuggestionGenerator) Eligible(clause model.Clause) bool {
	return AtOrAbove(clause.RiskLevel, g.cfg.SuggestionThreshold)
}

// Suggest produces a suggestion for one clause. The input clause is never
// modified. Callers should check Eligible first; Suggest does not re-check.
func (g *SuggestionGenerator) Suggest(ctx context.Context, clause model.Clause) (model.Suggestion, error) {
	suggestion := model.Suggestion{
		DocumentID:  clause.DocumentID,
		ClauseIndex: clause.Index,
		CreatedAt:   time.Now().UTC(),
	}

	if tmpl, score := g.templates.Match(clause, g.scorer); tmpl != nil && score >= g.cfg.SimilarityThreshold {
		suggestion.Source = model.SuggestionTemplated
		suggestion.TemplateID = tmpl.ID
		suggestion.Text = substituteVariables(tmpl.Body)
		suggestion.Rationale = tmpl.Rationale
		logger.Debug(ctx, "suggestion from template",
			"document_id", clause.DocumentID, "clause_index", clause.Index,
			"template_id", tmpl.ID, "similarity", score)
		return suggestion, nil
	}

	prompt := fmt.Sprintf(suggestPromptTemplate,
		clause.Type, clause.RiskLevel, clause.RiskRationale, truncate(clause.Text, maxPromptChars))
	text, err := g.oracle.Infer(ctx, prompt, model.TierDeep)
	if err != nil {
		return model.Suggestion{}, err
	}
	text = strings.TrimSpace(StripCodeFences(text))
	if text == "" {
		return model.Suggestion{}, &ParseFailure{Stage: "suggestion_generation", Err: fmt.Errorf("empty suggestion response")}
	}

	suggestion.Source = model.SuggestionGenerated
	suggestion.Text = text
	suggestion.Rationale = "Generated rewrite addressing: " + clause.RiskRationale
	return suggestion, nil
}

// substituteVariables fills [Bracketed] template variables with neutral
// placeholders the reviewer is expected to complete.
func substituteVariables(body string) string {
	replacements := map[string]string{
		"[Party]":                   "the paying party",
		"[Jurisdiction]":            "the jurisdiction specified in the agreement",
		"[Arbitration Association]": "a mutually agreed arbitration association",
		"[Location]":                "a mutually agreed location",
	}
	out := body
	for k, v := range replacements {
		out = strings.ReplaceAll(out, k, v)
	}
	return out
}
