package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Anshul-ydv/Legal-document-agentic-assistant/model"
)

func highRiskClause(typ, text string) model.Clause {
	return model.Clause{
		DocumentID:    "doc-1",
		Index:         0,
		Type:          typ,
		Text:          text,
		RiskLevel:     model.RiskHigh,
		RiskRationale: "One-sided terms.",
	}
}

func TestSuggestionGeneratorEligibility(t *testing.T) {
	gen := NewSuggestionGenerator(NewTemplateLibrary(), nil, nil, testRiskConfig())

	if !gen.Eligible(model.Clause{RiskLevel: model.RiskHigh}) {
		t.Error("Expected high risk to be eligible")
	}
	if gen.Eligible(model.Clause{RiskLevel: model.RiskMedium}) {
		t.Error("Expected medium risk to be ineligible at high threshold")
	}

	cfg := testRiskConfig()
	cfg.SuggestionThreshold = model.RiskMedium
	genMedium := NewSuggestionGenerator(NewTemplateLibrary(), nil, nil, cfg)
	if !genMedium.Eligible(model.Clause{RiskLevel: model.RiskMedium}) {
		t.Error("Expected medium risk to be eligible at medium threshold")
	}
}

func TestSuggestTemplatePath(t *testing.T) {
	oracle := &fakeOracle{respond: func(call int, prompt string) (string, error) {
		t.Fatal("oracle should not be called when a template matches")
		return "", nil
	}}
	gen := NewSuggestionGenerator(NewTemplateLibrary(), nil, oracle, testRiskConfig())

	clause := highRiskClause(model.ClauseIndemnification,
		"Vendor shall indemnify defend and hold harmless Customer against all claims damages losses and expenses arising from any breach or negligence.")
	suggestion, err := gen.Suggest(context.Background(), clause)
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	if suggestion.Source != model.SuggestionTemplated {
		t.Errorf("Expected template source, got %s", suggestion.Source)
	}
	if suggestion.TemplateID != "indemnification_mutual" {
		t.Errorf("Expected indemnification_mutual, got %s", suggestion.TemplateID)
	}
	if suggestion.Text == "" {
		t.Error("Expected suggestion text")
	}
	if strings.Contains(suggestion.Text, "[") {
		t.Errorf("Expected template variables substituted, got %q", suggestion.Text)
	}
	if suggestion.ClauseIndex != 0 || suggestion.DocumentID != "doc-1" {
		t.Errorf("Suggestion not linked to clause: %+v", suggestion)
	}
}

func TestSuggestGeneratedPath(t *testing.T) {
	oracle := &fakeOracle{respond: func(call int, prompt string) (string, error) {
		return "```\nRewritten balanced clause text.\n```", nil
	}}
	gen := NewSuggestionGenerator(NewTemplateLibrary(), nil, oracle, testRiskConfig())

	// Text with no lexical overlap with any template trigger.
	clause := highRiskClause(model.ClauseOther,
		"Quantum entanglement shall be maintained throughout the engagement.")
	suggestion, err := gen.Suggest(context.Background(), clause)
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	if suggestion.Source != model.SuggestionGenerated {
		t.Errorf("Expected generated source, got %s", suggestion.Source)
	}
	if suggestion.TemplateID != "" {
		t.Errorf("Expected empty template id for generated suggestion, got %s", suggestion.TemplateID)
	}
	if suggestion.Text != "Rewritten balanced clause text." {
		t.Errorf("Expected fence-stripped text, got %q", suggestion.Text)
	}
	if oracle.callCount() != 1 {
		t.Errorf("Expected 1 oracle call, got %d", oracle.callCount())
	}
}

func TestSuggestEmptyOracleResponse(t *testing.T) {
	oracle := &fakeOracle{respond: func(call int, prompt string) (string, error) {
		return "   ", nil
	}}
	gen := NewSuggestionGenerator(NewTemplateLibrary(), nil, oracle, testRiskConfig())

	clause := highRiskClause(model.ClauseOther, "Entirely novel provision.")
	_, err := gen.Suggest(context.Background(), clause)
	var pf *ParseFailure
	if !errors.As(err, &pf) {
		t.Fatalf("Expected ParseFailure, got %v", err)
	}
}

func TestSuggestPropagatesOracleError(t *testing.T) {
	oracle := &fakeOracle{respond: func(call int, prompt string) (string, error) {
		return "", &OracleError{Kind: OracleQuota, Err: fmt.Errorf("429")}
	}}
	gen := NewSuggestionGenerator(NewTemplateLibrary(), nil, oracle, testRiskConfig())

	clause := highRiskClause(model.ClauseOther, "Entirely novel provision.")
	_, err := gen.Suggest(context.Background(), clause)
	if !IsRetryable(err) {
		t.Errorf("Expected retryable oracle error, got %v", err)
	}
}

func TestSuggestDoesNotMutateClause(t *testing.T) {
	gen := NewSuggestionGenerator(NewTemplateLibrary(), nil, nil, testRiskConfig())

	clause := highRiskClause(model.ClauseIndemnification,
		"Vendor shall indemnify defend and hold harmless Customer against all claims damages losses expenses breach negligence misconduct.")
	before := clause
	if _, err := gen.Suggest(context.Background(), clause); err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	if clause != before {
		t.Error("Expected input clause to be unchanged")
	}
}
