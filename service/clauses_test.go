package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Anshul-ydv/Legal-document-agentic-assistant/model"
)

const validClauseJSON = `[
  {"type": "indemnification", "text": "Party A shall indemnify Party B."},
  {"type": "payment", "text": "Payment is due net 30."}
]`

func TestClauseExtractorParsesResponse(t *testing.T) {
	oracle := &fakeOracle{respond: func(call int, prompt string) (string, error) {
		return validClauseJSON, nil
	}}
	extractor := NewClauseExtractor(oracle)

	clauses, err := extractor.Extract(context.Background(), "doc-1", "some text", model.TierFast)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(clauses) != 2 {
		t.Fatalf("Expected 2 clauses, got %d", len(clauses))
	}
	for i, c := range clauses {
		if c.Index != i {
			t.Errorf("Expected clause index %d, got %d", i, c.Index)
		}
		if c.DocumentID != "doc-1" {
			t.Errorf("Expected document id doc-1, got %s", c.DocumentID)
		}
	}
	if clauses[0].Type != model.ClauseIndemnification {
		t.Errorf("Expected indemnification, got %s", clauses[0].Type)
	}
}

func TestClauseExtractorStripsCodeFences(t *testing.T) {
	oracle := &fakeOracle{respond: func(call int, prompt string) (string, error) {
		return "```json\n" + validClauseJSON + "\n```", nil
	}}
	extractor := NewClauseExtractor(oracle)

	clauses, err := extractor.Extract(context.Background(), "doc-1", "text", model.TierFast)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(clauses) != 2 {
		t.Errorf("Expected 2 clauses, got %d", len(clauses))
	}
	if oracle.callCount() != 1 {
		t.Errorf("Expected 1 oracle call, got %d", oracle.callCount())
	}
}

func TestClauseExtractorRepairPrompt(t *testing.T) {
	oracle := &fakeOracle{respond: func(call int, prompt string) (string, error) {
		if call == 1 {
			return "Sure! Here are the clauses you asked for.", nil
		}
		return validClauseJSON, nil
	}}
	extractor := NewClauseExtractor(oracle)

	clauses, err := extractor.Extract(context.Background(), "doc-1", "text", model.TierDeep)
	if err != nil {
		t.Fatalf("Extract failed after repair: %v", err)
	}
	if len(clauses) != 2 {
		t.Errorf("Expected 2 clauses, got %d", len(clauses))
	}
	if oracle.callCount() != 2 {
		t.Errorf("Expected 2 oracle calls (original + repair), got %d", oracle.callCount())
	}
}

func TestClauseExtractorFailsAfterSecondBadParse(t *testing.T) {
	oracle := &fakeOracle{respond: func(call int, prompt string) (string, error) {
		return "still not json", nil
	}}
	extractor := NewClauseExtractor(oracle)

	_, err := extractor.Extract(context.Background(), "doc-1", "text", model.TierFast)
	var ef *ExtractionFailure
	if !errors.As(err, &ef) {
		t.Fatalf("Expected ExtractionFailure, got %v", err)
	}
	if oracle.callCount() != 2 {
		t.Errorf("Expected exactly 2 oracle calls, got %d", oracle.callCount())
	}
}

func TestClauseExtractorRejectsUnknownType(t *testing.T) {
	oracle := &fakeOracle{respond: func(call int, prompt string) (string, error) {
		return `[{"type": "exotic", "text": "Something."}]`, nil
	}}
	extractor := NewClauseExtractor(oracle)

	_, err := extractor.Extract(context.Background(), "doc-1", "text", model.TierFast)
	var ef *ExtractionFailure
	if !errors.As(err, &ef) {
		t.Fatalf("Expected ExtractionFailure for unknown type, got %v", err)
	}
}

func TestClauseExtractorNormalizesTypeCase(t *testing.T) {
	oracle := &fakeOracle{respond: func(call int, prompt string) (string, error) {
		return `[{"type": "  Liability ", "text": "Liability is capped."}]`, nil
	}}
	extractor := NewClauseExtractor(oracle)

	clauses, err := extractor.Extract(context.Background(), "doc-1", "text", model.TierFast)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if clauses[0].Type != model.ClauseLiability {
		t.Errorf("Expected normalized liability type, got %q", clauses[0].Type)
	}
}

func TestClauseExtractorPropagatesOracleErrors(t *testing.T) {
	oracleErr := &OracleError{Kind: OracleTimeout, Err: fmt.Errorf("deadline exceeded")}
	oracle := &fakeOracle{respond: func(call int, prompt string) (string, error) {
		return "", oracleErr
	}}
	extractor := NewClauseExtractor(oracle)

	_, err := extractor.Extract(context.Background(), "doc-1", "text", model.TierFast)
	if !IsRetryable(err) {
		t.Errorf("Expected retryable oracle error, got %v", err)
	}
	if oracle.callCount() != 1 {
		t.Errorf("Expected 1 oracle call for transport error, got %d", oracle.callCount())
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"```json\n[1]\n```", "[1]"},
		{"```\n[1]\n```", "[1]"},
		{"[1]", "[1]"},
		{"  [1]  ", "[1]"},
	}
	for _, tt := range tests {
		if got := StripCodeFences(tt.in); got != tt.want {
			t.Errorf("StripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
