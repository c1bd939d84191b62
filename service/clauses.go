package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/Anshul-ydv/Legal-document-agentic-assistant/model"
	"github.com/Anshul-ydv/Legal-document-agentic-assistant/pkg/logger"
)

const clauseExtractorName = "ClauseExtractor"

// Document text beyond this is not sent to the oracle.
const maxPromptChars = 8000

const clausePromptTemplate = `You are a legal document analyzer. Extract all distinct legal clauses from the following document, in document order.

For each clause identify its type, one of: indemnification, termination, confidentiality, liability, payment, other.

Document text:
%s

Return ONLY a valid JSON array, no other text. Format:
[
  {"type": "indemnification", "text": "Full clause text..."}
]`

const clauseRepairPrompt = `Your previous response could not be parsed as a JSON array of {"type", "text"} objects with types drawn from: indemnification, termination, confidentiality, liability, payment, other. Return the extraction again as ONLY that JSON array, nothing else.

Document text:
%s`

// Oracle responses often arrive wrapped in markdown code fences.
var jsonFenceRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// ClauseExtractor segments document text into typed clauses via the
// inference oracle. A malformed response gets one corrective re-prompt;
// a second failure is an ExtractionFailure for the document.
type ClauseExtractor struct {
	oracle InferenceOracle
}

// NewClauseExtractor creates a clause extractor backed by the given oracle.
func NewClauseExtractor(oracle InferenceOracle) *ClauseExtractor {
	return &ClauseExtractor{oracle: oracle}
}

type rawClause struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Extract returns the document's clauses with sequence indices 0..n-1.
func (e *ClauseExtractor) Extract(ctx context.Context, documentID, text string, tier model.Tier) ([]model.Clause, error) {
	prompt := fmt.Sprintf(clausePromptTemplate, truncate(text, maxPromptChars))

	response, err := e.oracle.Infer(ctx, prompt, tier)
	if err != nil {
		return nil, err
	}

	clauses, parseErr := e.parse(documentID, response)
	if parseErr == nil {
		return clauses, nil
	}

	// One corrective re-prompt before giving up on the document.
	logger.Warn(ctx, "clause response unparseable, re-prompting",
		"document_id", documentID, "error", parseErr)

	repair := fmt.Sprintf(clauseRepairPrompt, truncate(text, maxPromptChars))
	response, err = e.oracle.Infer(ctx, repair, tier)
	if err != nil {
		return nil, err
	}

	clauses, parseErr = e.parse(documentID, response)
	if parseErr != nil {
		return nil, &ExtractionFailure{Reason: "unparseable clause response", Err: parseErr}
	}
	return clauses, nil
}

func (e *ClauseExtractor) parse(documentID, response string) ([]model.Clause, error) {
	var raw []rawClause
	if err := json.Unmarshal([]byte(StripCodeFences(response)), &raw); err != nil {
		return nil, &ParseFailure{Stage: clauseExtractorName, Err: err}
	}
	if len(raw) == 0 {
		return nil, &ParseFailure{Stage: clauseExtractorName, Err: fmt.Errorf("empty clause list")}
	}

	clauses := make([]model.Clause, 0, len(raw))
	for i, rc := range raw {
		typ := strings.ToLower(strings.TrimSpace(rc.Type))
		if !model.ValidClauseType(typ) {
			return nil, &ParseFailure{
				Stage: clauseExtractorName,
				Err:   fmt.Errorf("clause %d has unknown type %q", i, rc.Type),
			}
		}
		if strings.TrimSpace(rc.Text) == "" {
			return nil, &ParseFailure{
				Stage: clauseExtractorName,
				Err:   fmt.Errorf("clause %d has empty text", i),
			}
		}
		clauses = append(clauses, model.Clause{
			DocumentID: documentID,
			Index:      i,
			Text:       strings.TrimSpace(rc.Text),
			Type:       typ,
		})
	}
	return clauses, nil
}

// StripCodeFences removes a wrapping markdown code fence, if present.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if m := jsonFenceRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
