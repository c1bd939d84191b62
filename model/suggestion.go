package model

import "time"

// Suggestion source tags.
const (
	SuggestionTemplated = "template"
	SuggestionGenerated = "generated"
)

// Suggestion is a compliant replacement proposed for one high-risk clause.
// Created only by the compliance advisor and never mutated afterwards.
type Suggestion struct {
	DocumentID  string    `json:"document_id"`
	ClauseIndex int       `json:"clause_index"`
	Text        string    `json:"text"`
	TemplateID  string    `json:"template_id,omitempty"` // empty when generated de novo
	Source      string    `json:"source"`
	Rationale   string    `json:"rationale"`
	CreatedAt   time.Time `json:"created_at"`
}
