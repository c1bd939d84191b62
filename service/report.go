package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Anshul-ydv/Legal-document-agentic-assistant/config"
	"github.com/Anshul-ydv/Legal-document-agentic-assistant/model"
)

// ReportSynthesizer folds clauses, suggestions and the audit trail into a
// compliance report. Synthesize is pure apart from the GeneratedAt stamp.
type ReportSynthesizer struct {
	cfg config.RiskConfig
}

func NewReportSynthesizer(cfg config.RiskConfig) *ReportSynthesizer {
	return &ReportSynthesizer{cfg: cfg}
}

func (s *ReportSynthesizer) Synthesize(documentID string, clauses []model.Clause, suggestions []model.Suggestion, entries []model.AuditEntry) model.Report {
	suggested := make(map[int]bool, len(suggestions))
	for _, sug := range suggestions {
		suggested[sug.ClauseIndex] = true
	}

	rows := make([]model.ReportRow, 0, len(clauses))
	highRisk := 0
	for _, c := range clauses {
		if c.RiskLevel == model.RiskHigh {
			highRisk++
		}
		rows = append(rows, model.ReportRow{
			ClauseIndex:   c.Index,
			Type:          c.Type,
			RiskLevel:     c.RiskLevel,
			RiskRationale: c.RiskRationale,
			Suggested:     suggested[c.Index],
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ClauseIndex < rows[j].ClauseIndex })

	score := AggregateRiskScore(s.cfg, clauses)
	status := model.ComplianceOK
	if score >= s.cfg.ComplianceThreshold || highRisk > 0 {
		status = model.ComplianceNeedsReview
	}

	return model.Report{
		DocumentID: documentID,
		Summary: model.ReportSummary{
			ClauseCount:     len(clauses),
			HighRiskCount:   highRisk,
			SuggestionCount: len(suggestions),
			RiskScore:       score,
		},
		Status:             status,
		Rows:               rows,
		Suggestions:        suggestions,
		RecommendedActions: recommendedActions(clauses, suggested),
		AuditEntryCount:    len(entries),
		GeneratedAt:        time.Now().UTC(),
	}
}

// recommendedActions orders clauses high before medium before low, then by
// clause index, and phrases one action per clause at or above medium risk.
func recommendedActions(clauses []model.Clause, suggested map[int]bool) []model.RecommendedAction {
	ranked := make([]model.Clause, 0, len(clauses))
	for _, c := range clauses {
		if c.RiskLevel == model.RiskHigh || c.RiskLevel == model.RiskMedium {
			ranked = append(ranked, c)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		wi, wj := riskRank(ranked[i].RiskLevel), riskRank(ranked[j].RiskLevel)
		if wi != wj {
			return wi > wj
		}
		return ranked[i].Index < ranked[j].Index
	})

	actions := make([]model.RecommendedAction, 0, len(ranked))
	for _, c := range ranked {
		var action string
		switch {
		case c.RiskLevel == model.RiskHigh && suggested[c.Index]:
			action = fmt.Sprintf("Replace the %s clause (clause %d) with the suggested compliant language.", c.Type, c.Index)
		case c.RiskLevel == model.RiskHigh:
			action = fmt.Sprintf("Escalate the %s clause (clause %d) for legal review.", c.Type, c.Index)
		default:
			action = fmt.Sprintf("Review the %s clause (clause %d): %s", c.Type, c.Index, c.RiskRationale)
		}
		actions = append(actions, model.RecommendedAction{
			ClauseIndex: c.Index,
			RiskLevel:   c.RiskLevel,
			Action:      action,
		})
	}
	return actions
}

func riskRank(level string) int {
	switch level {
	case model.RiskHigh:
		return 3
	case model.RiskMedium:
		return 2
	case model.RiskLow:
		return 1
	default:
		return 0
	}
}

// RenderMarkdown formats a report as a markdown document.
func RenderMarkdown(r model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Compliance Report\n\n")
	fmt.Fprintf(&b, "**Document:** %s\n", r.DocumentID)
	fmt.Fprintf(&b, "**Status:** %s\n", r.Status)
	fmt.Fprintf(&b, "**Generated:** %s\n\n", r.GeneratedAt.Format(time.RFC3339))

	fmt.Fprintf(&b, "## Summary\n\n")
	fmt.Fprintf(&b, "- Clauses analyzed: %d\n", r.Summary.ClauseCount)
	fmt.Fprintf(&b, "- High-risk clauses: %d\n", r.Summary.HighRiskCount)
	fmt.Fprintf(&b, "- Suggestions produced: %d\n", r.Summary.SuggestionCount)
	fmt.Fprintf(&b, "- Aggregate risk score: %.2f\n\n", r.Summary.RiskScore)

	fmt.Fprintf(&b, "## Clauses\n\n")
	fmt.Fprintf(&b, "| # | Type | Risk | Rationale | Suggestion |\n")
	fmt.Fprintf(&b, "|---|------|------|-----------|------------|\n")
	for _, row := range r.Rows {
		mark := ""
		if row.Suggested {
			mark = "yes"
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
			row.ClauseIndex, row.Type, row.RiskLevel, escapeMarkdownCell(row.RiskRationale), mark)
	}
	b.WriteString("\n")

	if len(r.Suggestions) > 0 {
		fmt.Fprintf(&b, "## Suggested Replacements\n\n")
		for _, s := range r.Suggestions {
			fmt.Fprintf(&b, "### Clause %d (%s)\n\n", s.ClauseIndex, s.Source)
			fmt.Fprintf(&b, "%s\n\n", s.Text)
			if s.Rationale != "" {
				fmt.Fprintf(&b, "*%s*\n\n", s.Rationale)
			}
		}
	}

	if len(r.RecommendedActions) > 0 {
		fmt.Fprintf(&b, "## Recommended Actions\n\n")
		for i, a := range r.RecommendedActions {
			fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, strings.ToUpper(a.RiskLevel), a.Action)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "---\n%d audit entries recorded for this document.\n", r.AuditEntryCount)
	return b.String()
}

func escapeMarkdownCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "\\|")
}
