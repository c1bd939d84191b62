package service

import (
	"strings"

	"github.com/Anshul-ydv/Legal-document-agentic-assistant/model"
)

// SimilarityScorer measures how well a clause matches a template's trigger
// text, on [0, 1]. The concrete technique is an implementation choice.
type SimilarityScorer interface {
	Score(a, b string) float64
}

// TokenOverlapScorer scores by Jaccard overlap of lowercase token sets.
type TokenOverlapScorer struct{}

func (TokenOverlapScorer) Score(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,;:()\"'")
		if len(w) > 2 {
			set[w] = true
		}
	}
	return set
}

// Template is one compliant clause template. TriggerText is what incoming
// clauses are matched against; Body may contain [Bracketed] variables that
// get substituted at suggestion time.
type Template struct {
	ID          string
	ClauseType  string
	TriggerText string
	Body        string
	Rationale   string
}

// TemplateLibrary holds the compliant clause templates, keyed by type.
type TemplateLibrary struct {
	templates map[string][]Template
}

// NewTemplateLibrary returns the library seeded with the built-in templates.
func NewTemplateLibrary() *TemplateLibrary {
	lib := &TemplateLibrary{templates: make(map[string][]Template)}
	for _, t := range builtinTemplates {
		lib.Add(t)
	}
	return lib
}

// Add registers a template.
func (l *TemplateLibrary) Add(t Template) {
	l.templates[t.ClauseType] = append(l.templates[t.ClauseType], t)
}

// Match returns the best template for the clause's type plus its similarity
// against the clause text. Returns nil when the type has no templates.
func (l *TemplateLibrary) Match(clause model.Clause, scorer SimilarityScorer) (*Template, float64) {
	candidates := l.templates[clause.Type]
	if len(candidates) == 0 {
		return nil, 0
	}

	best := -1
	bestScore := -1.0
	for i, t := range candidates {
		score := scorer.Score(clause.Text, t.TriggerText)
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	t := candidates[best]
	return &t, bestScore
}

// Variants returns the template ids available for a clause type.
func (l *TemplateLibrary) Variants(clauseType string) []string {
	var ids []string
	for _, t := range l.templates[clauseType] {
		ids = append(ids, t.ID)
	}
	return ids
}

var builtinTemplates = []Template{
	{
		ID:          "indemnification_mutual",
		ClauseType:  model.ClauseIndemnification,
		TriggerText: "indemnify defend hold harmless claims damages losses expenses breach negligence misconduct",
		Body: "Mutual Indemnification: Each party shall indemnify, defend, and hold harmless the other party " +
			"from and against any and all claims, damages, losses, and expenses (including reasonable " +
			"attorneys' fees) arising out of or relating to: (a) any breach of this Agreement by the " +
			"indemnifying party; (b) any negligence or willful misconduct by the indemnifying party; or " +
			"(c) any violation of applicable laws by the indemnifying party. This indemnification shall " +
			"not apply to claims arising from the indemnified party's own negligence or misconduct.",
		Rationale: "Replaces one-sided indemnification with a mutual obligation and carves out the indemnified party's own fault.",
	},
	{
		ID:          "liability_capped",
		ClauseType:  model.ClauseLiability,
		TriggerText: "liability liable damages indirect incidental consequential punitive aggregate exceed",
		Body: "Limitation of Liability: Except for breaches of confidentiality, infringement of intellectual " +
			"property rights, or either party's gross negligence or willful misconduct, in no event shall " +
			"either party be liable for any indirect, incidental, special, consequential, or punitive " +
			"damages. Each party's total liability under this Agreement shall not exceed the amounts paid " +
			"or payable under this Agreement in the twelve (12) months preceding the event giving rise " +
			"to liability.",
		Rationale: "Caps aggregate exposure and excludes consequential damages with standard carve-outs.",
	},
	{
		ID:          "termination_with_cure",
		ClauseType:  model.ClauseTermination,
		TriggerText: "terminate termination breach notice cure insolvent bankruptcy convenience written",
		Body: "Termination: Either party may terminate this Agreement: (a) for convenience upon sixty (60) " +
			"days' prior written notice; (b) immediately upon written notice if the other party materially " +
			"breaches this Agreement and fails to cure such breach within thirty (30) days of receiving " +
			"written notice; or (c) immediately if the other party becomes insolvent or files for bankruptcy. " +
			"Upon termination, all rights and licenses granted shall immediately cease, except for those " +
			"provisions that by their nature should survive termination.",
		Rationale: "Adds a cure period and balanced termination rights for both parties.",
	},
	{
		ID:          "confidentiality_bounded",
		ClauseType:  model.ClauseConfidentiality,
		TriggerText: "confidential information disclose receiving party obligations survive termination",
		Body: "Confidentiality: Each party agrees to maintain in strict confidence all Confidential Information " +
			"received from the other party and to use such information solely for purposes of this Agreement. " +
			"Confidential Information excludes information that: (a) is publicly available through no fault " +
			"of the receiving party; (b) was rightfully known prior to disclosure; (c) is independently " +
			"developed; or (d) is rightfully obtained from a third party. The obligations herein shall " +
			"survive for three (3) years following termination or expiration of this Agreement.",
		Rationale: "Bounds the confidentiality obligation in scope and duration with standard exclusions.",
	},
	{
		ID:          "payment_net_terms",
		ClauseType:  model.ClausePayment,
		TriggerText: "payment invoice due fees late interest net days payable",
		Body: "Payment Terms: Fees are due net thirty (30) days from receipt of a correct invoice. Undisputed " +
			"amounts unpaid after the due date accrue interest at the lesser of 1.5% per month or the maximum " +
			"rate permitted by law. [Party] may dispute an invoice in good faith by written notice within " +
			"fifteen (15) days of receipt, and the parties shall resolve the dispute before any suspension " +
			"of services.",
		Rationale: "Sets explicit net terms, a bounded late-interest rate and a good-faith dispute window.",
	},
	{
		ID:          "other_neutral_jurisdiction",
		ClauseType:  model.ClauseOther,
		TriggerText: "governing law jurisdiction disputes arbitration venue construed accordance",
		Body: "Governing Law and Jurisdiction: This Agreement shall be governed by and construed in accordance " +
			"with the laws of [Jurisdiction], without regard to its conflict of laws principles. Any disputes " +
			"arising from or relating to this Agreement shall be resolved through binding arbitration under " +
			"the rules of [Arbitration Association], with the arbitration to be conducted in [Location]. " +
			"Each party shall bear its own costs, and the prevailing party shall be entitled to reasonable " +
			"attorneys' fees.",
		Rationale: "Neutral governing-law and dispute-resolution language with arbitration.",
	},
}
