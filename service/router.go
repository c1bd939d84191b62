package service

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/Anshul-ydv/Legal-document-agentic-assistant/config"
	"github.com/Anshul-ydv/Legal-document-agentic-assistant/model"
)

// Legal vocabulary used for the term-density feature. Matching is
// case-insensitive on whole tokens.
var legalTerms = map[string]bool{
	"indemnify": true, "indemnification": true, "liability": true,
	"liabilities": true, "warranty": true, "warranties": true,
	"termination": true, "terminate": true, "confidential": true,
	"confidentiality": true, "arbitration": true, "jurisdiction": true,
	"damages": true, "breach": true, "negligence": true, "hereunder": true,
	"thereof": true, "herein": true, "whereas": true, "covenant": true,
	"severability": true, "waiver": true, "injunction": true,
	"subrogation": true, "force": true, "majeure": true,
}

// DocumentMeta is the structural metadata the text extractor reports.
type DocumentMeta struct {
	Format    string
	PageCount int
}

// TierRouter selects a compute tier from measured document complexity.
// Classify is deterministic and side-effect-free: the same text and
// metadata always yield the same tier, so stage retries are idempotent.
type TierRouter struct {
	cfg config.RouterConfig

	encOnce sync.Once
	enc     *tiktoken.Tiktoken
}

// NewTierRouter creates a router with the given weights and threshold.
func NewTierRouter(cfg config.RouterConfig) *TierRouter {
	return &TierRouter{cfg: cfg}
}

// Classify computes the weighted complexity score and picks a tier.
func (r *TierRouter) Classify(text string, meta DocumentMeta) model.Tier {
	score := r.Score(text, meta)
	if score > r.cfg.Threshold {
		return model.TierDeep
	}
	return model.TierFast
}

// Score returns the raw complexity score in [0, 1].
func (r *TierRouter) Score(text string, meta DocumentMeta) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}

	tokens := r.countTokens(text)

	legalCount := 0
	for _, w := range words {
		if legalTerms[strings.ToLower(strings.Trim(w, ".,;:()\"'"))] {
			legalCount++
		}
	}
	density := float64(legalCount) / float64(tokens)
	if density > 1 {
		density = 1
	}

	// Token length normalized against a 10k-token document.
	length := float64(tokens) / 10000.0
	if length > 1 {
		length = 1
	}

	sentences := countSentences(text)
	avgSentence := float64(len(words)) / float64(sentences)
	// Normalized against 40-word sentences, typical of dense legal prose.
	sentenceScore := avgSentence / 40.0
	if sentenceScore > 1 {
		sentenceScore = 1
	}

	score := r.cfg.DensityWeight*density +
		r.cfg.LengthWeight*length +
		r.cfg.SentenceWeight*sentenceScore

	total := r.cfg.DensityWeight + r.cfg.LengthWeight + r.cfg.SentenceWeight
	if total > 0 {
		score /= total
	}
	return score
}

// countTokens uses the tiktoken encoding when available and falls back to
// whitespace fields otherwise. Both paths are deterministic for the same
// router instance.
func (r *TierRouter) countTokens(text string) int {
	r.encOnce.Do(func() {
		enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
		if err != nil {
			slog.Warn("tiktoken encoding unavailable, using whitespace token counts", "error", err)
			return
		}
		r.enc = enc
	})

	if r.enc != nil {
		return len(r.enc.Encode(text, nil, nil))
	}
	return len(strings.Fields(text))
}

func countSentences(text string) int {
	count := 0
	for _, ch := range text {
		if ch == '.' || ch == '!' || ch == '?' || ch == ';' {
			count++
		}
	}
	if count == 0 {
		return 1
	}
	return count
}
