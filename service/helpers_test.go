package service

import (
	"context"
	"sync"

	"github.com/Anshul-ydv/Legal-document-agentic-assistant/config"
	"github.com/Anshul-ydv/Legal-document-agentic-assistant/model"
)

// fakeOracle scripts inference responses per call number (1-based).
type fakeOracle struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	respond func(call int, prompt string) (string, error)
}

func (f *fakeOracle) Infer(ctx context.Context, prompt string, tier model.Tier) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.respond(f.calls, prompt)
}

func (f *fakeOracle) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeRetriever returns fixed snippets or a fixed error.
type fakeRetriever struct {
	snippets []string
	err      error
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snippets, nil
}

// fakeExtractor returns canned text or scripted errors per call.
type fakeExtractor struct {
	mu      sync.Mutex
	calls   int
	respond func(call int) (string, DocumentMeta, error)
}

func (f *fakeExtractor) Extract(ctx context.Context, sourcePath string) (string, DocumentMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.respond(f.calls)
}

func testRiskConfig() config.RiskConfig {
	return config.RiskConfig{
		LowWeight:           2,
		MediumWeight:        5,
		HighWeight:          9,
		ComplianceThreshold: 4.0,
		SuggestionThreshold: model.RiskHigh,
		SimilarityThreshold: 0.35,
	}
}

func testPipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		Workers:        2,
		RetryBudget:    3,
		BackoffSeconds: 0,
	}
}

func testBridgeConfig() config.BridgeConfig {
	return config.BridgeConfig{
		Mode:           "push",
		BatchSize:      10,
		MaxAttempts:    3,
		BackoffSeconds: 0,
	}
}

// fakeIntake records delivered payloads and can fail the first n calls.
type fakeIntake struct {
	mu        sync.Mutex
	calls     int
	failFirst int
	failWith  error
	payloads  []model.TransferPayload
}

func (f *fakeIntake) GenerateSuggestions(ctx context.Context, payload model.TransferPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failFirst {
		return f.failWith
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeIntake) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
