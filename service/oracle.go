package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Anshul-ydv/Legal-document-agentic-assistant/config"
	"github.com/Anshul-ydv/Legal-document-agentic-assistant/model"
)

// InferenceOracle is the black-box language model behind clause extraction,
// risk assessment and suggestion generation. The tier selects which model
// configuration serves the call.
type InferenceOracle interface {
	Infer(ctx context.Context, prompt string, tier model.Tier) (string, error)
}

// RetrievalOracle returns supporting context snippets for a query.
type RetrievalOracle interface {
	Retrieve(ctx context.Context, query string, k int) ([]string, error)
}

// HTTPOracle talks json-over-HTTP to an inference/retrieval gateway with
// bearer auth, the way the pipeline's extraction service is called.
type HTTPOracle struct {
	cfg        *config.OracleConfig
	httpClient *http.Client
}

type inferRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type inferResponse struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Data    struct {
		Text string `json:"text"`
	} `json:"data"`
}

type retrieveRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type retrieveResponse struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Data    struct {
		Snippets []string `json:"snippets"`
	} `json:"data"`
}

// NewHTTPOracle creates an oracle client from config. The HTTP client
// timeout is the oracle timeout; exceeding it surfaces as a retryable
// timeout error, distinct from a parse failure.
func NewHTTPOracle(cfg *config.OracleConfig) *HTTPOracle {
	return &HTTPOracle{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.OracleTimeout(),
		},
	}
}

func (o *HTTPOracle) Infer(ctx context.Context, prompt string, tier model.Tier) (string, error) {
	modelName := o.cfg.FastModel
	if tier == model.TierDeep {
		modelName = o.cfg.DeepModel
	}

	var resp inferResponse
	if err := o.post(ctx, "/v1/infer", inferRequest{Model: modelName, Prompt: prompt}, &resp); err != nil {
		return "", err
	}
	if resp.Code != 0 {
		return "", &OracleError{Kind: OracleMalformed, Err: fmt.Errorf("oracle API error: %s", resp.Message)}
	}
	return resp.Data.Text, nil
}

func (o *HTTPOracle) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	var resp retrieveResponse
	if err := o.post(ctx, "/v1/retrieve", retrieveRequest{Query: query, TopK: k}, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, &OracleError{Kind: OracleMalformed, Err: fmt.Errorf("oracle API error: %s", resp.Message)}
	}
	return resp.Data.Snippets, nil
}

func (o *HTTPOracle) post(ctx context.Context, path string, reqBody, out any) error {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.cfg.APIURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+o.cfg.APIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return &OracleError{Kind: OracleTimeout, Err: err}
		}
		return &OracleError{Kind: OracleMalformed, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &OracleError{Kind: OracleQuota, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}
	if resp.StatusCode >= 400 {
		return &OracleError{Kind: OracleMalformed, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &OracleError{Kind: OracleMalformed, Err: fmt.Errorf("failed to parse response: %w, body: %s", err, string(body))}
	}
	return nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
