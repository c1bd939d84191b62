package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Anshul-ydv/Legal-document-agentic-assistant/model"
)

// AdvisorClient is the push-mode AdvisorIntake backed by the advisor's HTTP
// intake endpoint. A TokenSource supplies the bearer token so the signing key
// stays with the caller.
type AdvisorClient struct {
	baseURL    string
	token      TokenSource
	httpClient *http.Client
}

// TokenSource produces a bearer token for service-to-service calls.
type TokenSource func() (string, error)

// StaticToken wraps a fixed token as a TokenSource.
func StaticToken(token string) TokenSource {
	return func() (string, error) { return token, nil }
}

func NewAdvisorClient(baseURL string, token TokenSource) *AdvisorClient {
	return &AdvisorClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GenerateSuggestions posts a finished analysis payload to the advisor. Any
// non-2xx response is an error so the bridge retries; the advisor's intake is
// idempotent, so redelivery of an accepted payload is harmless.
func (c *AdvisorClient) GenerateSuggestions(ctx context.Context, payload model.TransferPayload) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/suggestions/generate", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	token, err := c.token()
	if err != nil {
		return fmt.Errorf("failed to obtain token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return fmt.Errorf("advisor intake timed out: %w", err)
		}
		return fmt.Errorf("advisor intake failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("advisor intake HTTP %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// GetReport fetches a finished report from the advisor.
func (c *AdvisorClient) GetReport(ctx context.Context, documentID string) (*model.Report, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/v1/reports/"+documentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	token, err := c.token()
	if err != nil {
		return nil, fmt.Errorf("failed to obtain token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("report fetch HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	var report model.Report
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}
