package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Anshul-ydv/Legal-document-agentic-assistant/config"
	"github.com/Anshul-ydv/Legal-document-agentic-assistant/model"
	"github.com/Anshul-ydv/Legal-document-agentic-assistant/pkg/logger"
)

// ProcessorClient talks to the processor's transfer endpoints. It is the
// pull-mode counterpart of AdvisorClient.
type ProcessorClient struct {
	baseURL    string
	token      TokenSource
	httpClient *http.Client
}

func NewProcessorClient(baseURL string, token TokenSource) *ProcessorClient {
	return &ProcessorClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// PollWork claims up to limit pending transfer payloads from the processor.
func (c *ProcessorClient) PollWork(ctx context.Context, limit int) ([]model.TransferPayload, error) {
	url := c.baseURL + "/api/v1/transfers/pending?limit=" + strconv.Itoa(limit)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if err := c.authorize(req); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to poll for work: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("poll HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	var out struct {
		Payloads []model.TransferPayload `json:"payloads"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse payloads: %w", err)
	}
	return out.Payloads, nil
}

// Acknowledge marks a claimed transfer delivered on the processor side.
func (c *ProcessorClient) Acknowledge(ctx context.Context, documentID string) error {
	return c.post(ctx, "/api/v1/transfers/"+documentID+"/ack")
}

// Requeue returns a claimed transfer to pending after a processing failure.
func (c *ProcessorClient) Requeue(ctx context.Context, documentID string) error {
	return c.post(ctx, "/api/v1/transfers/"+documentID+"/requeue")
}

func (c *ProcessorClient) post(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(nil))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if err := c.authorize(req); err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}

func (c *ProcessorClient) authorize(req *http.Request) error {
	token, err := c.token()
	if err != nil {
		return fmt.Errorf("failed to obtain token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// PullWorker drives pull-mode transfer on the advisor side. It periodically
// claims pending payloads from the processor, runs intake on each, and acks
// successes so they are not redelivered. Failed payloads are requeued; the
// advisor's idempotent intake absorbs any duplicate delivery in between.
type PullWorker struct {
	client *ProcessorClient
	intake AdvisorIntake
	cfg    config.BridgeConfig
}

func NewPullWorker(client *ProcessorClient, intake AdvisorIntake, cfg config.BridgeConfig) *PullWorker {
	return &PullWorker{client: client, intake: intake, cfg: cfg}
}

// Run polls until the context is cancelled.
func (w *PullWorker) Run(ctx context.Context) {
	interval := time.Duration(w.cfg.PollIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil {
				logger.Error(ctx, "pull cycle failed", "error", err)
			}
		}
	}
}

// RunOnce executes one poll-process-ack cycle.
func (w *PullWorker) RunOnce(ctx context.Context) error {
	batch := w.cfg.BatchSize
	if batch <= 0 {
		batch = 10
	}
	payloads, err := w.client.PollWork(ctx, batch)
	if err != nil {
		return err
	}

	for _, payload := range payloads {
		docCtx := logger.WithDocument(ctx, payload.DocumentID)
		if err := w.intake.GenerateSuggestions(docCtx, payload); err != nil {
			logger.Error(docCtx, "intake failed, requeueing", "error", err)
			if rqErr := w.client.Requeue(docCtx, payload.DocumentID); rqErr != nil {
				logger.Error(docCtx, "requeue failed", "error", rqErr)
			}
			continue
		}
		if err := w.client.Acknowledge(docCtx, payload.DocumentID); err != nil {
			logger.Error(docCtx, "ack failed, transfer may be redelivered", "error", err)
		}
	}
	return nil
}
