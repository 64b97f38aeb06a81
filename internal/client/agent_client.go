package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"Mansoor88-6/session-tracker/internal/message"
)

// AgentClient talks to a running agent's HTTP API. The CLI uses it to
// drive sessions without touching storage directly.
type AgentClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewAgentClient creates a new agent client
func NewAgentClient(baseURL string, timeout time.Duration, logger *zap.Logger) *AgentClient {
	return &AgentClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Send posts a request and decodes the response into out, which may be nil.
func (c *AgentClient) Send(ctx context.Context, req message.Request, out any) error {
	jsonData, err := message.Encode(req)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/v1/messages", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	duration := time.Since(startTime)
	if err != nil {
		c.logger.Debug("Agent request failed",
			zap.String("action", req.Action()),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp message.ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
			errResp.Error = string(body)
		}
		return &AgentError{Message: errResp.Error, StatusCode: resp.StatusCode}
	}

	c.logger.Debug("Agent request completed",
		zap.String("action", req.Action()),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", duration),
	)

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// Status fetches the running session status.
func (c *AgentClient) Status(ctx context.Context) (message.SessionStatus, error) {
	var status message.SessionStatus
	err := c.Send(ctx, message.GetSessionStatus{}, &status)
	return status, err
}

// TodayStats fetches today's totals.
func (c *AgentClient) TodayStats(ctx context.Context) (message.TodayStats, error) {
	var stats message.TodayStats
	err := c.Send(ctx, message.GetTodayStats{}, &stats)
	return stats, err
}

// HealthCheck checks if the agent is reachable
func (c *AgentClient) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/api/v1/health", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

// AgentError is a non-2xx answer from the agent.
type AgentError struct {
	Message    string
	StatusCode int
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent returned status %d: %s", e.StatusCode, e.Message)
}
