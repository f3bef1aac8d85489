package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	model "github.com/zhouzirui/weather-chat/backend/internal/model/agent"
)

// ClientConfig configures the HTTP transport.
type ClientConfig struct {
	Endpoint      string
	Timeout       time.Duration
	DevPlayground bool
	HTTPClient    *http.Client
	Logger        *zap.Logger
}

// Client opens agent streams over HTTP.
type Client struct {
	endpoint      string
	devPlayground bool
	httpClient    *http.Client
	logger        *zap.Logger
}

// NewClient creates a transport for the configured endpoint.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("agent endpoint is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// The timeout applies to the whole stream, not just the headers.
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		endpoint:      cfg.Endpoint,
		devPlayground: cfg.DevPlayground,
		httpClient:    httpClient,
		logger:        logger.Named("agent"),
	}, nil
}

// Open posts req and returns the streaming response body. A non-2xx status
// or a connection failure is reported as *TransportError. The caller must
// close the body.
func (c *Client) Open(ctx context.Context, req model.OutboundRequest) (io.ReadCloser, error) {
	payload, err := json.Marshal(req.Body())
	if err != nil {
		return nil, fmt.Errorf("failed to encode agent request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create agent request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.devPlayground {
		httpReq.Header.Set("x-mastra-dev-playground", "true")
	}

	c.logger.Debug("opening agent stream",
		zap.String("endpoint", c.endpoint),
		zap.String("threadId", req.SessionID),
		zap.Any("runtimeContext", req.RuntimeContext),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		resp.Body.Close()
		return nil, &TransportError{StatusCode: resp.StatusCode}
	}

	return resp.Body, nil
}
