// Package submit sends finished device orders to the downstream DME order
// API over HTTP.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"dmeflow/internal/config"
	"dmeflow/internal/domain"
	"dmeflow/internal/llm"
	"dmeflow/internal/port"
)

const defaultTimeout = 30 * time.Second

// Client submits device orders to the order API. It satisfies
// port.OrderSubmitter.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg config.OrderAPIConfig) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSecs > 0 {
		timeout = time.Duration(cfg.TimeoutSecs) * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type submitRequest struct {
	Order domain.DeviceOrder `json:"order"`
}

type submitResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Submit posts one order. A 429 surfaces as a RateLimitError so callers can
// back off and retry later.
func (c *Client) Submit(ctx context.Context, order domain.DeviceOrder) (*port.SubmitResult, error) {
	body, err := json.Marshal(submitRequest{Order: order})
	if err != nil {
		return nil, fmt.Errorf("marshaling order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling order API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading order API response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, llm.NewRateLimitError("order-api",
			fmt.Errorf("order API rate limited: %s", respBody),
			llm.ParseRetryAfterHeader(resp.Header.Get("Retry-After")))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("order API returned status %d: %s", resp.StatusCode, respBody)
	}

	var payload submitResponse
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return nil, fmt.Errorf("decoding order API response: %w", err)
	}
	if payload.OrderID == "" {
		return nil, fmt.Errorf("order API accepted the order but returned no order id")
	}
	return &port.SubmitResult{ExternalOrderID: payload.OrderID, Status: payload.Status}, nil
}
