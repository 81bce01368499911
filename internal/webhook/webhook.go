package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/s2eweb/s2eweb/internal/database"
)

const (
	maxResponseBodyBytes = 1024

	EventConfigChanged   = "device.config_changed"
	EventFactoryRestored = "device.factory_restored"
)

// Event is the JSON body posted to the configured endpoint.
type Event struct {
	Name      string         `json:"event"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// Client posts signed events to one endpoint and logs every attempt to
// webhook_deliveries.
type Client struct {
	db          database.DBTX
	http        *http.Client
	url         string
	secret      string
	retryDelays []time.Duration
}

// New returns a client; with an empty url Dispatch is a no-op.
func New(db database.DBTX, url, secret string) *Client {
	return &Client{
		db:          db,
		http:        &http.Client{Timeout: 10 * time.Second},
		url:         url,
		secret:      secret,
		retryDelays: []time.Duration{1 * time.Second, 4 * time.Second},
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.url != ""
}

// SignPayload computes HMAC-SHA256 of the payload using the secret.
func SignPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Dispatch sends an event with up to 1+len(retryDelays) attempts.
func (c *Client) Dispatch(ctx context.Context, event Event) error {
	if !c.Enabled() {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	signature := SignPayload(c.secret, body)
	maxAttempts := 1 + len(c.retryDelays)
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		statusCode, respBody, err := c.doPost(ctx, body, signature)
		c.logDelivery(ctx, event.Name, body, statusCode, respBody, attempt)

		if err == nil && statusCode != nil && *statusCode >= 200 && *statusCode < 300 {
			return nil
		}

		if err != nil {
			lastErr = err
		} else if statusCode != nil {
			lastErr = fmt.Errorf("webhook returned status %d", *statusCode)
		}

		if attempt < maxAttempts {
			select {
			case <-time.After(c.retryDelays[attempt-1]):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return lastErr
}

// DispatchAsync runs Dispatch in the background so form posts never wait on
// the endpoint.
func (c *Client) DispatchAsync(event Event) {
	if !c.Enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := c.Dispatch(ctx, event); err != nil {
			slog.Warn("webhook: delivery failed", "event", event.Name, "error", err)
		}
	}()
}

func (c *Client) doPost(ctx context.Context, body []byte, signature string) (*int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", signature)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err.Error(), err
	}
	defer func() { _ = resp.Body.Close() }()

	respBytes, _ := io.ReadAll(io.LimitReader(resp.Body, int64(maxResponseBodyBytes)+1))
	respBody := string(respBytes)
	if len(respBody) > maxResponseBodyBytes {
		respBody = respBody[:maxResponseBodyBytes]
	}

	return &resp.StatusCode, respBody, nil
}

func (c *Client) logDelivery(ctx context.Context, event string, payload []byte, statusCode *int, responseBody string, attempt int) {
	if _, err := c.db.Exec(ctx,
		`INSERT INTO webhook_deliveries (event, payload, status_code, response_body, attempt)
		 VALUES ($1, $2, $3, $4, $5)`,
		event, payload, statusCode, responseBody, attempt,
	); err != nil {
		slog.Error("webhook: failed to log delivery", "event", event, "error", err)
	}
}
