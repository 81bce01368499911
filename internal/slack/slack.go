package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/s2eweb/s2eweb/internal/webhook"
)

// Client posts config change notices to one Slack incoming webhook.
type Client struct {
	http       *http.Client
	webhookURL string
	source     string
}

// New creates a Slack webhook client. source names the installation in every
// message, usually its base URL. An empty URL yields a disabled client.
func New(webhookURL, source string) *Client {
	return &Client{
		http:       &http.Client{Timeout: 10 * time.Second},
		webhookURL: webhookURL,
		source:     source,
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.webhookURL != ""
}

type block struct {
	Type     string `json:"type"`
	Text     *text  `json:"text,omitempty"`
	Elements []text `json:"elements,omitempty"`
}

type text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type payload struct {
	Blocks []block `json:"blocks"`
}

func (c *Client) postMessage(ctx context.Context, p payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send slack message: %w", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned status %d", resp.StatusCode)
	}

	return nil
}

func headline(event webhook.Event) string {
	if event.Name == webhook.EventFactoryRestored {
		return ":warning: *Factory defaults restored*"
	}
	page, _ := event.Data["page"].(string)
	switch page {
	case "serial":
		return fmt.Sprintf(":gear: *Port %v settings changed*", event.Data["port"])
	case "ip":
		return ":globe_with_meridians: *Network settings changed*"
	case "misc":
		return ":label: *Module settings changed*"
	}
	return ":gear: *Settings changed*"
}

// details lists the boolean flags that are set, in a stable order.
func details(event webhook.Event) string {
	var flags []string
	for k, v := range event.Data {
		if set, ok := v.(bool); ok && set {
			flags = append(flags, k)
		}
	}
	sort.Strings(flags)
	return strings.Join(flags, ", ")
}

func (c *Client) eventPayload(event webhook.Event) payload {
	p := payload{
		Blocks: []block{
			{
				Type: "section",
				Text: &text{Type: "mrkdwn", Text: headline(event) + "\n" + c.source},
			},
		},
	}
	if d := details(event); d != "" {
		p.Blocks = append(p.Blocks, block{
			Type:     "context",
			Elements: []text{{Type: "mrkdwn", Text: d}},
		})
	}
	return p
}

// SendEvent posts one event. Failures are logged, never returned, so a Slack
// outage cannot fail a settings change.
func (c *Client) SendEvent(ctx context.Context, event webhook.Event) {
	if !c.Enabled() {
		return
	}
	if err := c.postMessage(ctx, c.eventPayload(event)); err != nil {
		log.Printf("slack: failed to send %s notification: %v", event.Name, err)
	}
}

func (c *Client) DispatchAsync(event webhook.Event) {
	if !c.Enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		c.SendEvent(ctx, event)
	}()
}

// SendTestMessage posts a test message to confirm the webhook URL works.
func (c *Client) SendTestMessage(ctx context.Context) error {
	p := payload{
		Blocks: []block{
			{
				Type: "section",
				Text: &text{
					Type: "mrkdwn",
					Text: ":white_check_mark: *s2eweb is connected!*\n" + c.source + " will post here whenever its settings change.",
				},
			},
		},
	}
	return c.postMessage(ctx, p)
}
