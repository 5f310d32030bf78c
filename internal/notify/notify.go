// Package notify delivers signal alerts. Delivery is best effort: a
// failed send is logged by the caller and never stops a monitor.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/atrade-lab/tmonitor/internal/types"
	"github.com/atrade-lab/tmonitor/pkg/errors"
)

// Notifier delivers one formatted message per emitted signal.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// FormatSignal renders the alert text for a signal.
func FormatSignal(sig types.Signal) string {
	prefix := "[ALERT]"
	if sig.Historical {
		prefix = "[HISTORICAL]"
	}

	return fmt.Sprintf("%s %s %s @ %.2f | score %.0f (%s) | %s | %s",
		prefix, sig.Symbol, sig.Type, sig.Price, sig.Score, sig.Tier,
		sig.Time.Format("2006-01-02 15:04:05"), sig.Reason)
}

// WebhookNotifier posts messages to a chat webhook as JSON text payloads.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a notifier posting to url.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type webhookPayload struct {
	MsgType string         `json:"msg_type"`
	Content webhookContent `json:"content"`
}

type webhookContent struct {
	Text string `json:"text"`
}

// Send posts the message. A non-2xx status is an error.
func (n *WebhookNotifier) Send(ctx context.Context, message string) error {
	body, err := json.Marshal(webhookPayload{
		MsgType: "text",
		Content: webhookContent{Text: message},
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotifyFailed, "failed to encode webhook payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotifyFailed, "failed to build webhook request", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotifyFailed, "webhook request failed", err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Newf(errors.ErrCodeNotifyFailed, "webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// NopNotifier swallows all messages; used by backtests.
type NopNotifier struct{}

// Send implements Notifier.
func (NopNotifier) Send(ctx context.Context, message string) error {
	return nil
}
