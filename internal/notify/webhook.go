package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Webhook delivers messages to the chat platform's incoming webhook. A
// Webhook with an empty URL drops messages silently, so notification can be
// disabled without nil checks at every call site.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates a webhook sender.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts the message. Delivery failures are returned for logging but are
// never retried here; the notification channel is best-effort.
func (w *Webhook) Send(ctx context.Context, message *Message) error {
	if w.url == "" {
		log.Debug().Msg("notify: webhook not configured, dropping message")
		return nil
	}

	payload, err := message.JSON()
	if err != nil {
		return fmt.Errorf("failed to encode webhook message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook delivery failed: status %d", resp.StatusCode)
	}
	return nil
}
