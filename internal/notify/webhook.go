package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const webhookTimeout = 10 * time.Second

// WebhookSink доставляет уведомления на Discord-совместимый webhook.
type WebhookSink struct {
	url      string
	username string
	client   *http.Client
}

// NewWebhookSink создаёт WebhookSink.
func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{
		url:      url,
		username: "copflow",
		client: &http.Client{
			Timeout: webhookTimeout,
		},
	}
}

// webhookPayload — тело запроса в формате Discord webhook.
type webhookPayload struct {
	Username string `json:"username,omitempty"`
	Content  string `json:"content"`
}

// Notify отправляет сообщение на webhook.
func (s *WebhookSink) Notify(ctx context.Context, eventType, message string) error {
	body, err := json.Marshal(webhookPayload{
		Username: s.username,
		Content:  fmt.Sprintf("[%s] %s", eventType, message),
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}
