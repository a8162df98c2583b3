// Package discord posts plain-text notifications to a Discord webhook.
// Delivery is best-effort: a failed send is logged and counted, never retried,
// and never surfaces to the poll loop.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/onnwee/category-notifier/telemetry"
)

type payload struct {
	Content string `json:"content"`
}

// defaultHTTPClient bounds webhook posts so a stalled sink cannot block the
// poll loop indefinitely.
var defaultHTTPClient = &http.Client{Timeout: 30 * time.Second}

// Webhook sends messages to a single configured webhook URL.
type Webhook struct {
	URL        string
	HTTPClient *http.Client
}

func (w *Webhook) http() *http.Client {
	if w.HTTPClient != nil {
		return w.HTTPClient
	}
	return defaultHTTPClient
}

// Notify posts {"content": message} to the webhook. Errors are swallowed here:
// transport failures and HTTP >= 400 are logged so a flaky sink cannot abort a
// poll cycle.
func (w *Webhook) Notify(ctx context.Context, message string) {
	log := telemetry.LoggerWithCorr(ctx)
	body, err := json.Marshal(payload{Content: message})
	if err != nil {
		log.Error("failed to encode webhook payload", slog.Any("err", err))
		telemetry.IncNotificationsFailed()
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		log.Error("failed to build webhook request", slog.Any("err", err))
		telemetry.IncNotificationsFailed()
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.http().Do(req)
	if err != nil {
		log.Error("failed to send discord webhook", slog.Any("err", err))
		telemetry.IncNotificationsFailed()
		return
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		log.Error("discord webhook error", slog.Int("status", resp.StatusCode), slog.String("body", string(b)))
		telemetry.IncNotificationsFailed()
		return
	}
	telemetry.IncNotificationsSent()
	log.Debug("notification delivered", slog.Int("status", resp.StatusCode))
}
