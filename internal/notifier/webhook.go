package notifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/venkytv/nats-threshold/pkg/notify"
)

// Webhook posts notifications as JSON to an HTTP endpoint.
type Webhook struct {
	URL     string
	Method  string
	Client  *http.Client
	Timeout time.Duration
	Logger  *slog.Logger
}

var (
	hostname = os.Hostname
	now      = time.Now
)

func (w *Webhook) Validate() error {
	if w.URL == "" {
		return errors.New("webhook: url is required")
	}
	return nil
}

func (w *Webhook) Send(message string, severity notify.Severity) bool {
	timeout := w.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := w.send(ctx, newNotification(message, severity)); err != nil {
		loggerOrDefault(w.Logger).Error("webhook notify failed", "url", w.URL, "severity", severity, "err", err)
		return false
	}
	return true
}

func (w *Webhook) send(ctx context.Context, n notify.Notification) error {
	if err := w.Validate(); err != nil {
		return err
	}
	body, err := n.Marshal()
	if err != nil {
		return fmt.Errorf("webhook: marshal payload: %w", err)
	}

	method := w.Method
	if method == "" {
		method = http.MethodPost
	}
	req, err := http.NewRequestWithContext(ctx, method, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := w.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func newNotification(message string, severity notify.Severity) notify.Notification {
	n := notify.Notification{
		Message:  message,
		Severity: severity,
		SentAt:   now().UTC(),
	}
	if host, err := hostname(); err == nil {
		n.Host = host
	}
	return n
}
