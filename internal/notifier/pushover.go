package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/venkytv/nats-threshold/pkg/notify"
)

// Pushover sends notifications via the pushover API.
type Pushover struct {
	Token    string
	User     string
	Endpoint string
	Client   *http.Client
	Timeout  time.Duration
	Logger   *slog.Logger
}

func (p *Pushover) client() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (p *Pushover) Send(message string, severity notify.Severity) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := p.send(ctx, pushoverTitle(severity), message, pushoverPriority(severity)); err != nil {
		loggerOrDefault(p.Logger).Error("pushover notify failed", "severity", severity, "err", err)
		return false
	}
	return true
}

func pushoverTitle(s notify.Severity) string {
	switch s {
	case notify.Info:
		return "Threshold info"
	case notify.Warning:
		return "Threshold warning"
	case notify.Error:
		return "Threshold error"
	default:
		return "Threshold exceeded"
	}
}

// pushoverPriority maps severities onto pushover's -2..2 priority range,
// leaving out emergency priority which needs retry/expire parameters.
func pushoverPriority(s notify.Severity) int {
	switch s {
	case notify.Info:
		return -1
	case notify.Warning:
		return 0
	default:
		return 1
	}
}

func (p *Pushover) send(ctx context.Context, title, message string, priority int) error {
	if p.Token == "" || p.User == "" {
		return errors.New("pushover token and user are required")
	}
	endpoint := p.Endpoint
	if endpoint == "" {
		endpoint = "https://api.pushover.net/1/messages.json"
	}
	data := url.Values{}
	data.Set("token", p.Token)
	data.Set("user", p.User)
	data.Set("title", title)
	data.Set("message", message)
	data.Set("priority", strconv.Itoa(priority))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("pushover returned status %s", resp.Status)
	}
	return nil
}
