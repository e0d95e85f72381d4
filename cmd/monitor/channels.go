package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/venkytv/nats-threshold/internal/config"
	"github.com/venkytv/nats-threshold/internal/notifier"
	"github.com/venkytv/nats-threshold/pkg/notify"
)

// flagChannels are channels configured on the command line. They are added
// to whatever the config file declares.
type flagChannels struct {
	pushoverUser  string
	pushoverToken string
	webhookURL    string
	notifySubject string
}

func (f flagChannels) merge(cc config.ChannelsConfig) config.ChannelsConfig {
	if f.pushoverUser != "" && f.pushoverToken != "" {
		cc.Pushover = &config.PushoverConfig{User: f.pushoverUser, Token: f.pushoverToken}
	}
	if f.webhookURL != "" {
		webhooks := make([]config.WebhookConfig, 0, len(cc.Webhooks)+1)
		webhooks = append(webhooks, cc.Webhooks...)
		cc.Webhooks = append(webhooks, config.WebhookConfig{URL: f.webhookURL})
	}
	if f.notifySubject != "" {
		cc.NATS = &config.NATSConfig{Subject: f.notifySubject}
	}
	return cc
}

// checkNotifySubject rejects a NATS channel subject the monitor itself
// subscribes to, which would feed notifications back in as samples.
func checkNotifySubject(prefix string, cc config.ChannelsConfig) error {
	if cc.NATS == nil {
		return nil
	}
	subject := cc.NATS.Subject
	prefix = strings.TrimSuffix(prefix, ".")
	if prefix == "" || subject == prefix || strings.HasPrefix(subject, prefix+".") {
		return fmt.Errorf("notify subject %q falls under the sample subject prefix %q", subject, prefix)
	}
	return nil
}

type channelDeps struct {
	conn    notifier.Publisher
	logger  *slog.Logger
	metrics *notifier.Metrics
	timeout time.Duration
}

// buildChannels turns the channel section of the config into instrumented
// delivery channels, console first.
func buildChannels(cfg config.ChannelsConfig, deps channelDeps) []notify.Channel {
	var out []notify.Channel
	add := func(name string, ch notify.Channel) {
		out = append(out, &notifier.Instrumented{Name: name, Channel: ch, Metrics: deps.metrics})
	}

	if cfg.ConsoleEnabled() {
		add("console", &notify.ConsoleChannel{})
	}
	if p := cfg.Pushover; p != nil {
		add("pushover", &notifier.Pushover{
			Token:   p.Token,
			User:    p.User,
			Timeout: deps.timeout,
			Logger:  deps.logger,
		})
	}
	for i, w := range cfg.Webhooks {
		add(fmt.Sprintf("webhook-%d", i), &notifier.Webhook{
			URL:     w.URL,
			Method:  w.Method,
			Timeout: deps.timeout,
			Logger:  deps.logger,
		})
	}
	if n := cfg.NATS; n != nil && deps.conn != nil {
		add("nats", &notifier.NATS{
			Conn:    deps.conn,
			Subject: n.Subject,
			Logger:  deps.logger,
		})
	}
	return out
}
