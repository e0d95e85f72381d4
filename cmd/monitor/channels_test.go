package main

import (
	"testing"

	"github.com/venkytv/nats-threshold/internal/config"
	"github.com/venkytv/nats-threshold/internal/notifier"
	"github.com/venkytv/nats-threshold/pkg/notify"
)

type stubConn struct{}

func (stubConn) Publish(string, []byte) error { return nil }
func (stubConn) IsClosed() bool               { return false }

func channelNames(chs []notify.Channel) []string {
	var names []string
	for _, ch := range chs {
		names = append(names, ch.(*notifier.Instrumented).Name)
	}
	return names
}

func TestBuildChannelsDefaultsToConsole(t *testing.T) {
	got := channelNames(buildChannels(config.ChannelsConfig{}, channelDeps{}))
	if len(got) != 1 || got[0] != "console" {
		t.Fatalf("expected only console, got %v", got)
	}
}

func TestBuildChannelsFromConfig(t *testing.T) {
	cfg := config.ChannelsConfig{
		Pushover: &config.PushoverConfig{Token: "t", User: "u"},
		Webhooks: []config.WebhookConfig{{URL: "http://a"}, {URL: "http://b"}},
		NATS:     &config.NATSConfig{Subject: "notify"},
	}
	got := channelNames(buildChannels(cfg, channelDeps{conn: stubConn{}}))
	want := []string{"pushover", "webhook-0", "webhook-1", "nats"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestBuildChannelsSkipsNATSWithoutConnection(t *testing.T) {
	off := false
	cfg := config.ChannelsConfig{Console: &off, NATS: &config.NATSConfig{Subject: "notify"}}
	if got := buildChannels(cfg, channelDeps{}); len(got) != 0 {
		t.Fatalf("expected no channels, got %v", channelNames(got))
	}
}

func TestCheckNotifySubject(t *testing.T) {
	cases := []struct {
		prefix  string
		subject string
		wantErr bool
	}{
		{"metrics.", "metrics.alerts", true},
		{"metrics", "metrics", true},
		{"metrics.", "metrics.cpu.alerts", true},
		{"", "alerts", true},
		{"metrics.", "alerts", false},
		{"metrics.", "metricsalerts", false},
	}
	for _, c := range cases {
		cc := config.ChannelsConfig{NATS: &config.NATSConfig{Subject: c.subject}}
		err := checkNotifySubject(c.prefix, cc)
		if (err != nil) != c.wantErr {
			t.Fatalf("prefix %q subject %q: expected error %v, got %v", c.prefix, c.subject, c.wantErr, err)
		}
	}
	if err := checkNotifySubject("", config.ChannelsConfig{}); err != nil {
		t.Fatalf("expected no error without a nats channel, got %v", err)
	}
}

func TestFlagChannelsMerge(t *testing.T) {
	file := config.ChannelsConfig{
		Webhooks: make([]config.WebhookConfig, 1, 4),
	}
	file.Webhooks[0] = config.WebhookConfig{URL: "http://file"}

	fc := flagChannels{
		pushoverUser:  "u",
		pushoverToken: "t",
		webhookURL:    "http://flag",
		notifySubject: "alerts",
	}
	got := fc.merge(file)

	if got.Pushover == nil || got.Pushover.User != "u" {
		t.Fatalf("expected pushover from flags, got %+v", got.Pushover)
	}
	if len(got.Webhooks) != 2 || got.Webhooks[1].URL != "http://flag" {
		t.Fatalf("expected file and flag webhooks, got %+v", got.Webhooks)
	}
	if got.NATS == nil || got.NATS.Subject != "alerts" {
		t.Fatalf("expected nats subject from flags, got %+v", got.NATS)
	}
	if len(file.Webhooks) != 1 || file.Webhooks[:2][1].URL != "" {
		t.Fatalf("expected the file config to be left untouched")
	}
}
