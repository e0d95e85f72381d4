package sample

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestApplyHostDefaultKeepsProvidedHost(t *testing.T) {
	original := hostname
	defer func() { hostname = original }()
	hostname = func() (string, error) { return "ignored-hostname", nil }

	got := applyHostDefault(Message{Host: "explicit"})
	if got.Host != "explicit" {
		t.Fatalf("expected host to remain explicit, got %q", got.Host)
	}
}

func TestApplyHostDefaultUsesHostnameWhenEmpty(t *testing.T) {
	original := hostname
	defer func() { hostname = original }()
	hostname = func() (string, error) { return "local-host", nil }

	got := applyHostDefault(Message{})
	if got.Host != "local-host" {
		t.Fatalf("expected host to default to hostname, got %q", got.Host)
	}
}

func TestApplyHostDefaultIgnoresHostnameErrors(t *testing.T) {
	original := hostname
	defer func() { hostname = original }()
	hostname = func() (string, error) { return "", errors.New("lookup failed") }

	got := applyHostDefault(Message{})
	if got.Host != "" {
		t.Fatalf("expected empty host when lookup fails, got %q", got.Host)
	}
}

func TestSubjectJoinsPrefix(t *testing.T) {
	cases := map[[2]string]string{
		{"metrics.", "cpu"}: "metrics.cpu",
		{"metrics", "cpu"}:  "metrics.cpu",
		{"", "cpu"}:         "cpu",
	}
	for in, want := range cases {
		if got := Subject(in[0], in[1]); got != want {
			t.Fatalf("Subject(%q, %q): expected %q, got %q", in[0], in[1], want, got)
		}
	}
}

func TestCloneHeadersCarriesDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	h := cloneHeaders(ctx)
	if h.Get("Deadline") == "" {
		t.Fatalf("expected deadline header to be set")
	}
	if got := cloneHeaders(context.Background()).Get("Deadline"); got != "" {
		t.Fatalf("expected no deadline header, got %q", got)
	}
}

func TestMessageRoundTrip(t *testing.T) {
	msg := Message{Name: "cpu", Value: 85.5, GeneratedAt: time.Now().UTC(), Host: "h1"}
	data, err := msg.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Name != "cpu" || got.Value != 85.5 || got.Host != "h1" {
		t.Fatalf("unexpected message %+v", got)
	}
}

func TestValidateRejectsBadMessages(t *testing.T) {
	now := time.Now()
	for name, msg := range map[string]Message{
		"missing name":  {GeneratedAt: now},
		"wildcard name": {Name: "cpu.>", GeneratedAt: now},
		"missing time":  {Name: "cpu"},
	} {
		if err := msg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}
