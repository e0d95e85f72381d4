package sample

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher sends sample messages to NATS with a subject prefix.
type Publisher struct {
	nc     *nats.Conn
	prefix string
}

var hostname = os.Hostname

func NewPublisher(nc *nats.Conn, prefix string) *Publisher {
	return &Publisher{
		nc:     nc,
		prefix: strings.TrimSuffix(prefix, "."),
	}
}

// Publish sends a sample to <prefix>.<name>.
func (p *Publisher) Publish(ctx context.Context, msg Message) error {
	if msg.GeneratedAt.IsZero() {
		msg.GeneratedAt = time.Now().UTC()
	}
	msg = applyHostDefault(msg)
	payload, err := msg.Marshal()
	if err != nil {
		return err
	}
	return p.nc.PublishMsg(&nats.Msg{
		Subject: Subject(p.prefix, msg.Name),
		Data:    payload,
		Header:  cloneHeaders(ctx),
	})
}

// Subject joins prefix and name into a NATS subject.
func Subject(prefix, name string) string {
	prefix = strings.TrimSuffix(prefix, ".")
	if prefix == "" {
		return name
	}
	return fmt.Sprintf("%s.%s", prefix, name)
}

func applyHostDefault(msg Message) Message {
	if msg.Host != "" {
		return msg
	}
	if host, err := hostname(); err == nil && host != "" {
		msg.Host = host
	}
	return msg
}

// cloneHeaders extracts trace-like metadata from context if available.
func cloneHeaders(ctx context.Context) nats.Header {
	headers := nats.Header{}
	if ctx == nil {
		return headers
	}
	if deadline, ok := ctx.Deadline(); ok {
		headers.Set("Deadline", deadline.UTC().Format(time.RFC3339Nano))
	}
	return headers
}
