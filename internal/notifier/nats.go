package notifier

import (
	"errors"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/venkytv/nats-threshold/pkg/notify"
)

// Publisher is the part of *nats.Conn the NATS channel needs.
type Publisher interface {
	Publish(subject string, data []byte) error
	IsClosed() bool
}

var _ Publisher = (*nats.Conn)(nil)

// NATS publishes notifications as JSON on a subject so other processes can
// relay them.
type NATS struct {
	Conn    Publisher
	Subject string
	Logger  *slog.Logger
}

func (c *NATS) Send(message string, severity notify.Severity) bool {
	if err := c.publish(newNotification(message, severity)); err != nil {
		loggerOrDefault(c.Logger).Error("nats notify failed", "subject", c.Subject, "severity", severity, "err", err)
		return false
	}
	return true
}

func (c *NATS) publish(n notify.Notification) error {
	if c.Conn == nil || c.Conn.IsClosed() {
		return nats.ErrConnectionClosed
	}
	if c.Subject == "" {
		return errors.New("subject is required")
	}
	data, err := n.Marshal()
	if err != nil {
		return err
	}
	return c.Conn.Publish(c.Subject, data)
}
