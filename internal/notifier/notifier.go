// Package notifier provides delivery channels for notify.Notifier.
//
// Channels report delivery as a bool and log their own failures; nothing
// here returns errors to the Notifier.
package notifier

import (
	"log/slog"

	"github.com/venkytv/nats-threshold/pkg/notify"
)

var (
	_ notify.Channel = Nop{}
	_ notify.Channel = Discard{}
	_ notify.Channel = (*Pushover)(nil)
	_ notify.Channel = (*Webhook)(nil)
	_ notify.Channel = (*NATS)(nil)
	_ notify.Channel = (*Instrumented)(nil)
)

// Nop accepts every notification and does nothing. Useful in tests.
type Nop struct{}

func (Nop) Send(string, notify.Severity) bool { return true }

// Discard rejects every notification.
type Discard struct{}

func (Discard) Send(string, notify.Severity) bool { return false }

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
