package notify

import (
	"fmt"
	"io"
	"os"
	"reflect"
)

// Channel is a delivery target for formatted notifications. Send reports
// whether delivery succeeded; failures are not errors.
type Channel interface {
	Send(message string, severity Severity) bool
}

// ChannelFunc adapts a plain function to Channel.
type ChannelFunc func(message string, severity Severity) bool

func (f ChannelFunc) Send(message string, severity Severity) bool { return f(message, severity) }

// ConsoleChannel prints "[SEVERITY] message" lines. A nil Out writes to stdout.
type ConsoleChannel struct {
	Out io.Writer
}

func (c *ConsoleChannel) Send(message string, severity Severity) bool {
	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, "[%s] %s\n", severity, message)
	return true
}

// sameChannel compares by identity. Channels whose dynamic type is not
// comparable (ChannelFunc, structs holding slices) never match.
func sameChannel(a, b Channel) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
