// Package notify evaluates values against named thresholds and delivers
// formatted notifications to pluggable channels.
package notify

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotFound is returned when a threshold name has not been registered.
var ErrNotFound = errors.New("threshold not found")

// Notifier checks values against named thresholds and fans formatted
// messages out to every registered channel.
//
// Sends run sequentially in the caller's goroutine, outside the internal
// lock, and are never short-circuited: every channel sees every message.
type Notifier struct {
	mu         sync.Mutex
	thresholds map[string]Threshold
	channels   []Channel
}

// New returns a Notifier delivering to channels. With no channels a
// ConsoleChannel writing to stdout is installed; it can be dropped with
// RemoveChannel or ClearChannels.
func New(channels ...Channel) *Notifier {
	n := &Notifier{thresholds: make(map[string]Threshold)}
	for _, ch := range channels {
		n.AddChannel(ch)
	}
	if len(n.channels) == 0 {
		n.channels = append(n.channels, &ConsoleChannel{})
	}
	return n
}

// AddChannel appends ch unless it is nil or already registered.
func (n *Notifier) AddChannel(ch Channel) {
	if ch == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.indexLocked(ch) >= 0 {
		return
	}
	n.channels = append(n.channels, ch)
}

// RemoveChannel drops ch if registered.
func (n *Notifier) RemoveChannel(ch Channel) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if i := n.indexLocked(ch); i >= 0 {
		n.channels = append(n.channels[:i], n.channels[i+1:]...)
	}
}

// ClearChannels removes every channel, including the default console one.
func (n *Notifier) ClearChannels() {
	n.mu.Lock()
	n.channels = nil
	n.mu.Unlock()
}

// SetChannels replaces every registered channel with channels in one step.
// nil and duplicate channels are skipped as in AddChannel. An empty list
// leaves the Notifier with no channels.
func (n *Notifier) SetChannels(channels ...Channel) {
	next := make([]Channel, 0, len(channels))
	for _, ch := range channels {
		if ch == nil {
			continue
		}
		dup := false
		for _, c := range next {
			if sameChannel(c, ch) {
				dup = true
				break
			}
		}
		if !dup {
			next = append(next, ch)
		}
	}
	n.mu.Lock()
	n.channels = next
	n.mu.Unlock()
}

// Channels returns the registered channels in registration order.
func (n *Notifier) Channels() []Channel {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Channel(nil), n.channels...)
}

func (n *Notifier) indexLocked(ch Channel) int {
	if ch == nil {
		return -1
	}
	for i, c := range n.channels {
		if sameChannel(c, ch) {
			return i
		}
	}
	return -1
}

// SetThreshold registers or overwrites the threshold called name. Severity
// defaults to Alert and the template to DefaultTemplate.
func (n *Notifier) SetThreshold(name string, value float64, opts ...ThresholdOption) {
	t := Threshold{
		Name:     name,
		Value:    value,
		Severity: Alert,
		Template: DefaultTemplate,
	}
	for _, opt := range opts {
		opt(&t)
	}
	n.mu.Lock()
	n.thresholds[name] = t
	n.mu.Unlock()
}

// DeleteThreshold forgets name. It is a no-op for unknown names.
func (n *Notifier) DeleteThreshold(name string) {
	n.mu.Lock()
	delete(n.thresholds, name)
	n.mu.Unlock()
}

// GetThreshold returns the trigger value of name.
func (n *Notifier) GetThreshold(name string) (float64, error) {
	t, ok := n.Threshold(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return t.Value, nil
}

// Threshold returns the full definition of name.
func (n *Notifier) Threshold(name string) (Threshold, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	t, ok := n.thresholds[name]
	return t, ok
}

// Thresholds returns every registered threshold sorted by name.
func (n *Notifier) Thresholds() []Threshold {
	n.mu.Lock()
	out := make([]Threshold, 0, len(n.thresholds))
	for _, t := range n.thresholds {
		out = append(out, t)
	}
	n.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CheckThreshold compares actual against the threshold called name. When
// actual is strictly greater, the formatted message goes to every channel and
// the result reports whether at least one of them accepted it. Values at or
// below the threshold send nothing and return false.
func (n *Notifier) CheckThreshold(name string, actual float64) (bool, error) {
	t, ok := n.Threshold(name)
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if !t.Exceeded(actual) {
		return false, nil
	}
	return n.Notify(t.Format(actual), t.Severity), nil
}

// Notify sends message to every channel, bypassing thresholds. It reports
// whether at least one channel accepted it.
func (n *Notifier) Notify(message string, severity Severity) bool {
	delivered := false
	for _, ch := range n.Channels() {
		if ch.Send(message, severity) {
			delivered = true
		}
	}
	return delivered
}

// Info is Notify with the default Info severity.
func (n *Notifier) Info(message string) bool {
	return n.Notify(message, Info)
}
