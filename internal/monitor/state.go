package monitor

import (
	"time"

	"github.com/venkytv/nats-threshold/pkg/sample"
)

// state is what the monitor remembers about the latest sample for a threshold.
type state struct {
	name         string
	host         string
	lastValue    float64
	lastSeen     time.Time
	exceeded     bool
	delivered    bool
	triggerCount int
}

func newState(msg sample.Message) state {
	return state{
		name:      msg.Name,
		host:      msg.Host,
		lastValue: msg.Value,
		lastSeen:  msg.GeneratedAt,
	}
}

// update applies a newer sample and the outcome of its check.
func (s *state) update(msg sample.Message, exceeded, delivered bool) {
	s.host = msg.Host
	s.lastValue = msg.Value
	s.lastSeen = msg.GeneratedAt
	s.exceeded = exceeded
	s.delivered = delivered
	if exceeded {
		s.triggerCount++
	}
}
