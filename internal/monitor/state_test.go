package monitor

import (
	"testing"
	"time"

	"github.com/venkytv/nats-threshold/pkg/sample"
)

func TestNewStateCapturesSample(t *testing.T) {
	now := time.Now()
	st := newState(sample.Message{Name: "cpu", Value: 42, GeneratedAt: now, Host: "host-1"})
	if st.host != "host-1" {
		t.Fatalf("expected host host-1, got %s", st.host)
	}
	if st.lastValue != 42 || !st.lastSeen.Equal(now) {
		t.Fatalf("expected value 42 at %s, got %v at %s", now, st.lastValue, st.lastSeen)
	}
	if st.triggerCount != 0 || st.exceeded {
		t.Fatalf("expected fresh state, got %+v", st)
	}
}

func TestUpdateCountsTriggers(t *testing.T) {
	st := newState(sample.Message{Name: "cpu", Value: 1, GeneratedAt: time.Now()})

	st.update(sample.Message{Name: "cpu", Value: 90, GeneratedAt: time.Now(), Host: "h"}, true, true)
	st.update(sample.Message{Name: "cpu", Value: 95, GeneratedAt: time.Now(), Host: "h"}, true, false)
	st.update(sample.Message{Name: "cpu", Value: 10, GeneratedAt: time.Now(), Host: "h"}, false, false)

	if st.triggerCount != 2 {
		t.Fatalf("expected 2 triggers, got %d", st.triggerCount)
	}
	if st.exceeded || st.delivered {
		t.Fatalf("expected last update to clear exceeded/delivered, got %+v", st)
	}
	if st.lastValue != 10 || st.host != "h" {
		t.Fatalf("expected last value 10 from h, got %v from %s", st.lastValue, st.host)
	}
}
