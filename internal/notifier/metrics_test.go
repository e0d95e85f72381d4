package notifier

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/venkytv/nats-threshold/pkg/notify"
)

func TestInstrumentedCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	ok := &Instrumented{Name: "nop", Channel: Nop{}, Metrics: m}
	bad := &Instrumented{Name: "discard", Channel: Discard{}, Metrics: m}

	if !ok.Send("a", notify.Alert) {
		t.Fatalf("expected nop to succeed")
	}
	ok.Send("b", notify.Alert)
	if bad.Send("c", notify.Warning) {
		t.Fatalf("expected discard to fail")
	}

	if got := testutil.ToFloat64(m.Deliveries.WithLabelValues("nop", "ALERT", "sent")); got != 2 {
		t.Fatalf("expected 2 sent, got %v", got)
	}
	if got := testutil.ToFloat64(m.Deliveries.WithLabelValues("discard", "WARNING", "failed")); got != 1 {
		t.Fatalf("expected 1 failed, got %v", got)
	}
}

func TestInstrumentedWithoutMetrics(t *testing.T) {
	i := &Instrumented{Name: "nop", Channel: Nop{}}
	if !i.Send("a", notify.Info) {
		t.Fatalf("expected wrapped result to pass through")
	}
}

func TestInstrumentedChannelsAreDistinctInNotifier(t *testing.T) {
	n := notify.New()
	n.ClearChannels()
	a := &Instrumented{Name: "a", Channel: Nop{}}
	n.AddChannel(a)
	n.AddChannel(a)
	n.AddChannel(&Instrumented{Name: "a", Channel: Nop{}})
	if got := len(n.Channels()); got != 2 {
		t.Fatalf("expected 2 channels, got %d", got)
	}
}
