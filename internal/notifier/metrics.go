package notifier

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/venkytv/nats-threshold/pkg/notify"
)

// Metrics counts deliveries per channel.
type Metrics struct {
	Deliveries *prometheus.CounterVec
}

// NewMetrics creates the delivery counters and registers them with reg
// when reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifier_deliveries_total",
				Help: "Notifications handed to delivery channels, by outcome",
			},
			[]string{"channel", "severity", "outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Deliveries)
	}
	return m
}

// Instrumented wraps a channel and counts its deliveries.
type Instrumented struct {
	Name    string
	Channel notify.Channel
	Metrics *Metrics
}

func (i *Instrumented) Send(message string, severity notify.Severity) bool {
	ok := i.Channel.Send(message, severity)
	if i.Metrics != nil {
		outcome := "failed"
		if ok {
			outcome = "sent"
		}
		i.Metrics.Deliveries.WithLabelValues(i.Name, severity.String(), outcome).Inc()
	}
	return ok
}
