package monitor

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	checks    *prometheus.CounterVec
	lastValue *prometheus.GaugeVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		checks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "threshold_checks_total",
				Help: "Samples checked against thresholds, by outcome",
			},
			[]string{"threshold", "outcome"},
		),
		lastValue: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "threshold_last_value",
				Help: "Most recent sample value per threshold",
			},
			[]string{"threshold"},
		),
	}
	reg.MustRegister(m.checks, m.lastValue)
	return m
}

func (m *metrics) observe(name string, value float64, exceeded bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if exceeded {
		outcome = "exceeded"
	}
	m.checks.WithLabelValues(name, outcome).Inc()
	m.lastValue.WithLabelValues(name).Set(value)
}

func (m *metrics) unknown(name string) {
	if m == nil {
		return
	}
	m.checks.WithLabelValues(name, "unknown").Inc()
}

func (m *metrics) forget(name string) {
	if m == nil {
		return
	}
	m.lastValue.DeleteLabelValues(name)
}
