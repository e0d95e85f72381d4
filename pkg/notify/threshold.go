package notify

import (
	"strconv"
	"strings"
)

// DefaultTemplate is used when a threshold is registered without a template.
const DefaultTemplate = "{name} threshold exceeded: {actual_value} > {threshold_value}"

// Threshold is a named trigger value with the severity and message template
// used when a checked value exceeds it.
type Threshold struct {
	Name     string   `json:"name"`
	Value    float64  `json:"value"`
	Severity Severity `json:"severity"`
	Template string   `json:"template"`
}

// Exceeded reports whether actual is strictly greater than the threshold.
func (t Threshold) Exceeded(actual float64) bool {
	return actual > t.Value
}

// Format renders the template for the given actual value. Unknown
// placeholders are left as-is.
func (t Threshold) Format(actual float64) string {
	tmpl := t.Template
	if tmpl == "" {
		tmpl = DefaultTemplate
	}
	r := strings.NewReplacer(
		"{name}", t.Name,
		"{actual_value}", FormatValue(actual),
		"{threshold_value}", FormatValue(t.Value),
	)
	return r.Replace(tmpl)
}

// FormatValue renders a number with the fewest digits that round-trip and
// no exponent: 85, 0.5, 1000000.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ThresholdOption customises a threshold at registration.
type ThresholdOption func(*Threshold)

// WithSeverity sets the severity carried to channels. Values outside the
// defined severities are ignored and the default is kept.
func WithSeverity(s Severity) ThresholdOption {
	return func(t *Threshold) {
		if s.Valid() {
			t.Severity = s
		}
	}
}

// WithTemplate sets the message template. An empty template keeps the default.
func WithTemplate(tmpl string) ThresholdOption {
	return func(t *Threshold) {
		if tmpl != "" {
			t.Template = tmpl
		}
	}
}
