package notify

import (
	"fmt"
	"strings"
)

// Severity classifies a notification. The Notifier carries it to channels
// without interpreting it.
type Severity int

const (
	Info Severity = iota + 1
	Warning
	Alert
	Error
)

var severityNames = map[Severity]string{
	Info:    "INFO",
	Warning: "WARNING",
	Alert:   "ALERT",
	Error:   "ERROR",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// Valid reports whether s is one of the defined severities.
func (s Severity) Valid() bool {
	_, ok := severityNames[s]
	return ok
}

// ParseSeverity accepts severity names in any case.
func ParseSeverity(v string) (Severity, error) {
	want := strings.ToUpper(strings.TrimSpace(v))
	for s, name := range severityNames {
		if name == want {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q", v)
}

func (s Severity) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	parsed, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
