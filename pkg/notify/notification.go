package notify

import (
	"encoding/json"
	"errors"
	"time"
)

// Notification is the wire form of a delivered message, used by channels
// that forward notifications to other processes.
type Notification struct {
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	SentAt   time.Time `json:"sent_at"`
	Host     string    `json:"host,omitempty"`
}

// Validate ensures required fields are present.
func (n Notification) Validate() error {
	if n.Message == "" {
		return errors.New("message is required")
	}
	if _, ok := severityNames[n.Severity]; !ok {
		return errors.New("severity is invalid")
	}
	if n.SentAt.IsZero() {
		return errors.New("sent_at is required")
	}
	return nil
}

// Marshal renders the notification as JSON.
func (n Notification) Marshal() ([]byte, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(n)
}

// UnmarshalNotification decodes and validates a JSON notification.
func UnmarshalNotification(data []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return Notification{}, err
	}
	return n, n.Validate()
}
