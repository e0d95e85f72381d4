package sample

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"
)

// Message is a single measured value exchanged over NATS. Name selects the
// threshold it is checked against.
type Message struct {
	Name        string    `json:"name"`
	Value       float64   `json:"value"`
	GeneratedAt time.Time `json:"generated_at"`
	Host        string    `json:"host,omitempty"`
}

// Marshal renders the message as JSON for transport.
func (m Message) Marshal() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// Unmarshal decodes a sample message from JSON.
func Unmarshal(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, err
	}
	return msg, msg.Validate()
}

// Validate ensures required fields are present and well-formed.
func (m Message) Validate() error {
	if m.Name == "" {
		return errors.New("name is required")
	}
	// names become subject tokens
	if strings.ContainsAny(m.Name, " \t*>") {
		return errors.New("name must not contain whitespace or wildcards")
	}
	if m.GeneratedAt.IsZero() {
		return errors.New("generated_at is required")
	}
	if math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
		return errors.New("value must be finite")
	}
	return nil
}
