package outbox

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	specVersion        = "1.0"
	cloudEventsContent = "application/cloudevents+json"
)

var ErrNotAnEnvelope = errors.New("outbox: payload is not a cloudevents envelope")

// Envelope is the structured-mode CloudEvents document written to the broker.
type Envelope struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	Subject         string          `json:"subject,omitempty"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	Data            json.RawMessage `json:"data"`
}

// EventName strips the version suffix from Type.
func (e Envelope) EventName() string {
	return strings.TrimSuffix(e.Type, ".v1")
}

func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, err
	}
	if env.SpecVersion == "" || env.Type == "" {
		return Envelope{}, ErrNotAnEnvelope
	}
	return env, nil
}

// TopicFor maps "booking.status_changed" to "<prefix>booking.events.v1".
func TopicFor(prefix, eventName string) string {
	base := eventName
	if idx := strings.IndexRune(eventName, '.'); idx > 0 {
		base = eventName[:idx]
	}
	return prefix + base + ".events.v1"
}
