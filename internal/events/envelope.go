// Package events carries domain events between the API and the workers over
// the domain Pub/Sub topic.
package events

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/angelmondragon/lottodesk-backend/pkg/auth"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	"github.com/google/uuid"
)

// EnvelopeVersion is the current envelope schema version.
const EnvelopeVersion = 1

// Message attribute names.
const (
	AttrEventType = "event_type"
	AttrEventID   = "event_id"
	AttrVersion   = "version"
)

// ActorRef identifies who produced the event.
type ActorRef struct {
	UserID string `json:"userId"`
	Name   string `json:"name,omitempty"`
}

// Envelope is the stable structure every domain event is wrapped in.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	Type       enums.EventType `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// NewEnvelope wraps data for publication.
func NewEnvelope(eventType enums.EventType, actor auth.Actor, now time.Time, data any) (Envelope, error) {
	if !eventType.IsValid() {
		return Envelope{}, fmt.Errorf("invalid event type %q", eventType)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	env := Envelope{
		Version:    EnvelopeVersion,
		EventID:    uuid.NewString(),
		Type:       eventType,
		OccurredAt: now.UTC(),
		Data:       raw,
	}
	if !actor.IsZero() {
		env.Actor = &ActorRef{UserID: actor.UserID, Name: actor.Name}
	}
	return env, nil
}

// Attributes are the Pub/Sub message attributes consumers filter on.
func (e Envelope) Attributes() map[string]string {
	return map[string]string{
		AttrEventType: string(e.Type),
		AttrEventID:   e.EventID,
		AttrVersion:   strconv.Itoa(e.Version),
	}
}

// ID parses the event id.
func (e Envelope) ID() (uuid.UUID, error) {
	return uuid.Parse(e.EventID)
}
