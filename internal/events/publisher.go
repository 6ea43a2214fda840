package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/lottodesk-backend/pkg/auth"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
)

// Publisher emits domain events. Services call it after a successful write;
// a publish failure never undoes the write.
type Publisher interface {
	Publish(ctx context.Context, actor auth.Actor, eventType enums.EventType, data any) error
}

type topic interface {
	Publish(ctx context.Context, msg *pubsub.Message) *pubsub.PublishResult
}

// PubSubPublisher publishes envelopes on the domain topic.
type PubSubPublisher struct {
	topic topic
	logg  *logger.Logger
	now   func() time.Time
}

func NewPubSubPublisher(t *pubsub.Publisher, logg *logger.Logger) (*PubSubPublisher, error) {
	if t == nil {
		return nil, fmt.Errorf("domain publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &PubSubPublisher{topic: t, logg: logg, now: time.Now}, nil
}

func (p *PubSubPublisher) Publish(ctx context.Context, actor auth.Actor, eventType enums.EventType, data any) error {
	env, err := NewEnvelope(eventType, actor, p.now(), data)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	serverID, err := p.topic.Publish(ctx, &pubsub.Message{Data: raw, Attributes: env.Attributes()}).Get(ctx)
	if err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	p.logg.Debug(p.logg.WithFields(ctx, map[string]any{
		"event_type": string(eventType),
		"event_id":   env.EventID,
		"message_id": serverID,
	}), "domain event published")
	return nil
}

// LogPublisher records events in the log only. Used when publishing is
// switched off and in local development.
type LogPublisher struct {
	logg *logger.Logger
}

func NewLogPublisher(logg *logger.Logger) *LogPublisher {
	return &LogPublisher{logg: logg}
}

func (p *LogPublisher) Publish(ctx context.Context, actor auth.Actor, eventType enums.EventType, data any) error {
	env, err := NewEnvelope(eventType, actor, time.Now(), data)
	if err != nil {
		return err
	}
	if p.logg != nil {
		p.logg.Info(p.logg.WithFields(ctx, map[string]any{
			"event_type": string(eventType),
			"event_id":   env.EventID,
		}), "domain event (not published)")
	}
	return nil
}

// Emit publishes and logs a failure instead of returning it.
func Emit(ctx context.Context, pub Publisher, logg *logger.Logger, actor auth.Actor, eventType enums.EventType, data any) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, actor, eventType, data); err != nil && logg != nil {
		logg.Error(logg.WithField(ctx, "event_type", string(eventType)), "publish domain event failed", err)
	}
}
