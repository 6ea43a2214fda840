package notifications

import (
	"context"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/lottodesk-backend/internal/events"
	"github.com/angelmondragon/lottodesk-backend/internal/events/idempotency"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lottodesk-backend/pkg/errors"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
)

const notificationConsumer = "admin-notifications"

type deliverer interface {
	Deliver(ctx context.Context, audience Audience, draft Draft) (int, error)
}

// Consumer turns domain events into admin notifications.
type Consumer struct {
	sink         deliverer
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	decoders     *events.DecoderRegistry
	logg         *logger.Logger
}

// NewConsumer builds the notification consumer.
func NewConsumer(sink deliverer, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if sink == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification service required")
	}
	if subscription == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "domain subscription required")
	}
	if manager == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "idempotency manager required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &Consumer{
		sink:         sink,
		subscription: subscription,
		idempotency:  manager,
		decoders:     events.DefaultDecoders(),
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.Handle(ctx, msg.ID, msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// Handle processes one message and reports whether it should be acked.
// Undecodable messages are acked so they do not loop forever.
func (c *Consumer) Handle(ctx context.Context, messageID string, data []byte) bool {
	logCtx := c.logg.WithField(ctx, "message_id", messageID)

	env, payload, err := c.decoders.Decode(data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode event", err)
		return true
	}
	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"event_type": string(env.Type),
		"event_id":   env.EventID,
	})
	eventID, err := env.ID()
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return true
	}

	audience, draft, ok := notificationFor(payload)
	if !ok {
		c.logg.Debug(logCtx, "event does not notify")
		return true
	}

	ran, err := c.idempotency.Once(ctx, notificationConsumer, eventID, func(ctx context.Context) error {
		_, err := c.sink.Deliver(ctx, audience, draft)
		return err
	})
	if err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		return false
	}
	if !ran {
		c.logg.Info(logCtx, "event already processed")
	}
	return true
}

// notificationFor maps a decoded payload to its recipients and content.
func notificationFor(payload any) (Audience, Draft, bool) {
	switch p := payload.(type) {
	case *events.VendorApplied:
		return Audience{Permission: enums.PermissionVendorsWrite}, Draft{
			Type:     enums.NotificationTypeVendorApplication,
			Title:    "New vendor application",
			Message:  fmt.Sprintf("%s applied to sell on the marketplace.", p.Name),
			Priority: enums.NotificationPriorityNormal,
			Link:     "/vendors/" + p.VendorID,
		}, true
	case *events.VendorStatusChanged:
		message := fmt.Sprintf("%s moved from %s to %s.", p.Name, p.From, p.To)
		if p.Reason != "" {
			message = fmt.Sprintf("%s moved from %s to %s. Reason: %s", p.Name, p.From, p.To, p.Reason)
		}
		priority := enums.NotificationPriorityNormal
		if p.To == enums.VendorStatusSuspended {
			priority = enums.NotificationPriorityHigh
		}
		return Audience{Permission: enums.PermissionVendorsRead}, Draft{
			Type:     enums.NotificationTypeVendorStatus,
			Title:    "Vendor status changed",
			Message:  message,
			Priority: priority,
			Link:     "/vendors/" + p.VendorID,
		}, true
	case *events.GameStatusChanged:
		return Audience{Permission: enums.PermissionGamesRead}, Draft{
			Type:     enums.NotificationTypeGameUpdate,
			Title:    "Game status changed",
			Message:  fmt.Sprintf("%s moved from %s to %s.", p.Name, p.From, p.To),
			Priority: enums.NotificationPriorityLow,
			Link:     "/games/" + p.GameID,
		}, true
	case *events.WinnerDeclared:
		return Audience{Permission: enums.PermissionWinnersWrite}, Draft{
			Type:     enums.NotificationTypeWinnerDeclared,
			Title:    "Winner declared",
			Message:  fmt.Sprintf("%s won %s in %s.", p.Name, p.Prize, p.GameName),
			Priority: enums.NotificationPriorityHigh,
			Link:     "/winners/" + p.WinnerID,
		}, true
	case *events.WinnerStatusChanged:
		return Audience{Permission: enums.PermissionWinnersRead}, Draft{
			Type:     enums.NotificationTypeWinnerDeclared,
			Title:    "Winner status changed",
			Message:  fmt.Sprintf("Prize for %s moved from %s to %s.", p.Name, p.From, p.To),
			Priority: enums.NotificationPriorityNormal,
			Link:     "/winners/" + p.WinnerID,
		}, true
	case *events.ReportCreated:
		if p.CreatedBy == "" {
			return Audience{}, Draft{}, false
		}
		return Audience{UserIDs: []string{p.CreatedBy}}, Draft{
			Type:     enums.NotificationTypeReportReady,
			Title:    "Report ready",
			Message:  fmt.Sprintf("%s (%s) is ready to view.", p.Name, p.Range),
			Priority: enums.NotificationPriorityLow,
			Link:     "/reports/" + p.ReportID,
		}, true
	case *events.AnnouncementRequested:
		return Audience{UserIDs: p.UserIDs}, Draft{
			Type:     enums.NotificationTypeSystemAnnouncement,
			Title:    p.Title,
			Message:  p.Message,
			Priority: p.Priority,
			Link:     p.Link,
		}, true
	}
	return Audience{}, Draft{}, false
}
