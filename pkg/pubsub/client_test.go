package pubsub

import (
	"context"
	"testing"

	"github.com/angelmondragon/lottodesk-backend/pkg/config"
)

func TestResourceNames(t *testing.T) {
	c := &Client{projectID: "lotto-prod"}

	if got := c.subscriptionResourceName("lottodesk-notifications"); got != "projects/lotto-prod/subscriptions/lottodesk-notifications" {
		t.Fatalf("unexpected subscription name %s", got)
	}
	full := "projects/other/subscriptions/x"
	if got := c.subscriptionResourceName(full); got != full {
		t.Fatalf("full names should pass through, got %s", got)
	}
	if got := c.topicResourceName("lottodesk-domain-events"); got != "projects/lotto-prod/topics/lottodesk-domain-events" {
		t.Fatalf("unexpected topic name %s", got)
	}
	if got := c.topicResourceName("  "); got != "" {
		t.Fatalf("blank names resolve to empty, got %q", got)
	}
}

func TestSubscriptionNamesSkipBlank(t *testing.T) {
	if names := subscriptionNames(config.PubSubConfig{}); len(names) != 0 {
		t.Fatalf("expected no names, got %v", names)
	}
	names := subscriptionNames(config.PubSubConfig{NotificationSubscription: " lottodesk-notifications "})
	if len(names) != 1 || names[0] != "lottodesk-notifications" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	if c.Publisher("t") != nil || c.Subscription("s") != nil {
		t.Fatal("nil client should hand out nil handles")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close on nil client: %v", err)
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error on nil client")
	}
}
