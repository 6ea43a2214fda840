package notifications

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/lottodesk-backend/pkg/errors"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
)

// FeedState is the lifecycle of a Feed's channel subscription.
type FeedState int

const (
	FeedUnsubscribed FeedState = iota
	FeedSubscribing
	FeedSubscribed
)

func (s FeedState) String() string {
	switch s {
	case FeedUnsubscribed:
		return "unsubscribed"
	case FeedSubscribing:
		return "subscribing"
	case FeedSubscribed:
		return "subscribed"
	}
	return "unknown"
}

func (s FeedState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Channel pushes the full current notification list of a user every time it
// changes. deliver is never called after unsubscribe returns, and
// unsubscribe must not be called from inside deliver.
type Channel interface {
	Subscribe(ctx context.Context, userID string, deliver func([]Notification)) (unsubscribe func(), err error)
}

// Marker persists read flags.
type Marker interface {
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkManyRead(ctx context.Context, userID string, ids []string) BatchResult
}

// FeedSnapshot is a point-in-time copy of a Feed.
type FeedSnapshot struct {
	State       FeedState      `json:"state"`
	UserID      string         `json:"user_id,omitempty"`
	Items       []Notification `json:"items"`
	UnreadCount int            `json:"unread_count"`
}

type FeedOptions struct {
	Channel Channel
	Marker  Marker
	Logger  *logger.Logger
	// OnChange receives a snapshot after every state change. It runs on the
	// goroutine that caused the change.
	OnChange func(FeedSnapshot)
	Now      func() time.Time
}

// Feed keeps one user's notification list in step with the realtime channel.
// Channel payloads replace the local list wholesale, so a later payload
// overwrites any optimistic read flag that the backend has not caught up with.
type Feed struct {
	channel  Channel
	marker   Marker
	logg     *logger.Logger
	onChange func(FeedSnapshot)
	now      func() time.Time

	mu          sync.Mutex
	state       FeedState
	userID      string
	items       []Notification
	unread      int
	gen         uint64
	unsubscribe func()
}

func NewFeed(opts FeedOptions) (*Feed, error) {
	if opts.Channel == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification channel required")
	}
	if opts.Marker == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification marker required")
	}
	logg := opts.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Feed{
		channel:  opts.Channel,
		marker:   opts.Marker,
		logg:     logg,
		onChange: opts.OnChange,
		now:      now,
	}, nil
}

// SetUser points the feed at userID. The previous subscription is released
// before the new one is opened; an empty userID only releases it.
func (f *Feed) SetUser(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)

	f.mu.Lock()
	if userID != "" && userID == f.userID && f.state != FeedUnsubscribed {
		f.mu.Unlock()
		return nil
	}
	prev := f.unsubscribe
	f.unsubscribe = nil
	f.gen++
	gen := f.gen
	f.userID = userID
	f.items = nil
	f.unread = 0
	if userID == "" {
		f.state = FeedUnsubscribed
	} else {
		f.state = FeedSubscribing
	}
	snap := f.snapshotLocked()
	f.mu.Unlock()

	if prev != nil {
		prev()
	}
	f.emit(snap)
	if userID == "" {
		return nil
	}

	unsubscribe, err := f.channel.Subscribe(ctx, userID, func(list []Notification) {
		f.receive(gen, list)
	})
	if err != nil {
		f.mu.Lock()
		current := f.gen == gen
		if current {
			f.gen++
			f.state = FeedUnsubscribed
			f.userID = ""
		}
		snap := f.snapshotLocked()
		f.mu.Unlock()
		if current {
			f.emit(snap)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subscribe to notifications")
	}

	f.mu.Lock()
	if f.gen != gen {
		// superseded by a later SetUser or Close while subscribing
		f.mu.Unlock()
		unsubscribe()
		return nil
	}
	f.unsubscribe = unsubscribe
	f.mu.Unlock()
	return nil
}

// Close releases the subscription. Calling it again is a no-op.
func (f *Feed) Close() {
	f.mu.Lock()
	prev := f.unsubscribe
	f.unsubscribe = nil
	active := f.state != FeedUnsubscribed
	f.gen++
	f.state = FeedUnsubscribed
	f.userID = ""
	f.items = nil
	f.unread = 0
	snap := f.snapshotLocked()
	f.mu.Unlock()

	if prev != nil {
		prev()
	}
	if active {
		f.emit(snap)
	}
}

func (f *Feed) receive(gen uint64, list []Notification) {
	f.mu.Lock()
	if gen != f.gen {
		f.mu.Unlock()
		return
	}
	f.items = slices.Clone(list)
	f.unread = countUnread(f.items)
	f.state = FeedSubscribed
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.emit(snap)
}

// MarkAsRead flips the local read flag and persists it. A failed write is
// logged and returned; the local flag stays until the next payload.
func (f *Feed) MarkAsRead(ctx context.Context, notificationID string) error {
	notificationID = strings.TrimSpace(notificationID)
	if notificationID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	f.mu.Lock()
	if f.state == FeedUnsubscribed {
		f.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeStateConflict, "notification feed is not subscribed")
	}
	userID := f.userID
	changed := f.flipLocked([]string{notificationID})
	snap := f.snapshotLocked()
	f.mu.Unlock()
	if changed {
		f.emit(snap)
	}

	if err := f.marker.MarkRead(ctx, userID, notificationID); err != nil {
		logCtx := f.logg.WithFields(ctx, map[string]any{"user_id": userID, "notification_id": notificationID})
		f.logg.Error(logCtx, "mark notification read failed", err)
		return err
	}
	return nil
}

// MarkAllAsRead flips every id locally, then persists them as one batch.
// With no ids it marks whatever is unread in the local list.
func (f *Feed) MarkAllAsRead(ctx context.Context, ids []string) (BatchResult, error) {
	f.mu.Lock()
	if f.state == FeedUnsubscribed {
		f.mu.Unlock()
		return BatchResult{}, pkgerrors.New(pkgerrors.CodeStateConflict, "notification feed is not subscribed")
	}
	userID := f.userID
	if len(ids) == 0 {
		for _, n := range f.items {
			if !n.Read {
				ids = append(ids, n.ID)
			}
		}
	}
	changed := f.flipLocked(ids)
	snap := f.snapshotLocked()
	f.mu.Unlock()
	if changed {
		f.emit(snap)
	}
	if len(ids) == 0 {
		return BatchResult{}, nil
	}

	result := f.marker.MarkManyRead(ctx, userID, ids)
	if err := result.Err(); err != nil {
		logCtx := f.logg.WithFields(ctx, map[string]any{
			"user_id":   userID,
			"succeeded": len(result.Succeeded),
			"failed":    len(result.Failed),
		})
		f.logg.Error(logCtx, "mark notifications read partially failed", err)
		return result, err
	}
	return result, nil
}

// Snapshot returns a copy of the current state.
func (f *Feed) Snapshot() FeedSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// flipLocked replaces f.items rather than editing it so snapshots already
// handed out stay untouched.
func (f *Feed) flipLocked(ids []string) bool {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var next []Notification
	now := f.now().UTC()
	for i, n := range f.items {
		if _, ok := want[n.ID]; !ok || n.Read {
			continue
		}
		if next == nil {
			next = slices.Clone(f.items)
		}
		next[i].Read = true
		next[i].ReadAt = &now
		if f.unread > 0 {
			f.unread--
		}
	}
	if next == nil {
		return false
	}
	f.items = next
	return true
}

func (f *Feed) snapshotLocked() FeedSnapshot {
	return FeedSnapshot{
		State:       f.state,
		UserID:      f.userID,
		Items:       slices.Clone(f.items),
		UnreadCount: f.unread,
	}
}

func (f *Feed) emit(snap FeedSnapshot) {
	if f.onChange != nil {
		f.onChange(snap)
	}
}

func countUnread(items []Notification) int {
	n := 0
	for _, item := range items {
		if !item.Read {
			n++
		}
	}
	return n
}
