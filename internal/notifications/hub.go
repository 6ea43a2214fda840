package notifications

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	pkgerrors "github.com/angelmondragon/lottodesk-backend/pkg/errors"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Loader returns the full current list for a user, newest first.
type Loader func(ctx context.Context, userID string) ([]Notification, error)

// RepositoryLoader serves a user's list straight from the store.
func RepositoryLoader(repo Repository) Loader {
	return func(ctx context.Context, userID string) ([]Notification, error) {
		rows, err := repo.ListForUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		return fromModels(rows), nil
	}
}

// Broadcaster fans change signals out to every API instance.
type Broadcaster interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan *redis.Message, func() error, error)
}

type HubOptions struct {
	Loader Loader
	// Bus is optional; without it changes only reach subscribers of this process.
	Bus     Broadcaster
	Channel string
	Logger  *logger.Logger
}

// Hub implements Channel. Each subscriber owns a goroutine that reloads and
// delivers the user's list whenever it is woken; wakes coalesce so a slow
// subscriber only ever sees the latest list.
type Hub struct {
	load    Loader
	bus     Broadcaster
	channel string
	logg    *logger.Logger

	mu     sync.Mutex
	subs   map[string]map[*subscriber]struct{}
	closed bool
	wg     sync.WaitGroup
}

type subscriber struct {
	userID  string
	deliver func([]Notification)
	wake    chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
}

// changeMessage is the bus payload. No user ids means everyone.
type changeMessage struct {
	UserIDs []string `json:"userIds,omitempty"`
}

func NewHub(opts HubOptions) (*Hub, error) {
	if opts.Loader == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification loader required")
	}
	if opts.Bus != nil && strings.TrimSpace(opts.Channel) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification change channel required")
	}
	logg := opts.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Hub{
		load:    opts.Loader,
		bus:     opts.Bus,
		channel: opts.Channel,
		logg:    logg,
		subs:    make(map[string]map[*subscriber]struct{}),
	}, nil
}

// Subscribe delivers the current list right away and again after every
// change for userID until unsubscribe is called or ctx ends.
func (h *Hub) Subscribe(ctx context.Context, userID string, deliver func([]Notification)) (func(), error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if deliver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deliver callback required")
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscriber{
		userID:  userID,
		deliver: deliver,
		wake:    make(chan struct{}, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	sub.wake <- struct{}{}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		cancel()
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification hub closed")
	}
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscriber]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	h.wg.Add(1)
	h.mu.Unlock()

	go h.serve(subCtx, sub)

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.cancel()
			<-sub.done
		})
	}, nil
}

func (h *Hub) serve(ctx context.Context, sub *subscriber) {
	defer func() {
		h.remove(sub)
		close(sub.done)
		h.wg.Done()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.wake:
		}
		list, err := h.load(ctx, sub.userID)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			h.logg.Error(h.logg.WithUserID(ctx, sub.userID), "load notifications for subscriber", err)
			continue
		}
		sub.deliver(list)
	}
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[sub.userID]
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.userID)
	}
}

// Subscribers counts live subscriptions for userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

// Notify signals that the lists of userIDs changed; none means every user.
// Publishing goes through the bus when one is configured and falls back to
// waking local subscribers when it fails.
func (h *Hub) Notify(ctx context.Context, userIDs ...string) {
	ids := compactIDs(userIDs)
	if h.bus == nil {
		h.wakeLocal(ids)
		return
	}
	payload, err := json.Marshal(changeMessage{UserIDs: ids})
	if err == nil {
		err = h.bus.Publish(ctx, h.channel, payload)
	}
	if err != nil {
		h.logg.Error(ctx, "publish notification change failed, waking local subscribers", err)
		h.wakeLocal(ids)
	}
}

// Run relays bus messages to local subscribers until ctx ends. Without a bus
// it just waits.
func (h *Hub) Run(ctx context.Context) error {
	return h.run(ctx, func() {})
}

func (h *Hub) run(ctx context.Context, subscribed func()) error {
	if h.bus == nil {
		<-ctx.Done()
		return nil
	}
	msgs, closeFn, err := h.bus.Subscribe(ctx, h.channel)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subscribe notification changes")
	}
	subscribed()
	defer func() {
		if err := closeFn(); err != nil {
			h.logg.Warn(ctx, "closing notification change subscription: "+err.Error())
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return pkgerrors.New(pkgerrors.CodeDependency, "notification change subscription closed")
			}
			var change changeMessage
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				h.logg.Error(ctx, "decode notification change", err)
				continue
			}
			h.wakeLocal(compactIDs(change.UserIDs))
		}
	}
}

func (h *Hub) wakeLocal(userIDs []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(userIDs) == 0 {
		for _, set := range h.subs {
			wakeAll(set)
		}
		return
	}
	for _, id := range userIDs {
		wakeAll(h.subs[id])
	}
}

func wakeAll(set map[*subscriber]struct{}) {
	for sub := range set {
		select {
		case sub.wake <- struct{}{}:
		default:
		}
	}
}

// Close stops every subscriber and waits for their goroutines.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for _, set := range h.subs {
		for sub := range set {
			sub.cancel()
		}
	}
	h.mu.Unlock()
	h.wg.Wait()
}

func compactIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
