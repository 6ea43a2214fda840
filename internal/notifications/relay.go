package notifications

import (
	"context"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/lottodesk-backend/pkg/errors"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
)

const (
	defaultRelayMinDelay = 500 * time.Millisecond
	defaultRelayMaxDelay = 30 * time.Second
)

type RelayOptions struct {
	MinDelay time.Duration
	MaxDelay time.Duration
	Logger   *logger.Logger
}

// Relay keeps the hub subscribed to the bus. A dropped or refused
// subscription is retried with doubling delays capped at MaxDelay, and Ping
// fails for as long as no subscription is live.
type Relay struct {
	hub      *Hub
	minDelay time.Duration
	maxDelay time.Duration
	logg     *logger.Logger

	mu   sync.Mutex
	down error
}

func NewRelay(hub *Hub, opts RelayOptions) *Relay {
	r := &Relay{
		hub:      hub,
		minDelay: opts.MinDelay,
		maxDelay: opts.MaxDelay,
		logg:     opts.Logger,
	}
	if r.minDelay <= 0 {
		r.minDelay = defaultRelayMinDelay
	}
	if r.maxDelay < r.minDelay {
		r.maxDelay = max(defaultRelayMaxDelay, r.minDelay)
	}
	if r.logg == nil {
		r.logg = logger.Nop()
	}
	if hub.bus != nil {
		r.down = pkgerrors.New(pkgerrors.CodeDependency, "notification relay not subscribed yet")
	}
	return r
}

// Run blocks until ctx ends.
func (r *Relay) Run(ctx context.Context) error {
	delay := r.minDelay
	for {
		err := r.hub.run(ctx, func() {
			r.setDown(nil)
			delay = r.minDelay
		})
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			err = pkgerrors.New(pkgerrors.CodeDependency, "notification relay stopped")
		}
		r.setDown(err)
		r.logg.Error(r.logg.WithField(ctx, "retry_in", delay.String()), "notification relay dropped", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		delay = min(delay*2, r.maxDelay)
	}
}

// Ping reports the last relay failure while the subscription is down.
func (r *Relay) Ping(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.down
}

func (r *Relay) setDown(err error) {
	r.mu.Lock()
	r.down = err
	r.mu.Unlock()
}
