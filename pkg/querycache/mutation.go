package querycache

import (
	"context"
	"sync"
)

// MutationStatus is the state of a mutation handle's latest invocation.
type MutationStatus string

const (
	MutationIdle    MutationStatus = "idle"
	MutationPending MutationStatus = "pending"
	MutationSuccess MutationStatus = "success"
	MutationError   MutationStatus = "error"
)

// MutationState is exposed for status endpoints and tests.
type MutationState struct {
	Status    MutationStatus
	IsPending bool
	Err       error
}

// MutationOptions lists every key the mutation may change.
type MutationOptions struct {
	Invalidate []Key
}

type handleState struct {
	mu      sync.Mutex
	pending int
	status  MutationStatus
	err     error
}

func (h *handleState) begin() {
	h.mu.Lock()
	h.pending++
	h.status = MutationPending
	h.mu.Unlock()
}

func (h *handleState) finish(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending > 0 {
		h.pending--
	}
	h.err = err
	if err != nil {
		h.status = MutationError
		return
	}
	h.status = MutationSuccess
}

func (h *handleState) snapshot() MutationState {
	h.mu.Lock()
	defer h.mu.Unlock()
	status := h.status
	if status == "" {
		status = MutationIdle
	}
	if h.pending > 0 {
		status = MutationPending
	}
	return MutationState{Status: status, IsPending: h.pending > 0, Err: h.err}
}

// MutateFunc writes through to the backing store.
type MutateFunc[In, Out any] func(ctx context.Context, in In) (Out, error)

// Mutation runs a write and invalidates its keys on success. A failed write
// leaves the cache untouched.
type Mutation[In, Out any] struct {
	cache *Cache
	fn    MutateFunc[In, Out]
	opts  MutationOptions
	state handleState
}

func NewMutation[In, Out any](cache *Cache, fn MutateFunc[In, Out], opts MutationOptions) *Mutation[In, Out] {
	return &Mutation[In, Out]{cache: cache, fn: fn, opts: opts}
}

func (m *Mutation[In, Out]) Run(ctx context.Context, in In) (Out, error) {
	m.state.begin()
	out, err := m.fn(ctx, in)
	if err != nil {
		m.state.finish(err)
		return out, err
	}
	m.cache.Invalidate(m.opts.Invalidate...)
	m.state.finish(nil)
	return out, nil
}

func (m *Mutation[In, Out]) State() MutationState {
	return m.state.snapshot()
}
