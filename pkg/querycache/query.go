package querycache

import (
	"context"
	"fmt"
	"time"
)

// Snapshot is the typed view of a Result.
type Snapshot[T any] struct {
	Data      T
	HasData   bool
	FetchedAt time.Time
	IsLoading bool
	IsStale   bool
	Err       error
}

// Read is the typed form of Cache.Read.
func Read[T any](ctx context.Context, c *Cache, key Key, policy Policy, fetch func(context.Context) (T, error)) (Snapshot[T], error) {
	res, err := c.Read(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	}, policy)
	snap, convErr := toSnapshot[T](key, res)
	if convErr != nil {
		return snap, convErr
	}
	return snap, err
}

func toSnapshot[T any](key Key, res Result) (Snapshot[T], error) {
	snap := Snapshot[T]{
		HasData:   res.HasData,
		FetchedAt: res.FetchedAt,
		IsLoading: res.IsLoading,
		IsStale:   res.IsStale,
		Err:       res.Err,
	}
	if !res.HasData || res.Data == nil {
		return snap, nil
	}
	data, ok := res.Data.(T)
	if !ok {
		return snap, fmt.Errorf("querycache: entry %s holds %T", key, res.Data)
	}
	snap.Data = data
	return snap, nil
}

// Query binds a key, a policy and a fetch function into a reusable typed read.
type Query[T any] struct {
	cache  *Cache
	key    Key
	policy Policy
	fetch  func(context.Context) (T, error)
}

func NewQuery[T any](cache *Cache, key Key, policy Policy, fetch func(context.Context) (T, error)) *Query[T] {
	return &Query[T]{cache: cache, key: key, policy: policy, fetch: fetch}
}

func (q *Query[T]) Key() Key {
	return q.key
}

func (q *Query[T]) Get(ctx context.Context) (Snapshot[T], error) {
	return Read(ctx, q.cache, q.key, q.policy, q.fetch)
}

// State reports the cached snapshot without fetching.
func (q *Query[T]) State() Snapshot[T] {
	snap, _ := toSnapshot[T](q.key, q.cache.State(q.key))
	return snap
}

// Freshness describes how current a served snapshot is.
type Freshness struct {
	FetchedAt time.Time `json:"fetched_at"`
	Stale     bool      `json:"stale"`
	Loading   bool      `json:"loading"`
	// RefreshFailed marks older data served because the last fetch failed.
	RefreshFailed bool `json:"refresh_failed,omitempty"`
}

func (s Snapshot[T]) Freshness() Freshness {
	return Freshness{FetchedAt: s.FetchedAt, Stale: s.IsStale, Loading: s.IsLoading, RefreshFailed: s.Err != nil}
}

// Served decides what a read can hand to a caller. A failed fetch with last
// known data is served as stale data; without data the error stands.
func Served[T any](snap Snapshot[T], err error) (Snapshot[T], error) {
	if err == nil {
		return snap, nil
	}
	if !snap.HasData {
		return snap, err
	}
	snap.IsStale = true
	snap.Err = err
	return snap, nil
}
