package querycache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
	"github.com/angelmondragon/lottodesk-backend/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// FetchFunc loads the authoritative value for a key.
type FetchFunc func(ctx context.Context) (any, error)

// Result is what a read observes.
type Result struct {
	Data      any
	HasData   bool
	FetchedAt time.Time
	// IsLoading is true while a fetch for the key is in flight.
	IsLoading bool
	IsStale   bool
	// Err is the last fetch error; Data is then the last known good value.
	Err error
}

// Options configures a Cache.
type Options struct {
	Policy  Policy
	Now     func() time.Time
	Logger  *logger.Logger
	Metrics *metrics.CacheMetrics
}

// Cache is a process-local query cache with stale-while-revalidate reads and
// single-flight fetches per key. Build one per process and pass it around.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	group   singleflight.Group
	policy  Policy
	now     func() time.Time
	logg    *logger.Logger
	metrics *metrics.CacheMetrics
}

type entry struct {
	key         Key
	policy      Policy
	data        any
	hasData     bool
	fetchedAt   time.Time
	lastAccess  time.Time
	err         error
	invalidated bool
	// generation moves on every invalidation so reads issued afterwards never
	// join a fetch started before it.
	generation uint64
	fetching   bool
	fetchGen   uint64
	// version moves on every write of data.
	version uint64
}

type fetched struct {
	data any
	at   time.Time
}

var errFetchRequired = errors.New("querycache: fetch func is required")

// New builds a Cache.
func New(opts Options) *Cache {
	policy := opts.Policy
	if policy.isZero() {
		policy = DefaultPolicy
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Cache{
		entries: map[Key]*entry{},
		policy:  policy.Normalize(),
		now:     now,
		logg:    opts.Logger,
		metrics: opts.Metrics,
	}
}

// Policy returns the cache default policy.
func (c *Cache) Policy() Policy {
	return c.policy
}

// Read returns the value for key. Fresh entries are served without calling
// fetch. Stale entries are served immediately while a background fetch
// revalidates them. Missing, expired or invalidated entries block on a fetch;
// concurrent callers share it.
func (c *Cache) Read(ctx context.Context, key Key, fetch FetchFunc, policy Policy) (Result, error) {
	if fetch == nil {
		return Result{}, errFetchRequired
	}
	policy = c.resolve(policy)
	now := c.now()

	c.mu.Lock()
	e := c.entryLocked(key, policy)
	e.lastAccess = now

	switch c.freshnessLocked(e, now) {
	case fresh:
		res := e.result()
		c.mu.Unlock()
		c.metrics.ObserveRead(key.Resource, metrics.CacheOutcomeHit)
		return res, nil
	case stale:
		c.startLocked(ctx, e, fetch)
		res := e.result()
		res.IsStale = true
		res.IsLoading = true
		c.mu.Unlock()
		c.metrics.ObserveRead(key.Resource, metrics.CacheOutcomeStale)
		return res, nil
	}

	ch := c.startLocked(ctx, e, fetch)
	previous := e.result()
	c.mu.Unlock()
	c.metrics.ObserveRead(key.Resource, metrics.CacheOutcomeMiss)

	select {
	case <-ctx.Done():
		previous.IsLoading = true
		previous.IsStale = previous.HasData
		return previous, ctx.Err()
	case out := <-ch:
		if out.Err != nil {
			previous.IsLoading = false
			previous.IsStale = previous.HasData
			previous.Err = out.Err
			return previous, out.Err
		}
		got := out.Val.(fetched)
		return Result{Data: got.data, HasData: true, FetchedAt: got.at}, nil
	}
}

// State reports the entry for key without fetching.
func (c *Cache) State(key Key) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Result{}
	}
	res := e.result()
	res.IsStale = res.HasData && c.freshnessLocked(e, c.now()) != fresh
	return res
}

// Invalidate marks every entry covered by keys as stale. The next read of
// such an entry fetches, regardless of its age.
func (c *Cache) Invalidate(keys ...Key) {
	if len(keys) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		for _, target := range keys {
			if target.covers(k) {
				e.invalidated = true
				e.generation++
				c.metrics.IncInvalidation(k.Resource)
				break
			}
		}
	}
}

// Set writes a value for key as if it had just been fetched.
func (c *Cache) Set(key Key, value any) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entryLocked(key, c.policy)
	e.data = value
	e.hasData = true
	e.fetchedAt = now
	e.lastAccess = now
	e.err = nil
	e.invalidated = false
	e.version++
	c.metrics.SetEntries(len(c.entries))
}

// Len returns the number of entries held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep evicts entries that have not been read for longer than their KeepFor
// and have no fetch in flight. It returns the number of evicted entries.
func (c *Cache) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	evicted := 0
	for k, e := range c.entries {
		if e.fetching {
			continue
		}
		if now.Sub(e.lastAccess) >= e.policy.KeepFor {
			delete(c.entries, k)
			evicted++
		}
	}
	c.metrics.SetEntries(len(c.entries))
	return evicted
}

// Run sweeps on every tick until ctx is done.
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Sweep(); n > 0 && c.logg != nil {
				c.logg.Debug(c.logg.WithField(ctx, "evicted", n), "querycache.sweep")
			}
		}
	}
}

type swapToken struct {
	key     Key
	prev    any
	version uint64
}

// swap replaces the entry's data with fn(current). It does nothing when the
// entry holds no data.
func (c *Cache) swap(key Key, fn func(current any) (any, bool)) (swapToken, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.hasData {
		return swapToken{}, false
	}
	next, ok := fn(e.data)
	if !ok {
		return swapToken{}, false
	}
	prev := e.data
	e.data = next
	e.version++
	return swapToken{key: key, prev: prev, version: e.version}, true
}

// restore puts back the value captured by swap, unless newer data has
// replaced the optimistic value in the meantime.
func (c *Cache) restore(token swapToken) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[token.key]
	if !ok || e.version != token.version {
		return false
	}
	e.data = token.prev
	e.version++
	return true
}

func (c *Cache) resolve(policy Policy) Policy {
	if policy.isZero() {
		return c.policy
	}
	return policy.Normalize()
}

func (c *Cache) entryLocked(key Key, policy Policy) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{key: key}
		c.entries[key] = e
		c.metrics.SetEntries(len(c.entries))
	}
	e.policy = policy
	return e
}

func (c *Cache) freshnessLocked(e *entry, now time.Time) freshness {
	if !e.hasData || e.invalidated {
		return expired
	}
	age := now.Sub(e.fetchedAt)
	switch {
	case age < e.policy.FreshFor:
		return fresh
	case age < e.policy.KeepFor:
		return stale
	default:
		return expired
	}
}

// startLocked joins or starts the fetch for the entry's current generation.
// The fetch runs detached from the caller's cancellation.
func (c *Cache) startLocked(ctx context.Context, e *entry, fetch FetchFunc) <-chan singleflight.Result {
	gen := e.generation
	if !e.fetching || e.fetchGen != gen {
		e.fetching = true
		e.fetchGen = gen
	}
	key := e.key
	fetchCtx := context.WithoutCancel(ctx)
	return c.group.DoChan(flightKey(key, gen), func() (any, error) {
		data, err := fetch(fetchCtx)
		return c.complete(fetchCtx, key, gen, data, err)
	})
}

func (c *Cache) complete(ctx context.Context, key Key, gen uint64, data any, err error) (any, error) {
	now := c.now()
	c.mu.Lock()
	e, ok := c.entries[key]
	current := ok && e.generation == gen
	if current && e.fetchGen == gen {
		e.fetching = false
	}
	if err != nil {
		if current {
			e.err = err
		}
		c.mu.Unlock()
		c.metrics.IncFetchError(key.Resource)
		if c.logg != nil {
			c.logg.Warn(c.logg.WithFields(ctx, map[string]any{"cache_key": key.String(), "error": err.Error()}), "querycache.fetch_failed")
		}
		return nil, err
	}
	if current {
		e.data = data
		e.hasData = true
		e.fetchedAt = now
		e.err = nil
		e.invalidated = false
		e.version++
	}
	c.mu.Unlock()
	return fetched{data: data, at: now}, nil
}

func (e *entry) result() Result {
	return Result{
		Data:      e.data,
		HasData:   e.hasData,
		FetchedAt: e.fetchedAt,
		IsLoading: e.fetching && e.fetchGen == e.generation,
		Err:       e.err,
	}
}

func flightKey(key Key, gen uint64) string {
	return fmt.Sprintf("%s#%d", key.String(), gen)
}
