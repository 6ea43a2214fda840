package querycache

import "context"

// ApplyFunc computes the optimistic value. It must not modify current.
type ApplyFunc[T, In any] func(current T, in In) T

// OptimisticMutation swaps a locally computed value into the target entry
// before the write runs, and restores the previous value if the write fails.
type OptimisticMutation[T, In any] struct {
	cache  *Cache
	target Key
	fn     func(ctx context.Context, in In) error
	apply  ApplyFunc[T, In]
	opts   MutationOptions
	state  handleState
}

func NewOptimisticMutation[T, In any](cache *Cache, target Key, fn func(ctx context.Context, in In) error, apply ApplyFunc[T, In], opts MutationOptions) *OptimisticMutation[T, In] {
	return &OptimisticMutation[T, In]{cache: cache, target: target, fn: fn, apply: apply, opts: opts}
}

func (m *OptimisticMutation[T, In]) Run(ctx context.Context, in In) error {
	m.state.begin()
	token, applied := m.cache.swap(m.target, func(current any) (any, bool) {
		typed, ok := current.(T)
		if !ok {
			return nil, false
		}
		return m.apply(typed, in), true
	})

	if err := m.fn(ctx, in); err != nil {
		if applied && m.cache.restore(token) {
			m.cache.metrics.IncRollback(m.target.Resource)
		}
		m.state.finish(err)
		return err
	}

	keys := append([]Key{m.target}, m.opts.Invalidate...)
	m.cache.Invalidate(keys...)
	m.state.finish(nil)
	return nil
}

func (m *OptimisticMutation[T, In]) State() MutationState {
	return m.state.snapshot()
}
