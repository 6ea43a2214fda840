package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedVendors(t *testing.T, cache *Cache, key Key, rows []vendorRow) {
	t.Helper()
	_, err := cache.Read(context.Background(), key, func(context.Context) (any, error) { return rows, nil }, testPolicy)
	require.NoError(t, err)
}

func TestMutationInvalidatesOnSuccess(t *testing.T) {
	cache := newTestCache(newFakeClock())
	ctx := context.Background()
	roles := NewKey("admin-roles")
	vendors := NewKey("vendors")
	var roleCalls, vendorCalls int32

	_, err := cache.Read(ctx, roles, counting(&roleCalls, "roles"), testPolicy)
	require.NoError(t, err)
	_, err = cache.Read(ctx, vendors, counting(&vendorCalls, "vendors"), testPolicy)
	require.NoError(t, err)

	deleteRole := NewMutation(cache, func(_ context.Context, id string) (string, error) {
		return id, nil
	}, MutationOptions{Invalidate: []Key{roles}})

	assert.Equal(t, MutationIdle, deleteRole.State().Status)
	out, err := deleteRole.Run(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", out)
	assert.Equal(t, MutationSuccess, deleteRole.State().Status)
	assert.False(t, deleteRole.State().IsPending)

	_, err = cache.Read(ctx, roles, counting(&roleCalls, "roles"), testPolicy)
	require.NoError(t, err)
	_, err = cache.Read(ctx, vendors, counting(&vendorCalls, "vendors"), testPolicy)
	require.NoError(t, err)

	assert.EqualValues(t, 2, roleCalls)
	assert.EqualValues(t, 1, vendorCalls)
}

func TestMutationFailureLeavesCacheUntouched(t *testing.T) {
	cache := newTestCache(newFakeClock())
	ctx := context.Background()
	key := NewKey("admin-users")
	var calls int32
	_, err := cache.Read(ctx, key, counting(&calls, "users"), testPolicy)
	require.NoError(t, err)

	boom := errors.New("write rejected")
	m := NewMutation(cache, func(context.Context, string) (struct{}, error) {
		return struct{}{}, boom
	}, MutationOptions{Invalidate: []Key{key}})

	_, err = m.Run(ctx, "u1")
	require.ErrorIs(t, err, boom)
	state := m.State()
	assert.Equal(t, MutationError, state.Status)
	assert.ErrorIs(t, state.Err, boom)

	res, err := cache.Read(ctx, key, counting(&calls, "other"), testPolicy)
	require.NoError(t, err)
	assert.Equal(t, "users", res.Data)
	assert.EqualValues(t, 1, calls)
}

func TestMutationReportsPendingWhileRunning(t *testing.T) {
	cache := newTestCache(newFakeClock())
	entered := make(chan struct{})
	release := make(chan struct{})
	m := NewMutation(cache, func(context.Context, int) (int, error) {
		close(entered)
		<-release
		return 1, nil
	}, MutationOptions{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = m.Run(context.Background(), 1)
	}()
	<-entered
	state := m.State()
	assert.True(t, state.IsPending)
	assert.Equal(t, MutationPending, state.Status)
	close(release)
	<-done
	assert.False(t, m.State().IsPending)
}

func TestOptimisticRollbackRestoresExactValue(t *testing.T) {
	cache := newTestCache(newFakeClock())
	key := NewKey("vendors")
	original := []vendorRow{{ID: "v1", Status: "PENDING"}, {ID: "v2", Status: "APPROVED"}}
	seedVendors(t, cache, key, original)
	before, err := json.Marshal(cache.State(key).Data)
	require.NoError(t, err)

	boom := errors.New("approve failed")
	var seenDuringWrite []vendorRow
	approve := NewOptimisticMutation(cache, key, func(context.Context, string) error {
		seenDuringWrite = cache.State(key).Data.([]vendorRow)
		return boom
	}, func(current []vendorRow, id string) []vendorRow {
		return UpdateWhere(current, func(v vendorRow) bool { return v.ID == id }, func(v vendorRow) vendorRow {
			v.Status = "APPROVED"
			return v
		})
	}, MutationOptions{Invalidate: []Key{NewKey("dashboard-stats")}})

	err = approve.Run(context.Background(), "v1")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "APPROVED", seenDuringWrite[0].Status)

	after, err := json.Marshal(cache.State(key).Data)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	assert.True(t, reflect.DeepEqual(original, cache.State(key).Data))
	assert.Equal(t, MutationError, approve.State().Status)
}

func TestOptimisticSuccessInvalidatesTargetAndExtras(t *testing.T) {
	cache := newTestCache(newFakeClock())
	ctx := context.Background()
	key := NewKey("vendors")
	stats := NewKey("dashboard-stats", "30d")
	seedVendors(t, cache, key, []vendorRow{{ID: "v1", Status: "PENDING"}})
	var statCalls int32
	_, err := cache.Read(ctx, stats, counting(&statCalls, 1), testPolicy)
	require.NoError(t, err)

	suspend := NewOptimisticMutation(cache, key, func(context.Context, string) error { return nil },
		func(current []vendorRow, id string) []vendorRow {
			return UpdateWhere(current, func(v vendorRow) bool { return v.ID == id }, func(v vendorRow) vendorRow {
				v.Status = "SUSPENDED"
				return v
			})
		}, MutationOptions{Invalidate: []Key{NewKey("dashboard-stats")}})

	require.NoError(t, suspend.Run(ctx, "v1"))
	state := cache.State(key)
	assert.True(t, state.IsStale, "target must refetch on next read")
	assert.Equal(t, "SUSPENDED", state.Data.([]vendorRow)[0].Status)

	res, err := cache.Read(ctx, key, func(context.Context) (any, error) {
		return []vendorRow{{ID: "v1", Status: "SUSPENDED"}}, nil
	}, testPolicy)
	require.NoError(t, err)
	assert.False(t, res.IsStale)

	_, err = cache.Read(ctx, stats, counting(&statCalls, 2), testPolicy)
	require.NoError(t, err)
	assert.EqualValues(t, 2, statCalls)
}

func TestOptimisticRollbackSkippedWhenNewerDataLanded(t *testing.T) {
	cache := newTestCache(newFakeClock())
	key := NewKey("admin-users")
	seedVendors(t, cache, key, []vendorRow{{ID: "u1", Status: "ACTIVE"}})
	newer := []vendorRow{{ID: "u1", Status: "BANNED"}}

	m := NewOptimisticMutation(cache, key, func(context.Context, string) error {
		cache.Set(key, newer)
		return errors.New("rejected")
	}, func(current []vendorRow, id string) []vendorRow {
		return RemoveWhere(current, func(v vendorRow) bool { return v.ID == id })
	}, MutationOptions{})

	require.Error(t, m.Run(context.Background(), "u1"))
	assert.Equal(t, newer, cache.State(key).Data)
}

func TestOptimisticWithoutCachedEntryStillWrites(t *testing.T) {
	cache := newTestCache(newFakeClock())
	var wrote bool
	m := NewOptimisticMutation(cache, NewKey("winners"), func(context.Context, string) error {
		wrote = true
		return nil
	}, func(current []vendorRow, _ string) []vendorRow { return current }, MutationOptions{})

	require.NoError(t, m.Run(context.Background(), "w1"))
	assert.True(t, wrote)
	assert.False(t, cache.State(NewKey("winners")).HasData)
}
