package vendors

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/lottodesk-backend/internal/cachekeys"
	"github.com/angelmondragon/lottodesk-backend/internal/events"
	"github.com/angelmondragon/lottodesk-backend/pkg/auth"
	"github.com/angelmondragon/lottodesk-backend/pkg/db/models"
	"github.com/angelmondragon/lottodesk-backend/pkg/docstore"
	"github.com/angelmondragon/lottodesk-backend/pkg/docstore/docstoretest"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lottodesk-backend/pkg/errors"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
	"github.com/angelmondragon/lottodesk-backend/pkg/querycache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	eventType enums.EventType
	data      any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (r *recordingPublisher) Publish(_ context.Context, _ auth.Actor, eventType enums.EventType, data any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{eventType: eventType, data: data})
	return nil
}

func (r *recordingPublisher) last() published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

var _ events.Publisher = (*recordingPublisher)(nil)

type fixture struct {
	svc     Service
	backend *docstore.Backend
	cache   *querycache.Cache
	pub     *recordingPublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	clock := docstoretest.NewClock(time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC))
	backend := docstoretest.New(t, clock, &models.Vendor{}, &models.Game{})
	cache := querycache.New(querycache.Options{
		Policy: querycache.Policy{FreshFor: time.Minute, KeepFor: 5 * time.Minute},
		Now:    clock.Now,
	})
	pub := &recordingPublisher{}
	svc, err := NewService(ServiceParams{Backend: backend, Cache: cache, Publisher: pub, Logger: logger.Nop(), Now: clock.Now})
	require.NoError(t, err)
	return fixture{svc: svc, backend: backend, cache: cache, pub: pub}
}

func admin() auth.Actor {
	return auth.NewActor(auth.ActorInput{UserID: "u-admin", Permissions: enums.AllPermissions()})
}

func (f fixture) apply(t *testing.T, name string) *VendorDTO {
	t.Helper()
	v, err := f.svc.Create(context.Background(), admin(), CreateVendorInput{Name: name, Email: name + "@shop.test"})
	require.NoError(t, err)
	return v
}

func TestCreateStartsPendingAndEmits(t *testing.T) {
	f := newFixture(t)
	v := f.apply(t, "corner")

	assert.Equal(t, enums.VendorStatusPending, v.Status)
	assert.Equal(t, enums.BadgeAmber, v.StatusBadge.Color)

	last := f.pub.last()
	assert.Equal(t, enums.EventVendorApplied, last.eventType)
	assert.Equal(t, events.VendorApplied{VendorID: v.ID, Name: "corner"}, last.data)
}

func TestSetStatusFollowsTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.apply(t, "kiosk")

	err := f.svc.SetStatus(ctx, admin(), v.ID, StatusInput{Status: enums.VendorStatusSuspended})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	err = f.svc.SetStatus(ctx, admin(), v.ID, StatusInput{Status: enums.VendorStatusRejected})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "rejection needs a reason")

	require.NoError(t, f.svc.SetStatus(ctx, admin(), v.ID, StatusInput{Status: enums.VendorStatusApproved}))
	require.NoError(t, f.svc.SetStatus(ctx, admin(), v.ID, StatusInput{Status: enums.VendorStatusSuspended, Reason: "audit"}))
	require.NoError(t, f.svc.SetStatus(ctx, admin(), v.ID, StatusInput{Status: enums.VendorStatusApproved}))

	got, err := f.svc.Get(ctx, admin(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.VendorStatusApproved, got.Status)
	require.NotNil(t, got.ReviewedAt)

	last := f.pub.last()
	assert.Equal(t, enums.EventVendorStatusChanged, last.eventType)
	change := last.data.(events.VendorStatusChanged)
	assert.Equal(t, enums.VendorStatusSuspended, change.From)
	assert.Equal(t, enums.VendorStatusApproved, change.To)
}

func TestSetStatusAppliesToCachedListThenInvalidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.apply(t, "stall")
	_, err := f.svc.List(ctx, admin(), ListParams{})
	require.NoError(t, err)

	require.NoError(t, f.svc.SetStatus(ctx, admin(), v.ID, StatusInput{Status: enums.VendorStatusApproved}))

	state := f.cache.State(cachekeys.VendorsList)
	assert.True(t, state.IsStale)
	cached := state.Data.([]models.Vendor)
	assert.Equal(t, enums.VendorStatusApproved, cached[0].Status)

	approved, err := f.svc.List(ctx, admin(), ListParams{Status: "APPROVED"})
	require.NoError(t, err)
	assert.Len(t, approved.Items, 1)
}

func TestDeleteRefusedWhileGamesAttached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.apply(t, "depot")
	_, err := docstore.For[models.Game](f.backend).Create(ctx, &models.Game{
		Name:       "Daily 3",
		CategoryID: "c-1",
		VendorID:   v.ID,
		DrawAt:     time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC),
		Status:     enums.GameStatusDraft,
	})
	require.NoError(t, err)

	err = f.svc.Delete(ctx, admin(), v.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	other := f.apply(t, "empty")
	require.NoError(t, f.svc.Delete(ctx, admin(), other.ID))
	_, err = f.svc.Get(ctx, admin(), other.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateValidatesCommission(t *testing.T) {
	f := newFixture(t)
	v := f.apply(t, "bodega")
	bad := 20000
	_, err := f.svc.Update(context.Background(), admin(), v.ID, UpdateVendorInput{CommissionBps: &bad})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	good := 250
	updated, err := f.svc.Update(context.Background(), admin(), v.ID, UpdateVendorInput{CommissionBps: &good})
	require.NoError(t, err)
	assert.Equal(t, 250, updated.CommissionBps)
}
