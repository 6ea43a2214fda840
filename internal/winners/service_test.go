package winners

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/lottodesk-backend/internal/cachekeys"
	"github.com/angelmondragon/lottodesk-backend/pkg/auth"
	"github.com/angelmondragon/lottodesk-backend/pkg/db/models"
	"github.com/angelmondragon/lottodesk-backend/pkg/docstore"
	"github.com/angelmondragon/lottodesk-backend/pkg/docstore/docstoretest"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lottodesk-backend/pkg/errors"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
	"github.com/angelmondragon/lottodesk-backend/pkg/querycache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc    *service
	cache  *querycache.Cache
	clock  *docstoretest.Clock
	gameID string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	clock := docstoretest.NewClock(time.Date(2026, 7, 1, 18, 0, 0, 0, time.UTC))
	backend := docstoretest.New(t, clock, &models.Winner{}, &models.Game{})
	cache := querycache.New(querycache.Options{
		Policy: querycache.Policy{FreshFor: time.Minute, KeepFor: 5 * time.Minute},
		Now:    clock.Now,
	})
	svc, err := NewService(ServiceParams{
		Backend:     backend,
		Cache:       cache,
		Logger:      logger.Nop(),
		ClaimWindow: 48 * time.Hour,
		Now:         clock.Now,
	})
	require.NoError(t, err)

	gameID, err := docstore.For[models.Game](backend).Create(context.Background(), &models.Game{
		Name:       "Friday Draw",
		CategoryID: "c-1",
		DrawAt:     clock.Now(),
		Status:     enums.GameStatusClosed,
	})
	require.NoError(t, err)
	return fixture{svc: svc.(*service), cache: cache, clock: clock, gameID: gameID}
}

func admin() auth.Actor {
	return auth.NewActor(auth.ActorInput{UserID: "u-admin", Permissions: enums.AllPermissions()})
}

func (f fixture) declare(t *testing.T, name string) *WinnerDTO {
	t.Helper()
	w, err := f.svc.Declare(context.Background(), admin(), DeclareInput{
		GameID:       f.gameID,
		Name:         name,
		TicketNumber: "T-" + name,
		Prize:        decimal.RequireFromString("1500.00"),
	})
	require.NoError(t, err)
	return w
}

type failingCreates struct {
	docstore.Collection[models.Winner]
}

func (failingCreates) Create(context.Context, *models.Winner) (string, error) {
	return "", errors.New("insert failed")
}

func TestDeclareShowsWinnerBeforeRefetch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.List(ctx, admin(), ListParams{})
	require.NoError(t, err)

	w := f.declare(t, "alice")
	assert.Equal(t, enums.WinnerStatusPendingClaim, w.Status)
	assert.Equal(t, f.clock.Now().Add(48*time.Hour), w.ClaimDeadline)

	state := f.cache.State(cachekeys.WinnersList)
	cached := state.Data.([]models.Winner)
	require.Len(t, cached, 1)
	assert.Equal(t, w.ID, cached[0].ID)
	assert.True(t, state.IsStale)

	listed, err := f.svc.List(ctx, admin(), ListParams{})
	require.NoError(t, err)
	require.Len(t, listed.Items, 1)
	assert.Equal(t, w.ID, listed.Items[0].ID)
}

func TestDeclareRollsBackOnFailedWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.declare(t, "bob")
	_, err := f.svc.List(ctx, admin(), ListParams{})
	require.NoError(t, err)
	before := f.cache.State(cachekeys.WinnersList)

	f.svc.winners = failingCreates{f.svc.winners}
	_, err = f.svc.Declare(ctx, admin(), DeclareInput{
		GameID: f.gameID, Name: "carol", TicketNumber: "T-9", Prize: decimal.NewFromInt(10),
	})
	require.Error(t, err)

	after := f.cache.State(cachekeys.WinnersList)
	assert.Equal(t, before.Data, after.Data)
	assert.Len(t, after.Data.([]models.Winner), 1)
}

func TestDeclareValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Declare(ctx, admin(), DeclareInput{GameID: "missing", Name: "x", TicketNumber: "1", Prize: decimal.NewFromInt(1)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Declare(ctx, admin(), DeclareInput{GameID: f.gameID, Name: "x", TicketNumber: "1", Prize: decimal.Zero})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestStatusLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.declare(t, "dana")

	err := f.svc.SetStatus(ctx, admin(), w.ID, enums.WinnerStatusPaid)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	require.NoError(t, f.svc.SetStatus(ctx, admin(), w.ID, enums.WinnerStatusClaimed))
	f.clock.Advance(time.Hour)
	require.NoError(t, f.svc.SetStatus(ctx, admin(), w.ID, enums.WinnerStatusPaid))

	got, err := f.svc.Get(ctx, admin(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.WinnerStatusPaid, got.Status)
	require.NotNil(t, got.ClaimedAt)
	require.NotNil(t, got.PaidAt)
	assert.True(t, got.PaidAt.After(*got.ClaimedAt))
}

func TestClaimAfterDeadlineRejected(t *testing.T) {
	f := newFixture(t)
	w := f.declare(t, "erin")
	f.clock.Advance(49 * time.Hour)

	err := f.svc.SetStatus(context.Background(), admin(), w.ID, enums.WinnerStatusClaimed)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestExpireOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	old := f.declare(t, "frank")
	f.clock.Advance(24 * time.Hour)
	fresh := f.declare(t, "gina")
	f.clock.Advance(25 * time.Hour)

	count, err := f.svc.ExpireOverdue(ctx, f.clock.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	got, err := f.svc.Get(ctx, admin(), old.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.WinnerStatusExpired, got.Status)

	got, err = f.svc.Get(ctx, admin(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.WinnerStatusPendingClaim, got.Status)
}
