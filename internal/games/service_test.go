package games

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/lottodesk-backend/internal/cachekeys"
	"github.com/angelmondragon/lottodesk-backend/pkg/auth"
	"github.com/angelmondragon/lottodesk-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/lottodesk-backend/pkg/db/types"
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
	svc        *service
	backend    *docstore.Backend
	cache      *querycache.Cache
	categoryID string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	clock := docstoretest.NewClock(time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC))
	backend := docstoretest.New(t, clock, &models.Game{}, &models.Category{}, &models.Vendor{}, &models.Winner{})
	cache := querycache.New(querycache.Options{
		Policy: querycache.Policy{FreshFor: time.Minute, KeepFor: 5 * time.Minute},
		Now:    clock.Now,
	})
	svc, err := NewService(ServiceParams{Backend: backend, Cache: cache, Logger: logger.Nop()})
	require.NoError(t, err)

	categoryID, err := docstore.For[models.Category](backend).Create(context.Background(), &models.Category{
		Name: "Draw", Slug: "draw", Active: true,
	})
	require.NoError(t, err)
	return fixture{svc: svc.(*service), backend: backend, cache: cache, categoryID: categoryID}
}

func admin() auth.Actor {
	return auth.NewActor(auth.ActorInput{UserID: "u-admin", Permissions: enums.AllPermissions()})
}

func (f fixture) create(t *testing.T, name string) *GameDTO {
	t.Helper()
	game, err := f.svc.Create(context.Background(), admin(), CreateGameInput{
		Name:        name,
		CategoryID:  f.categoryID,
		TicketPrice: decimal.RequireFromString("2.50"),
		Jackpot:     decimal.RequireFromString("1000000"),
		DrawAt:      time.Date(2026, 6, 1, 21, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return game
}

type failingUpdates struct {
	docstore.Collection[models.Game]
}

func (failingUpdates) Update(context.Context, string, map[string]any) error {
	return errors.New("write timeout")
}

func TestCreateStoresCentsAndStartsDraft(t *testing.T) {
	f := newFixture(t)
	game := f.create(t, "Mega Draw")

	assert.Equal(t, enums.GameStatusDraft, game.Status)
	assert.Equal(t, "2.50", game.TicketPrice.StringFixed(2))

	stored, err := docstore.For[models.Game](f.backend).Get(context.Background(), game.ID)
	require.NoError(t, err)
	assert.Equal(t, dbtypes.Cents(250), stored.TicketPrice)
	assert.Equal(t, dbtypes.Cents(100000000), stored.Jackpot)
}

func TestCreateValidatesReferencesAndAmounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := CreateGameInput{
		Name:        "Pick 3",
		CategoryID:  f.categoryID,
		TicketPrice: decimal.RequireFromString("1"),
		DrawAt:      time.Date(2026, 6, 1, 21, 0, 0, 0, time.UTC),
	}

	missingCategory := base
	missingCategory.CategoryID = "nope"
	_, err := f.svc.Create(ctx, admin(), missingCategory)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	fractional := base
	fractional.TicketPrice = decimal.RequireFromString("1.005")
	_, err = f.svc.Create(ctx, admin(), fractional)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	vendorID, err := docstore.For[models.Vendor](f.backend).Create(ctx, &models.Vendor{
		Name: "Pending shop", Email: "p@shop.test", Status: enums.VendorStatusPending,
	})
	require.NoError(t, err)
	pendingVendor := base
	pendingVendor.VendorID = vendorID
	_, err = f.svc.Create(ctx, admin(), pendingVendor)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestSetStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	game := f.create(t, "Lucky 7")

	err := f.svc.SetStatus(ctx, admin(), game.ID, enums.GameStatusPaused)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	require.NoError(t, f.svc.SetStatus(ctx, admin(), game.ID, enums.GameStatusActive))
	require.NoError(t, f.svc.SetStatus(ctx, admin(), game.ID, enums.GameStatusClosed))

	name := "Renamed"
	_, err = f.svc.Update(ctx, admin(), game.ID, UpdateGameInput{Name: &name})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestSetStatusRollsBackCachedList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	game := f.create(t, "Jackpot")

	_, err := f.svc.List(ctx, admin(), ListParams{})
	require.NoError(t, err)
	before := f.cache.State(cachekeys.GamesList)

	f.svc.games = failingUpdates{f.svc.games}
	err = f.svc.SetStatus(ctx, admin(), game.ID, enums.GameStatusActive)
	require.Error(t, err)

	after := f.cache.State(cachekeys.GamesList)
	assert.Equal(t, before.Data, after.Data)
	assert.Equal(t, enums.GameStatusDraft, after.Data.([]models.Game)[0].Status)
}

func TestDeleteRefusedWithWinners(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	game := f.create(t, "Weekly")

	_, err := docstore.For[models.Winner](f.backend).Create(ctx, &models.Winner{
		GameID:        game.ID,
		Name:          "J. Doe",
		TicketNumber:  "A-1",
		Prize:         5000,
		Status:        enums.WinnerStatusPendingClaim,
		ClaimDeadline: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	err = f.svc.Delete(ctx, admin(), game.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestListFiltersByCategoryAndStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, "Alpha")
	f.create(t, "Beta")
	require.NoError(t, f.svc.SetStatus(ctx, admin(), a.ID, enums.GameStatusActive))

	active, err := f.svc.List(ctx, admin(), ListParams{Status: "ACTIVE", CategoryID: f.categoryID})
	require.NoError(t, err)
	require.Len(t, active.Items, 1)
	assert.Equal(t, "Alpha", active.Items[0].Name)
}
