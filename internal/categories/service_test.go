package categories

import (
	"context"
	"testing"
	"time"

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

func newService(t *testing.T) (Service, *docstore.Backend) {
	t.Helper()
	clock := docstoretest.NewClock(time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC))
	backend := docstoretest.New(t, clock, &models.Category{}, &models.Game{})
	cache := querycache.New(querycache.Options{Now: clock.Now})
	svc, err := NewService(backend, cache, logger.Nop())
	require.NoError(t, err)
	return svc, backend
}

func admin() auth.Actor {
	return auth.NewActor(auth.ActorInput{UserID: "u-admin", Permissions: enums.AllPermissions()})
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Scratch Cards":     "scratch-cards",
		"  Pick 3 / Pick 4": "pick-3-pick-4",
		"!!!":               "",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Fatalf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCreateDerivesSlugAndRejectsDuplicates(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, admin(), CreateCategoryInput{Name: "Draw Games"})
	require.NoError(t, err)
	assert.Equal(t, "draw-games", c.Slug)
	assert.True(t, c.Active)

	_, err = svc.Create(ctx, admin(), CreateCategoryInput{Name: "Draw games"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestDeleteRejectedWhileGameReferencesCategory(t *testing.T) {
	svc, backend := newService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, admin(), CreateCategoryInput{Name: "Instant"})
	require.NoError(t, err)
	_, err = docstore.For[models.Game](backend).Create(ctx, &models.Game{
		Name:       "Gold Rush",
		CategoryID: c.ID,
		DrawAt:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:     enums.GameStatusDraft,
	})
	require.NoError(t, err)

	err = svc.Delete(ctx, admin(), c.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.Get(ctx, admin(), c.ID)
	assert.NoError(t, err)
}

func TestListActiveOnly(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, admin(), CreateCategoryInput{Name: "Keno"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin(), CreateCategoryInput{Name: "Bingo"})
	require.NoError(t, err)

	inactive := false
	_, err = svc.Update(ctx, admin(), a.ID, UpdateCategoryInput{Active: &inactive})
	require.NoError(t, err)

	all, err := svc.List(ctx, admin(), ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Total)

	active, err := svc.List(ctx, admin(), ListParams{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active.Items, 1)
	assert.Equal(t, "Bingo", active.Items[0].Name)
}
