package reports

import (
	"context"
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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func sample() Dataset {
	return Dataset{
		Users: []models.User{{}, {}},
		Vendors: []models.Vendor{
			{Status: enums.VendorStatusApproved},
			{Status: enums.VendorStatusApproved},
			{Status: enums.VendorStatusPending},
			{Status: enums.VendorStatusRejected},
		},
		Games: []models.Game{
			{Status: enums.GameStatusActive, TicketPrice: 200, TicketsSold: 100, DrawAt: now.AddDate(0, 0, -3)},
			{Status: enums.GameStatusClosed, TicketPrice: 500, TicketsSold: 10, DrawAt: now.AddDate(0, 0, -20)},
			{Status: enums.GameStatusClosed, TicketPrice: 100, TicketsSold: 1000, DrawAt: now.AddDate(0, 0, -200)},
		},
		Winners: []models.Winner{
			{Record: models.Record{ID: "w1", CreatedAt: now.AddDate(0, 0, -2)}, Status: enums.WinnerStatusPaid, Prize: 10000, PaidAt: ptr(now.AddDate(0, 0, -1))},
			{Record: models.Record{ID: "w2", CreatedAt: now.AddDate(0, 0, -10)}, Status: enums.WinnerStatusClaimed, Prize: 2500},
			{Record: models.Record{ID: "w3", CreatedAt: now.AddDate(0, 0, -100)}, Status: enums.WinnerStatusPaid, Prize: 700, PaidAt: ptr(now.AddDate(0, 0, -95))},
		},
	}
}

func TestComputeByRange(t *testing.T) {
	week := Compute(sample(), enums.ReportRange7d, now)
	assert.Equal(t, dbtypes.Cents(20000), week.Revenue)
	assert.EqualValues(t, 100, week.TicketsSold)
	assert.Equal(t, dbtypes.Cents(10000), week.Payouts)
	assert.EqualValues(t, 1, week.WinnerCount)
	assert.Equal(t, dbtypes.Cents(2500), week.Outstanding)
	assert.EqualValues(t, 2, week.ActiveVendors)
	assert.EqualValues(t, 1, week.PendingVendors)
	assert.EqualValues(t, 1, week.ActiveGames)
	assert.EqualValues(t, 2, week.TotalUsers)
	assert.EqualValues(t, 2, week.GamesByStatus[enums.GameStatusClosed])
	assert.EqualValues(t, 0, week.GamesByStatus[enums.GameStatusDraft])

	month := Compute(sample(), enums.ReportRange30d, now)
	assert.Equal(t, dbtypes.Cents(25000), month.Revenue)
	assert.EqualValues(t, 2, month.WinnerCount)
	require.Len(t, month.RecentWinners, 2)
	assert.Equal(t, "w1", month.RecentWinners[0].ID)

	all := Compute(sample(), enums.ReportRangeAll, now)
	assert.Equal(t, dbtypes.Cents(125000), all.Revenue)
	assert.Equal(t, dbtypes.Cents(10700), all.Payouts)
	assert.True(t, all.Since.IsZero())
}

type fixture struct {
	svc     Service
	backend *docstore.Backend
	cache   *querycache.Cache
	clock   *docstoretest.Clock
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	clock := docstoretest.NewClock(now)
	backend := docstoretest.New(t, clock, &models.Report{}, &models.User{}, &models.Vendor{}, &models.Game{}, &models.Winner{})
	cache := querycache.New(querycache.Options{
		Policy: querycache.Policy{FreshFor: 10 * time.Second, KeepFor: time.Minute},
		Now:    clock.Now,
	})
	svc, err := NewService(ServiceParams{
		Backend:         backend,
		Cache:           cache,
		Logger:          logger.Nop(),
		DashboardPolicy: querycache.Policy{FreshFor: 2 * time.Minute, KeepFor: 10 * time.Minute},
		Now:             clock.Now,
	})
	require.NoError(t, err)
	return fixture{svc: svc, backend: backend, cache: cache, clock: clock}
}

func admin() auth.Actor {
	return auth.NewActor(auth.ActorInput{UserID: "u-admin", Permissions: enums.AllPermissions()})
}

func TestDashboardUsesItsOwnPolicyAndRangeKeys(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	games := docstore.For[models.Game](f.backend)
	_, err := games.Create(ctx, &models.Game{Name: "A", CategoryID: "c", TicketPrice: 100, TicketsSold: 5, DrawAt: now, Status: enums.GameStatusActive})
	require.NoError(t, err)

	first, err := f.svc.Dashboard(ctx, admin(), "7d")
	require.NoError(t, err)
	assert.Equal(t, "5.00", first.Stats.Revenue.StringFixed(2))

	_, err = games.Create(ctx, &models.Game{Name: "B", CategoryID: "c", TicketPrice: 100, TicketsSold: 5, DrawAt: now, Status: enums.GameStatusActive})
	require.NoError(t, err)

	// Past the default FreshFor but inside the dashboard window.
	f.clock.Advance(time.Minute)
	cached, err := f.svc.Dashboard(ctx, admin(), "7d")
	require.NoError(t, err)
	assert.Equal(t, "5.00", cached.Stats.Revenue.StringFixed(2))
	assert.False(t, cached.Freshness.Stale)

	other, err := f.svc.Dashboard(ctx, admin(), "all")
	require.NoError(t, err)
	assert.Equal(t, "10.00", other.Stats.Revenue.StringFixed(2))

	f.cache.Invalidate(cachekeys.AllDashboards)
	refreshed, err := f.svc.Dashboard(ctx, admin(), "7d")
	require.NoError(t, err)
	assert.Equal(t, "10.00", refreshed.Stats.Revenue.StringFixed(2))
}

func TestDashboardRejectsUnknownRange(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Dashboard(context.Background(), admin(), "1y")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateSnapshotAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	report, err := f.svc.Create(ctx, admin(), CreateReportInput{Name: "August close"})
	require.NoError(t, err)
	assert.Equal(t, enums.ReportRange30d, report.Range)
	assert.Equal(t, "u-admin", report.CreatedBy)

	listed, err := f.svc.List(ctx, admin(), ListParams{})
	require.NoError(t, err)
	require.Len(t, listed.Items, 1)

	require.NoError(t, f.svc.Delete(ctx, admin(), report.ID))
	listed, err = f.svc.List(ctx, admin(), ListParams{})
	require.NoError(t, err)
	assert.Empty(t, listed.Items)

	err = f.svc.Delete(ctx, admin(), report.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
