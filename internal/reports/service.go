package reports

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/lottodesk-backend/internal/cachekeys"
	"github.com/angelmondragon/lottodesk-backend/internal/events"
	"github.com/angelmondragon/lottodesk-backend/pkg/auth"
	"github.com/angelmondragon/lottodesk-backend/pkg/db/models"
	"github.com/angelmondragon/lottodesk-backend/pkg/docstore"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lottodesk-backend/pkg/errors"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
	"github.com/angelmondragon/lottodesk-backend/pkg/pagination"
	"github.com/angelmondragon/lottodesk-backend/pkg/querycache"
)

// Service serves dashboard figures and saved report snapshots.
type Service interface {
	Dashboard(ctx context.Context, actor auth.Actor, rangeKey string) (*DashboardResult, error)
	List(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error)
	Get(ctx context.Context, actor auth.Actor, id string) (*ReportDTO, error)
	Create(ctx context.Context, actor auth.Actor, input CreateReportInput) (*ReportDTO, error)
	Delete(ctx context.Context, actor auth.Actor, id string) error
}

type ServiceParams struct {
	Backend   *docstore.Backend
	Cache     *querycache.Cache
	Publisher events.Publisher
	Logger    *logger.Logger
	// DashboardPolicy overrides the cache default for dashboard entries.
	DashboardPolicy querycache.Policy
	Now             func() time.Time
}

type service struct {
	reports   docstore.Collection[models.Report]
	users     docstore.Collection[models.User]
	vendors   docstore.Collection[models.Vendor]
	games     docstore.Collection[models.Game]
	winners   docstore.Collection[models.Winner]
	cache     *querycache.Cache
	list      *querycache.Query[[]models.Report]
	dashboard querycache.Policy
	pub       events.Publisher
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Backend == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "document store required")
	}
	if params.Cache == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "query cache required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	pub := params.Publisher
	if pub == nil {
		pub = events.NewLogPublisher(params.Logger)
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	s := &service{
		reports:   docstore.For[models.Report](params.Backend),
		users:     docstore.For[models.User](params.Backend),
		vendors:   docstore.For[models.Vendor](params.Backend),
		games:     docstore.For[models.Game](params.Backend),
		winners:   docstore.For[models.Winner](params.Backend),
		cache:     params.Cache,
		dashboard: params.DashboardPolicy,
		pub:       pub,
		logg:      params.Logger,
		now:       now,
	}
	s.list = querycache.NewQuery(params.Cache, cachekeys.ReportsList, querycache.Policy{}, func(ctx context.Context) ([]models.Report, error) {
		return s.reports.List(ctx, docstore.All)
	})
	return s, nil
}

func (s *service) load(ctx context.Context) (Dataset, error) {
	var (
		data Dataset
		err  error
	)
	if data.Users, err = s.users.List(ctx, docstore.All); err != nil {
		return data, err
	}
	if data.Vendors, err = s.vendors.List(ctx, docstore.All); err != nil {
		return data, err
	}
	if data.Games, err = s.games.List(ctx, docstore.All); err != nil {
		return data, err
	}
	if data.Winners, err = s.winners.List(ctx, docstore.All); err != nil {
		return data, err
	}
	return data, nil
}

func (s *service) stats(ctx context.Context, r enums.ReportRange) (querycache.Snapshot[Stats], error) {
	snap, err := querycache.Served[Stats](querycache.Read(ctx, s.cache, cachekeys.DashboardStats(r), s.dashboard, func(ctx context.Context) (Stats, error) {
		data, err := s.load(ctx)
		if err != nil {
			return Stats{}, err
		}
		return Compute(data, r, s.now().UTC()), nil
	}))
	if err != nil {
		return snap, docstore.Classify(err, "dashboard stats")
	}
	return snap, nil
}

func (s *service) Dashboard(ctx context.Context, actor auth.Actor, rangeKey string) (*DashboardResult, error) {
	if err := actor.Require(enums.PermissionReportsRead); err != nil {
		return nil, err
	}
	r, err := enums.ParseReportRange(rangeKey)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid range")
	}
	snap, err := s.stats(ctx, r)
	if err != nil {
		return nil, err
	}
	return &DashboardResult{Stats: DashboardFromStats(snap.Data), Freshness: snap.Freshness()}, nil
}

func (s *service) List(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error) {
	if err := actor.Require(enums.PermissionReportsRead); err != nil {
		return nil, err
	}
	snap, err := querycache.Served[[]models.Report](s.list.Get(ctx))
	if err != nil {
		return nil, docstore.Classify(err, "reports")
	}
	page, err := pagination.Paginate(snap.Data, pagination.Params{Limit: params.Limit, Cursor: params.Cursor}, func(r models.Report) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	items := make([]ReportDTO, 0, len(page.Items))
	for _, r := range page.Items {
		items = append(items, FromModel(r))
	}
	return &ListResult{Items: items, Cursor: page.Cursor, Total: page.Total, Freshness: snap.Freshness()}, nil
}

func (s *service) Get(ctx context.Context, actor auth.Actor, id string) (*ReportDTO, error) {
	if err := actor.Require(enums.PermissionReportsRead); err != nil {
		return nil, err
	}
	report, err := s.reports.Get(ctx, id)
	if err != nil {
		return nil, docstore.Classify(err, "report")
	}
	dto := FromModel(*report)
	return &dto, nil
}

// Create snapshots the figures the dashboard currently shows for the range.
func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateReportInput) (*ReportDTO, error) {
	if err := actor.Require(enums.PermissionReportsWrite); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report name required")
	}
	r, err := enums.ParseReportRange(input.Range)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid range")
	}
	snap, err := s.stats(ctx, r)
	if err != nil {
		return nil, err
	}
	stats := snap.Data

	create := querycache.NewMutation(s.cache, func(ctx context.Context, report *models.Report) (*models.Report, error) {
		if _, err := s.reports.Create(ctx, report); err != nil {
			return nil, err
		}
		return report, nil
	}, querycache.MutationOptions{Invalidate: []querycache.Key{cachekeys.ReportsList}})

	report, err := create.Run(ctx, &models.Report{
		Name:          name,
		Range:         r,
		CreatedBy:     actor.UserID,
		Revenue:       stats.Revenue,
		Payouts:       stats.Payouts,
		TicketsSold:   stats.TicketsSold,
		WinnerCount:   stats.WinnerCount,
		ActiveVendors: stats.ActiveVendors,
		ActiveGames:   stats.ActiveGames,
	})
	if err != nil {
		s.logg.Error(ctx, "create report failed", err)
		return nil, docstore.Classify(err, "report")
	}
	events.Emit(ctx, s.pub, s.logg, actor, enums.EventReportCreated, events.ReportCreated{
		ReportID:  report.ID,
		Name:      report.Name,
		Range:     report.Range,
		CreatedBy: actor.UserID,
	})
	dto := FromModel(*report)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, actor auth.Actor, id string) error {
	if err := actor.Require(enums.PermissionReportsWrite); err != nil {
		return err
	}
	remove := querycache.NewMutation(s.cache, func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, s.reports.Delete(ctx, id)
	}, querycache.MutationOptions{Invalidate: []querycache.Key{cachekeys.ReportsList}})
	if _, err := remove.Run(ctx, id); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "report_id", id), "delete report failed", err)
		return docstore.Classify(err, "report")
	}
	return nil
}
