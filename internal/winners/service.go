package winners

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/lottodesk-backend/internal/cachekeys"
	"github.com/angelmondragon/lottodesk-backend/internal/events"
	"github.com/angelmondragon/lottodesk-backend/pkg/auth"
	"github.com/angelmondragon/lottodesk-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/lottodesk-backend/pkg/db/types"
	"github.com/angelmondragon/lottodesk-backend/pkg/docstore"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lottodesk-backend/pkg/errors"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
	"github.com/angelmondragon/lottodesk-backend/pkg/pagination"
	"github.com/angelmondragon/lottodesk-backend/pkg/querycache"
)

// Service records winning tickets and tracks their payout.
type Service interface {
	List(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error)
	Get(ctx context.Context, actor auth.Actor, id string) (*WinnerDTO, error)
	Declare(ctx context.Context, actor auth.Actor, input DeclareInput) (*WinnerDTO, error)
	SetStatus(ctx context.Context, actor auth.Actor, id string, status enums.WinnerStatus) error
	// ExpireOverdue moves unclaimed winners past their deadline to EXPIRED.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

type ServiceParams struct {
	Backend     *docstore.Backend
	Cache       *querycache.Cache
	Publisher   events.Publisher
	Logger      *logger.Logger
	ClaimWindow time.Duration
	Now         func() time.Time
}

type service struct {
	winners     docstore.Collection[models.Winner]
	games       docstore.Collection[models.Game]
	cache       *querycache.Cache
	list        *querycache.Query[[]models.Winner]
	pub         events.Publisher
	logg        *logger.Logger
	claimWindow time.Duration
	now         func() time.Time
}

const defaultClaimWindow = 90 * 24 * time.Hour

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
	window := params.ClaimWindow
	if window <= 0 {
		window = defaultClaimWindow
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	s := &service{
		winners:     docstore.For[models.Winner](params.Backend),
		games:       docstore.For[models.Game](params.Backend),
		cache:       params.Cache,
		pub:         pub,
		logg:        params.Logger,
		claimWindow: window,
		now:         now,
	}
	s.list = querycache.NewQuery(params.Cache, cachekeys.WinnersList, querycache.Policy{}, func(ctx context.Context) ([]models.Winner, error) {
		return s.winners.List(ctx, docstore.All)
	})
	return s, nil
}

func (s *service) List(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error) {
	if err := actor.Require(enums.PermissionWinnersRead); err != nil {
		return nil, err
	}
	var status enums.WinnerStatus
	if params.Status != "" {
		parsed, err := enums.ParseWinnerStatus(params.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		status = parsed
	}

	snap, err := querycache.Served[[]models.Winner](s.list.Get(ctx))
	if err != nil {
		return nil, docstore.Classify(err, "winners")
	}

	search := strings.ToLower(strings.TrimSpace(params.Search))
	matched := make([]models.Winner, 0, len(snap.Data))
	for _, w := range snap.Data {
		switch {
		case status != "" && w.Status != status:
		case params.GameID != "" && w.GameID != params.GameID:
		case search != "" && !strings.Contains(strings.ToLower(w.Name), search) && !strings.Contains(strings.ToLower(w.TicketNumber), search):
		default:
			matched = append(matched, w)
		}
	}

	page, err := pagination.Paginate(matched, pagination.Params{Limit: params.Limit, Cursor: params.Cursor}, func(w models.Winner) pagination.Cursor {
		return pagination.Cursor{CreatedAt: w.CreatedAt, ID: w.ID}
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	items := make([]WinnerDTO, 0, len(page.Items))
	for _, w := range page.Items {
		items = append(items, FromModel(w))
	}
	return &ListResult{Items: items, Cursor: page.Cursor, Total: page.Total, Freshness: snap.Freshness()}, nil
}

func (s *service) Get(ctx context.Context, actor auth.Actor, id string) (*WinnerDTO, error) {
	if err := actor.Require(enums.PermissionWinnersRead); err != nil {
		return nil, err
	}
	winner, err := s.winners.Get(ctx, id)
	if err != nil {
		return nil, docstore.Classify(err, "winner")
	}
	dto := FromModel(*winner)
	return &dto, nil
}

// Declare shows the new winner at the top of the cached list before the
// write lands.
func (s *service) Declare(ctx context.Context, actor auth.Actor, input DeclareInput) (*WinnerDTO, error) {
	if err := actor.Require(enums.PermissionWinnersWrite); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	ticket := strings.TrimSpace(input.TicketNumber)
	if name == "" || ticket == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "winner name and ticket number required")
	}
	prize, err := dbtypes.CentsFromDecimal(input.Prize)
	if err != nil || prize == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prize must be a positive amount with at most two decimals")
	}

	game, err := s.games.Get(ctx, input.GameID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "game does not exist").
			WithDetails(map[string]any{"game_id": input.GameID})
	}
	if err != nil {
		return nil, docstore.Classify(err, "game")
	}
	if game.Status == enums.GameStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "draft games have no winners")
	}

	now := s.now().UTC()
	winner := models.Winner{
		Record:        models.Record{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now},
		GameID:        game.ID,
		VendorID:      game.VendorID,
		Name:          name,
		TicketNumber:  ticket,
		Prize:         prize,
		Status:        enums.WinnerStatusPendingClaim,
		ClaimDeadline: now.Add(s.claimWindow),
	}

	declare := querycache.NewOptimisticMutation(s.cache, cachekeys.WinnersList,
		func(ctx context.Context, w models.Winner) error {
			_, err := s.winners.Create(ctx, &w)
			return err
		},
		func(list []models.Winner, w models.Winner) []models.Winner {
			return append([]models.Winner{w}, list...)
		},
		querycache.MutationOptions{Invalidate: []querycache.Key{cachekeys.AllDashboards}},
	)
	if err := declare.Run(ctx, winner); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "game_id", game.ID), "declare winner failed", err)
		return nil, docstore.Classify(err, "winner")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"game_id": game.ID, "winner_id": winner.ID}), "winner declared")
	events.Emit(ctx, s.pub, s.logg, actor, enums.EventWinnerDeclared, events.WinnerDeclared{
		WinnerID: winner.ID,
		GameID:   game.ID,
		GameName: game.Name,
		Name:     winner.Name,
		Prize:    winner.Prize.String(),
	})
	dto := FromModel(winner)
	return &dto, nil
}

type statusChange struct {
	id     string
	status enums.WinnerStatus
	at     time.Time
}

// fields returns the columns a status change writes.
func (c statusChange) fields() map[string]any {
	out := map[string]any{"status": c.status}
	switch c.status {
	case enums.WinnerStatusClaimed:
		out["claimed_at"] = c.at
	case enums.WinnerStatusPaid:
		out["paid_at"] = c.at
	}
	return out
}

func (c statusChange) applyTo(w models.Winner) models.Winner {
	at := c.at
	w.Status = c.status
	switch c.status {
	case enums.WinnerStatusClaimed:
		w.ClaimedAt = &at
	case enums.WinnerStatusPaid:
		w.PaidAt = &at
	}
	return w
}

func (s *service) SetStatus(ctx context.Context, actor auth.Actor, id string, status enums.WinnerStatus) error {
	if err := actor.Require(enums.PermissionWinnersWrite); err != nil {
		return err
	}
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid winner status")
	}
	current, err := s.winners.Get(ctx, id)
	if err != nil {
		return docstore.Classify(err, "winner")
	}
	if !current.Status.CanTransition(status) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("winner cannot move from %s to %s", current.Status, status)).
			WithDetails(map[string]any{"from": current.Status, "to": status})
	}
	change := statusChange{id: id, status: status, at: s.now().UTC()}
	if status == enums.WinnerStatusClaimed && change.at.After(current.ClaimDeadline) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "claim deadline has passed")
	}

	mutation := querycache.NewOptimisticMutation(s.cache, cachekeys.WinnersList,
		func(ctx context.Context, in statusChange) error {
			return s.winners.Update(ctx, in.id, in.fields())
		},
		func(list []models.Winner, in statusChange) []models.Winner {
			return querycache.UpdateWhere(list, func(w models.Winner) bool { return w.ID == in.id }, in.applyTo)
		},
		querycache.MutationOptions{Invalidate: []querycache.Key{cachekeys.AllDashboards}},
	)
	logCtx := s.logg.WithFields(ctx, map[string]any{"winner_id": id, "from": string(current.Status), "to": string(status)})
	if err := mutation.Run(ctx, change); err != nil {
		s.logg.Error(logCtx, "set winner status failed", err)
		return docstore.Classify(err, "winner")
	}
	s.logg.Info(logCtx, "winner status changed")
	events.Emit(ctx, s.pub, s.logg, actor, enums.EventWinnerStatusChanged, events.WinnerStatusChanged{
		WinnerID: id,
		Name:     current.Name,
		From:     current.Status,
		To:       status,
	})
	return nil
}

func (s *service) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	expire := querycache.NewMutation(s.cache, func(ctx context.Context, now time.Time) (int64, error) {
		filter := docstore.Where("status", enums.WinnerStatusPendingClaim).Before("claim_deadline", now)
		return s.winners.UpdateWhere(ctx, filter, map[string]any{"status": enums.WinnerStatusExpired})
	}, querycache.MutationOptions{Invalidate: []querycache.Key{cachekeys.WinnersList, cachekeys.AllDashboards}})

	count, err := expire.Run(ctx, now.UTC())
	if err != nil {
		return 0, docstore.Classify(err, "winners")
	}
	return count, nil
}
