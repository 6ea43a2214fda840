package games

import (
	"context"
	"errors"
	"fmt"
	"strings"

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
	"github.com/shopspring/decimal"
)

// Service manages lottery games.
type Service interface {
	List(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error)
	Get(ctx context.Context, actor auth.Actor, id string) (*GameDTO, error)
	Create(ctx context.Context, actor auth.Actor, input CreateGameInput) (*GameDTO, error)
	Update(ctx context.Context, actor auth.Actor, id string, input UpdateGameInput) (*GameDTO, error)
	SetStatus(ctx context.Context, actor auth.Actor, id string, status enums.GameStatus) error
	Delete(ctx context.Context, actor auth.Actor, id string) error
}

type ServiceParams struct {
	Backend   *docstore.Backend
	Cache     *querycache.Cache
	Publisher events.Publisher
	Logger    *logger.Logger
}

type service struct {
	games      docstore.Collection[models.Game]
	categories docstore.Collection[models.Category]
	vendors    docstore.Collection[models.Vendor]
	winners    docstore.Collection[models.Winner]
	cache      *querycache.Cache
	list       *querycache.Query[[]models.Game]
	pub        events.Publisher
	logg       *logger.Logger
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
	s := &service{
		games:      docstore.For[models.Game](params.Backend),
		categories: docstore.For[models.Category](params.Backend),
		vendors:    docstore.For[models.Vendor](params.Backend),
		winners:    docstore.For[models.Winner](params.Backend),
		cache:      params.Cache,
		pub:        pub,
		logg:       params.Logger,
	}
	s.list = querycache.NewQuery(params.Cache, cachekeys.GamesList, querycache.Policy{}, func(ctx context.Context) ([]models.Game, error) {
		return s.games.List(ctx, docstore.All)
	})
	return s, nil
}

func (s *service) List(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error) {
	if err := actor.Require(enums.PermissionGamesRead); err != nil {
		return nil, err
	}
	var status enums.GameStatus
	if params.Status != "" {
		parsed, err := enums.ParseGameStatus(params.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		status = parsed
	}

	snap, err := querycache.Served[[]models.Game](s.list.Get(ctx))
	if err != nil {
		return nil, docstore.Classify(err, "games")
	}

	search := strings.ToLower(strings.TrimSpace(params.Search))
	matched := make([]models.Game, 0, len(snap.Data))
	for _, g := range snap.Data {
		switch {
		case status != "" && g.Status != status:
		case params.CategoryID != "" && g.CategoryID != params.CategoryID:
		case params.VendorID != "" && g.VendorID != params.VendorID:
		case search != "" && !strings.Contains(strings.ToLower(g.Name), search):
		default:
			matched = append(matched, g)
		}
	}

	page, err := pagination.Paginate(matched, pagination.Params{Limit: params.Limit, Cursor: params.Cursor}, func(g models.Game) pagination.Cursor {
		return pagination.Cursor{CreatedAt: g.CreatedAt, ID: g.ID}
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	items := make([]GameDTO, 0, len(page.Items))
	for _, g := range page.Items {
		items = append(items, FromModel(g))
	}
	return &ListResult{Items: items, Cursor: page.Cursor, Total: page.Total, Freshness: snap.Freshness()}, nil
}

func (s *service) Get(ctx context.Context, actor auth.Actor, id string) (*GameDTO, error) {
	if err := actor.Require(enums.PermissionGamesRead); err != nil {
		return nil, err
	}
	game, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*game)
	return &dto, nil
}

func (s *service) load(ctx context.Context, id string) (*models.Game, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "game id required")
	}
	game, err := s.games.Get(ctx, id)
	if err != nil {
		return nil, docstore.Classify(err, "game")
	}
	return game, nil
}

func (s *service) ensureCategory(ctx context.Context, id string) error {
	category, err := s.categories.Get(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist").
			WithDetails(map[string]any{"category_id": id})
	}
	if err != nil {
		return docstore.Classify(err, "category")
	}
	if !category.Active {
		return pkgerrors.New(pkgerrors.CodeValidation, "category is inactive").
			WithDetails(map[string]any{"category_id": id})
	}
	return nil
}

func (s *service) ensureVendor(ctx context.Context, id string) error {
	vendor, err := s.vendors.Get(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return pkgerrors.New(pkgerrors.CodeValidation, "vendor does not exist").
			WithDetails(map[string]any{"vendor_id": id})
	}
	if err != nil {
		return docstore.Classify(err, "vendor")
	}
	if vendor.Status != enums.VendorStatusApproved {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "vendor is not approved").
			WithDetails(map[string]any{"vendor_id": id, "status": vendor.Status})
	}
	return nil
}

func amount(field string, d decimal.Decimal) (dbtypes.Cents, error) {
	cents, err := dbtypes.CentsFromDecimal(d)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field).
			WithDetails(map[string]any{"field": field})
	}
	return cents, nil
}

func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateGameInput) (*GameDTO, error) {
	if err := actor.Require(enums.PermissionGamesWrite); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "game name required")
	}
	if input.DrawAt.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "draw time required")
	}
	price, err := amount("ticket_price", input.TicketPrice)
	if err != nil {
		return nil, err
	}
	if price == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket price must be positive")
	}
	jackpot, err := amount("jackpot", input.Jackpot)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}
	if input.VendorID != "" {
		if err := s.ensureVendor(ctx, input.VendorID); err != nil {
			return nil, err
		}
	}

	create := querycache.NewMutation(s.cache, func(ctx context.Context, game *models.Game) (*models.Game, error) {
		if _, err := s.games.Create(ctx, game); err != nil {
			return nil, err
		}
		return game, nil
	}, querycache.MutationOptions{Invalidate: []querycache.Key{cachekeys.GamesList, cachekeys.AllDashboards}})

	game, err := create.Run(ctx, &models.Game{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		CategoryID:  input.CategoryID,
		VendorID:    input.VendorID,
		TicketPrice: price,
		Jackpot:     jackpot,
		DrawAt:      input.DrawAt.UTC(),
		Status:      enums.GameStatusDraft,
	})
	if err != nil {
		s.logg.Error(ctx, "create game failed", err)
		return nil, docstore.Classify(err, "game")
	}
	dto := FromModel(*game)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, actor auth.Actor, id string, input UpdateGameInput) (*GameDTO, error) {
	if err := actor.Require(enums.PermissionGamesWrite); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == enums.GameStatusClosed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "closed games cannot be edited")
	}

	partial := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "game name cannot be blank")
		}
		partial["name"] = name
	}
	if input.Description != nil {
		partial["description"] = strings.TrimSpace(*input.Description)
	}
	if input.CategoryID != nil && *input.CategoryID != current.CategoryID {
		if err := s.ensureCategory(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
		partial["category_id"] = *input.CategoryID
	}
	if input.TicketPrice != nil {
		price, err := amount("ticket_price", *input.TicketPrice)
		if err != nil {
			return nil, err
		}
		if price == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket price must be positive")
		}
		partial["ticket_price_cents"] = price
	}
	if input.Jackpot != nil {
		jackpot, err := amount("jackpot", *input.Jackpot)
		if err != nil {
			return nil, err
		}
		partial["jackpot_cents"] = jackpot
	}
	if input.DrawAt != nil {
		partial["draw_at"] = input.DrawAt.UTC()
	}
	if len(partial) == 0 {
		dto := FromModel(*current)
		return &dto, nil
	}

	update := querycache.NewMutation(s.cache, func(ctx context.Context, partial map[string]any) (*models.Game, error) {
		if err := s.games.Update(ctx, id, partial); err != nil {
			return nil, err
		}
		return s.games.Get(ctx, id)
	}, querycache.MutationOptions{Invalidate: []querycache.Key{cachekeys.GamesList, cachekeys.AllDashboards}})

	game, err := update.Run(ctx, partial)
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "game_id", id), "update game failed", err)
		return nil, docstore.Classify(err, "game")
	}
	dto := FromModel(*game)
	return &dto, nil
}

type statusChange struct {
	id     string
	status enums.GameStatus
}

func (s *service) SetStatus(ctx context.Context, actor auth.Actor, id string, status enums.GameStatus) error {
	if err := actor.Require(enums.PermissionGamesWrite); err != nil {
		return err
	}
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid game status")
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !current.Status.CanTransition(status) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("game cannot move from %s to %s", current.Status, status)).
			WithDetails(map[string]any{"from": current.Status, "to": status})
	}

	mutation := querycache.NewOptimisticMutation(s.cache, cachekeys.GamesList,
		func(ctx context.Context, in statusChange) error {
			return s.games.Update(ctx, in.id, map[string]any{"status": in.status})
		},
		func(list []models.Game, in statusChange) []models.Game {
			return querycache.UpdateWhere(list,
				func(g models.Game) bool { return g.ID == in.id },
				func(g models.Game) models.Game {
					g.Status = in.status
					return g
				})
		},
		querycache.MutationOptions{Invalidate: []querycache.Key{cachekeys.AllDashboards}},
	)
	logCtx := s.logg.WithFields(ctx, map[string]any{"game_id": id, "from": string(current.Status), "to": string(status)})
	if err := mutation.Run(ctx, statusChange{id: id, status: status}); err != nil {
		s.logg.Error(logCtx, "set game status failed", err)
		return docstore.Classify(err, "game")
	}
	s.logg.Info(logCtx, "game status changed")
	events.Emit(ctx, s.pub, s.logg, actor, enums.EventGameStatusChanged, events.GameStatusChanged{
		GameID: id,
		Name:   current.Name,
		From:   current.Status,
		To:     status,
	})
	return nil
}

// Delete removes a game that never produced winners.
func (s *service) Delete(ctx context.Context, actor auth.Actor, id string) error {
	if err := actor.Require(enums.PermissionGamesWrite); err != nil {
		return err
	}
	winners, err := s.winners.Count(ctx, docstore.Where("game_id", id))
	if err != nil {
		return docstore.Classify(err, "winners")
	}
	if winners > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "game has winners").
			WithDetails(map[string]any{"game_id": id, "winner_count": winners})
	}

	remove := querycache.NewMutation(s.cache, func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, s.games.Delete(ctx, id)
	}, querycache.MutationOptions{Invalidate: []querycache.Key{cachekeys.GamesList, cachekeys.AllDashboards}})
	if _, err := remove.Run(ctx, id); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "game_id", id), "delete game failed", err)
		return docstore.Classify(err, "game")
	}
	return nil
}
