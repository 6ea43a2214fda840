package categories

import (
	"context"
	"regexp"
	"strings"

	"github.com/angelmondragon/lottodesk-backend/internal/cachekeys"
	"github.com/angelmondragon/lottodesk-backend/pkg/auth"
	"github.com/angelmondragon/lottodesk-backend/pkg/db/models"
	"github.com/angelmondragon/lottodesk-backend/pkg/docstore"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lottodesk-backend/pkg/errors"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
	"github.com/angelmondragon/lottodesk-backend/pkg/pagination"
	"github.com/angelmondragon/lottodesk-backend/pkg/querycache"
)

// Categories are managed with the games permissions.
type Service interface {
	List(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error)
	Get(ctx context.Context, actor auth.Actor, id string) (*CategoryDTO, error)
	Create(ctx context.Context, actor auth.Actor, input CreateCategoryInput) (*CategoryDTO, error)
	Update(ctx context.Context, actor auth.Actor, id string, input UpdateCategoryInput) (*CategoryDTO, error)
	Delete(ctx context.Context, actor auth.Actor, id string) error
}

type service struct {
	categories docstore.Collection[models.Category]
	games      docstore.Collection[models.Game]
	cache      *querycache.Cache
	list       *querycache.Query[[]models.Category]
	logg       *logger.Logger
}

func NewService(backend *docstore.Backend, cache *querycache.Cache, logg *logger.Logger) (Service, error) {
	if backend == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "document store required")
	}
	if cache == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "query cache required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	s := &service{
		categories: docstore.For[models.Category](backend),
		games:      docstore.For[models.Game](backend),
		cache:      cache,
		logg:       logg,
	}
	s.list = querycache.NewQuery(cache, cachekeys.CategoriesList, querycache.Policy{}, func(ctx context.Context) ([]models.Category, error) {
		return s.categories.List(ctx, docstore.All)
	})
	return s, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases and joins words with dashes.
func Slugify(value string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(value), "-"), "-")
}

func (s *service) List(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error) {
	if err := actor.Require(enums.PermissionGamesRead); err != nil {
		return nil, err
	}
	snap, err := querycache.Served[[]models.Category](s.list.Get(ctx))
	if err != nil {
		return nil, docstore.Classify(err, "categories")
	}

	search := strings.ToLower(strings.TrimSpace(params.Search))
	matched := make([]models.Category, 0, len(snap.Data))
	for _, c := range snap.Data {
		if params.ActiveOnly && !c.Active {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(c.Name), search) && !strings.Contains(c.Slug, search) {
			continue
		}
		matched = append(matched, c)
	}

	page, err := pagination.Paginate(matched, pagination.Params{Limit: params.Limit, Cursor: params.Cursor}, func(c models.Category) pagination.Cursor {
		return pagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	items := make([]CategoryDTO, 0, len(page.Items))
	for _, c := range page.Items {
		items = append(items, FromModel(c))
	}
	return &ListResult{Items: items, Cursor: page.Cursor, Total: page.Total, Freshness: snap.Freshness()}, nil
}

func (s *service) Get(ctx context.Context, actor auth.Actor, id string) (*CategoryDTO, error) {
	if err := actor.Require(enums.PermissionGamesRead); err != nil {
		return nil, err
	}
	category, err := s.categories.Get(ctx, id)
	if err != nil {
		return nil, docstore.Classify(err, "category")
	}
	dto := FromModel(*category)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateCategoryInput) (*CategoryDTO, error) {
	if err := actor.Require(enums.PermissionGamesWrite); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	slug := Slugify(input.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if name == "" || slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name required")
	}

	create := querycache.NewMutation(s.cache, func(ctx context.Context, category *models.Category) (*models.Category, error) {
		if _, err := s.categories.Create(ctx, category); err != nil {
			return nil, err
		}
		return category, nil
	}, querycache.MutationOptions{Invalidate: []querycache.Key{cachekeys.CategoriesList}})

	category, err := create.Run(ctx, &models.Category{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(input.Description),
		Active:      true,
	})
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "slug", slug), "create category failed", err)
		return nil, docstore.Classify(err, "category")
	}
	dto := FromModel(*category)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, actor auth.Actor, id string, input UpdateCategoryInput) (*CategoryDTO, error) {
	if err := actor.Require(enums.PermissionGamesWrite); err != nil {
		return nil, err
	}
	partial := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name cannot be blank")
		}
		partial["name"] = name
	}
	if input.Description != nil {
		partial["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Active != nil {
		partial["active"] = *input.Active
	}
	if len(partial) == 0 {
		return s.Get(ctx, actor, id)
	}

	update := querycache.NewMutation(s.cache, func(ctx context.Context, partial map[string]any) (*models.Category, error) {
		if err := s.categories.Update(ctx, id, partial); err != nil {
			return nil, err
		}
		return s.categories.Get(ctx, id)
	}, querycache.MutationOptions{Invalidate: []querycache.Key{cachekeys.CategoriesList, cachekeys.GamesList}})

	category, err := update.Run(ctx, partial)
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "category_id", id), "update category failed", err)
		return nil, docstore.Classify(err, "category")
	}
	dto := FromModel(*category)
	return &dto, nil
}

// Delete refuses while any game is filed under the category.
func (s *service) Delete(ctx context.Context, actor auth.Actor, id string) error {
	if err := actor.Require(enums.PermissionGamesWrite); err != nil {
		return err
	}
	games, err := s.games.Count(ctx, docstore.Where("category_id", id))
	if err != nil {
		return docstore.Classify(err, "games")
	}
	if games > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "category has games").
			WithDetails(map[string]any{"category_id": id, "game_count": games})
	}

	remove := querycache.NewMutation(s.cache, func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, s.categories.Delete(ctx, id)
	}, querycache.MutationOptions{Invalidate: []querycache.Key{cachekeys.CategoriesList}})
	if _, err := remove.Run(ctx, id); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "category_id", id), "delete category failed", err)
		return docstore.Classify(err, "category")
	}
	return nil
}
