package roles

import (
	"context"
	"strings"

	"github.com/angelmondragon/lottodesk-backend/internal/cachekeys"
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

// Service manages admin roles.
type Service interface {
	List(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error)
	Get(ctx context.Context, actor auth.Actor, id string) (*RoleDTO, error)
	Create(ctx context.Context, actor auth.Actor, input CreateRoleInput) (*RoleDTO, error)
	Update(ctx context.Context, actor auth.Actor, id string, input UpdateRoleInput) (*RoleDTO, error)
	Delete(ctx context.Context, actor auth.Actor, id string) error
	// Resolve loads the role a user holds; auth uses it to mint claims.
	Resolve(ctx context.Context, id string) (*models.Role, error)
}

type service struct {
	roles docstore.Collection[models.Role]
	users docstore.Collection[models.User]
	cache *querycache.Cache
	list  *querycache.Query[[]models.Role]
	logg  *logger.Logger
}

// NewService wires role dependencies.
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
		roles: docstore.For[models.Role](backend),
		users: docstore.For[models.User](backend),
		cache: cache,
		logg:  logg,
	}
	s.list = querycache.NewQuery(cache, cachekeys.RolesList, querycache.Policy{}, func(ctx context.Context) ([]models.Role, error) {
		return s.roles.List(ctx, docstore.All)
	})
	return s, nil
}

func (s *service) List(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error) {
	if err := actor.Require(enums.PermissionRolesRead); err != nil {
		return nil, err
	}
	snap, err := querycache.Served[[]models.Role](s.list.Get(ctx))
	if err != nil {
		return nil, docstore.Classify(err, "roles")
	}
	if snap.Err != nil {
		s.logg.Warn(s.logg.WithResource(ctx, cachekeys.Roles), "serving stale roles: "+snap.Err.Error())
	}

	search := strings.ToLower(strings.TrimSpace(params.Search))
	matched := make([]models.Role, 0, len(snap.Data))
	for _, r := range snap.Data {
		if search == "" || strings.Contains(strings.ToLower(r.Name), search) {
			matched = append(matched, r)
		}
	}

	page, err := pagination.Paginate(matched, pagination.Params{Limit: params.Limit, Cursor: params.Cursor}, func(r models.Role) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	items := make([]RoleDTO, 0, len(page.Items))
	for _, r := range page.Items {
		items = append(items, FromModel(r))
	}
	return &ListResult{Items: items, Cursor: page.Cursor, Total: page.Total, Freshness: snap.Freshness()}, nil
}

func (s *service) Get(ctx context.Context, actor auth.Actor, id string) (*RoleDTO, error) {
	if err := actor.Require(enums.PermissionRolesRead); err != nil {
		return nil, err
	}
	role, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*role)
	return &dto, nil
}

func (s *service) Resolve(ctx context.Context, id string) (*models.Role, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role id required")
	}
	role, err := s.roles.Get(ctx, id)
	if err != nil {
		return nil, docstore.Classify(err, "role")
	}
	return role, nil
}

func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateRoleInput) (*RoleDTO, error) {
	if err := actor.Require(enums.PermissionRolesWrite); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role name required")
	}
	perms, err := parsePermissions(input.Permissions)
	if err != nil {
		return nil, err
	}

	create := querycache.NewMutation(s.cache, func(ctx context.Context, role *models.Role) (*models.Role, error) {
		if _, err := s.roles.Create(ctx, role); err != nil {
			return nil, err
		}
		return role, nil
	}, querycache.MutationOptions{Invalidate: []querycache.Key{cachekeys.RolesList}})

	role, err := create.Run(ctx, &models.Role{Name: name, Description: strings.TrimSpace(input.Description), Permissions: perms})
	if err != nil {
		s.logg.Error(ctx, "create role failed", err)
		return nil, docstore.Classify(err, "role")
	}
	dto := FromModel(*role)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, actor auth.Actor, id string, input UpdateRoleInput) (*RoleDTO, error) {
	if err := actor.Require(enums.PermissionRolesWrite); err != nil {
		return nil, err
	}
	current, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	partial := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "role name cannot be blank")
		}
		partial["name"] = name
	}
	if input.Description != nil {
		partial["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Permissions != nil {
		if current.IsSystem {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "system role permissions are fixed")
		}
		perms, err := parsePermissions(input.Permissions)
		if err != nil {
			return nil, err
		}
		partial["permissions"] = perms
	}
	if len(partial) == 0 {
		dto := FromModel(*current)
		return &dto, nil
	}

	// Users carry the role name in their tokens, so their list goes stale too.
	update := querycache.NewMutation(s.cache, func(ctx context.Context, partial map[string]any) (*models.Role, error) {
		if err := s.roles.Update(ctx, id, partial); err != nil {
			return nil, err
		}
		return s.roles.Get(ctx, id)
	}, querycache.MutationOptions{Invalidate: []querycache.Key{cachekeys.RolesList, cachekeys.UsersList}})

	role, err := update.Run(ctx, partial)
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "role_id", id), "update role failed", err)
		return nil, docstore.Classify(err, "role")
	}
	dto := FromModel(*role)
	return &dto, nil
}

// Delete refuses while any user still holds the role. The check runs before
// any write, so a refused delete leaves the store and the cache as they were.
func (s *service) Delete(ctx context.Context, actor auth.Actor, id string) error {
	if err := actor.Require(enums.PermissionRolesWrite); err != nil {
		return err
	}
	role, err := s.Resolve(ctx, id)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return pkgerrors.New(pkgerrors.CodeConflict, "system roles cannot be deleted")
	}
	holders, err := s.users.Count(ctx, docstore.Where("role_id", id))
	if err != nil {
		return docstore.Classify(err, "users")
	}
	if holders > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "role is assigned to users").
			WithDetails(map[string]any{"role_id": id, "user_count": holders})
	}

	remove := querycache.NewMutation(s.cache, func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, s.roles.Delete(ctx, id)
	}, querycache.MutationOptions{Invalidate: []querycache.Key{cachekeys.RolesList}})
	if _, err := remove.Run(ctx, id); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "role_id", id), "delete role failed", err)
		return docstore.Classify(err, "role")
	}
	return nil
}

// parsePermissions validates and de-duplicates, keeping canonical order.
func parsePermissions(raw []string) (dbtypes.StringList, error) {
	seen := map[enums.Permission]bool{}
	for _, value := range raw {
		p, err := enums.ParsePermission(strings.TrimSpace(value))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid permission").
				WithDetails(map[string]any{"permission": value})
		}
		seen[p] = true
	}
	out := dbtypes.StringList{}
	for _, p := range enums.AllPermissions() {
		if seen[p] {
			out = append(out, string(p))
		}
	}
	return out, nil
}
