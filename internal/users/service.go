package users

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/lottodesk-backend/internal/cachekeys"
	"github.com/angelmondragon/lottodesk-backend/pkg/auth"
	"github.com/angelmondragon/lottodesk-backend/pkg/config"
	"github.com/angelmondragon/lottodesk-backend/pkg/db/models"
	"github.com/angelmondragon/lottodesk-backend/pkg/docstore"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lottodesk-backend/pkg/errors"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
	"github.com/angelmondragon/lottodesk-backend/pkg/pagination"
	"github.com/angelmondragon/lottodesk-backend/pkg/querycache"
	"github.com/angelmondragon/lottodesk-backend/pkg/security"
)

// Service manages admin console accounts.
type Service interface {
	List(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error)
	Get(ctx context.Context, actor auth.Actor, id string) (*UserDTO, error)
	Create(ctx context.Context, actor auth.Actor, input CreateUserInput) (*UserDTO, error)
	Update(ctx context.Context, actor auth.Actor, id string, input UpdateUserInput) (*UserDTO, error)
	SetStatus(ctx context.Context, actor auth.Actor, id string, status enums.UserStatus) error
	Delete(ctx context.Context, actor auth.Actor, id string) error
	// SetDarkMode stores the actor's own theme preference.
	SetDarkMode(ctx context.Context, actor auth.Actor, enabled bool) (*UserDTO, error)
}

type ServiceParams struct {
	Backend  *docstore.Backend
	Cache    *querycache.Cache
	Password config.PasswordConfig
	Logger   *logger.Logger
}

type service struct {
	repo     *Repository
	users    docstore.Collection[models.User]
	roles    docstore.Collection[models.Role]
	cache    *querycache.Cache
	list     *querycache.Query[[]models.User]
	password config.PasswordConfig
	logg     *logger.Logger
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
	repo := NewRepository(params.Backend)
	s := &service{
		repo:     repo,
		users:    repo.Collection(),
		roles:    docstore.For[models.Role](params.Backend),
		cache:    params.Cache,
		password: params.Password,
		logg:     params.Logger,
	}
	s.list = querycache.NewQuery(params.Cache, cachekeys.UsersList, querycache.Policy{}, func(ctx context.Context) ([]models.User, error) {
		return s.users.List(ctx, docstore.All)
	})
	return s, nil
}

func (s *service) List(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error) {
	if err := actor.Require(enums.PermissionUsersRead); err != nil {
		return nil, err
	}
	var status enums.UserStatus
	if params.Status != "" {
		parsed, err := enums.ParseUserStatus(params.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		status = parsed
	}

	snap, err := querycache.Served[[]models.User](s.list.Get(ctx))
	if err != nil {
		return nil, docstore.Classify(err, "users")
	}

	search := strings.ToLower(strings.TrimSpace(params.Search))
	matched := make([]models.User, 0, len(snap.Data))
	for _, u := range snap.Data {
		if status != "" && u.Status != status {
			continue
		}
		if params.RoleID != "" && u.RoleID != params.RoleID {
			continue
		}
		if search != "" && !matchesSearch(u, search) {
			continue
		}
		matched = append(matched, u)
	}

	page, err := pagination.Paginate(matched, pagination.Params{Limit: params.Limit, Cursor: params.Cursor}, cursorOf)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	items := make([]UserDTO, 0, len(page.Items))
	for _, u := range page.Items {
		items = append(items, FromModel(u))
	}
	return &ListResult{Items: items, Cursor: page.Cursor, Total: page.Total, Freshness: snap.Freshness()}, nil
}

func matchesSearch(u models.User, search string) bool {
	for _, field := range []string{u.Email, u.FirstName, u.LastName} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func cursorOf(u models.User) pagination.Cursor {
	return pagination.Cursor{CreatedAt: u.CreatedAt, ID: u.ID}
}

func (s *service) Get(ctx context.Context, actor auth.Actor, id string) (*UserDTO, error) {
	if err := actor.Require(enums.PermissionUsersRead); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*user)
	return &dto, nil
}

func (s *service) load(ctx context.Context, id string) (*models.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, docstore.Classify(err, "user")
	}
	return user, nil
}

func (s *service) ensureRole(ctx context.Context, roleID string) error {
	if strings.TrimSpace(roleID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "role id required")
	}
	if _, err := s.roles.Get(ctx, roleID); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "role does not exist").
				WithDetails(map[string]any{"role_id": roleID})
		}
		return docstore.Classify(err, "role")
	}
	return nil
}

func (s *service) hash(password string) (string, error) {
	if err := security.CheckPasswordStrength(password); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	hash, err := security.HashPassword(password, s.password)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	return hash, nil
}

func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateUserInput) (*UserDTO, error) {
	if err := actor.Require(enums.PermissionUsersWrite); err != nil {
		return nil, err
	}
	email := NormalizeEmail(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if err := s.ensureRole(ctx, input.RoleID); err != nil {
		return nil, err
	}
	hash, err := s.hash(input.Password)
	if err != nil {
		return nil, err
	}

	create := querycache.NewMutation(s.cache, func(ctx context.Context, user *models.User) (*models.User, error) {
		if _, err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}, querycache.MutationOptions{Invalidate: []querycache.Key{cachekeys.UsersList, cachekeys.AllDashboards}})

	user, err := create.Run(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		RoleID:       input.RoleID,
		Status:       enums.UserStatusActive,
	})
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "email", email), "create user failed", err)
		return nil, docstore.Classify(err, "user")
	}
	dto := FromModel(*user)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, actor auth.Actor, id string, input UpdateUserInput) (*UserDTO, error) {
	if err := actor.Require(enums.PermissionUsersWrite); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	partial := map[string]any{}
	if input.FirstName != nil {
		partial["first_name"] = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		partial["last_name"] = strings.TrimSpace(*input.LastName)
	}
	if input.RoleID != nil && *input.RoleID != current.RoleID {
		if id == actor.UserID {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "cannot change your own role")
		}
		if err := s.ensureRole(ctx, *input.RoleID); err != nil {
			return nil, err
		}
		partial["role_id"] = *input.RoleID
	}
	if input.Password != nil {
		hash, err := s.hash(*input.Password)
		if err != nil {
			return nil, err
		}
		partial["password_hash"] = hash
	}
	if len(partial) == 0 {
		dto := FromModel(*current)
		return &dto, nil
	}
	return s.write(ctx, id, partial)
}

func (s *service) write(ctx context.Context, id string, partial map[string]any) (*UserDTO, error) {
	update := querycache.NewMutation(s.cache, func(ctx context.Context, partial map[string]any) (*models.User, error) {
		if err := s.users.Update(ctx, id, partial); err != nil {
			return nil, err
		}
		return s.users.Get(ctx, id)
	}, querycache.MutationOptions{Invalidate: []querycache.Key{cachekeys.UsersList}})

	user, err := update.Run(ctx, partial)
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "user_id", id), "update user failed", err)
		return nil, docstore.Classify(err, "user")
	}
	dto := FromModel(*user)
	return &dto, nil
}

type statusChange struct {
	id     string
	status enums.UserStatus
}

// SetStatus flips the status in the cached list first and restores the list
// if the write fails.
func (s *service) SetStatus(ctx context.Context, actor auth.Actor, id string, status enums.UserStatus) error {
	if err := actor.Require(enums.PermissionUsersWrite); err != nil {
		return err
	}
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid user status")
	}
	if id == actor.UserID && status != enums.UserStatusActive {
		return pkgerrors.New(pkgerrors.CodeConflict, "cannot suspend or ban yourself")
	}

	mutation := querycache.NewOptimisticMutation(s.cache, cachekeys.UsersList,
		func(ctx context.Context, in statusChange) error {
			return s.users.Update(ctx, in.id, map[string]any{"status": in.status})
		},
		func(current []models.User, in statusChange) []models.User {
			return querycache.UpdateWhere(current,
				func(u models.User) bool { return u.ID == in.id },
				func(u models.User) models.User {
					u.Status = in.status
					return u
				})
		},
		querycache.MutationOptions{Invalidate: []querycache.Key{cachekeys.AllDashboards}},
	)
	if err := mutation.Run(ctx, statusChange{id: id, status: status}); err != nil {
		s.logg.Error(s.logg.WithFields(ctx, map[string]any{"user_id": id, "status": string(status)}), "set user status failed", err)
		return docstore.Classify(err, "user")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"user_id": id, "status": string(status)}), "user status changed")
	return nil
}

func (s *service) Delete(ctx context.Context, actor auth.Actor, id string) error {
	if err := actor.Require(enums.PermissionUsersWrite); err != nil {
		return err
	}
	if id == actor.UserID {
		return pkgerrors.New(pkgerrors.CodeConflict, "cannot delete yourself")
	}
	remove := querycache.NewMutation(s.cache, func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, s.users.Delete(ctx, id)
	}, querycache.MutationOptions{Invalidate: []querycache.Key{cachekeys.UsersList, cachekeys.AllDashboards}})
	if _, err := remove.Run(ctx, id); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "user_id", id), "delete user failed", err)
		return docstore.Classify(err, "user")
	}
	return nil
}

func (s *service) SetDarkMode(ctx context.Context, actor auth.Actor, enabled bool) (*UserDTO, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return s.write(ctx, actor.UserID, map[string]any{"dark_mode": enabled})
}
