package auth

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/lottodesk-backend/internal/users"
	pkgAuth "github.com/angelmondragon/lottodesk-backend/pkg/auth"
	"github.com/angelmondragon/lottodesk-backend/pkg/auth/session"
	"github.com/angelmondragon/lottodesk-backend/pkg/config"
	"github.com/angelmondragon/lottodesk-backend/pkg/db/models"
	"github.com/angelmondragon/lottodesk-backend/pkg/docstore"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lottodesk-backend/pkg/errors"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
	"github.com/angelmondragon/lottodesk-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*SessionResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*SessionResponse, error)
	Logout(ctx context.Context, actor pkgAuth.Actor) error
	// Me reloads the actor's account so role and status changes show up
	// before the access token expires.
	Me(ctx context.Context, actor pkgAuth.Actor) (*SessionResponse, error)
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

type roleResolver interface {
	Resolve(ctx context.Context, id string) (*models.Role, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID, userID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (session.Rotation, error)
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	Roles          roleResolver
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
	Now            func() time.Time
}

type service struct {
	users    userRepository
	roles    roleResolver
	session  sessionManager
	jwtCfg   config.JWTConfig
	password config.PasswordConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user repository is required")
	}
	if params.Roles == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "role resolver is required")
	}
	if params.SessionManager == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "session manager is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		users:    params.UserRepo,
		roles:    params.Roles,
		session:  params.SessionManager,
		jwtCfg:   params.JWTConfig,
		password: params.PasswordConfig,
		logg:     logg,
		now:      now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*SessionResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	role, err := s.activeRole(ctx, user)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update last login")
	}
	user.LastLoginAt = &now
	s.upgradeHash(ctx, user, req.Password)

	accessID := session.NewAccessID()
	refreshToken, err := s.session.Generate(ctx, accessID, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}
	return s.issue(user, role, accessID, refreshToken, now)
}

func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*SessionResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}

	rotation, err := s.session.Rotate(ctx, claims.ID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	// claims are re-minted from the stored account, not copied from the old token
	user, err := s.users.FindByID(ctx, rotation.UserID)
	if err != nil {
		s.revokeQuietly(ctx, rotation.AccessID)
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user.Status != enums.UserStatusActive {
		s.revokeQuietly(ctx, rotation.AccessID)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is not active")
	}
	role, err := s.activeRole(ctx, user)
	if err != nil {
		s.revokeQuietly(ctx, rotation.AccessID)
		return nil, err
	}
	return s.issue(user, role, rotation.AccessID, rotation.RefreshToken, s.now().UTC())
}

func (s *service) Logout(ctx context.Context, actor pkgAuth.Actor) error {
	if actor.IsZero() || actor.SessionID == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	if err := s.session.Revoke(ctx, actor.SessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) Me(ctx context.Context, actor pkgAuth.Actor) (*SessionResponse, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	role, err := s.activeRole(ctx, user)
	if err != nil {
		return nil, err
	}
	return &SessionResponse{User: users.FromModel(*user), Role: summarize(role)}, nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	input := users.NormalizeEmail(email)
	if input == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, input)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || user.Status != enums.UserStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

func (s *service) activeRole(ctx context.Context, user *models.User) (*models.Role, error) {
	role, err := s.roles.Resolve(ctx, user.RoleID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) || pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account has no role assigned")
		}
		return nil, err
	}
	return role, nil
}

// upgradeHash re-hashes with the current argon parameters. Failure only
// costs the upgrade, never the login.
func (s *service) upgradeHash(ctx context.Context, user *models.User, password string) {
	if !security.NeedsRehash(user.PasswordHash, s.password) {
		return
	}
	logCtx := s.logg.WithUserID(ctx, user.ID)
	hash, err := security.HashPassword(password, s.password)
	if err != nil {
		s.logg.Error(logCtx, "rehash password", err)
		return
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		s.logg.Error(logCtx, "store upgraded password hash", err)
		return
	}
	user.PasswordHash = hash
	s.logg.Info(logCtx, "password hash upgraded")
}

func (s *service) revokeQuietly(ctx context.Context, accessID string) {
	if err := s.session.Revoke(ctx, accessID); err != nil {
		s.logg.Warn(ctx, "revoke rotated session: "+err.Error())
	}
}

func (s *service) issue(user *models.User, role *models.Role, accessID, refreshToken string, now time.Time) (*SessionResponse, error) {
	summary := summarize(role)
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID:      user.ID,
		Email:       user.Email,
		Name:        users.FullName(*user),
		RoleID:      role.ID,
		RoleName:    role.Name,
		Permissions: summary.Permissions,
		DarkMode:    user.DarkMode,
		JTI:         accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &SessionResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute),
		User:         users.FromModel(*user),
		Role:         summary,
	}, nil
}

func summarize(role *models.Role) RoleSummary {
	perms := make([]enums.Permission, 0, len(role.Permissions))
	for _, p := range enums.AllPermissions() {
		if role.Permissions.Contains(string(p)) {
			perms = append(perms, p)
		}
	}
	return RoleSummary{ID: role.ID, Name: role.Name, Permissions: perms}
}
