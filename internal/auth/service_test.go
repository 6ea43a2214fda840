package auth

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/lottodesk-backend/internal/users"
	pkgAuth "github.com/angelmondragon/lottodesk-backend/pkg/auth"
	"github.com/angelmondragon/lottodesk-backend/pkg/auth/session"
	"github.com/angelmondragon/lottodesk-backend/pkg/config"
	"github.com/angelmondragon/lottodesk-backend/pkg/db/models"
	"github.com/angelmondragon/lottodesk-backend/pkg/docstore"
	"github.com/angelmondragon/lottodesk-backend/pkg/docstore/docstoretest"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lottodesk-backend/pkg/errors"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
	"github.com/angelmondragon/lottodesk-backend/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strongPassword = "Lotto-Desk-2026"

var (
	testJWT = config.JWTConfig{
		Secret:                 "test-secret",
		Issuer:                 "lottodesk",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 60,
	}
	weakArgon = config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
)

type memorySessions struct {
	byAccess map[string][2]string
	revoked  []string
}

func newMemorySessions() *memorySessions {
	return &memorySessions{byAccess: map[string][2]string{}}
}

func (m *memorySessions) Generate(_ context.Context, accessID, userID string) (string, error) {
	token := "rt-" + accessID
	m.byAccess[accessID] = [2]string{userID, token}
	return token, nil
}

func (m *memorySessions) Rotate(_ context.Context, oldAccessID, provided string) (session.Rotation, error) {
	rec, ok := m.byAccess[oldAccessID]
	if !ok || rec[1] != provided {
		return session.Rotation{}, session.ErrInvalidRefreshToken
	}
	delete(m.byAccess, oldAccessID)
	next := session.NewAccessID()
	token, _ := m.Generate(context.Background(), next, rec[0])
	return session.Rotation{AccessID: next, RefreshToken: token, UserID: rec[0]}, nil
}

func (m *memorySessions) Revoke(_ context.Context, accessID string) error {
	m.revoked = append(m.revoked, accessID)
	delete(m.byAccess, accessID)
	return nil
}

type storeRoles struct {
	roles docstore.Collection[models.Role]
}

func (r storeRoles) Resolve(ctx context.Context, id string) (*models.Role, error) {
	role, err := r.roles.Get(ctx, id)
	if err != nil {
		return nil, docstore.Classify(err, "role")
	}
	return role, nil
}

type fixture struct {
	svc      Service
	backend  *docstore.Backend
	repo     *users.Repository
	sessions *memorySessions
	clock    *docstoretest.Clock
	admin    *users.UserDTO
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	clock := docstoretest.NewClock(time.Now().UTC().Truncate(time.Second))
	backend := docstoretest.New(t, clock, &models.Role{}, &models.User{})
	admin, err := BootstrapAdmin(context.Background(), backend, weakArgon, BootstrapRequest{
		FirstName: "Ada", LastName: "Admin", Email: " Ada@Example.com ", Password: strongPassword,
	})
	require.NoError(t, err)

	repo := users.NewRepository(backend)
	sessions := newMemorySessions()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		Roles:          storeRoles{roles: docstore.For[models.Role](backend)},
		SessionManager: sessions,
		JWTConfig:      testJWT,
		PasswordConfig: weakArgon,
		Logger:         logger.Nop(),
		Now:            clock.Now,
	})
	require.NoError(t, err)
	return fixture{svc: svc, backend: backend, repo: repo, sessions: sessions, clock: clock, admin: admin}
}

func TestLoginMintsPermissionsFromRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Login(ctx, LoginRequest{Email: "ADA@example.com", Password: strongPassword})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, SuperAdminRole, resp.Role.Name)
	assert.Equal(t, enums.AllPermissions(), resp.Role.Permissions)
	require.NotNil(t, resp.User.LastLoginAt)

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)
	actor := claims.Actor()
	assert.Equal(t, f.admin.ID, actor.UserID)
	assert.Equal(t, "Ada Admin", actor.Name)
	assert.True(t, actor.Can(enums.PermissionSettingsWrite))
	assert.Contains(t, f.sessions.byAccess, claims.ID)

	stored, err := f.repo.FindByID(ctx, f.admin.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []LoginRequest{
		{Email: "ada@example.com", Password: "wrong"},
		{Email: "nobody@example.com", Password: strongPassword},
		{Email: "", Password: strongPassword},
	}
	for _, req := range cases {
		_, err := f.svc.Login(ctx, req)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized), "email %q", req.Email)
	}

	require.NoError(t, f.repo.Collection().Update(ctx, f.admin.ID, map[string]any{"status": enums.UserStatusSuspended}))
	_, err := f.svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: strongPassword})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized), "suspended accounts cannot sign in")
}

func TestLoginUpgradesWeakHash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before, err := f.repo.FindByID(ctx, f.admin.ID)
	require.NoError(t, err)

	stronger := weakArgon
	stronger.ArgonTime = 2
	require.True(t, security.NeedsRehash(before.PasswordHash, stronger))

	svc, err := NewService(ServiceParams{
		UserRepo:       f.repo,
		Roles:          storeRoles{roles: docstore.For[models.Role](f.backend)},
		SessionManager: f.sessions,
		JWTConfig:      testJWT,
		PasswordConfig: stronger,
	})
	require.NoError(t, err)
	_, err = svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: strongPassword})
	require.NoError(t, err)

	after, err := f.repo.FindByID(ctx, f.admin.ID)
	require.NoError(t, err)
	assert.NotEqual(t, before.PasswordHash, after.PasswordHash)
	assert.False(t, security.NeedsRehash(after.PasswordHash, stronger))
	ok, err := security.VerifyPassword(strongPassword, after.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRefreshRotatesAndReloadsRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	login, err := f.svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: strongPassword})
	require.NoError(t, err)

	// demote to Viewer between login and refresh
	viewers, err := docstore.For[models.Role](f.backend).List(ctx, docstore.Where("name", "Viewer"))
	require.NoError(t, err)
	require.Len(t, viewers, 1)
	require.NoError(t, f.repo.Collection().Update(ctx, f.admin.ID, map[string]any{"role_id": viewers[0].ID}))

	f.clock.Advance(time.Hour)
	refreshed, err := f.svc.Refresh(ctx, RefreshRequest{AccessToken: login.AccessToken, RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.Equal(t, "Viewer", refreshed.Role.Name)
	assert.NotContains(t, refreshed.Role.Permissions, enums.PermissionUsersWrite)

	_, err = f.svc.Refresh(ctx, RefreshRequest{AccessToken: login.AccessToken, RefreshToken: login.RefreshToken})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized), "a rotated refresh token is single use")

	_, err = f.svc.Refresh(ctx, RefreshRequest{AccessToken: "garbage", RefreshToken: "x"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestRefreshRevokesSuspendedAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	login, err := f.svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: strongPassword})
	require.NoError(t, err)
	require.NoError(t, f.repo.Collection().Update(ctx, f.admin.ID, map[string]any{"status": enums.UserStatusSuspended}))

	_, err = f.svc.Refresh(ctx, RefreshRequest{AccessToken: login.AccessToken, RefreshToken: login.RefreshToken})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	assert.Len(t, f.sessions.revoked, 1)
	assert.Empty(t, f.sessions.byAccess)
}

func TestLogoutAndMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	login, err := f.svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: strongPassword})
	require.NoError(t, err)
	claims, err := pkgAuth.ParseAccessToken(testJWT, login.AccessToken)
	require.NoError(t, err)
	actor := claims.Actor()

	me, err := f.svc.Me(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", me.User.Email)
	assert.Empty(t, me.AccessToken)

	require.NoError(t, f.svc.Logout(ctx, actor))
	assert.Equal(t, []string{claims.ID}, f.sessions.revoked)

	err = f.svc.Logout(ctx, pkgAuth.Actor{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestBootstrapAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := BootstrapAdmin(ctx, f.backend, weakArgon, BootstrapRequest{
		FirstName: "Dup", LastName: "Licate", Email: "ada@example.com", Password: strongPassword,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = BootstrapAdmin(ctx, f.backend, weakArgon, BootstrapRequest{
		FirstName: "Weak", LastName: "Pass", Email: "weak@example.com", Password: "short",
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	ids, err := SeedSystemRoles(ctx, f.backend)
	require.NoError(t, err)
	assert.Len(t, ids, 3)
	count, err := docstore.For[models.Role](f.backend).Count(ctx, docstore.All)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count, "seeding twice does not duplicate roles")
}
