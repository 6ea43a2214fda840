package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/lottodesk-backend/pkg/auth"
	"github.com/angelmondragon/lottodesk-backend/pkg/auth/session"
	"github.com/angelmondragon/lottodesk-backend/pkg/config"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}

type stubSessionVerifier struct {
	ok  bool
	err error
}

func (s stubSessionVerifier) HasSession(ctx context.Context, accessID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.ok, nil
}

func mintTestToken(t *testing.T, perms ...enums.Permission) string {
	t.Helper()
	token, err := auth.MintAccessToken(testJWT, time.Now(), auth.AccessTokenPayload{
		UserID:      "u-1",
		Email:       "ops@example.com",
		Name:        "Ops Admin",
		RoleID:      "r-1",
		RoleName:    "Operator",
		Permissions: perms,
		JTI:         session.NewAccessID(),
	})
	require.NoError(t, err)
	return token
}

func captureActor(dst *auth.Actor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*dst = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingAndInvalidTokens(t *testing.T) {
	var actor auth.Actor
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(captureActor(&actor))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.True(t, actor.IsZero())
}

func TestAuthSeedsActor(t *testing.T) {
	var actor auth.Actor
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(captureActor(&actor))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, enums.PermissionVendorsRead))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "u-1", actor.UserID)
	assert.Equal(t, "Operator", actor.RoleName)
	assert.NotEmpty(t, actor.SessionID)
	assert.True(t, actor.Can(enums.PermissionVendorsRead))
	assert.False(t, actor.Can(enums.PermissionVendorsWrite))
}

func TestAuthRequiresLiveSession(t *testing.T) {
	token := mintTestToken(t)
	cases := []struct {
		name     string
		verifier stubSessionVerifier
		want     int
	}{
		{"revoked", stubSessionVerifier{ok: false}, http.StatusUnauthorized},
		{"redis down", stubSessionVerifier{err: errors.New("dial tcp")}, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var actor auth.Actor
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			resp := httptest.NewRecorder()
			Auth(testJWT, tc.verifier, nil)(captureActor(&actor)).ServeHTTP(resp, req)
			assert.Equal(t, tc.want, resp.Code)
		})
	}
}

func TestAuthAcceptsQueryTokenOnlyForEventStreams(t *testing.T) {
	token := mintTestToken(t)
	var actor auth.Actor
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(captureActor(&actor))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications/stream?access_token="+token, nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	req.Header.Set("Accept", "text/event-stream")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "u-1", actor.UserID)
}

func TestRequirePermission(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	gate := RequirePermission(enums.PermissionWinnersWrite, nil)(ok)

	resp := httptest.NewRecorder()
	gate.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	viewer := auth.NewActor(auth.ActorInput{UserID: "u-2", Permissions: []enums.Permission{enums.PermissionWinnersRead}})
	req := httptest.NewRequest(http.MethodPost, "/", nil).WithContext(WithActor(context.Background(), viewer))
	resp = httptest.NewRecorder()
	gate.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	operator := auth.NewActor(auth.ActorInput{UserID: "u-3", Permissions: []enums.Permission{enums.PermissionWinnersWrite}})
	req = httptest.NewRequest(http.MethodPost, "/", nil).WithContext(WithActor(context.Background(), operator))
	resp = httptest.NewRecorder()
	gate.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusNoContent, resp.Code)
}
