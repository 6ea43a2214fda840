package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/lottodesk-backend/api/responses"
	pkgAuth "github.com/angelmondragon/lottodesk-backend/pkg/auth"
	"github.com/angelmondragon/lottodesk-backend/pkg/auth/session"
	"github.com/angelmondragon/lottodesk-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/lottodesk-backend/pkg/errors"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the actor.
// EventSource cannot set headers, so the stream route may pass the token as
// the access_token query parameter instead.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			actor := claims.Actor()
			ctx := WithActor(r.Context(), actor)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    actor.UserID,
					"actor_role": actor.RoleName,
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the access token from the Authorization header, or
// from the access_token query parameter on streaming requests.
func BearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
			return strings.TrimSpace(r.URL.Query().Get("access_token"))
		}
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
