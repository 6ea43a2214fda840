package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/lottodesk-backend/api/middleware"
	"github.com/angelmondragon/lottodesk-backend/api/responses"
	"github.com/angelmondragon/lottodesk-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/lottodesk-backend/pkg/errors"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
)

// requestActor returns the authenticated actor or writes 401.
func requestActor(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (auth.Actor, bool) {
	actor := middleware.ActorFromContext(r.Context())
	if actor.IsZero() {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
		return auth.Actor{}, false
	}
	return actor, true
}

// pathID reads a chi URL parameter and rejects blanks.
func pathID(w http.ResponseWriter, r *http.Request, logg *logger.Logger, key string) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, key))
	if id == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, key+" is required"))
		return "", false
	}
	return id, true
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
