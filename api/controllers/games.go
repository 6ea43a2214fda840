package controllers

import (
	"net/http"

	"github.com/angelmondragon/lottodesk-backend/api/responses"
	"github.com/angelmondragon/lottodesk-backend/api/validators"
	"github.com/angelmondragon/lottodesk-backend/internal/games"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
)

type gameStatusBody struct {
	Status enums.GameStatus `json:"status" validate:"required"`
}

func ListGames(svc games.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "games")
			return
		}
		actor, ok := requestActor(w, r, logg)
		if !ok {
			return
		}
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), actor, games.ListParams{
			Search:     validators.QueryString(r, "search", 120),
			Status:     validators.QueryString(r, "status", 32),
			CategoryID: validators.QueryString(r, "category_id", 64),
			VendorID:   validators.QueryString(r, "vendor_id", 64),
			Limit:      page.Limit,
			Cursor:     page.Cursor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessMeta(w, result.Items, responses.Page(result.Freshness, result.Cursor, result.Total))
	}
}

func GetGame(svc games.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "games")
			return
		}
		actor, ok := requestActor(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "gameID")
		if !ok {
			return
		}
		game, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, game)
	}
}

func CreateGame(svc games.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "games")
			return
		}
		actor, ok := requestActor(w, r, logg)
		if !ok {
			return
		}
		var body games.CreateGameInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		game, err := svc.Create(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, game)
	}
}

func UpdateGame(svc games.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "games")
			return
		}
		actor, ok := requestActor(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "gameID")
		if !ok {
			return
		}
		var body games.UpdateGameInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		game, err := svc.Update(r.Context(), actor, id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, game)
	}
}

func SetGameStatus(svc games.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "games")
			return
		}
		actor, ok := requestActor(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "gameID")
		if !ok {
			return
		}
		var body gameStatusBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SetStatus(r.Context(), actor, id, body.Status); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": id, "status": body.Status})
	}
}

func DeleteGame(svc games.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "games")
			return
		}
		actor, ok := requestActor(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "gameID")
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeNoContent(w)
	}
}
