package controllers

import (
	"net/http"

	"github.com/angelmondragon/lottodesk-backend/api/responses"
	"github.com/angelmondragon/lottodesk-backend/api/validators"
	"github.com/angelmondragon/lottodesk-backend/internal/categories"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
)

func ListCategories(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "categories")
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
		activeOnly, err := validators.ParseQueryBool(r, "active")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), actor, categories.ListParams{
			Search:     validators.QueryString(r, "search", 80),
			ActiveOnly: activeOnly,
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

func GetCategory(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "categories")
			return
		}
		actor, ok := requestActor(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "categoryID")
		if !ok {
			return
		}
		category, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, category)
	}
}

func CreateCategory(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "categories")
			return
		}
		actor, ok := requestActor(w, r, logg)
		if !ok {
			return
		}
		var body categories.CreateCategoryInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.Create(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, category)
	}
}

func UpdateCategory(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "categories")
			return
		}
		actor, ok := requestActor(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "categoryID")
		if !ok {
			return
		}
		var body categories.UpdateCategoryInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.Update(r.Context(), actor, id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, category)
	}
}

func DeleteCategory(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "categories")
			return
		}
		actor, ok := requestActor(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "categoryID")
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
