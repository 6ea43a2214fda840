package controllers

import (
	"net/http"

	"github.com/angelmondragon/lottodesk-backend/api/responses"
	"github.com/angelmondragon/lottodesk-backend/api/validators"
	"github.com/angelmondragon/lottodesk-backend/internal/roles"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
)

func ListRoles(svc roles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "roles")
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
		result, err := svc.List(r.Context(), actor, roles.ListParams{
			Search: validators.QueryString(r, "search", 64),
			Limit:  page.Limit,
			Cursor: page.Cursor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessMeta(w, result.Items, responses.Page(result.Freshness, result.Cursor, result.Total))
	}
}

func GetRole(svc roles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "roles")
			return
		}
		actor, ok := requestActor(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "roleID")
		if !ok {
			return
		}
		role, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, role)
	}
}

func CreateRole(svc roles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "roles")
			return
		}
		actor, ok := requestActor(w, r, logg)
		if !ok {
			return
		}
		var body roles.CreateRoleInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role, err := svc.Create(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, role)
	}
}

func UpdateRole(svc roles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "roles")
			return
		}
		actor, ok := requestActor(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "roleID")
		if !ok {
			return
		}
		var body roles.UpdateRoleInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role, err := svc.Update(r.Context(), actor, id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, role)
	}
}

// DeleteRole fails with CONFLICT while any user still holds the role.
func DeleteRole(svc roles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "roles")
			return
		}
		actor, ok := requestActor(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "roleID")
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

// ListPermissions returns the closed permission set for the role editor.
func ListPermissions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, enums.AllPermissions())
	}
}
