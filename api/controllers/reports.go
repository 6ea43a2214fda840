package controllers

import (
	"net/http"

	"github.com/angelmondragon/lottodesk-backend/api/responses"
	"github.com/angelmondragon/lottodesk-backend/api/validators"
	"github.com/angelmondragon/lottodesk-backend/internal/reports"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
)

// Dashboard serves cached stats for ?range=7d|30d|90d|all (default 30d).
// meta.stale tells the console a refresh is running behind the data.
func Dashboard(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "reports")
			return
		}
		actor, ok := requestActor(w, r, logg)
		if !ok {
			return
		}
		result, err := svc.Dashboard(r.Context(), actor, validators.QueryString(r, "range", 8))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessMeta(w, result.Stats, responses.Cached(result.Freshness))
	}
}

func ListReports(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "reports")
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
		result, err := svc.List(r.Context(), actor, reports.ListParams{Limit: page.Limit, Cursor: page.Cursor})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessMeta(w, result.Items, responses.Page(result.Freshness, result.Cursor, result.Total))
	}
}

func GetReport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "reports")
			return
		}
		actor, ok := requestActor(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "reportID")
		if !ok {
			return
		}
		report, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// CreateReport snapshots the current stats for a range.
func CreateReport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "reports")
			return
		}
		actor, ok := requestActor(w, r, logg)
		if !ok {
			return
		}
		var body reports.CreateReportInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.Create(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, report)
	}
}

func DeleteReport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "reports")
			return
		}
		actor, ok := requestActor(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "reportID")
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
