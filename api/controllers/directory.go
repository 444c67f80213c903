package controllers

import (
	"net/http"
	"strings"

	"github.com/retechci/retechci-backend/api/responses"
	"github.com/retechci/retechci-backend/api/validators"
	"github.com/retechci/retechci-backend/internal/members"
	"github.com/retechci/retechci-backend/internal/salaries"
	"github.com/retechci/retechci-backend/pkg/enums"
	"github.com/retechci/retechci-backend/pkg/logger"
)

// ListTechnicians is the public directory with each technician's cachet report.
func ListTechnicians(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("members"))
			return
		}
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := members.DirectoryParams{
			Specialty: strings.TrimSpace(r.URL.Query().Get("specialty")),
			Params:    page,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("availability")); raw != "" {
			availability := enums.Availability(raw)
			params.Availability = &availability
		}

		result, err := svc.Directory(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GetTechnician(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("members"))
			return
		}
		id, err := validators.URLParamUUID(r, memberIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		technician, err := svc.Technician(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, technician)
	}
}

// ListSalaries returns the union salary reference table.
func ListSalaries(svc salaries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("salaries"))
			return
		}
		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
