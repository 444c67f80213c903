package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/retechci/retechci-backend/api/responses"
	"github.com/retechci/retechci-backend/api/validators"
	"github.com/retechci/retechci-backend/internal/access"
	"github.com/retechci/retechci-backend/internal/applications"
	"github.com/retechci/retechci-backend/pkg/enums"
	pkgerrors "github.com/retechci/retechci-backend/pkg/errors"
	"github.com/retechci/retechci-backend/pkg/logger"
)

const applicationIDParam = "applicationId"

// SubmitApplication is the public membership intake form.
func SubmitApplication(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("applications"))
			return
		}

		var body applications.SubmitInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		app, err := svc.Submit(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, app)
	}
}

// AdminListApplications returns the reviewer queue, newest first.
func AdminListApplications(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("applications"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := applications.ListParams{Params: page}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseApplicationStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter").
					WithDetails(map[string]any{"fields": map[string]string{"status": "unknown application status"}}))
				return
			}
			params.Status = &status
		}

		result, err := svc.List(r.Context(), actor, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminGetApplication(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return applicationAction(svc, logg, func(ctx context.Context, svc applications.Service, id uuid.UUID, actor access.Actor) (any, error) {
		return svc.Get(ctx, id, actor)
	})
}

// AdminApproveApplication records the board's approval.
func AdminApproveApplication(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return applicationAction(svc, logg, func(ctx context.Context, svc applications.Service, id uuid.UUID, actor access.Actor) (any, error) {
		return svc.Approve(ctx, id, actor)
	})
}

// AdminInviteApplicant marks the invitation as sent.
func AdminInviteApplicant(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return applicationAction(svc, logg, func(ctx context.Context, svc applications.Service, id uuid.UUID, actor access.Actor) (any, error) {
		return svc.Invite(ctx, id, actor)
	})
}

// AdminActivateApplication creates the member account. The response carries
// the temporary password, so it is only ever shown once.
func AdminActivateApplication(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return applicationAction(svc, logg, func(ctx context.Context, svc applications.Service, id uuid.UUID, actor access.Actor) (any, error) {
		return svc.Activate(ctx, id, actor)
	})
}

type applicationFn func(ctx context.Context, svc applications.Service, id uuid.UUID, actor access.Actor) (any, error)

func applicationAction(svc applications.Service, logg *logger.Logger, fn applicationFn) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("applications"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.URLParamUUID(r, applicationIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithApplicationID(ctx, id.String())
		}
		result, err := fn(ctx, svc, id, actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
