package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/retechci/retechci-backend/api/responses"
	"github.com/retechci/retechci-backend/api/validators"
	"github.com/retechci/retechci-backend/internal/access"
	"github.com/retechci/retechci-backend/internal/members"
	"github.com/retechci/retechci-backend/pkg/enums"
	pkgerrors "github.com/retechci/retechci-backend/pkg/errors"
	"github.com/retechci/retechci-backend/pkg/logger"
	"github.com/retechci/retechci-backend/pkg/pagination"
	"github.com/retechci/retechci-backend/pkg/types"
)

const memberIDParam = "memberId"

type memberStatusRequest struct {
	Status enums.MemberStatus `json:"status" validate:"required,enum"`
}

type memberRoleRequest struct {
	Role enums.MemberRole `json:"role" validate:"required,enum"`
}

// AdminListMembers lists members, optionally filtered by status.
func AdminListMembers(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("members"))
			return
		}
		if _, err := requireActor(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := members.ListParams{Params: page}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status := enums.MemberStatus(raw)
			params.Status = &status
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminAddSpecialMember creates an honorary or benefactor member.
func AdminAddSpecialMember(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("members"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body members.SpecialMemberInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.AddSpecialMember(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func AdminSanctionMember(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return memberAction(svc, logg, func(ctx context.Context, svc members.Service, id uuid.UUID, actor access.Actor, page pagination.Params, _ *http.Request) (*types.Page[members.MemberDTO], error) {
		return svc.Sanction(ctx, id, actor, page)
	})
}

func AdminSetMemberStatus(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return memberAction(svc, logg, func(ctx context.Context, svc members.Service, id uuid.UUID, actor access.Actor, page pagination.Params, r *http.Request) (*types.Page[members.MemberDTO], error) {
		var body memberStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.SetStatus(ctx, id, actor, body.Status, page)
	})
}

func AdminSetMemberRole(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return memberAction(svc, logg, func(ctx context.Context, svc members.Service, id uuid.UUID, actor access.Actor, page pagination.Params, r *http.Request) (*types.Page[members.MemberDTO], error) {
		var body memberRoleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.SetRole(ctx, id, actor, body.Role, page)
	})
}

type memberFn func(ctx context.Context, svc members.Service, id uuid.UUID, actor access.Actor, page pagination.Params, r *http.Request) (*types.Page[members.MemberDTO], error)

// memberAction runs an admin setter; the response is the refreshed member
// list, paged by the limit and cursor query parameters.
func memberAction(svc members.Service, logg *logger.Logger, fn memberFn) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("members"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.URLParamUUID(r, memberIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithField(ctx, "target_member_id", id.String())
		}
		result, err := fn(ctx, svc, id, actor, page, r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if result == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "empty member page"))
			return
		}
		responses.WriteSuccess(w, result)
	}
}
