package members

import (
	"context"

	"github.com/google/uuid"

	"github.com/retechci/retechci-backend/internal/store"
	"github.com/retechci/retechci-backend/pkg/enums"
	pkgerrors "github.com/retechci/retechci-backend/pkg/errors"
	"github.com/retechci/retechci-backend/pkg/pagination"
	"github.com/retechci/retechci-backend/pkg/types"
)

// directoryStatuses are the standings shown in the public technicians directory.
var directoryStatuses = []enums.MemberStatus{
	enums.MemberStatusActive,
	enums.MemberStatusHonorary,
	enums.MemberStatusBenefactor,
}

// DirectoryParams filters the public technicians directory.
type DirectoryParams struct {
	Specialty    string
	Availability *enums.Availability
	pagination.Params
}

func (s *service) Directory(ctx context.Context, params DirectoryParams) (*types.Page[TechnicianDTO], error) {
	if params.Availability != nil && !params.Availability.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid availability %q", *params.Availability)
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.store.Members().List(ctx, store.MemberFilter{
		Statuses:     directoryStatuses,
		Specialty:    params.Specialty,
		Availability: params.Availability,
		Cursor:       cursor,
		Limit:        params.Limit,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list technicians")
	}
	salaries, err := s.salaries.Table(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load salary reference")
	}

	page, next := pagination.Trim(rows, params.Limit, memberCursor)
	items := make([]TechnicianDTO, 0, len(page))
	for _, m := range page {
		items = append(items, technicianFromModel(m, salaries))
	}
	return &types.Page[TechnicianDTO]{Items: items, NextCursor: next}, nil
}

// Technician returns one directory card. Members outside the directory are reported missing.
func (s *service) Technician(ctx context.Context, id uuid.UUID) (*TechnicianDTO, error) {
	member, err := s.store.Members().FindByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "load technician")
	}
	if !inDirectory(member.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
	}
	salaries, err := s.salaries.Table(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load salary reference")
	}
	dto := technicianFromModel(*member, salaries)
	return &dto, nil
}

func inDirectory(status enums.MemberStatus) bool {
	for _, s := range directoryStatuses {
		if s == status {
			return true
		}
	}
	return false
}
