package members

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/retechci/retechci-backend/internal/access"
	"github.com/retechci/retechci-backend/internal/store"
	"github.com/retechci/retechci-backend/pkg/db/models"
	"github.com/retechci/retechci-backend/pkg/enums"
	pkgerrors "github.com/retechci/retechci-backend/pkg/errors"
	"github.com/retechci/retechci-backend/pkg/pagination"
	"github.com/retechci/retechci-backend/pkg/security"
	"github.com/retechci/retechci-backend/pkg/types"
)

const specialMemberBio = "Profil créé par l'administration."

// ListParams filters the administrative member listing.
type ListParams struct {
	Status *enums.MemberStatus
	pagination.Params
}

// SpecialMemberInput creates an honorary or benefactor member without an application.
type SpecialMemberInput struct {
	FirstName string             `json:"first_name" validate:"required"`
	LastName  string             `json:"last_name" validate:"required"`
	Email     string             `json:"email" validate:"required,email"`
	Specialty string             `json:"specialty" validate:"required"`
	Status    enums.MemberStatus `json:"status" validate:"required,enum"`
}

type SpecialMemberResult struct {
	Member            MemberDTO `json:"member"`
	TemporaryPassword string    `json:"temporary_password"`
}

func (s *service) List(ctx context.Context, params ListParams) (*types.Page[MemberDTO], error) {
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid member status %q", *params.Status)
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	filter := store.MemberFilter{Cursor: cursor, Limit: params.Limit}
	if params.Status != nil {
		filter.Statuses = []enums.MemberStatus{*params.Status}
	}
	rows, err := s.store.Members().List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list members")
	}

	page, next := pagination.Trim(rows, params.Limit, memberCursor)
	items := make([]MemberDTO, 0, len(page))
	for _, m := range page {
		items = append(items, FromModel(m))
	}
	return &types.Page[MemberDTO]{Items: items, NextCursor: next}, nil
}

func (s *service) Sanction(ctx context.Context, memberID uuid.UUID, actor access.Actor, page pagination.Params) (*types.Page[MemberDTO], error) {
	return s.adminUpdate(ctx, memberID, actor, page, adminChange{
		capability: access.SanctionMember,
		message:    "member sanctioned",
		mutate: func(m *models.Member) error {
			m.Status = enums.MemberStatusSanctioned
			return nil
		},
	})
}

func (s *service) SetStatus(ctx context.Context, memberID uuid.UUID, actor access.Actor, status enums.MemberStatus, page pagination.Params) (*types.Page[MemberDTO], error) {
	return s.adminUpdate(ctx, memberID, actor, page, adminChange{
		capability: access.ChangeMemberStatus,
		message:    "member status changed",
		validate: func() error {
			if !status.IsValid() {
				return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid member status %q", status)
			}
			return nil
		},
		mutate: func(m *models.Member) error {
			m.Status = status
			return nil
		},
	})
}

func (s *service) SetRole(ctx context.Context, memberID uuid.UUID, actor access.Actor, role enums.MemberRole, page pagination.Params) (*types.Page[MemberDTO], error) {
	return s.adminUpdate(ctx, memberID, actor, page, adminChange{
		capability: access.ChangeMemberRole,
		message:    "member role changed",
		validate: func() error {
			if !role.IsValid() {
				return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid member role %q", role)
			}
			return nil
		},
		mutate: func(m *models.Member) error {
			m.Role = role
			return nil
		},
	})
}

// adminChange describes one administrative setter. validate runs after the
// capability check and before the member is loaded.
type adminChange struct {
	capability access.Capability
	message    string
	validate   func() error
	mutate     func(*models.Member) error
}

// adminUpdate applies change, revokes the target's login sessions so the new
// standing applies to their next request, and returns the requested page of
// the refreshed member list.
func (s *service) adminUpdate(ctx context.Context, memberID uuid.UUID, actor access.Actor, page pagination.Params, change adminChange) (*types.Page[MemberDTO], error) {
	if err := access.Check(actor.Role, change.capability); err != nil {
		return nil, err
	}
	if change.validate != nil {
		if err := change.validate(); err != nil {
			return nil, err
		}
	}
	updated, err := s.update(ctx, memberID, change.mutate)
	if err != nil {
		return nil, err
	}

	fields := s.logg.WithFields(ctx, map[string]any{
		"member_id": updated.ID.String(),
		"actor_id":  actor.MemberID.String(),
		"status":    updated.Status.String(),
		"role":      updated.Role.String(),
	})
	s.logg.Info(fields, change.message)

	if s.sessions != nil {
		if err := s.sessions.RevokeMember(ctx, updated.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke member sessions")
		}
	}

	return s.List(ctx, ListParams{Params: page})
}

func (s *service) AddSpecialMember(ctx context.Context, actor access.Actor, input SpecialMemberInput) (*SpecialMemberResult, error) {
	if err := access.Check(actor.Role, access.AddSpecialMember); err != nil {
		return nil, err
	}
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = store.NormalizeEmail(input.Email)
	input.Specialty = strings.TrimSpace(input.Specialty)
	if err := validateSpecialMember(input); err != nil {
		return nil, err
	}

	password, err := s.newPassword()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate temporary password")
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash temporary password")
	}

	now := s.now()
	member := models.Member{
		ID:             uuid.New(),
		Name:           input.FirstName + " " + input.LastName,
		Specialty:      input.Specialty,
		Email:          input.Email,
		Bio:            specialMemberBio,
		AvatarURL:      AvatarURL(s.membership.AvatarBaseURL, input.FirstName+input.LastName),
		Availability:   enums.AvailabilityAvailable,
		Filmography:    []models.Film{},
		Skills:         []string{},
		Gallery:        []models.GalleryPhoto{},
		Role:           enums.MemberRoleMember,
		Status:         input.Status,
		MembershipPaid: true,
		PaymentHistory: []models.Payment{},
		PasswordHash:   hash,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.store.WithTx(ctx, func(tx store.Store) error {
		if _, err := tx.Members().FindByEmail(ctx, member.Email); err == nil {
			return store.ErrDuplicateEmail
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		return tx.Members().Create(ctx, &member)
	})
	if err != nil {
		return nil, mapStoreError(err, "create special member")
	}

	s.logg.Info(s.logg.WithMemberID(ctx, member.ID.String()), "special member added")
	return &SpecialMemberResult{Member: FromModel(member), TemporaryPassword: password}, nil
}

func validateSpecialMember(in SpecialMemberInput) error {
	fields := map[string]string{}
	if in.FirstName == "" {
		fields["first_name"] = "required"
	}
	if in.LastName == "" {
		fields["last_name"] = "required"
	}
	if in.Specialty == "" {
		fields["specialty"] = "required"
	}
	if !strings.Contains(in.Email, "@") {
		fields["email"] = "must contain @"
	}
	if !in.Status.IsSpecial() {
		fields["status"] = "must be honorary_member or benefactor_member"
	}
	if len(fields) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid special member").
		WithDetails(map[string]any{"fields": fields})
}

// AvatarURL builds the deterministic placeholder portrait for a seed.
func AvatarURL(base, seed string) string {
	return fmt.Sprintf("%s/%s/400/400", strings.TrimRight(base, "/"), url.PathEscape(seed))
}

func memberCursor(m models.Member) pagination.Cursor {
	return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
}

func defaultPassword() (string, error) {
	return security.GenerateTempPassword(security.TempPasswordLength)
}
