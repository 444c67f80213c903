// Package members manages member records after admission: administrative
// standing changes, the self-service dashboard and the public directory.
package members

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/retechci/retechci-backend/internal/access"
	"github.com/retechci/retechci-backend/internal/cachet"
	"github.com/retechci/retechci-backend/internal/store"
	"github.com/retechci/retechci-backend/pkg/config"
	"github.com/retechci/retechci-backend/pkg/db/models"
	"github.com/retechci/retechci-backend/pkg/enums"
	pkgerrors "github.com/retechci/retechci-backend/pkg/errors"
	"github.com/retechci/retechci-backend/pkg/logger"
	"github.com/retechci/retechci-backend/pkg/pagination"
	"github.com/retechci/retechci-backend/pkg/types"
)

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// salaryReference supplies the table the reputation estimate is priced against.
type salaryReference interface {
	Table(ctx context.Context) (cachet.SalaryTable, error)
}

// sessionRevoker ends every live login of a member.
type sessionRevoker interface {
	RevokeMember(ctx context.Context, memberID uuid.UUID) error
}

// Service exposes member administration, the dashboard and the directory.
type Service interface {
	List(ctx context.Context, params ListParams) (*types.Page[MemberDTO], error)
	Sanction(ctx context.Context, memberID uuid.UUID, actor access.Actor, page pagination.Params) (*types.Page[MemberDTO], error)
	SetStatus(ctx context.Context, memberID uuid.UUID, actor access.Actor, status enums.MemberStatus, page pagination.Params) (*types.Page[MemberDTO], error)
	SetRole(ctx context.Context, memberID uuid.UUID, actor access.Actor, role enums.MemberRole, page pagination.Params) (*types.Page[MemberDTO], error)
	AddSpecialMember(ctx context.Context, actor access.Actor, input SpecialMemberInput) (*SpecialMemberResult, error)

	Get(ctx context.Context, actor access.Actor) (*MemberDTO, error)
	Cachet(ctx context.Context, actor access.Actor) (*cachet.Report, error)
	SetAvailability(ctx context.Context, actor access.Actor, availability enums.Availability) (*MemberDTO, error)
	AddFilm(ctx context.Context, actor access.Actor, input FilmInput) (*MemberDTO, error)
	RemoveFilm(ctx context.Context, actor access.Actor, index int) (*MemberDTO, error)
	SetTwoFactor(ctx context.Context, actor access.Actor, enabled bool) (*MemberDTO, error)
	PayMembership(ctx context.Context, actor access.Actor, year int) (*MemberDTO, error)
	ChangePassword(ctx context.Context, actor access.Actor, oldPassword, newPassword string) error
	SetAvatar(ctx context.Context, actor access.Actor, avatarURL string) (*MemberDTO, error)
	AddPhoto(ctx context.Context, actor access.Actor, input PhotoInput) (*MemberDTO, error)
	RemovePhoto(ctx context.Context, actor access.Actor, photoID uuid.UUID) (*MemberDTO, error)

	Directory(ctx context.Context, params DirectoryParams) (*types.Page[TechnicianDTO], error)
	Technician(ctx context.Context, id uuid.UUID) (*TechnicianDTO, error)
}

type ServiceParams struct {
	Store      store.Store
	Salaries   salaryReference
	Hasher     passwordHasher
	Logger     *logger.Logger
	Membership config.MembershipConfig
	// Sessions is optional; when set, admin changes log the target out.
	Sessions sessionRevoker
	Now      func() time.Time
	// NewPassword defaults to security.GenerateTempPassword.
	NewPassword func() (string, error)
}

type service struct {
	store       store.Store
	salaries    salaryReference
	hasher      passwordHasher
	logg        *logger.Logger
	membership  config.MembershipConfig
	sessions    sessionRevoker
	now         func() time.Time
	newPassword func() (string, error)
}

func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	if params.Salaries == nil {
		return nil, fmt.Errorf("salary reference required")
	}
	if params.Hasher == nil {
		return nil, fmt.Errorf("password hasher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}

	now := params.Now
	if now == nil {
		now = time.Now
	}
	newPassword := params.NewPassword
	if newPassword == nil {
		newPassword = defaultPassword
	}
	return &service{
		store:       params.Store,
		salaries:    params.Salaries,
		hasher:      params.Hasher,
		logg:        params.Logger,
		membership:  params.Membership,
		sessions:    params.Sessions,
		now:         func() time.Time { return now().UTC() },
		newPassword: newPassword,
	}, nil
}

// update loads a member, applies mutate and persists the result in one transaction.
func (s *service) update(ctx context.Context, id uuid.UUID, mutate func(*models.Member) error) (*models.Member, error) {
	var out models.Member
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		member, err := tx.Members().FindByID(ctx, id)
		if err != nil {
			return mapStoreError(err, "load member")
		}
		if err := mutate(member); err != nil {
			return err
		}
		member.UpdatedAt = s.now()
		if err := tx.Members().Update(ctx, member); err != nil {
			return mapStoreError(err, "update member")
		}
		out = *member
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update member")
		}
		return nil, err
	}
	return &out, nil
}

func mapStoreError(err error, action string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
	case errors.Is(err, store.ErrDuplicateEmail):
		return pkgerrors.New(pkgerrors.CodeDuplicateMember, "a member with this email already exists")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
	}
}
