// Package applications runs the membership application review chain:
// intake, board approval, invitation and activation into a member record.
package applications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/retechci/retechci-backend/internal/access"
	"github.com/retechci/retechci-backend/internal/members"
	"github.com/retechci/retechci-backend/internal/store"
	"github.com/retechci/retechci-backend/pkg/config"
	"github.com/retechci/retechci-backend/pkg/db/models"
	"github.com/retechci/retechci-backend/pkg/enums"
	pkgerrors "github.com/retechci/retechci-backend/pkg/errors"
	"github.com/retechci/retechci-backend/pkg/logger"
	"github.com/retechci/retechci-backend/pkg/metrics"
	"github.com/retechci/retechci-backend/pkg/pagination"
	"github.com/retechci/retechci-backend/pkg/security"
	"github.com/retechci/retechci-backend/pkg/types"
)

type passwordHasher interface {
	Hash(password string) (string, error)
}

// Service exposes the application lifecycle.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*ApplicationDTO, error)
	Get(ctx context.Context, id uuid.UUID, actor access.Actor) (*ApplicationDTO, error)
	List(ctx context.Context, actor access.Actor, params ListParams) (*types.Page[ApplicationDTO], error)
	Approve(ctx context.Context, id uuid.UUID, actor access.Actor) (*ApplicationDTO, error)
	Invite(ctx context.Context, id uuid.UUID, actor access.Actor) (*ApplicationDTO, error)
	Activate(ctx context.Context, id uuid.UUID, actor access.Actor) (*ActivationResult, error)
}

// ServiceParams wires the lifecycle service.
type ServiceParams struct {
	Store      store.Store
	Hasher     passwordHasher
	Logger     *logger.Logger
	Metrics    *metrics.LifecycleMetrics
	Membership config.MembershipConfig
	// Now and NewPassword default to the wall clock and security.GenerateTempPassword.
	Now         func() time.Time
	NewPassword func() (string, error)
}

type service struct {
	store       store.Store
	hasher      passwordHasher
	logg        *logger.Logger
	metrics     *metrics.LifecycleMetrics
	membership  config.MembershipConfig
	now         func() time.Time
	newPassword func() (string, error)
}

func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	if params.Hasher == nil {
		return nil, fmt.Errorf("password hasher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Membership.AnnualFee <= 0 {
		return nil, fmt.Errorf("membership annual fee must be positive")
	}

	now := params.Now
	if now == nil {
		now = time.Now
	}
	newPassword := params.NewPassword
	if newPassword == nil {
		newPassword = func() (string, error) {
			return security.GenerateTempPassword(security.TempPasswordLength)
		}
	}

	return &service{
		store:       params.Store,
		hasher:      params.Hasher,
		logg:        params.Logger,
		metrics:     params.Metrics,
		membership:  params.Membership,
		now:         func() time.Time { return now().UTC() },
		newPassword: newPassword,
	}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*ApplicationDTO, error) {
	input = trimInput(input)
	if err := validateSubmit(input); err != nil {
		return nil, err
	}

	now := s.now()
	app := &models.MembershipApplication{
		ID:         uuid.New(),
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Email:      input.Email,
		Phone:      input.Phone,
		Specialty:  input.Specialty,
		Bio:        input.Bio,
		Motivation: input.Motivation,
		CVFileName: input.CVFileName,
		Status:     enums.ApplicationStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Applications().Create(ctx, app); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create application")
	}

	s.metrics.IncSubmission()
	s.logg.Info(s.logg.WithApplicationID(ctx, app.ID.String()), "membership application submitted")

	dto := FromModel(*app)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID, actor access.Actor) (*ApplicationDTO, error) {
	if err := access.Check(actor.Role, access.ViewApplications); err != nil {
		return nil, err
	}
	app, err := s.store.Applications().FindByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "load application")
	}
	dto := FromModel(*app)
	return &dto, nil
}

func (s *service) List(ctx context.Context, actor access.Actor, params ListParams) (*types.Page[ApplicationDTO], error) {
	if err := access.Check(actor.Role, access.ViewApplications); err != nil {
		return nil, err
	}
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", *params.Status)
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.store.Applications().List(ctx, store.ApplicationFilter{
		Status: params.Status,
		Cursor: cursor,
		Limit:  params.Limit,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list applications")
	}

	page, next := pagination.Trim(rows, params.Limit, func(a models.MembershipApplication) pagination.Cursor {
		return pagination.Cursor{CreatedAt: a.CreatedAt, ID: a.ID}
	})
	items := make([]ApplicationDTO, 0, len(page))
	for _, app := range page {
		items = append(items, FromModel(app))
	}
	return &types.Page[ApplicationDTO]{Items: items, NextCursor: next}, nil
}

func (s *service) Approve(ctx context.Context, id uuid.UUID, actor access.Actor) (*ApplicationDTO, error) {
	return s.advance(ctx, id, actor, approval)
}

func (s *service) Invite(ctx context.Context, id uuid.UUID, actor access.Actor) (*ApplicationDTO, error) {
	return s.advance(ctx, id, actor, invitation)
}

// advance runs a transition that only touches the application status.
func (s *service) advance(ctx context.Context, id uuid.UUID, actor access.Actor, t transition) (*ApplicationDTO, error) {
	app, err := s.precheck(ctx, id, actor, t)
	if err != nil {
		return nil, s.fail(ctx, t, err)
	}

	now := s.now()
	if err := s.store.Applications().UpdateStatus(ctx, id, t.from, t.to, now); err != nil {
		if errors.Is(err, store.ErrStatusConflict) {
			err = s.conflict(ctx, id, t)
		}
		return nil, s.fail(ctx, t, mapStoreError(err, "update application status"))
	}
	app.Status = t.to
	app.UpdatedAt = now

	s.succeed(ctx, actor, app.ID, t)
	dto := FromModel(*app)
	return &dto, nil
}

func (s *service) Activate(ctx context.Context, id uuid.UUID, actor access.Actor) (*ActivationResult, error) {
	t := activation
	if _, err := s.precheck(ctx, id, actor, t); err != nil {
		return nil, s.fail(ctx, t, err)
	}

	// argon2 runs before the transaction opens.
	password, err := s.newPassword()
	if err != nil {
		return nil, s.fail(ctx, t, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate temporary password"))
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, s.fail(ctx, t, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash temporary password"))
	}

	var (
		activated models.MembershipApplication
		member    models.Member
	)
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		app, err := tx.Applications().FindByID(ctx, id)
		if err != nil {
			return mapStoreError(err, "load application")
		}
		if app.Status != t.from {
			return invalidTransition(t, app.Status)
		}

		if existing, err := tx.Members().FindByEmail(ctx, app.Email); err == nil {
			return duplicateMember(existing.Email)
		} else if !errors.Is(err, store.ErrNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check member email")
		}

		now := s.now()
		if err := tx.Applications().UpdateStatus(ctx, id, t.from, t.to, now); err != nil {
			if errors.Is(err, store.ErrStatusConflict) {
				return invalidTransition(t, enums.ApplicationStatusActivated)
			}
			return mapStoreError(err, "update application status")
		}

		member = newMember(*app, hash, s.membership, now)
		if err := tx.Members().Create(ctx, &member); err != nil {
			if errors.Is(err, store.ErrDuplicateEmail) {
				return duplicateMember(member.Email)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create member")
		}

		activated = *app
		activated.Status = t.to
		activated.UpdatedAt = now
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate application")
		}
		return nil, s.fail(ctx, t, err)
	}

	s.succeed(ctx, actor, activated.ID, t)
	s.logg.Info(s.logg.WithMemberID(ctx, member.ID.String()), "member created from application")

	return &ActivationResult{
		Member:            members.FromModel(member),
		Application:       FromModel(activated),
		TemporaryPassword: password,
	}, nil
}

// precheck enforces permission, then existence, then source status.
func (s *service) precheck(ctx context.Context, id uuid.UUID, actor access.Actor, t transition) (*models.MembershipApplication, error) {
	if err := access.Check(actor.Role, t.capability); err != nil {
		return nil, err
	}
	app, err := s.store.Applications().FindByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "load application")
	}
	if app.Status != t.from {
		return nil, invalidTransition(t, app.Status)
	}
	return app, nil
}

// conflict reports the status another writer left the application in.
func (s *service) conflict(ctx context.Context, id uuid.UUID, t transition) error {
	app, err := s.store.Applications().FindByID(ctx, id)
	if err != nil {
		return err
	}
	return invalidTransition(t, app.Status)
}

func (s *service) succeed(ctx context.Context, actor access.Actor, id uuid.UUID, t transition) {
	s.metrics.IncTransition(t.name)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"application_id": id.String(),
		"actor_id":       actor.MemberID.String(),
		"transition":     t.name,
		"status":         t.to.String(),
	})
	s.logg.Info(ctx, "membership application transitioned")
}

func (s *service) fail(ctx context.Context, t transition, err error) error {
	code := pkgerrors.CodeInternal
	if typed := pkgerrors.As(err); typed != nil {
		code = typed.Code()
	}
	s.metrics.IncFailure(t.name, string(code))
	if code == pkgerrors.CodeDependency || code == pkgerrors.CodeInternal {
		s.logg.Error(s.logg.WithField(ctx, "transition", t.name), "membership application transition failed", err)
	}
	return err
}

func mapStoreError(err error, action string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
	case errors.Is(err, store.ErrDuplicateEmail):
		return pkgerrors.New(pkgerrors.CodeDuplicateMember, "a member with this email already exists")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
	}
}

func invalidTransition(t transition, current enums.ApplicationStatus) error {
	return pkgerrors.Newf(pkgerrors.CodeInvalidTransition, "cannot %s an application that is %s", t.name, current).
		WithDetails(map[string]any{
			"current_status":  current.String(),
			"required_status": t.from.String(),
		})
}

func duplicateMember(email string) error {
	return pkgerrors.New(pkgerrors.CodeDuplicateMember, "a member with this email already exists").
		WithDetails(map[string]any{"email": email})
}

func trimInput(in SubmitInput) SubmitInput {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Specialty = strings.TrimSpace(in.Specialty)
	in.Bio = strings.TrimSpace(in.Bio)
	in.Motivation = strings.TrimSpace(in.Motivation)
	if in.CVFileName != nil {
		name := strings.TrimSpace(*in.CVFileName)
		if name == "" {
			in.CVFileName = nil
		} else {
			in.CVFileName = &name
		}
	}
	return in
}

func validateSubmit(in SubmitInput) error {
	required := []struct {
		field string
		value string
	}{
		{"first_name", in.FirstName},
		{"last_name", in.LastName},
		{"email", in.Email},
		{"specialty", in.Specialty},
		{"bio", in.Bio},
		{"motivation", in.Motivation},
	}

	fields := map[string]string{}
	for _, r := range required {
		if r.value == "" {
			fields[r.field] = "required"
		}
	}
	if in.Email != "" && !strings.Contains(in.Email, "@") {
		fields["email"] = "must contain @"
	}
	if len(fields) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid application").
		WithDetails(map[string]any{"fields": fields})
}
