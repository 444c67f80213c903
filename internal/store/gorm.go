package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retechci/retechci-backend/internal/repo"
	"github.com/retechci/retechci-backend/pkg/db"
	"github.com/retechci/retechci-backend/pkg/db/models"
	"github.com/retechci/retechci-backend/pkg/enums"
)

type gormStore struct {
	db *gorm.DB
}

// NewGorm returns a Store backed by the given GORM connection.
func NewGorm(conn *gorm.DB) Store {
	return &gormStore{db: conn}
}

func (s *gormStore) Applications() ApplicationRepository {
	return gormApplications{Base: repo.NewBase(s.db)}
}

func (s *gormStore) Members() MemberRepository {
	return gormMembers{Base: repo.NewBase(s.db)}
}

func (s *gormStore) WithTx(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

type gormApplications struct {
	repo.Base
}

func (r gormApplications) Create(ctx context.Context, app *models.MembershipApplication) error {
	return r.DB(ctx).Create(app).Error
}

func (r gormApplications) FindByID(ctx context.Context, id uuid.UUID) (*models.MembershipApplication, error) {
	var app models.MembershipApplication
	if err := r.DB(ctx).Where("id = ?", id).First(&app).Error; err != nil {
		return nil, translate(err)
	}
	return &app, nil
}

func (r gormApplications) List(ctx context.Context, filter ApplicationFilter) ([]models.MembershipApplication, error) {
	q := r.DB(ctx).Model(&models.MembershipApplication{})
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	var rows []models.MembershipApplication
	if err := repo.Keyset(q, "created_at", filter.Cursor, filter.Limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r gormApplications) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.ApplicationStatus, at time.Time) error {
	res := r.DB(ctx).
		Model(&models.MembershipApplication{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": at.UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	return ErrStatusConflict
}

type gormMembers struct {
	repo.Base
}

func (r gormMembers) Create(ctx context.Context, member *models.Member) error {
	member.Email = NormalizeEmail(member.Email)
	if err := r.DB(ctx).Create(member).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r gormMembers) FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	var member models.Member
	if err := r.DB(ctx).Where("id = ?", id).First(&member).Error; err != nil {
		return nil, translate(err)
	}
	return &member, nil
}

func (r gormMembers) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	var member models.Member
	if err := r.DB(ctx).Where("email = ?", NormalizeEmail(email)).First(&member).Error; err != nil {
		return nil, translate(err)
	}
	return &member, nil
}

func (r gormMembers) List(ctx context.Context, filter MemberFilter) ([]models.Member, error) {
	q := r.DB(ctx).Model(&models.Member{})
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if filter.Specialty != "" {
		q = q.Where("specialty = ?", filter.Specialty)
	}
	if filter.Availability != nil {
		q = q.Where("availability = ?", *filter.Availability)
	}
	var rows []models.Member
	if err := repo.Keyset(q, "created_at", filter.Cursor, filter.Limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r gormMembers) Update(ctx context.Context, member *models.Member) error {
	member.Email = NormalizeEmail(member.Email)
	res := r.DB(ctx).
		Model(member).
		Select("*").
		Omit("id", "created_at").
		Updates(member)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case db.IsUniqueViolation(err, ""):
		return ErrDuplicateEmail
	default:
		return err
	}
}
