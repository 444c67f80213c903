package messages

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retechci/retechci-backend/internal/repo"
	"github.com/retechci/retechci-backend/pkg/db/models"
	"github.com/retechci/retechci-backend/pkg/pagination"
)

// Repository persists contact form messages.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

type listParams struct {
	UnreadOnly bool
	Cursor     *pagination.Cursor
	Limit      int
}

func (r *Repository) Create(ctx context.Context, msg *models.ContactMessage) error {
	return r.DB(ctx).Create(msg).Error
}

// List returns up to Limit+1 messages, newest first.
func (r *Repository) List(ctx context.Context, params listParams) ([]models.ContactMessage, error) {
	query := r.DB(ctx).Model(&models.ContactMessage{})
	if params.UnreadOnly {
		query = query.Where("read = ?", false)
	}

	var rows []models.ContactMessage
	err := repo.Keyset(query, "created_at", params.Cursor, params.Limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkRead flags a message as read and reports whether it exists.
func (r *Repository) MarkRead(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.DB(ctx).
		Model(&models.ContactMessage{}).
		Where("id = ?", id).
		UpdateColumn("read", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteReadBefore removes read messages received before cutoff.
func (r *Repository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.DB(ctx).
		Where("read = ? AND created_at < ?", true, cutoff).
		Delete(&models.ContactMessage{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
