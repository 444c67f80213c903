package finance

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/retechci/retechci-backend/internal/repo"
	"github.com/retechci/retechci-backend/pkg/db/models"
	"github.com/retechci/retechci-backend/pkg/enums"
	"github.com/retechci/retechci-backend/pkg/pagination"
)

// Repository persists ledger entries.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

type typeTotal struct {
	Type  enums.TransactionType
	Total decimal.Decimal
}

func (r *Repository) Create(ctx context.Context, tx *models.FinancialTransaction) error {
	return r.DB(ctx).Create(tx).Error
}

// List returns up to limit+1 entries ordered by (date DESC, id DESC).
func (r *Repository) List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.FinancialTransaction, error) {
	query := r.DB(ctx).Model(&models.FinancialTransaction{})
	var rows []models.FinancialTransaction
	err := repo.Keyset(query, "date", cursor, limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Totals sums amounts per transaction type across the whole ledger.
func (r *Repository) Totals(ctx context.Context) ([]typeTotal, error) {
	var rows []typeTotal
	err := r.DB(ctx).Model(&models.FinancialTransaction{}).
		Select("type, COALESCE(SUM(amount), 0) AS total").
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
