package salaries

import (
	"context"

	"gorm.io/gorm"

	"github.com/retechci/retechci-backend/internal/repo"
	"github.com/retechci/retechci-backend/pkg/db/models"
)

// Repository reads the salary reference seeded by migrations.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// List returns every rate ordered by job title then category.
func (r *Repository) List(ctx context.Context) ([]models.SalaryRate, error) {
	var rows []models.SalaryRate
	if err := r.DB(ctx).Order("job_title").Order("category").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
