// Package salaries serves the weekly salary reference grid and feeds it to
// the reputation estimate.
package salaries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/retechci/retechci-backend/internal/cachet"
	"github.com/retechci/retechci-backend/pkg/db/models"
	"github.com/retechci/retechci-backend/pkg/enums"
	pkgerrors "github.com/retechci/retechci-backend/pkg/errors"
	"github.com/retechci/retechci-backend/pkg/logger"
	"github.com/retechci/retechci-backend/pkg/redis"
)

const (
	cacheName = "salary_rates"
	cacheTTL  = time.Hour
)

type repository interface {
	List(ctx context.Context) ([]models.SalaryRate, error)
}

// Cache is the key/value surface the service keeps the reference in.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(name string) string
}

// CategoryRate is one seniority band of a job.
type CategoryRate struct {
	Category    enums.SalaryCategory `json:"category"`
	Description string               `json:"description"`
	WeeklyRate  int64                `json:"weekly_rate"`
}

// JobSalary groups the bands of one job title.
type JobSalary struct {
	JobTitle   string         `json:"job_title"`
	Categories []CategoryRate `json:"categories"`
}

type Service interface {
	List(ctx context.Context) ([]JobSalary, error)
	Table(ctx context.Context) (cachet.SalaryTable, error)
}

type service struct {
	repo  repository
	cache Cache
	logg  *logger.Logger
}

// NewService builds the salary service. cache may be nil.
func NewService(repo repository, cache Cache, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("salary repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, cache: cache, logg: logg}, nil
}

func (s *service) List(ctx context.Context) ([]JobSalary, error) {
	rates, err := s.rates(ctx)
	if err != nil {
		return nil, err
	}
	return group(rates), nil
}

func (s *service) Table(ctx context.Context) (cachet.SalaryTable, error) {
	rates, err := s.rates(ctx)
	if err != nil {
		return nil, err
	}
	return cachet.NewSalaryTable(rates), nil
}

// rates reads through the cache; cache failures fall back to the database.
func (s *service) rates(ctx context.Context) ([]models.SalaryRate, error) {
	if s.cache != nil {
		if rates, ok := s.cached(ctx); ok {
			return rates, nil
		}
	}

	rates, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list salary rates")
	}

	if s.cache != nil {
		if raw, err := json.Marshal(rates); err == nil {
			if err := s.cache.Set(ctx, s.cache.CacheKey(cacheName), raw, cacheTTL); err != nil {
				s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "salary cache write failed")
			}
		}
	}
	return rates, nil
}

func (s *service) cached(ctx context.Context) ([]models.SalaryRate, bool) {
	raw, err := s.cache.Get(ctx, s.cache.CacheKey(cacheName))
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "salary cache read failed")
		}
		return nil, false
	}
	var rates []models.SalaryRate
	if err := json.Unmarshal([]byte(raw), &rates); err != nil {
		return nil, false
	}
	return rates, true
}

func group(rates []models.SalaryRate) []JobSalary {
	out := []JobSalary{}
	index := map[string]int{}
	for _, rate := range rates {
		i, ok := index[rate.JobTitle]
		if !ok {
			i = len(out)
			index[rate.JobTitle] = i
			out = append(out, JobSalary{JobTitle: rate.JobTitle, Categories: []CategoryRate{}})
		}
		out[i].Categories = append(out[i].Categories, CategoryRate{
			Category:    rate.Category,
			Description: rate.Description,
			WeeklyRate:  rate.WeeklyRate,
		})
	}
	return out
}
