package salaries

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retechci/retechci-backend/pkg/db/dbtest"
	"github.com/retechci/retechci-backend/pkg/db/models"
	"github.com/retechci/retechci-backend/pkg/enums"
	"github.com/retechci/retechci-backend/pkg/logger"
	"github.com/retechci/retechci-backend/pkg/redis"
)

type countingRepo struct {
	rates []models.SalaryRate
	err   error
	calls int
}

func (r *countingRepo) List(context.Context) ([]models.SalaryRate, error) {
	r.calls++
	return r.rates, r.err
}

type mapCache struct {
	values map[string]string
	getErr error
	setErr error
}

func newMapCache() *mapCache { return &mapCache{values: map[string]string{}} }

func (c *mapCache) Get(_ context.Context, key string) (string, error) {
	if c.getErr != nil {
		return "", c.getErr
	}
	v, ok := c.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (c *mapCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.values[key] = string(value.([]byte))
	return nil
}

func (c *mapCache) CacheKey(name string) string { return "test:" + name }

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard})
}

func sampleRates() []models.SalaryRate {
	return []models.SalaryRate{
		{JobTitle: "Chef monteur", Category: enums.SalaryCategoryA, Description: "Moins de 3 ans", WeeklyRate: 250000},
		{JobTitle: "Chef monteur", Category: enums.SalaryCategoryB, Description: "3 à 7 ans", WeeklyRate: 400000},
		{JobTitle: "Scripte", Category: enums.SalaryCategoryA, Description: "Moins de 3 ans", WeeklyRate: 180000},
	}
}

func TestNewServiceRequiresRepoAndLogger(t *testing.T) {
	_, err := NewService(nil, nil, quietLogger())
	assert.Error(t, err)
	_, err = NewService(&countingRepo{}, nil, nil)
	assert.Error(t, err)
}

func TestListGroupsByJobTitle(t *testing.T) {
	svc, err := NewService(&countingRepo{rates: sampleRates()}, nil, quietLogger())
	require.NoError(t, err)

	jobs, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "Chef monteur", jobs[0].JobTitle)
	require.Len(t, jobs[0].Categories, 2)
	assert.Equal(t, int64(400000), jobs[0].Categories[1].WeeklyRate)
	assert.Equal(t, "Scripte", jobs[1].JobTitle)
}

func TestTableFeedsEstimate(t *testing.T) {
	svc, err := NewService(&countingRepo{rates: sampleRates()}, nil, quietLogger())
	require.NoError(t, err)

	table, err := svc.Table(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(400000), table.Rate("Chef monteur", enums.SalaryCategoryB))
	assert.Zero(t, table.Rate("Scripte", enums.SalaryCategoryC))
}

func TestRatesReadThroughCache(t *testing.T) {
	repo := &countingRepo{rates: sampleRates()}
	cache := newMapCache()
	svc, err := NewService(repo, cache, quietLogger())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.List(ctx)
	require.NoError(t, err)
	_, err = svc.Table(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.calls)
	assert.Contains(t, cache.values, "test:salary_rates")
}

func TestRatesFallBackWhenCacheFails(t *testing.T) {
	repo := &countingRepo{rates: sampleRates()}
	cache := newMapCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")
	svc, err := NewService(repo, cache, quietLogger())
	require.NoError(t, err)

	jobs, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestRepositoryErrorIsDependency(t *testing.T) {
	svc, err := NewService(&countingRepo{err: errors.New("db down")}, nil, quietLogger())
	require.NoError(t, err)

	_, err = svc.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEPENDENCY_ERROR")
}

func TestRepositoryReadsSeededReference(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))

	rates, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rates, 21)
	assert.Equal(t, "Chef OPS / Ingénieur du son", rates[0].JobTitle)
	assert.Equal(t, enums.SalaryCategoryA, rates[0].Category)

	svc, err := NewService(repo, nil, quietLogger())
	require.NoError(t, err)
	jobs, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, jobs, 7)
}
