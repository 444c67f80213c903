// Package store is the persistence boundary for the membership lifecycle:
// applications and the members derived from them.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/retechci/retechci-backend/pkg/db/models"
	"github.com/retechci/retechci-backend/pkg/enums"
	"github.com/retechci/retechci-backend/pkg/pagination"
)

var (
	ErrNotFound       = errors.New("store: record not found")
	ErrStatusConflict = errors.New("store: status changed concurrently")
	ErrDuplicateEmail = errors.New("store: member email already exists")
)

// ApplicationFilter narrows application listings. Rows come back newest first.
type ApplicationFilter struct {
	Status *enums.ApplicationStatus
	Cursor *pagination.Cursor
	Limit  int
}

// MemberFilter narrows member listings. An empty Statuses slice means any status.
type MemberFilter struct {
	Statuses     []enums.MemberStatus
	Specialty    string
	Availability *enums.Availability
	Cursor       *pagination.Cursor
	Limit        int
}

type ApplicationRepository interface {
	Create(ctx context.Context, app *models.MembershipApplication) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.MembershipApplication, error)
	List(ctx context.Context, filter ApplicationFilter) ([]models.MembershipApplication, error)
	// UpdateStatus moves an application from one status to another only if it
	// still holds from. It returns ErrStatusConflict when it does not.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.ApplicationStatus, at time.Time) error
}

type MemberRepository interface {
	Create(ctx context.Context, member *models.Member) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	FindByEmail(ctx context.Context, email string) (*models.Member, error)
	List(ctx context.Context, filter MemberFilter) ([]models.Member, error)
	Update(ctx context.Context, member *models.Member) error
}

// Store groups the repositories and runs work atomically across them.
type Store interface {
	Applications() ApplicationRepository
	Members() MemberRepository
	// WithTx runs fn against a transactional view of the store. Returning an
	// error rolls back everything fn wrote.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hasStatus(statuses []enums.MemberStatus, status enums.MemberStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
