// Package repo holds the pieces every GORM-backed repository shares.
package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/retechci/retechci-backend/pkg/pagination"
)

// Base is embedded by repositories that talk to one GORM connection.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx, or the raw connection for a nil ctx.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Keyset orders q newest first on (column, id), resumes after cursor and
// fetches one row past limit so callers can tell whether a next page exists.
func Keyset(q *gorm.DB, column string, cursor *pagination.Cursor, limit int) *gorm.DB {
	if cursor != nil {
		at := cursor.CreatedAt.UTC()
		q = q.Where(fmt.Sprintf("(%[1]s < ? OR (%[1]s = ? AND id < ?))", column), at, at, cursor.ID.String())
	}
	return q.Order(column + " DESC").Order("id DESC").Limit(pagination.LimitWithBuffer(limit))
}
