package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/retechci/retechci-backend/pkg/db/dbtest"
	"github.com/retechci/retechci-backend/pkg/db/models"
	"github.com/retechci/retechci-backend/pkg/pagination"
)

func TestBaseDBBindsContext(t *testing.T) {
	db := dbtest.Open(t)
	base := NewBase(db)

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	withCtx := base.DB(ctx)
	if withCtx.Statement == nil || withCtx.Statement.Context != ctx {
		t.Fatalf("expected context to flow through")
	}
	if base.DB(nil) != db {
		t.Fatalf("expected nil context to return raw connection")
	}
}

func TestKeysetWalksEveryRowOnce(t *testing.T) {
	db := dbtest.Open(t)
	base := NewBase(db)
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	stamps := []time.Time{start, start.Add(time.Minute), start.Add(time.Minute), start.Add(time.Minute), start.Add(2 * time.Minute)}
	for _, at := range stamps {
		msg := models.ContactMessage{
			ID:          uuid.New(),
			SenderName:  "Awa",
			SenderEmail: "awa@test.ci",
			Subject:     "Tournage",
			Message:     "Disponible ?",
			CreatedAt:   at,
		}
		if err := base.DB(ctx).Create(&msg).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	seen := map[uuid.UUID]bool{}
	var last *models.ContactMessage
	var cursor *pagination.Cursor
	for pages := 0; ; pages++ {
		if pages > len(stamps) {
			t.Fatal("pagination did not terminate")
		}
		var rows []models.ContactMessage
		if err := Keyset(base.DB(ctx).Model(&models.ContactMessage{}), "created_at", cursor, 2).Find(&rows).Error; err != nil {
			t.Fatalf("page %d: %v", pages, err)
		}
		page, next := pagination.Trim(rows, 2, func(m models.ContactMessage) pagination.Cursor {
			return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
		})
		for i := range page {
			m := page[i]
			if seen[m.ID] {
				t.Fatalf("row %s returned twice", m.ID)
			}
			seen[m.ID] = true
			if last != nil && m.CreatedAt.After(last.CreatedAt) {
				t.Fatalf("rows out of order: %v after %v", m.CreatedAt, last.CreatedAt)
			}
			last = &m
		}
		if next == "" {
			break
		}
		parsed, err := pagination.ParseCursor(next)
		if err != nil {
			t.Fatalf("parse cursor: %v", err)
		}
		cursor = parsed
	}
	if len(seen) != len(stamps) {
		t.Fatalf("expected %d rows, saw %d", len(stamps), len(seen))
	}
}
