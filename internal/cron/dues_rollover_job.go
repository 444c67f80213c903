package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/retechci/retechci-backend/internal/store"
	"github.com/retechci/retechci-backend/pkg/db/models"
	"github.com/retechci/retechci-backend/pkg/enums"
	"github.com/retechci/retechci-backend/pkg/logger"
	"github.com/retechci/retechci-backend/pkg/pagination"
)

type DuesRolloverJobParams struct {
	Logger    *logger.Logger
	Store     store.Store
	AnnualFee int64
	Now       func() time.Time
}

// NewDuesRolloverJob opens the current year's dues for every active member:
// an unpaid payment entry at the annual fee is appended when missing and
// membership_paid follows the current year's entry.
func NewDuesRolloverJob(params DuesRolloverJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	if params.AnnualFee <= 0 {
		return nil, fmt.Errorf("annual fee must be positive")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &duesRolloverJob{logg: params.Logger, store: params.Store, fee: params.AnnualFee, now: now}, nil
}

type duesRolloverJob struct {
	logg  *logger.Logger
	store store.Store
	fee   int64
	now   func() time.Time
}

func (j *duesRolloverJob) Name() string { return "dues-rollover" }

func (j *duesRolloverJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	year := now.Year()

	var scanned, updated int
	var errs error
	var cursor *pagination.Cursor
	for {
		rows, err := j.store.Members().List(ctx, store.MemberFilter{
			Statuses: []enums.MemberStatus{enums.MemberStatusActive},
			Cursor:   cursor,
			Limit:    pagination.MaxLimit,
		})
		if err != nil {
			return fmt.Errorf("list members: %w", err)
		}
		page := rows
		if len(page) > pagination.MaxLimit {
			page = page[:pagination.MaxLimit]
		}
		for _, m := range page {
			scanned++
			changed, err := j.rollover(ctx, m, year, now)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("rollover member %s: %w", m.ID, err))
				continue
			}
			if changed {
				updated++
			}
		}
		if len(rows) <= pagination.MaxLimit {
			break
		}
		last := page[len(page)-1]
		cursor = &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"year":            year,
		"members":         scanned,
		"members_updated": updated,
		"members_failed":  len(multierr.Errors(errs)),
	}), "dues rollover complete")
	return errs
}

// rollover re-reads the member inside a transaction so concurrent dashboard
// edits are not overwritten.
func (j *duesRolloverJob) rollover(ctx context.Context, listed models.Member, year int, now time.Time) (bool, error) {
	if listed.PaymentFor(year) >= 0 && listed.MembershipPaid == currentYearPaid(listed, year) {
		return false, nil
	}
	changed := false
	err := j.store.WithTx(ctx, func(tx store.Store) error {
		member, err := tx.Members().FindByID(ctx, listed.ID)
		if err != nil {
			return err
		}
		if member.PaymentFor(year) < 0 {
			member.PaymentHistory = append(member.PaymentHistory, models.Payment{
				Year:   year,
				Amount: j.fee,
				Status: enums.PaymentStatusUnpaid,
			})
			changed = true
		}
		paid := currentYearPaid(*member, year)
		if member.MembershipPaid != paid {
			member.MembershipPaid = paid
			changed = true
		}
		if !changed {
			return nil
		}
		member.UpdatedAt = now
		return tx.Members().Update(ctx, member)
	})
	return changed, err
}

func currentYearPaid(m models.Member, year int) bool {
	i := m.PaymentFor(year)
	return i >= 0 && m.PaymentHistory[i].Status == enums.PaymentStatusPaid
}
