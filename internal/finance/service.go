// Package finance keeps the association's revenue and expense ledger.
package finance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retechci/retechci-backend/internal/access"
	"github.com/retechci/retechci-backend/pkg/db/models"
	"github.com/retechci/retechci-backend/pkg/enums"
	pkgerrors "github.com/retechci/retechci-backend/pkg/errors"
	"github.com/retechci/retechci-backend/pkg/logger"
	"github.com/retechci/retechci-backend/pkg/pagination"
)

// amountScale is the number of decimal places kept on ledger amounts.
const amountScale = 2

type repository interface {
	Create(ctx context.Context, tx *models.FinancialTransaction) error
	List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.FinancialTransaction, error)
	Totals(ctx context.Context) ([]typeTotal, error)
}

type Service interface {
	List(ctx context.Context, actor access.Actor, params pagination.Params) (*Ledger, error)
	Record(ctx context.Context, actor access.Actor, input RecordInput) (*TransactionDTO, error)
}

// RecordInput is a new ledger entry. Revenues carry a positive amount and
// expenses a negative one. Date defaults to now.
type RecordInput struct {
	Date        *time.Time            `json:"date,omitempty"`
	Description string                `json:"description" validate:"required"`
	Amount      decimal.Decimal       `json:"amount"`
	Type        enums.TransactionType `json:"type" validate:"required,enum"`
}

type TransactionDTO struct {
	ID          uuid.UUID             `json:"id"`
	Date        time.Time             `json:"date"`
	Description string                `json:"description"`
	Amount      decimal.Decimal       `json:"amount"`
	Type        enums.TransactionType `json:"type"`
	RecordedBy  uuid.UUID             `json:"recorded_by"`
}

// Summary aggregates the whole ledger. TotalExpenses is reported as a positive figure.
type Summary struct {
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
}

type Ledger struct {
	Items      []TransactionDTO `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
	Summary    Summary          `json:"summary"`
}

func FromModel(m models.FinancialTransaction) TransactionDTO {
	return TransactionDTO{
		ID:          m.ID,
		Date:        m.Date,
		Description: m.Description,
		Amount:      m.Amount.Round(amountScale),
		Type:        m.Type,
		RecordedBy:  m.RecordedBy,
	}
}

type service struct {
	repo     repository
	logg     *logger.Logger
	currency string
	now      func() time.Time
}

// NewService wires the ledger. now may be nil.
func NewService(repo repository, logg *logger.Logger, currency string, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("finance repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     repo,
		logg:     logg,
		currency: currency,
		now:      func() time.Time { return now().UTC() },
	}, nil
}

func (s *service) List(ctx context.Context, actor access.Actor, params pagination.Params) (*Ledger, error) {
	if err := access.Check(actor.Role, access.ViewFinances); err != nil {
		return nil, err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	totals, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum transactions")
	}

	page, next := pagination.Trim(rows, params.Limit, func(m models.FinancialTransaction) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.Date, ID: m.ID}
	})
	items := make([]TransactionDTO, 0, len(page))
	for _, row := range page {
		items = append(items, FromModel(row))
	}
	return &Ledger{Items: items, NextCursor: next, Summary: s.summarize(totals)}, nil
}

func (s *service) Record(ctx context.Context, actor access.Actor, input RecordInput) (*TransactionDTO, error) {
	if err := access.Check(actor.Role, access.ManageFinances); err != nil {
		return nil, err
	}
	input.Description = strings.TrimSpace(input.Description)
	input.Amount = input.Amount.Round(amountScale)
	if err := validateRecord(input); err != nil {
		return nil, err
	}

	now := s.now()
	date := now
	if input.Date != nil {
		date = input.Date.UTC()
	}
	entry := models.FinancialTransaction{
		ID:          uuid.New(),
		Date:        date,
		Description: input.Description,
		Amount:      input.Amount,
		Type:        input.Type,
		RecordedBy:  actor.MemberID,
		CreatedAt:   now,
	}
	if err := s.repo.Create(ctx, &entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record transaction")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"transaction_id": entry.ID.String(),
		"actor_id":       actor.MemberID.String(),
		"type":           entry.Type.String(),
		"amount":         entry.Amount.String(),
	}), "transaction recorded")

	dto := FromModel(entry)
	return &dto, nil
}

func (s *service) summarize(totals []typeTotal) Summary {
	summary := Summary{
		TotalRevenue:  decimal.Zero,
		TotalExpenses: decimal.Zero,
		Currency:      s.currency,
	}
	for _, t := range totals {
		switch t.Type {
		case enums.TransactionTypeRevenue:
			summary.TotalRevenue = summary.TotalRevenue.Add(t.Total)
		case enums.TransactionTypeExpense:
			summary.TotalExpenses = summary.TotalExpenses.Add(t.Total.Abs())
		}
	}
	summary.TotalRevenue = summary.TotalRevenue.Round(amountScale)
	summary.TotalExpenses = summary.TotalExpenses.Round(amountScale)
	summary.Balance = summary.TotalRevenue.Sub(summary.TotalExpenses)
	return summary
}

func validateRecord(in RecordInput) error {
	fields := map[string]string{}
	if in.Description == "" {
		fields["description"] = "required"
	}
	switch in.Type {
	case enums.TransactionTypeRevenue:
		if !in.Amount.IsPositive() {
			fields["amount"] = "revenue must be positive"
		}
	case enums.TransactionTypeExpense:
		if !in.Amount.IsNegative() {
			fields["amount"] = "expense must be negative"
		}
	default:
		fields["type"] = "must be revenue or expense"
	}
	if len(fields) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction").
		WithDetails(map[string]any{"fields": fields})
}
