package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retechci/retechci-backend/pkg/enums"
)

// FinancialTransaction is a signed entry of the association's ledger:
// revenues are positive, expenses negative.
type FinancialTransaction struct {
	ID          uuid.UUID             `gorm:"column:id;primaryKey"`
	Date        time.Time             `gorm:"column:date;not null"`
	Description string                `gorm:"column:description;not null"`
	Amount      decimal.Decimal       `gorm:"column:amount;not null"`
	Type        enums.TransactionType `gorm:"column:type;not null"`
	RecordedBy  uuid.UUID             `gorm:"column:recorded_by;not null"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (FinancialTransaction) TableName() string {
	return "financial_transactions"
}
