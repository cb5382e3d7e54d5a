package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Deduction is one journal entry: an amount removed from a product's stock.
//
// ProductName and CategoryName are snapshots taken when the deduction is
// recorded. They are never rewritten when the product or category is renamed
// later; the journal is a historical record, not a join.
type Deduction struct {
	BaseModel
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"productId" validate:"uuid_required"`
	ProductName  string          `gorm:"type:varchar(255);not null" json:"productName"`
	CategoryName string          `gorm:"type:varchar(100);index" json:"categoryName"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Date         time.Time       `gorm:"not null;index" json:"date"`
}

func (Deduction) TableName() string {
	return "deductions"
}
