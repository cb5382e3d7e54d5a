package model

import "github.com/shopspring/decimal"

// Product is the ledger's authoritative quantity state for one item.
//
// Whole-unit products track quantity in Stock alone. Divisible products are
// sold in fraction units: FractionPerUnit is how many fraction units one whole
// unit holds (e.g. a 50kg sack sold per kg has FractionPerUnit = 50), and
// FractionRemaining is what is left of the currently opened unit, always in
// [0, FractionPerUnit).
type Product struct {
	BaseModel
	Name         string `gorm:"type:varchar(255);uniqueIndex;not null" json:"name" validate:"required"`
	CategoryName string `gorm:"type:varchar(100);index" json:"categoryName"` // soft reference by name, renames drift

	Stock             int             `gorm:"not null;default:0" json:"stock"`
	IsDivisible       bool            `gorm:"default:false" json:"isDivisible"`
	FractionPerUnit   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"fractionPerUnit"`
	FractionRemaining decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"fractionRemaining"`

	// Bumped on every stock write; backs optimistic conflict detection for
	// stores without row locks.
	Version int64 `gorm:"not null;default:0" json:"-"`
}

// TotalVolume is the full sellable quantity: fraction units for divisible
// products, whole units otherwise.
func (p *Product) TotalVolume() decimal.Decimal {
	stock := decimal.NewFromInt(int64(p.Stock))
	if p.IsDivisible {
		return stock.Mul(p.FractionPerUnit).Add(p.FractionRemaining)
	}
	return stock
}
