// Package ledger holds the pure stock-transition arithmetic. Nothing here
// touches storage; services apply these transitions inside a transaction.
package ledger

import (
	"errors"
	"fmt"
	"math"

	"go-stockledger-ws/internal/apperr"
	"go-stockledger-ws/internal/model"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount rejects non-positive or malformed amounts before any
// stock precondition is checked.
var ErrInvalidAmount = errors.New("amount must be positive")

// maxStock bounds the whole-unit count after any adjustment. Stock is a
// plain int column; comparisons stay in decimal space so amounts beyond the
// int range are rejected instead of wrapping on conversion.
var maxStock = decimal.NewFromInt(math.MaxInt32)

// ApplyDeduct removes amount from p's stock in place.
//
// Whole-unit products require an integral amount no larger than Stock.
// Divisible products account in fraction units: the amount is taken from
// FractionRemaining first, borrowing whole units (Stock -= 1,
// FractionRemaining += FractionPerUnit) as needed. All arithmetic is exact
// decimal; repeated small deductions never drift.
func ApplyDeduct(p *model.Product, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	if !p.IsDivisible {
		if !amount.IsInteger() {
			return fmt.Errorf("%w: product %q is sold in whole units", ErrInvalidAmount, p.Name)
		}
		if amount.GreaterThan(decimal.NewFromInt(int64(p.Stock))) {
			return fmt.Errorf("%w: %s requested, %d available", apperr.ErrInsufficientStock, amount, p.Stock)
		}
		p.Stock -= int(amount.IntPart())
		return nil
	}

	if !p.FractionPerUnit.IsPositive() {
		return fmt.Errorf("%w: product %q has no fraction size", ErrInvalidAmount, p.Name)
	}
	if amount.GreaterThan(p.TotalVolume()) {
		return fmt.Errorf("%w: %s requested, %s available", apperr.ErrInsufficientStock, amount, p.TotalVolume())
	}

	rem := p.FractionRemaining.Sub(amount)
	if rem.IsNegative() {
		// Borrow enough whole units to bring the remainder back into range.
		// QuoRem keeps the division exact; Div would round.
		q, r := rem.Neg().QuoRem(p.FractionPerUnit, 0)
		borrow := q
		if !r.IsZero() {
			borrow = q.Add(decimal.NewFromInt(1))
		}
		p.Stock -= int(borrow.IntPart())
		rem = rem.Add(borrow.Mul(p.FractionPerUnit))
	}
	p.FractionRemaining = rem
	return nil
}

// ApplyReturn restores amount to p's stock in place, the mirror of
// ApplyDeduct: divisible products accumulate into FractionRemaining and carry
// every full FractionPerUnit into one whole unit.
func ApplyReturn(p *model.Product, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	if !p.IsDivisible {
		if !amount.IsInteger() {
			return fmt.Errorf("%w: product %q is sold in whole units", ErrInvalidAmount, p.Name)
		}
		next := decimal.NewFromInt(int64(p.Stock)).Add(amount)
		if next.GreaterThan(maxStock) {
			return fmt.Errorf("%w: return of %s overflows stock", ErrInvalidAmount, amount)
		}
		p.Stock = int(next.IntPart())
		return nil
	}

	if !p.FractionPerUnit.IsPositive() {
		return fmt.Errorf("%w: product %q has no fraction size", ErrInvalidAmount, p.Name)
	}

	rem := p.FractionRemaining.Add(amount)
	if rem.GreaterThanOrEqual(p.FractionPerUnit) {
		carry, left := rem.QuoRem(p.FractionPerUnit, 0)
		next := decimal.NewFromInt(int64(p.Stock)).Add(carry)
		if next.GreaterThan(maxStock) {
			return fmt.Errorf("%w: return of %s overflows stock", ErrInvalidAmount, amount)
		}
		p.Stock = int(next.IntPart())
		rem = left
	}
	p.FractionRemaining = rem
	return nil
}

// CheckFractionInvariant reports whether p's fractional state is in range:
// FractionRemaining in [0, FractionPerUnit) for divisible products, zero
// otherwise. Used by tests and the catalog's input validation.
func CheckFractionInvariant(p *model.Product) error {
	if !p.IsDivisible {
		if !p.FractionRemaining.IsZero() {
			return fmt.Errorf("whole-unit product %q has fraction remainder %s", p.Name, p.FractionRemaining)
		}
		return nil
	}
	if !p.FractionPerUnit.IsPositive() {
		return fmt.Errorf("divisible product %q needs fractionPerUnit > 0", p.Name)
	}
	if p.FractionRemaining.IsNegative() || p.FractionRemaining.GreaterThanOrEqual(p.FractionPerUnit) {
		return fmt.Errorf("product %q fraction remainder %s out of [0, %s)", p.Name, p.FractionRemaining, p.FractionPerUnit)
	}
	return nil
}
