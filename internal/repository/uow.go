package repository

import (
	"fmt"

	"go-stockledger-ws/internal/apperr"
	"go-stockledger-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerTx is the mutation surface a ledger operation sees inside one atomic
// unit. Reads lock (or version-track) the row so concurrent operations on the
// same product serialize; either every write commits or none does.
type LedgerTx interface {
	ProductForUpdate(id uuid.UUID) (*model.Product, error)
	SaveProduct(p *model.Product) error

	DeductionForUpdate(id uuid.UUID) (*model.Deduction, error)
	CreateDeduction(d *model.Deduction) error
	SaveDeduction(d *model.Deduction) error
	// DeleteDeduction removes the journal row for good. The journal models
	// "forget this record", so soft delete is bypassed.
	DeleteDeduction(d *model.Deduction) error
}

// UnitOfWork runs fn atomically against the backing store.
type UnitOfWork interface {
	Do(fn func(tx LedgerTx) error) error
}

type gormUnitOfWork struct {
	db *gorm.DB
}

func NewGormUnitOfWork(db *gorm.DB) UnitOfWork {
	return &gormUnitOfWork{db}
}

func (u *gormUnitOfWork) Do(fn func(tx LedgerTx) error) error {
	return u.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormLedgerTx{tx})
	})
}

type gormLedgerTx struct {
	tx *gorm.DB
}

func (t *gormLedgerTx) ProductForUpdate(id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := t.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, mapFindErr(err, "product", id.String())
	}
	return &product, nil
}

func (t *gormLedgerTx) SaveProduct(p *model.Product) error {
	p.Version++
	if err := t.tx.Save(p).Error; err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrTransport, err)
	}
	return nil
}

func (t *gormLedgerTx) DeductionForUpdate(id uuid.UUID) (*model.Deduction, error) {
	var d model.Deduction
	err := t.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&d, "id = ?", id).Error
	if err != nil {
		return nil, mapFindErr(err, "deduction", id.String())
	}
	return &d, nil
}

func (t *gormLedgerTx) CreateDeduction(d *model.Deduction) error {
	if err := t.tx.Create(d).Error; err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrTransport, err)
	}
	return nil
}

func (t *gormLedgerTx) SaveDeduction(d *model.Deduction) error {
	if err := t.tx.Save(d).Error; err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrTransport, err)
	}
	return nil
}

func (t *gormLedgerTx) DeleteDeduction(d *model.Deduction) error {
	res := t.tx.Unscoped().Delete(&model.Deduction{}, "id = ?", d.ID)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", apperr.ErrTransport, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: deduction %s", apperr.ErrNotFound, d.ID)
	}
	return nil
}
