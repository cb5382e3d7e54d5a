package repository

import (
	"fmt"
	"time"

	"go-stockledger-ws/internal/apperr"
	"go-stockledger-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeductionFilter narrows journal queries. Zero values mean "no filter".
type DeductionFilter struct {
	Category            string
	DateFrom            *time.Time
	DateTo              *time.Time
	ProductNameContains string
	Limit               int
}

// DefaultQueryLimit caps unbounded journal queries.
const DefaultQueryLimit = 50

type DeductionRepository interface {
	FindByID(id uuid.UUID) (*model.Deduction, error)
	// Query returns journal entries newest date first.
	Query(f DeductionFilter) ([]model.Deduction, error)
	// Recent returns the n newest journal entries by date descending.
	Recent(n int) ([]model.Deduction, error)
}

type deductionRepo struct {
	db *gorm.DB
}

func NewDeductionRepo(db *gorm.DB) DeductionRepository {
	return &deductionRepo{db}
}

func (r *deductionRepo) FindByID(id uuid.UUID) (*model.Deduction, error) {
	var d model.Deduction
	if err := r.db.First(&d, "id = ?", id).Error; err != nil {
		return nil, mapFindErr(err, "deduction", id.String())
	}
	return &d, nil
}

func (r *deductionRepo) Query(f DeductionFilter) ([]model.Deduction, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	q := r.db.Model(&model.Deduction{}).Order("date DESC").Limit(limit)
	if f.Category != "" {
		q = q.Where("category_name = ?", f.Category)
	}
	if f.DateFrom != nil {
		q = q.Where("date >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		q = q.Where("date <= ?", *f.DateTo)
	}
	if f.ProductNameContains != "" {
		q = q.Where("product_name ILIKE ?", "%"+f.ProductNameContains+"%")
	}

	var deductions []model.Deduction
	if err := q.Find(&deductions).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrTransport, err)
	}
	return deductions, nil
}

func (r *deductionRepo) Recent(n int) ([]model.Deduction, error) {
	return r.Query(DeductionFilter{Limit: n})
}
