package service

import (
	"errors"
	"time"

	"go-stockledger-ws/internal/apperr"
	"go-stockledger-ws/internal/feed"
	"go-stockledger-ws/internal/ledger"
	"go-stockledger-ws/internal/model"
	"go-stockledger-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerService owns the three state transitions of the inventory ledger.
// Every operation is atomic: the product's stock and the deduction journal
// move together or not at all, and a concurrent-write conflict is retried
// once with fresh reads before it surfaces.
type LedgerService interface {
	Deduct(productID uuid.UUID, amount decimal.Decimal) (*model.Deduction, error)
	Return(deductionID uuid.UUID, amount decimal.Decimal) (*model.Product, error)
	DeleteDeduction(deductionID uuid.UUID) error

	GetDeductions(f repository.DeductionFilter) ([]model.Deduction, error)
	GetDeduction(id uuid.UUID) (*model.Deduction, error)
}

type ledgerService struct {
	uow           repository.UnitOfWork
	deductionRepo repository.DeductionRepository
	feed          *feed.Feed
	log           *zap.Logger
	now           func() time.Time
}

func NewLedgerService(uow repository.UnitOfWork, dRepo repository.DeductionRepository, f *feed.Feed, log *zap.Logger) LedgerService {
	return &ledgerService{
		uow:           uow,
		deductionRepo: dRepo,
		feed:          f,
		log:           log,
		now:           time.Now,
	}
}

// withConflictRetry runs op, and once more from fresh reads if the store
// reports a concurrent write on the same rows.
func (s *ledgerService) withConflictRetry(op func(tx repository.LedgerTx) error) error {
	err := s.uow.Do(op)
	if errors.Is(err, apperr.ErrConflict) {
		s.log.Debug("ledger operation conflicted, retrying once")
		err = s.uow.Do(op)
	}
	return err
}

func (s *ledgerService) Deduct(productID uuid.UUID, amount decimal.Decimal) (*model.Deduction, error) {
	var (
		created *model.Deduction
		after   model.Product
	)
	err := s.withConflictRetry(func(tx repository.LedgerTx) error {
		product, err := tx.ProductForUpdate(productID)
		if err != nil {
			return err
		}
		if err := ledger.ApplyDeduct(product, amount); err != nil {
			return err
		}

		d := &model.Deduction{
			ProductID:    product.ID,
			ProductName:  product.Name, // snapshot, survives renames
			CategoryName: product.CategoryName,
			Amount:       amount,
			Date:         s.now(),
		}
		if err := tx.CreateDeduction(d); err != nil {
			return err
		}
		if err := tx.SaveProduct(product); err != nil {
			return err
		}
		created = d
		after = *product
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("deduction recorded",
		zap.String("product", after.Name),
		zap.String("amount", amount.String()),
		zap.Int("stock_after", after.Stock))
	s.feed.Publish(feed.Event{
		Type:        feed.EventDeductionCreated,
		ProductID:   after.ID,
		ProductName: after.Name,
	})
	return created, nil
}

func (s *ledgerService) Return(deductionID uuid.UUID, amount decimal.Decimal) (*model.Product, error) {
	var after model.Product
	err := s.withConflictRetry(func(tx repository.LedgerTx) error {
		d, err := tx.DeductionForUpdate(deductionID)
		if err != nil {
			return err
		}
		if !amount.IsPositive() || amount.GreaterThan(d.Amount) {
			return ledger.ErrInvalidAmount
		}

		product, err := tx.ProductForUpdate(d.ProductID)
		if err != nil {
			return err
		}
		if err := ledger.ApplyReturn(product, amount); err != nil {
			return err
		}

		if amount.Equal(d.Amount) {
			// Full return: the journal forgets the deduction entirely.
			if err := tx.DeleteDeduction(d); err != nil {
				return err
			}
		} else {
			d.Amount = d.Amount.Sub(amount)
			if err := tx.SaveDeduction(d); err != nil {
				return err
			}
		}
		if err := tx.SaveProduct(product); err != nil {
			return err
		}
		after = *product
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("deduction returned",
		zap.String("product", after.Name),
		zap.String("amount", amount.String()),
		zap.Int("stock_after", after.Stock))
	s.feed.Publish(feed.Event{
		Type:        feed.EventDeductionReturn,
		ProductID:   after.ID,
		ProductName: after.Name,
	})
	return &after, nil
}

func (s *ledgerService) DeleteDeduction(deductionID uuid.UUID) error {
	var removed model.Deduction
	err := s.withConflictRetry(func(tx repository.LedgerTx) error {
		// The stock change stands; only the journal row goes away.
		d, err := tx.DeductionForUpdate(deductionID)
		if err != nil {
			return err
		}
		if err := tx.DeleteDeduction(d); err != nil {
			return err
		}
		removed = *d
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("deduction deleted", zap.String("product", removed.ProductName))
	s.feed.Publish(feed.Event{
		Type:        feed.EventDeductionDeleted,
		ProductID:   removed.ProductID,
		ProductName: removed.ProductName,
	})
	return nil
}

func (s *ledgerService) GetDeductions(f repository.DeductionFilter) ([]model.Deduction, error) {
	return s.deductionRepo.Query(f)
}

func (s *ledgerService) GetDeduction(id uuid.UUID) (*model.Deduction, error) {
	return s.deductionRepo.FindByID(id)
}
