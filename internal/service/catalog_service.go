package service

import (
	"errors"
	"fmt"

	"go-stockledger-ws/internal/apperr"
	"go-stockledger-ws/internal/feed"
	"go-stockledger-ws/internal/ledger"
	"go-stockledger-ws/internal/model"
	"go-stockledger-ws/internal/repository"
	"go-stockledger-ws/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogService is the product/category management boundary. It sits outside
// the ledger core: stock edits here are catalog corrections, and a product
// rename never rewrites the journal's historical snapshots.
type CatalogService interface {
	CreateProduct(req *model.Product, actor string) error
	UpdateProduct(id uuid.UUID, req *model.Product, actor string) (*model.Product, error)
	DeleteProduct(id uuid.UUID, actor string) error
	GetAllProducts() ([]model.Product, error)

	CreateCategory(req *model.Category, actor string) error
	GetAllCategories() ([]model.Category, error)
}

type catalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	uow          repository.UnitOfWork
	feed         *feed.Feed
	log          *zap.Logger
}

func NewCatalogService(pRepo repository.ProductRepository, cRepo repository.CategoryRepository, uow repository.UnitOfWork, f *feed.Feed, log *zap.Logger) CatalogService {
	return &catalogService{
		productRepo:  pRepo,
		categoryRepo: cRepo,
		uow:          uow,
		feed:         f,
		log:          log,
	}
}

func (s *catalogService) CreateProduct(req *model.Product, actor string) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		first := errs[0]
		return fmt.Errorf("validation failed: field '%s' failed on tag '%s'", first.FailedField, first.Tag)
	}
	if err := ledger.CheckFractionInvariant(req); err != nil {
		return err
	}
	if req.Stock < 0 {
		return errors.New("stock cannot be negative")
	}

	existing, err := s.productRepo.FindByName(req.Name)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if existing != nil {
		return errors.New("product name already exists")
	}

	req.CreatedBy = actor
	req.UpdatedBy = actor
	if err := s.productRepo.Create(req); err != nil {
		return err
	}

	s.log.Info("product created", zap.String("name", req.Name), zap.String("actor", actor))
	s.feed.Publish(feed.Event{
		Type:        feed.EventProductChanged,
		ProductID:   req.ID,
		ProductName: req.Name,
	})
	return nil
}

func (s *catalogService) UpdateProduct(id uuid.UUID, req *model.Product, actor string) (*model.Product, error) {
	var updated *model.Product
	err := s.uow.Do(func(tx repository.LedgerTx) error {
		existing, err := tx.ProductForUpdate(id)
		if err != nil {
			return err
		}

		existing.Name = req.Name
		existing.CategoryName = req.CategoryName
		existing.Stock = req.Stock
		existing.IsDivisible = req.IsDivisible
		existing.FractionPerUnit = req.FractionPerUnit
		existing.FractionRemaining = req.FractionRemaining
		existing.UpdatedBy = actor

		if errs := validator.ValidateStruct(existing); len(errs) > 0 {
			first := errs[0]
			return fmt.Errorf("validation failed: field '%s' failed on tag '%s'", first.FailedField, first.Tag)
		}
		if err := ledger.CheckFractionInvariant(existing); err != nil {
			return err
		}
		if existing.Stock < 0 {
			return errors.New("stock cannot be negative")
		}

		if err := tx.SaveProduct(existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("product updated", zap.String("name", updated.Name), zap.String("actor", actor))
	s.feed.Publish(feed.Event{
		Type:        feed.EventProductChanged,
		ProductID:   updated.ID,
		ProductName: updated.Name,
	})
	return updated, nil
}

// DeleteProduct removes the product from the catalog. The deduction journal
// is never touched: historical rows keep their name/category snapshots.
func (s *catalogService) DeleteProduct(id uuid.UUID, actor string) error {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		return err
	}
	if err := s.productRepo.Delete(product); err != nil {
		return err
	}

	s.log.Info("product deleted", zap.String("name", product.Name), zap.String("actor", actor))
	s.feed.Publish(feed.Event{
		Type:        feed.EventProductChanged,
		ProductID:   product.ID,
		ProductName: product.Name,
	})
	return nil
}

func (s *catalogService) GetAllProducts() ([]model.Product, error) {
	return s.productRepo.FindAll()
}

func (s *catalogService) CreateCategory(req *model.Category, actor string) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		first := errs[0]
		return fmt.Errorf("validation failed: field '%s' failed on tag '%s'", first.FailedField, first.Tag)
	}

	existing, err := s.categoryRepo.FindByName(req.Name)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if existing != nil {
		return errors.New("category name already exists")
	}

	req.CreatedBy = actor
	req.UpdatedBy = actor
	return s.categoryRepo.Create(req)
}

func (s *catalogService) GetAllCategories() ([]model.Category, error) {
	return s.categoryRepo.FindAll()
}
