package repository

import (
	"errors"
	"fmt"

	"go-stockledger-ws/internal/apperr"
	"go-stockledger-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(product *model.Product) error
	FindAll() ([]model.Product, error)
	FindByID(id uuid.UUID) (*model.Product, error)
	FindByName(name string) (*model.Product, error)
	Update(product *model.Product) error
	Delete(product *model.Product) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(product *model.Product) error {
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrTransport, err)
	}
	return nil
}

func (r *productRepo) FindAll() ([]model.Product, error) {
	var products []model.Product
	if err := r.db.Order("name ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrTransport, err)
	}
	return products, nil
}

func (r *productRepo) FindByID(id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		return nil, mapFindErr(err, "product", id.String())
	}
	return &product, nil
}

func (r *productRepo) FindByName(name string) (*model.Product, error) {
	var product model.Product
	if err := r.db.First(&product, "name = ?", name).Error; err != nil {
		return nil, mapFindErr(err, "product", name)
	}
	return &product, nil
}

func (r *productRepo) Update(product *model.Product) error {
	if err := r.db.Save(product).Error; err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrTransport, err)
	}
	return nil
}

// Delete soft-deletes the product. Journal rows keep their denormalized
// name/category snapshots, so history survives the product.
func (r *productRepo) Delete(product *model.Product) error {
	res := r.db.Delete(product)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", apperr.ErrTransport, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: product %s", apperr.ErrNotFound, product.ID)
	}
	return nil
}

// mapFindErr folds GORM lookup errors into the apperr taxonomy.
func mapFindErr(err error, kind, ref string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %s", apperr.ErrNotFound, kind, ref)
	}
	return fmt.Errorf("%w: %v", apperr.ErrTransport, err)
}
