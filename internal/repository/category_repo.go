package repository

import (
	"fmt"

	"go-stockledger-ws/internal/apperr"
	"go-stockledger-ws/internal/model"

	"gorm.io/gorm"
)

type CategoryRepository interface {
	Create(category *model.Category) error
	FindAll() ([]model.Category, error)
	FindByName(name string) (*model.Category, error)
	// SeedDefaults inserts the default categories into an empty catalog.
	SeedDefaults() error
}

type categoryRepo struct {
	db *gorm.DB
}

func NewCategoryRepo(db *gorm.DB) CategoryRepository {
	return &categoryRepo{db}
}

func (r *categoryRepo) Create(category *model.Category) error {
	if err := r.db.Create(category).Error; err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrTransport, err)
	}
	return nil
}

func (r *categoryRepo) FindAll() ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrTransport, err)
	}
	return categories, nil
}

func (r *categoryRepo) FindByName(name string) (*model.Category, error) {
	var category model.Category
	if err := r.db.First(&category, "name = ?", name).Error; err != nil {
		return nil, mapFindErr(err, "category", name)
	}
	return &category, nil
}

func (r *categoryRepo) SeedDefaults() error {
	var count int64
	if err := r.db.Model(&model.Category{}).Count(&count).Error; err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrTransport, err)
	}
	if count > 0 {
		return nil
	}
	for i := range model.DefaultCategories {
		c := model.DefaultCategories[i]
		if err := r.db.Create(&c).Error; err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrTransport, err)
		}
	}
	return nil
}
