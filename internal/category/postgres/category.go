package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/payable/internal"
	categoryDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/category"
	"gorm.io/gorm"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) List(ctx context.Context) ([]*categoryDatamodel.Category, error) {
	var categories []*categoryDatamodel.Category
	err := r.db.WithContext(ctx).Order("id ASC").Find(&categories).Error
	return categories, err
}

func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*categoryDatamodel.Category, error) {
	var cat categoryDatamodel.Category
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&cat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cat, nil
}

func (r *CategoryRepository) Create(ctx context.Context, cat *categoryDatamodel.Category) error {
	err := r.db.WithContext(ctx).Create(cat).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return internal.ErrCategoryExists
	}
	return err
}

func (r *CategoryRepository) Delete(ctx context.Context, name string) (bool, error) {
	res := r.db.WithContext(ctx).Where("name = ?", name).Delete(&categoryDatamodel.Category{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
