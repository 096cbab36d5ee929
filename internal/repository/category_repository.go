package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CategoryRepository interface {
	Create(ctx context.Context, c model.Category) (model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	FindByID(ctx context.Context, id int64) (model.Category, error)
	Update(ctx context.Context, c model.Category) error
	Delete(ctx context.Context, id int64) error

	CreateSubcategory(ctx context.Context, s model.Subcategory) (model.Subcategory, error)
	ListSubcategories(ctx context.Context, categoryID int64) ([]model.Subcategory, error)
	FindSubcategoryByID(ctx context.Context, id int64) (model.Subcategory, error)
	UpdateSubcategory(ctx context.Context, s model.Subcategory) error
	DeleteSubcategory(ctx context.Context, id int64) error

	//削除可否の判定用
	CountSubcategories(ctx context.Context, categoryID int64) (int64, error)
	CountProducts(ctx context.Context, categoryID *int64, subcategoryID *int64) (int64, error)
}
