package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type CategoryGormRepository struct {
	db *gorm.DB
}

func NewCategoryGormRepository(db *gorm.DB) *CategoryGormRepository {
	return &CategoryGormRepository{db: db}
}

var _ repo.CategoryRepository = (*CategoryGormRepository)(nil)

func (r *CategoryGormRepository) Create(ctx context.Context, c model.Category) (model.Category, error) {
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return model.Category{}, mapErr(err)
	}
	return c, nil
}

func (r *CategoryGormRepository) List(ctx context.Context) ([]model.Category, error) {
	var list []model.Category
	if err := r.db.WithContext(ctx).Order("name asc").Find(&list).Error; err != nil {
		return []model.Category{}, err
	}
	return list, nil
}

func (r *CategoryGormRepository) FindByID(ctx context.Context, id int64) (model.Category, error) {
	var c model.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return model.Category{}, mapErr(err)
	}
	return c, nil
}

func (r *CategoryGormRepository) Update(ctx context.Context, c model.Category) error {
	return affected(r.db.WithContext(ctx).Model(&model.Category{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
		"name":        c.Name,
		"description": c.Description,
	}))
}

func (r *CategoryGormRepository) Delete(ctx context.Context, id int64) error {
	return affected(r.db.WithContext(ctx).Delete(&model.Category{}, id))
}

func (r *CategoryGormRepository) CreateSubcategory(ctx context.Context, s model.Subcategory) (model.Subcategory, error) {
	if err := r.db.WithContext(ctx).Create(&s).Error; err != nil {
		return model.Subcategory{}, mapErr(err)
	}
	return s, nil
}

func (r *CategoryGormRepository) ListSubcategories(ctx context.Context, categoryID int64) ([]model.Subcategory, error) {
	var list []model.Subcategory
	if err := r.db.WithContext(ctx).Where("category_id = ?", categoryID).Order("name asc").Find(&list).Error; err != nil {
		return []model.Subcategory{}, err
	}
	return list, nil
}

func (r *CategoryGormRepository) FindSubcategoryByID(ctx context.Context, id int64) (model.Subcategory, error) {
	var s model.Subcategory
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return model.Subcategory{}, mapErr(err)
	}
	return s, nil
}

func (r *CategoryGormRepository) UpdateSubcategory(ctx context.Context, s model.Subcategory) error {
	return affected(r.db.WithContext(ctx).Model(&model.Subcategory{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
		"category_id": s.CategoryID,
		"name":        s.Name,
		"description": s.Description,
	}))
}

func (r *CategoryGormRepository) DeleteSubcategory(ctx context.Context, id int64) error {
	return affected(r.db.WithContext(ctx).Delete(&model.Subcategory{}, id))
}

func (r *CategoryGormRepository) CountSubcategories(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Subcategory{}).Where("category_id = ?", categoryID).Count(&n).Error
	return n, err
}

// 論理削除済みの商品は数えない
func (r *CategoryGormRepository) CountProducts(ctx context.Context, categoryID *int64, subcategoryID *int64) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Product{})
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}
	if subcategoryID != nil {
		q = q.Where("subcategory_id = ?", *subcategoryID)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}
