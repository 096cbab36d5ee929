package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type ReviewGormRepository struct {
	db *gorm.DB
}

func NewReviewGormRepository(db *gorm.DB) *ReviewGormRepository {
	return &ReviewGormRepository{db: db}
}

var _ repo.ReviewRepository = (*ReviewGormRepository)(nil)

func (r *ReviewGormRepository) Create(ctx context.Context, rv model.Review) (model.Review, error) {
	if err := r.db.WithContext(ctx).Create(&rv).Error; err != nil {
		return model.Review{}, mapErr(err)
	}
	return rv, nil
}

func (r *ReviewGormRepository) FindByID(ctx context.Context, id int64) (model.Review, error) {
	var rv model.Review
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rv).Error; err != nil {
		return model.Review{}, mapErr(err)
	}
	return rv, nil
}

func (r *ReviewGormRepository) ListByProductID(ctx context.Context, productID int64) ([]model.Review, error) {
	var list []model.Review
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("id desc").Find(&list).Error; err != nil {
		return []model.Review{}, err
	}
	return list, nil
}

func (r *ReviewGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Review, error) {
	var list []model.Review
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id desc").Find(&list).Error; err != nil {
		return []model.Review{}, err
	}
	return list, nil
}

func (r *ReviewGormRepository) ListAll(ctx context.Context, page int, limit int) ([]model.Review, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Review{}).Count(&total).Error; err != nil {
		return []model.Review{}, 0, err
	}

	offset, limit := pageOffset(page, limit)
	var list []model.Review
	if err := r.db.WithContext(ctx).Order("id desc").Limit(limit).Offset(offset).Find(&list).Error; err != nil {
		return []model.Review{}, 0, err
	}
	return list, total, nil
}

func (r *ReviewGormRepository) Update(ctx context.Context, rv model.Review) error {
	return affected(r.db.WithContext(ctx).Model(&model.Review{}).Where("id = ?", rv.ID).Updates(map[string]interface{}{
		"rating":  rv.Rating,
		"comment": rv.Comment,
	}))
}

func (r *ReviewGormRepository) Delete(ctx context.Context, id int64) error {
	return affected(r.db.WithContext(ctx).Delete(&model.Review{}, id))
}
