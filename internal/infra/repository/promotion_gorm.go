package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PromotionGormRepository struct {
	db *gorm.DB
}

func NewPromotionGormRepository(db *gorm.DB) *PromotionGormRepository {
	return &PromotionGormRepository{db: db}
}

var _ repo.PromotionRepository = (*PromotionGormRepository)(nil)

func (r *PromotionGormRepository) Create(ctx context.Context, p model.Promotion) (model.Promotion, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Promotion{}, mapErr(err)
	}
	return p, nil
}

func (r *PromotionGormRepository) List(ctx context.Context) ([]model.Promotion, error) {
	var list []model.Promotion
	if err := r.db.WithContext(ctx).Order("starts_at desc").Order("id desc").Find(&list).Error; err != nil {
		return []model.Promotion{}, err
	}
	return list, nil
}

func (r *PromotionGormRepository) FindByID(ctx context.Context, id int64) (model.Promotion, error) {
	var p model.Promotion
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return model.Promotion{}, mapErr(err)
	}
	return p, nil
}

func (r *PromotionGormRepository) Update(ctx context.Context, p model.Promotion) error {
	return affected(r.db.WithContext(ctx).Model(&model.Promotion{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"code":        p.Code,
		"description": p.Description,
		"type":        p.Type,
		"value":       p.Value,
		"starts_at":   p.StartsAt,
		"ends_at":     p.EndsAt,
	}))
}

// 紐付けも一緒に消す
func (r *PromotionGormRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("promotion_id = ?", id).Delete(&model.ProductPromotion{}).Error; err != nil {
			return err
		}
		return affected(tx.Delete(&model.Promotion{}, id))
	})
}

// 既に紐付いていれば何もしない
func (r *PromotionGormRepository) Assign(ctx context.Context, productID int64, promotionID int64) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.ProductPromotion{ProductID: productID, PromotionID: promotionID}).Error
}

func (r *PromotionGormRepository) Unassign(ctx context.Context, productID int64, promotionID int64) error {
	return affected(r.db.WithContext(ctx).
		Where("product_id = ? AND promotion_id = ?", productID, promotionID).
		Delete(&model.ProductPromotion{}))
}

func (r *PromotionGormRepository) ListByProductID(ctx context.Context, productID int64) ([]model.Promotion, error) {
	var list []model.Promotion
	if err := r.db.WithContext(ctx).
		Joins("JOIN product_promotions pp ON pp.promotion_id = promotions.id").
		Where("pp.product_id = ?", productID).
		Order("promotions.id asc").
		Find(&list).Error; err != nil {
		return []model.Promotion{}, err
	}
	return list, nil
}

func (r *PromotionGormRepository) ListActiveByProductID(ctx context.Context, productID int64, at time.Time) ([]model.Promotion, error) {
	var list []model.Promotion
	if err := r.db.WithContext(ctx).
		Joins("JOIN product_promotions pp ON pp.promotion_id = promotions.id").
		Where("pp.product_id = ? AND promotions.starts_at <= ? AND promotions.ends_at > ?", productID, at, at).
		Order("promotions.id asc").
		Find(&list).Error; err != nil {
		return []model.Promotion{}, err
	}
	return list, nil
}
