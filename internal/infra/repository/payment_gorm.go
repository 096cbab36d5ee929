package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type PaymentGormRepository struct {
	db *gorm.DB
}

func NewPaymentGormRepository(db *gorm.DB) *PaymentGormRepository {
	return &PaymentGormRepository{db: db}
}

var _ repo.PaymentRepository = (*PaymentGormRepository)(nil)

func (r *PaymentGormRepository) Create(ctx context.Context, p *model.Payment) error {
	return mapErr(r.db.WithContext(ctx).Create(p).Error)
}

func (r *PaymentGormRepository) FindByID(ctx context.Context, paymentID int64) (model.Payment, error) {
	var p model.Payment
	if err := r.db.WithContext(ctx).Where("id = ?", paymentID).First(&p).Error; err != nil {
		return model.Payment{}, mapErr(err)
	}
	return p, nil
}

func (r *PaymentGormRepository) FindByOrderID(ctx context.Context, orderID int64) (model.Payment, error) {
	var p model.Payment
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&p).Error; err != nil {
		return model.Payment{}, mapErr(err)
	}
	return p, nil
}

func (r *PaymentGormRepository) UpdateStatus(ctx context.Context, paymentID int64, status model.PaymentStatus) error {
	return affected(r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ?", paymentID).
		Update("status", status))
}

func (r *PaymentGormRepository) UpdateMethod(ctx context.Context, paymentID int64, method model.PaymentMethod) error {
	return affected(r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ?", paymentID).
		Update("payment_method", method))
}
