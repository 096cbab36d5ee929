package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

type PromotionRepository interface {
	Create(ctx context.Context, p model.Promotion) (model.Promotion, error)
	List(ctx context.Context) ([]model.Promotion, error)
	FindByID(ctx context.Context, id int64) (model.Promotion, error)
	Update(ctx context.Context, p model.Promotion) error
	Delete(ctx context.Context, id int64) error

	Assign(ctx context.Context, productID int64, promotionID int64) error
	Unassign(ctx context.Context, productID int64, promotionID int64) error
	ListByProductID(ctx context.Context, productID int64) ([]model.Promotion, error)
	//at時点で有効なものだけ
	ListActiveByProductID(ctx context.Context, productID int64, at time.Time) ([]model.Promotion, error)
}
