package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type ReviewRepository interface {
	//同じユーザー・商品の組はErrConflict
	Create(ctx context.Context, r model.Review) (model.Review, error)
	FindByID(ctx context.Context, id int64) (model.Review, error)
	ListByProductID(ctx context.Context, productID int64) ([]model.Review, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.Review, error)
	ListAll(ctx context.Context, page int, limit int) ([]model.Review, int64, error)
	Update(ctx context.Context, r model.Review) error
	Delete(ctx context.Context, id int64) error
}
