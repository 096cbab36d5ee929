package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type ProductListQuery struct {
	Page          int
	Limit         int
	Q             string
	MinPrice      *int64
	MaxPrice      *int64
	CategoryID    *int64
	SubcategoryID *int64
	Sort          string
}

type ProductRepository interface {
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	//行ロック（FOR UPDATE）。デッドロック回避のためID昇順で取る。見つからないIDは結果に含まれない
	LockByIDs(ctx context.Context, ids []int64) ([]model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error
}

type ProductImageRepository interface {
	Create(ctx context.Context, img model.ProductImage) (model.ProductImage, error)
	ListByProductID(ctx context.Context, productID int64) ([]model.ProductImage, error)
	FindByID(ctx context.Context, imageID int64) (model.ProductImage, error)
	FindPrimary(ctx context.Context, productID int64) (model.ProductImage, error)
	//同じ商品の他の画像はprimaryを外す
	SetPrimary(ctx context.Context, productID int64, imageID int64) error
	Delete(ctx context.Context, imageID int64) error
}
