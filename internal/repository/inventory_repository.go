package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 在庫台帳
type InventoryRepository interface {
	GetStock(ctx context.Context, productID int64) (int64, error)

	SetStock(ctx context.Context, productID int64, newStock int64) error

	// 在庫が足りるときだけ減算（足りないなら false）
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// 在庫戻し（キャンセルなど）
	IncreaseStock(ctx context.Context, productID int64, qty int64) error

	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
	ListAdjustments(ctx context.Context, productID int64, limit int) ([]model.InventoryAdjustment, error)
}
