package repository

import (
	"context"
	"time"

	"storefront/internal/infra/db"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	tx *gorm.DB
}

//repoはtxを持ったDBで作り直す
func (r *txReposGorm) Users() repo.UserRepository           { return NewUserGormRepository(r.tx) }
func (r *txReposGorm) Addresses() repo.AddressRepository    { return NewAddressGormRepository(r.tx) }
func (r *txReposGorm) Carts() repo.CartRepository           { return NewCartGormRepository(r.tx) }
func (r *txReposGorm) CartItems() repo.CartItemRepository   { return NewCartGormRepository(r.tx) }
func (r *txReposGorm) Products() repo.ProductRepository     { return NewProductGormRepository(r.tx) }
func (r *txReposGorm) Promotions() repo.PromotionRepository { return NewPromotionGormRepository(r.tx) }
func (r *txReposGorm) Inventory() repo.InventoryRepository  { return NewInventoryGormRepository(r.tx) }
func (r *txReposGorm) Orders() repo.OrderRepository         { return NewOrderGormRepository(r.tx) }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository { return NewOrderGormRepository(r.tx) }
func (r *txReposGorm) Payments() repo.PaymentRepository     { return NewPaymentGormRepository(r.tx) }
func (r *txReposGorm) Shipments() repo.ShipmentRepository   { return NewShipmentGormRepository(r.tx) }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository   { return NewAuditLogGormRepository(r.tx) }

type TxManagerGorm struct {
	db      *gorm.DB
	timeout time.Duration
}

// timeoutが0ならctxの期限だけに従う
func NewTxManagerGorm(db *gorm.DB, timeout time.Duration) *TxManagerGorm {
	return &TxManagerGorm{db: db, timeout: timeout}
}

var _ repo.TransactionManager = (*TxManagerGorm)(nil)

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	txCtx := ctx
	if tm.timeout > 0 {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(ctx, tm.timeout)
		defer cancel()
	}

	err := tm.db.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		return fn(&txReposGorm{tx: tx})
	})
	//BEGIN/COMMITの失敗やTxの期限切れも一時的な障害として返す
	return db.Classify(err)
}
