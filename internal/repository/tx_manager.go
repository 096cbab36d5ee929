package repository

import "context"

// トランザクション内で使うrepo。fnの中ではこれ以外のrepoを使わない
type TxRepos interface {
	Users() UserRepository
	Addresses() AddressRepository
	Carts() CartRepository
	CartItems() CartItemRepository
	Products() ProductRepository
	Promotions() PromotionRepository
	Inventory() InventoryRepository
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	Payments() PaymentRepository
	Shipments() ShipmentRepository
	AuditLogs() AuditLogRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
// fnがerrorを返したらrollback。ctxのキャンセルやタイムアウトもrollbackになる
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
