package usecase

import (
	"context"

	"github.com/rs/zerolog"
)

const (
	EventOrderPlaced           = "order.placed"
	EventOrderStatusChanged    = "order.status_changed"
	EventPaymentStatusChanged  = "payment.status_changed"
	EventShipmentStatusChanged = "shipment.status_changed"
	EventStockAdjusted         = "inventory.adjusted"
)

// コミット後のドメインイベント配信
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, data interface{}) error
}

type OrderPlacedEvent struct {
	OrderID     int64 `json:"order_id"`
	UserID      int64 `json:"user_id"`
	CartID      int64 `json:"cart_id"`
	TotalAmount int64 `json:"total_amount"`
	Items       int   `json:"items"`
}

type StatusChangedEvent struct {
	ID      int64  `json:"id"`
	OrderID int64  `json:"order_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}

type StockAdjustedEvent struct {
	ProductID  int64  `json:"product_id"`
	Delta      int64  `json:"delta"`
	StockAfter int64  `json:"stock_after"`
	Reason     string `json:"reason"`
}

// 配信失敗はログだけ（DBはコミット済み）
func publish(ctx context.Context, p EventPublisher, routingKey string, data interface{}) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, routingKey, data); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("routing_key", routingKey).Msg("event publish failed")
	}
}
