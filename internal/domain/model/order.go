package model

import "time"

type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCanceled       OrderStatus = "canceled"
)

// 注文側から見た支払い状態
type OrderPaymentStatus string

const (
	OrderPaymentPending  OrderPaymentStatus = "pending"
	OrderPaymentPaid     OrderPaymentStatus = "paid"
	OrderPaymentFailed   OrderPaymentStatus = "failed"
	OrderPaymentRefunded OrderPaymentStatus = "refunded"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPendingPayment: {OrderStatusPaid, OrderStatusShipped, OrderStatusCanceled},
	OrderStatusPaid:           {OrderStatusShipped, OrderStatusCanceled},
	OrderStatusShipped:        {OrderStatusDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPendingPayment, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCanceled:
		return true
	}
	return false
}

// delivered / canceled は終端
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCanceled
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, n := range orderTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

// 作成後に変わるのはステータスだけ
type Order struct {
	ID             int64              `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         int64              `gorm:"not null;uniqueIndex:idx_orders_user_idempotency,priority:1" json:"user_id"`
	CartID         int64              `gorm:"not null;index" json:"cart_id"`
	AddressID      int64              `gorm:"not null" json:"address_id"`
	TotalAmount    int64              `gorm:"not null" json:"total_amount"`
	Status         OrderStatus        `gorm:"column:order_status;type:varchar(30);not null;index" json:"order_status"`
	PaymentStatus  OrderPaymentStatus `gorm:"type:varchar(20);not null" json:"payment_status"`
	IdempotencyKey string             `gorm:"type:varchar(255);not null;uniqueIndex:idx_orders_user_idempotency,priority:2" json:"-"`
	CreatedAt      time.Time          `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time          `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
