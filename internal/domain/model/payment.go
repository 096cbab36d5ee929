package model

import "time"

type PaymentMethod string

const (
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentMethodCard           PaymentMethod = "card"
	PaymentMethodBankTransfer   PaymentMethod = "bank_transfer"
	PaymentMethodPaypal         PaymentMethod = "paypal"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCashOnDelivery, PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodPaypal:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// 注文側のpayment_statusへの対応
func (s PaymentStatus) OrderPaymentStatus() OrderPaymentStatus {
	switch s {
	case PaymentStatusCompleted:
		return OrderPaymentPaid
	case PaymentStatusFailed:
		return OrderPaymentFailed
	case PaymentStatusRefunded:
		return OrderPaymentRefunded
	default:
		return OrderPaymentPending
	}
}

// 注文と1対1
type Payment struct {
	ID        int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64         `gorm:"not null;uniqueIndex" json:"order_id"`
	Method    PaymentMethod `gorm:"column:payment_method;type:varchar(30);not null" json:"payment_method"`
	Status    PaymentStatus `gorm:"type:varchar(20);not null" json:"status"`
	Amount    int64         `gorm:"not null" json:"amount"`
	CreatedAt time.Time     `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time     `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
