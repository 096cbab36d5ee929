package model

import "time"

// カート明細のスナップショット。作成後は変更しない
type OrderItem struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64     `gorm:"not null;index" json:"order_id"`
	ProductID           int64     `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot string    `gorm:"type:varchar(255);not null" json:"product_name"`
	Quantity            int64     `gorm:"not null" json:"quantity"`
	UnitPrice           int64     `gorm:"not null;column:unit_price" json:"unit_price"`
	CreatedAt           time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (i OrderItem) LineTotal() int64 {
	return i.Quantity * i.UnitPrice
}
