package model

import "time"

// カートの明細
// UnitPriceは追加時点の価格（プロモーション適用後）。注文時もこの値を使う
type CartItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID    int64     `gorm:"not null;uniqueIndex:idx_cart_items_cart_product,priority:1" json:"cart_id"`
	ProductID int64     `gorm:"not null;uniqueIndex:idx_cart_items_cart_product,priority:2" json:"product_id"`
	Quantity  int64     `gorm:"not null;check:quantity >= 1" json:"quantity"`
	UnitPrice int64     `gorm:"not null;column:unit_price" json:"unit_price"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (i CartItem) LineTotal() int64 {
	return i.Quantity * i.UnitPrice
}

// カートの集計値
type CartTotals struct {
	Lines    int64 `json:"lines"`
	Quantity int64 `json:"quantity"`
	Amount   int64 `json:"amount"`
}
