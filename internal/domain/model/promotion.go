package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PromotionType string

const (
	//Valueは割引率（%）
	PromotionTypePercentage PromotionType = "percentage"
	//Valueは割引額（最小通貨単位）
	PromotionTypeFixed PromotionType = "fixed"
)

func (t PromotionType) Valid() bool {
	return t == PromotionTypePercentage || t == PromotionTypeFixed
}

type Promotion struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Code        string          `gorm:"type:varchar(100);not null;uniqueIndex" json:"code"`
	Description string          `gorm:"type:text" json:"description"`
	Type        PromotionType   `gorm:"type:varchar(20);not null" json:"type"`
	Value       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"value"`
	StartsAt    time.Time       `gorm:"not null;index" json:"starts_at"`
	EndsAt      time.Time       `gorm:"not null;index" json:"ends_at"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 商品とプロモーションの紐付け
type ProductPromotion struct {
	ProductID   int64     `gorm:"primaryKey" json:"product_id"`
	PromotionID int64     `gorm:"primaryKey" json:"promotion_id"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

// 期間内か（開始を含み、終了を含まない）
func (p Promotion) ActiveAt(at time.Time) bool {
	return !at.Before(p.StartsAt) && at.Before(p.EndsAt)
}

// priceに対する割引額。price を超えない
func (p Promotion) DiscountFor(price int64) int64 {
	if price <= 0 || p.Value.Sign() <= 0 {
		return 0
	}

	base := decimal.NewFromInt(price)
	var off decimal.Decimal
	switch p.Type {
	case PromotionTypePercentage:
		off = base.Mul(p.Value).Div(decimal.NewFromInt(100)).Round(0)
	case PromotionTypeFixed:
		off = p.Value.Round(0)
	default:
		return 0
	}

	if off.GreaterThan(base) {
		return price
	}
	return off.IntPart()
}

// 有効なプロモーションのうち一番安くなる価格
func EffectivePrice(price int64, promos []Promotion, at time.Time) int64 {
	best := int64(0)
	for _, p := range promos {
		if !p.ActiveAt(at) {
			continue
		}
		if d := p.DiscountFor(price); d > best {
			best = d
		}
	}
	return price - best
}
