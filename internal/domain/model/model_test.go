package model_test

import (
	"testing"
	"time"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to model.OrderStatus
		want     bool
	}{
		{model.OrderStatusPendingPayment, model.OrderStatusPaid, true},
		{model.OrderStatusPendingPayment, model.OrderStatusShipped, true},
		{model.OrderStatusPendingPayment, model.OrderStatusCanceled, true},
		{model.OrderStatusPendingPayment, model.OrderStatusDelivered, false},
		{model.OrderStatusPaid, model.OrderStatusShipped, true},
		{model.OrderStatusPaid, model.OrderStatusCanceled, true},
		{model.OrderStatusShipped, model.OrderStatusDelivered, true},
		{model.OrderStatusShipped, model.OrderStatusCanceled, false},
		{model.OrderStatusDelivered, model.OrderStatusCanceled, false},
		{model.OrderStatusCanceled, model.OrderStatusPaid, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, model.OrderStatusDelivered.Terminal())
	assert.True(t, model.OrderStatusCanceled.Terminal())
	assert.False(t, model.OrderStatusShipped.Terminal())
	assert.False(t, model.OrderStatus("lost").Valid())
}

func TestShipmentStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to model.ShipmentStatus
		want     bool
	}{
		{model.ShipmentStatusPending, model.ShipmentStatusShipped, true},
		{model.ShipmentStatusPending, model.ShipmentStatusCanceled, true},
		{model.ShipmentStatusPending, model.ShipmentStatusDelivered, false},
		{model.ShipmentStatusShipped, model.ShipmentStatusDelivered, true},
		{model.ShipmentStatusShipped, model.ShipmentStatusCanceled, false},
		{model.ShipmentStatusDelivered, model.ShipmentStatusPending, false},
		{model.ShipmentStatusCanceled, model.ShipmentStatusShipped, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestPaymentStatus_OrderPaymentStatus(t *testing.T) {
	assert.Equal(t, model.OrderPaymentPaid, model.PaymentStatusCompleted.OrderPaymentStatus())
	assert.Equal(t, model.OrderPaymentFailed, model.PaymentStatusFailed.OrderPaymentStatus())
	assert.Equal(t, model.OrderPaymentRefunded, model.PaymentStatusRefunded.OrderPaymentStatus())
	assert.Equal(t, model.OrderPaymentPending, model.PaymentStatusPending.OrderPaymentStatus())
	assert.False(t, model.PaymentMethod("bitcoin").Valid())
}

func TestEffectivePrice(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	active := func(typ model.PromotionType, v string) model.Promotion {
		return model.Promotion{
			Type:     typ,
			Value:    decimal.RequireFromString(v),
			StartsAt: now.Add(-time.Hour),
			EndsAt:   now.Add(time.Hour),
		}
	}

	tests := []struct {
		name   string
		price  int64
		promos []model.Promotion
		want   int64
	}{
		{name: "no promotion", price: 1000, want: 1000},
		{name: "percentage", price: 1000, promos: []model.Promotion{active(model.PromotionTypePercentage, "15")}, want: 850},
		//333 * 12.5% = 41.625 -> 42
		{name: "percentage rounds half up", price: 333, promos: []model.Promotion{active(model.PromotionTypePercentage, "12.5")}, want: 291},
		{name: "fixed", price: 1000, promos: []model.Promotion{active(model.PromotionTypeFixed, "300")}, want: 700},
		{name: "never below zero", price: 200, promos: []model.Promotion{active(model.PromotionTypeFixed, "500")}, want: 0},
		{
			name:  "best one wins",
			price: 1000,
			promos: []model.Promotion{
				active(model.PromotionTypePercentage, "10"),
				active(model.PromotionTypeFixed, "250"),
			},
			want: 750,
		},
		{
			name:  "expired ignored",
			price: 1000,
			promos: []model.Promotion{{
				Type:     model.PromotionTypeFixed,
				Value:    decimal.NewFromInt(300),
				StartsAt: now.Add(-2 * time.Hour),
				EndsAt:   now,
			}},
			want: 1000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, model.EffectivePrice(tt.price, tt.promos, now))
		})
	}
}

func TestCartItem_LineTotal(t *testing.T) {
	assert.Equal(t, int64(30), model.CartItem{Quantity: 3, UnitPrice: 10}.LineTotal())
}
