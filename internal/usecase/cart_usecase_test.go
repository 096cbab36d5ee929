package usecase_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddItem_MergesSameProduct(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "cart@test.com")
	f.product(t, 7, 10, 5)
	uc := f.cartUsecase()
	ctx := context.Background()

	cart, err := uc.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)

	_, err = uc.AddItem(ctx, user.ID, cart.ID, usecase.AddCartItemInput{ProductID: 7, Quantity: 2})
	require.NoError(t, err)
	item, err := uc.AddItem(ctx, user.ID, cart.ID, usecase.AddCartItemInput{ProductID: 7, Quantity: 1})
	require.NoError(t, err)

	assert.Equal(t, int64(3), item.Quantity)
	assert.Equal(t, int64(10), item.UnitPrice)
	assert.Equal(t, int64(7), item.ProductID)

	view, err := uc.Get(ctx, usecase.CartActor{UserID: user.ID}, cart.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, item.ID, view.Items[0].ID)
	assert.Equal(t, int64(3), view.Items[0].Quantity)
	assert.Equal(t, int64(10), view.Items[0].UnitPrice)
	assert.Equal(t, int64(1), view.Totals.Lines)
	assert.Equal(t, int64(3), view.Totals.Quantity)
	assert.Equal(t, int64(30), view.Totals.Amount)
}

func TestCart_AddItem_Rejections(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "cart@test.com")
	other := f.user(t, "other@test.com")
	f.product(t, 7, 10, 2)
	inactive := f.product(t, 8, 10, 2)
	require.NoError(t, f.db.Model(&inactive).Update("is_active", false).Error)

	uc := f.cartUsecase()
	ctx := context.Background()
	cart, err := uc.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)

	wrongPrice := int64(9)

	cases := []struct {
		name   string
		userID int64
		in     usecase.AddCartItemInput
		status int
		msg    string
	}{
		{name: "zero quantity", userID: user.ID, in: usecase.AddCartItemInput{ProductID: 7, Quantity: 0}, status: http.StatusBadRequest},
		{name: "over stock", userID: user.ID, in: usecase.AddCartItemInput{ProductID: 7, Quantity: 3}, status: http.StatusBadRequest, msg: "stock exceeded"},
		{name: "unknown product", userID: user.ID, in: usecase.AddCartItemInput{ProductID: 99, Quantity: 1}, status: http.StatusNotFound, msg: usecase.CodeProductNotFound},
		{name: "inactive product", userID: user.ID, in: usecase.AddCartItemInput{ProductID: 8, Quantity: 1}, status: http.StatusNotFound, msg: usecase.CodeProductNotFound},
		{name: "stale price", userID: user.ID, in: usecase.AddCartItemInput{ProductID: 7, Quantity: 1, UnitPrice: &wrongPrice}, status: http.StatusConflict, msg: "price changed"},
		{name: "someone else's cart", userID: other.ID, in: usecase.AddCartItemInput{ProductID: 7, Quantity: 1}, status: http.StatusNotFound, msg: "cart not found"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.AddItem(ctx, tc.userID, cart.ID, tc.in)
			requireHTTPError(t, err, tc.status, tc.msg)
		})
	}
	assert.Equal(t, int64(0), f.count(t, &model.CartItem{}))
}

func TestCart_AddItem_UsesPromotionPrice(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "promo@test.com")
	f.product(t, 7, 1000, 5)

	now := time.Now().UTC()
	promo := model.Promotion{
		Code:     "TEN",
		Type:     model.PromotionTypePercentage,
		Value:    decimal.NewFromInt(10),
		StartsAt: now.Add(-time.Hour),
		EndsAt:   now.Add(time.Hour),
	}
	require.NoError(t, f.db.Create(&promo).Error)
	require.NoError(t, f.db.Create(&model.ProductPromotion{ProductID: 7, PromotionID: promo.ID}).Error)

	uc := f.cartUsecase()
	ctx := context.Background()
	cart, err := uc.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)

	shown := int64(900)
	item, err := uc.AddItem(ctx, user.ID, cart.ID, usecase.AddCartItemInput{ProductID: 7, Quantity: 1, UnitPrice: &shown})
	require.NoError(t, err)
	assert.Equal(t, int64(900), item.UnitPrice)
}

func TestCart_UpdateQuantity(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "qty@test.com")
	f.product(t, 7, 10, 4)
	uc := f.cartUsecase()
	ctx := context.Background()

	cart, err := uc.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	_, err = uc.AddItem(ctx, user.ID, cart.ID, usecase.AddCartItemInput{ProductID: 7, Quantity: 1})
	require.NoError(t, err)

	item, err := uc.UpdateQuantity(ctx, user.ID, cart.ID, 7, 4)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, int64(4), item.Quantity)

	_, err = uc.UpdateQuantity(ctx, user.ID, cart.ID, 7, 5)
	requireHTTPError(t, err, http.StatusBadRequest, "stock exceeded")

	//0以下は削除
	item, err = uc.UpdateQuantity(ctx, user.ID, cart.ID, 7, 0)
	require.NoError(t, err)
	assert.Nil(t, item)
	assert.Equal(t, int64(0), f.count(t, &model.CartItem{}, "cart_id = ?", cart.ID))

	_, err = uc.UpdateQuantity(ctx, user.ID, cart.ID, 7, 1)
	requireHTTPError(t, err, http.StatusNotFound, "cart item not found")
}

func TestCart_ClearKeepsCart(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "clear@test.com")
	f.product(t, 7, 10, 4)
	f.product(t, 9, 25, 4)
	uc := f.cartUsecase()
	ctx := context.Background()

	cart, err := uc.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	for _, id := range []int64{7, 9} {
		_, err = uc.AddItem(ctx, user.ID, cart.ID, usecase.AddCartItemInput{ProductID: id, Quantity: 1})
		require.NoError(t, err)
	}

	require.NoError(t, uc.Clear(ctx, user.ID, cart.ID))

	view, err := uc.Mine(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, view.Cart.ID)
	assert.Empty(t, view.Items)
	assert.Equal(t, int64(0), view.Totals.Amount)
}

func TestCart_ReadAccess(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@test.com")
	other := f.user(t, "other@test.com")
	admin := f.admin(t, "admin@test.com")
	uc := f.cartUsecase()
	ctx := context.Background()

	cart, err := uc.GetOrCreate(ctx, owner.ID)
	require.NoError(t, err)

	_, err = uc.Get(ctx, usecase.CartActor{UserID: other.ID}, cart.ID)
	requireHTTPError(t, err, http.StatusNotFound, "cart not found")

	view, err := uc.Get(ctx, usecase.CartActor{UserID: admin.ID, Admin: true}, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, view.Cart.UserID)
}
