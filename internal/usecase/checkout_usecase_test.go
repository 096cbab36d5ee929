package usecase_test

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 7: 単価10 x3, 9: 単価25 x1 のカート
type checkoutScenario struct {
	f    *fixture
	uc   *usecase.CheckoutUsecase
	user model.User
	addr model.Address
	cart model.Cart
}

func newCheckoutScenario(t *testing.T, stock7, stock9 int64) checkoutScenario {
	t.Helper()
	f := newFixture(t)
	user := f.user(t, "buyer@test.com")
	addr := f.address(t, user.ID)
	f.product(t, 7, 10, stock7)
	f.product(t, 9, 25, stock9)
	cart := f.cart(t, user.ID)
	f.cartItem(t, cart.ID, 7, 3, 10)
	f.cartItem(t, cart.ID, 9, 1, 25)

	return checkoutScenario{f: f, uc: f.checkoutUsecase(), user: user, addr: addr, cart: cart}
}

func (s checkoutScenario) input(key string) usecase.CheckoutInput {
	return usecase.CheckoutInput{
		UserID:         s.user.ID,
		CartID:         s.cart.ID,
		AddressID:      s.addr.ID,
		IdempotencyKey: key,
	}
}

func TestCheckout_Success(t *testing.T) {
	s := newCheckoutScenario(t, 5, 1)
	f := s.f

	out, err := s.uc.Checkout(context.Background(), s.input("k1"))
	require.NoError(t, err)
	assert.False(t, out.Replayed)
	assert.Equal(t, int64(55), out.TotalAmount)

	//在庫が減る
	assert.Equal(t, int64(2), f.stock(t, 7))
	assert.Equal(t, int64(0), f.stock(t, 9))

	//カートは空、ACTIVEのまま
	assert.Equal(t, int64(0), f.count(t, &model.CartItem{}, "cart_id = ?", s.cart.ID))
	var cart model.Cart
	require.NoError(t, f.db.First(&cart, s.cart.ID).Error)
	assert.Equal(t, model.CartStatusActive, cart.Status)

	var order model.Order
	require.NoError(t, f.db.First(&order, out.OrderID).Error)
	assert.Equal(t, model.OrderStatusPendingPayment, order.Status)
	assert.Equal(t, model.OrderPaymentPending, order.PaymentStatus)
	assert.Equal(t, s.addr.ID, order.AddressID)
	assert.Equal(t, int64(55), order.TotalAmount)

	var items []model.OrderItem
	require.NoError(t, f.db.Where("order_id = ?", order.ID).Order("product_id asc").Find(&items).Error)
	require.Len(t, items, 2)
	assert.Equal(t, int64(7), items[0].ProductID)
	assert.Equal(t, int64(3), items[0].Quantity)
	assert.Equal(t, int64(10), items[0].UnitPrice)
	assert.Equal(t, int64(9), items[1].ProductID)
	assert.Equal(t, int64(25), items[1].UnitPrice)

	var payment model.Payment
	require.NoError(t, f.db.Where("order_id = ?", order.ID).First(&payment).Error)
	assert.Equal(t, model.PaymentStatusPending, payment.Status)
	assert.Equal(t, model.PaymentMethodCashOnDelivery, payment.Method)
	assert.Equal(t, int64(55), payment.Amount)

	assert.Equal(t, []string{usecase.EventOrderPlaced}, f.pub.Keys())
}

func TestCheckout_InsufficientStock_NothingChanges(t *testing.T) {
	s := newCheckoutScenario(t, 5, 0)
	f := s.f

	_, err := s.uc.Checkout(context.Background(), s.input("k1"))
	he := requireHTTPError(t, err, http.StatusConflict, usecase.CodeInsufficientStock)
	require.NotNil(t, he.ProductID)
	assert.Equal(t, int64(9), *he.ProductID)

	assert.Equal(t, int64(5), f.stock(t, 7))
	assert.Equal(t, int64(0), f.stock(t, 9))
	assert.Equal(t, int64(2), f.count(t, &model.CartItem{}, "cart_id = ?", s.cart.ID))
	assert.Equal(t, int64(0), f.count(t, &model.Order{}))
	assert.Equal(t, int64(0), f.count(t, &model.Payment{}))
	assert.Empty(t, f.pub.Keys())
}

func TestCheckout_SameKeyReturnsSameOrder(t *testing.T) {
	s := newCheckoutScenario(t, 5, 1)
	f := s.f
	ctx := context.Background()

	first, err := s.uc.Checkout(ctx, s.input("retry-key"))
	require.NoError(t, err)

	second, err := s.uc.Checkout(ctx, s.input("retry-key"))
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Equal(t, first.TotalAmount, second.TotalAmount)

	//在庫は1回分だけ
	assert.Equal(t, int64(2), f.stock(t, 7))
	assert.Equal(t, int64(1), f.count(t, &model.Order{}))
	assert.Equal(t, []string{usecase.EventOrderPlaced}, f.pub.Keys())
}

func TestCheckout_NewKeyOnEmptiedCart(t *testing.T) {
	s := newCheckoutScenario(t, 5, 1)
	ctx := context.Background()

	_, err := s.uc.Checkout(ctx, s.input("k1"))
	require.NoError(t, err)

	_, err = s.uc.Checkout(ctx, s.input("k2"))
	requireHTTPError(t, err, http.StatusNotFound, usecase.CodeCartEmpty)
}

func TestCheckout_SameKeyOtherCartConflicts(t *testing.T) {
	s := newCheckoutScenario(t, 5, 1)
	f := s.f
	ctx := context.Background()

	first, err := s.uc.Checkout(ctx, s.input("k1"))
	require.NoError(t, err)

	cartB := f.cart(t, s.user.ID)
	f.cartItem(t, cartB.ID, 7, 1, 10)

	in := s.input("k1")
	in.CartID = cartB.ID
	_, err = s.uc.Checkout(ctx, in)
	requireHTTPError(t, err, http.StatusConflict, usecase.CodeIdempotencyConflict)

	//カートBは手付かず
	assert.Equal(t, int64(2), f.stock(t, 7))
	assert.Equal(t, int64(1), f.count(t, &model.CartItem{}, "cart_id = ?", cartB.ID))
	assert.Equal(t, int64(1), f.count(t, &model.Order{}))

	//元のカートなら従来どおり再送扱い
	again, err := s.uc.Checkout(ctx, s.input("k1"))
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, first.OrderID, again.OrderID)
}

func TestCheckout_SameKeyOtherAddressConflicts(t *testing.T) {
	s := newCheckoutScenario(t, 5, 1)
	f := s.f
	ctx := context.Background()

	_, err := s.uc.Checkout(ctx, s.input("k1"))
	require.NoError(t, err)

	in := s.input("k1")
	in.AddressID = f.address(t, s.user.ID).ID
	_, err = s.uc.Checkout(ctx, in)
	requireHTTPError(t, err, http.StatusConflict, usecase.CodeIdempotencyConflict)
	assert.Equal(t, int64(1), f.count(t, &model.Order{}))
}

func TestCheckout_ReplayAfterAddressDeleted(t *testing.T) {
	s := newCheckoutScenario(t, 5, 1)
	f := s.f
	ctx := context.Background()

	first, err := s.uc.Checkout(ctx, s.input("k1"))
	require.NoError(t, err)

	require.NoError(t, f.checkoutAddresses().Delete(ctx, s.addr.ID))

	second, err := s.uc.Checkout(ctx, s.input("k1"))
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Equal(t, int64(55), second.TotalAmount)

	//新しいキーでは削除済みの住所は使えない
	f.cartItem(t, s.cart.ID, 7, 1, 10)
	_, err = s.uc.Checkout(ctx, s.input("k2"))
	requireHTTPError(t, err, http.StatusBadRequest, "address not found")
	assert.Equal(t, int64(2), f.stock(t, 7))
}

func TestCheckout_LastUnitConcurrent(t *testing.T) {
	f := newFixture(t)
	f.product(t, 1, 100, 1)
	uc := f.checkoutUsecase()

	inputs := make([]usecase.CheckoutInput, 2)
	for i := range inputs {
		u := f.user(t, fmt.Sprintf("racer%d@test.com", i))
		a := f.address(t, u.ID)
		c := f.cart(t, u.ID)
		f.cartItem(t, c.ID, 1, 1, 100)
		inputs[i] = usecase.CheckoutInput{UserID: u.ID, CartID: c.ID, AddressID: a.ID, IdempotencyKey: "race"}
	}

	errs := make([]error, len(inputs))
	var wg sync.WaitGroup
	for i := range inputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.Checkout(context.Background(), inputs[i])
		}(i)
	}
	wg.Wait()

	var ok, short int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		he, isHTTP := usecase.AsHTTPError(err)
		require.True(t, isHTTP, "unexpected error: %v", err)
		assert.Equal(t, usecase.CodeInsufficientStock, he.Message)
		short++
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, short)
	assert.Equal(t, int64(0), f.stock(t, 1))
	assert.Equal(t, int64(1), f.count(t, &model.Order{}))
}

// =====================
// 途中で在庫更新が落ちたら全部戻る
// =====================

type failingInventory struct {
	repo.InventoryRepository
}

func (failingInventory) DecreaseStockIfEnough(context.Context, int64, int64) (bool, error) {
	return false, fmt.Errorf("%w: connection reset", repo.ErrStorageUnavailable)
}

type failingTxRepos struct {
	repo.TxRepos
}

func (r failingTxRepos) Inventory() repo.InventoryRepository {
	return failingInventory{InventoryRepository: r.TxRepos.Inventory()}
}

type failingTxManager struct {
	inner repo.TransactionManager
}

func (m failingTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return m.inner.WithinTx(ctx, func(r repo.TxRepos) error {
		return fn(failingTxRepos{TxRepos: r})
	})
}

func TestCheckout_StorageFailureRollsBack(t *testing.T) {
	s := newCheckoutScenario(t, 5, 1)
	f := s.f

	uc := usecase.NewCheckoutUsecase(
		failingTxManager{inner: f.txm},
		s.f.checkoutCarts(),
		f.pub,
	)

	_, err := uc.Checkout(context.Background(), s.input("k1"))
	he := requireHTTPError(t, err, http.StatusServiceUnavailable, usecase.CodeStorageUnavailable)
	assert.True(t, he.Retryable())

	assert.Equal(t, int64(0), f.count(t, &model.Order{}))
	assert.Equal(t, int64(0), f.count(t, &model.OrderItem{}))
	assert.Equal(t, int64(0), f.count(t, &model.Payment{}))
	assert.Equal(t, int64(5), f.stock(t, 7))
	assert.Equal(t, int64(1), f.stock(t, 9))
	assert.Equal(t, int64(2), f.count(t, &model.CartItem{}, "cart_id = ?", s.cart.ID))
	assert.Empty(t, f.pub.Keys())
}

func TestCheckout_Rejections(t *testing.T) {
	s := newCheckoutScenario(t, 5, 1)
	f := s.f
	ctx := context.Background()

	other := f.user(t, "other@test.com")
	otherAddr := f.address(t, other.ID)
	emptyCart := f.cart(t, s.user.ID)

	wrongBodyUser := other.ID

	cases := []struct {
		name   string
		mutate func(in *usecase.CheckoutInput)
		status int
		msg    string
	}{
		{
			name:   "empty key",
			mutate: func(in *usecase.CheckoutInput) { in.IdempotencyKey = "  " },
			status: http.StatusBadRequest,
		},
		{
			name:   "body user mismatch",
			mutate: func(in *usecase.CheckoutInput) { in.BodyUserID = &wrongBodyUser },
			status: http.StatusForbidden,
		},
		{
			name:   "address of another user",
			mutate: func(in *usecase.CheckoutInput) { in.AddressID = otherAddr.ID },
			status: http.StatusBadRequest,
			msg:    "address not found",
		},
		{
			name:   "cart of another user",
			mutate: func(in *usecase.CheckoutInput) { in.UserID = other.ID; in.AddressID = otherAddr.ID },
			status: http.StatusNotFound,
			msg:    "cart not found",
		},
		{
			name:   "unknown cart",
			mutate: func(in *usecase.CheckoutInput) { in.CartID = 9999 },
			status: http.StatusNotFound,
			msg:    "cart not found",
		},
		{
			name:   "empty cart",
			mutate: func(in *usecase.CheckoutInput) { in.CartID = emptyCart.ID },
			status: http.StatusNotFound,
			msg:    usecase.CodeCartEmpty,
		},
		{
			name:   "bad payment method",
			mutate: func(in *usecase.CheckoutInput) { in.PaymentMethod = "bitcoin" },
			status: http.StatusBadRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := s.input("k-" + tc.name)
			tc.mutate(&in)

			_, err := s.uc.Checkout(ctx, in)
			requireHTTPError(t, err, tc.status, tc.msg)
		})
	}

	assert.Equal(t, int64(0), f.count(t, &model.Order{}))
	assert.Equal(t, int64(5), f.stock(t, 7))
}

func TestCheckout_InactiveProduct(t *testing.T) {
	s := newCheckoutScenario(t, 5, 1)
	require.NoError(t, s.f.db.Model(&model.Product{}).Where("id = ?", 9).Update("is_active", false).Error)

	_, err := s.uc.Checkout(context.Background(), s.input("k1"))
	he := requireHTTPError(t, err, http.StatusNotFound, usecase.CodeProductNotFound)
	require.NotNil(t, he.ProductID)
	assert.Equal(t, int64(9), *he.ProductID)
	assert.Equal(t, int64(5), s.f.stock(t, 7))
}

func TestCheckout_DeletedProduct(t *testing.T) {
	s := newCheckoutScenario(t, 5, 1)
	require.NoError(t, s.f.db.Delete(&model.Product{}, 7).Error)

	_, err := s.uc.Checkout(context.Background(), s.input("k1"))
	he := requireHTTPError(t, err, http.StatusNotFound, usecase.CodeProductNotFound)
	assert.Equal(t, int64(7), *he.ProductID)
}

func TestCheckoutActiveCart_UsesOwnCart(t *testing.T) {
	s := newCheckoutScenario(t, 5, 1)

	out, err := s.uc.CheckoutActiveCart(context.Background(), usecase.CheckoutInput{
		UserID:         s.user.ID,
		AddressID:      s.addr.ID,
		IdempotencyKey: "alias",
		PaymentMethod:  string(model.PaymentMethodCard),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(55), out.TotalAmount)

	var payment model.Payment
	require.NoError(t, s.f.db.Where("order_id = ?", out.OrderID).First(&payment).Error)
	assert.Equal(t, model.PaymentMethodCard, payment.Method)
}
