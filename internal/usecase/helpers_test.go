package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// =====================
// SQLite（インメモリ）に実テーブルを作って動かす
// =====================

type fixture struct {
	db  *gorm.DB
	txm *infraRepo.TxManagerGorm
	pub *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gdb, err := db.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return &fixture{
		db:  gdb,
		txm: infraRepo.NewTxManagerGorm(gdb, 5*time.Second),
		pub: &recordingPublisher{},
	}
}

func (f *fixture) user(t *testing.T, email string) model.User {
	t.Helper()
	u := model.User{Email: email, Username: "u", PasswordHash: "x", Role: model.RoleUser, IsActive: true}
	require.NoError(t, f.db.Create(&u).Error)
	return u
}

func (f *fixture) admin(t *testing.T, email string) model.User {
	t.Helper()
	u := model.User{Email: email, Username: "admin", PasswordHash: "x", Role: model.RoleAdmin, IsActive: true}
	require.NoError(t, f.db.Create(&u).Error)
	return u
}

func (f *fixture) address(t *testing.T, userID int64) model.Address {
	t.Helper()
	a := model.Address{
		UserID:     userID,
		Recipient:  "Taro",
		Street:     "1-2-3 Chuo",
		City:       "Tokyo",
		PostalCode: "100-0001",
		Country:    "JP",
		IsDefault:  true,
	}
	require.NoError(t, f.db.Create(&a).Error)
	return a
}

// idを指定して作る（0なら採番）
func (f *fixture) product(t *testing.T, id int64, price, stock int64) model.Product {
	t.Helper()
	p := model.Product{ID: id, Name: "product", Price: price, Stock: stock, IsActive: true}
	require.NoError(t, f.db.Create(&p).Error)
	return p
}

func (f *fixture) cart(t *testing.T, userID int64) model.Cart {
	t.Helper()
	c := model.Cart{UserID: userID, Status: model.CartStatusActive}
	require.NoError(t, f.db.Create(&c).Error)
	return c
}

func (f *fixture) cartItem(t *testing.T, cartID, productID, qty, unitPrice int64) {
	t.Helper()
	require.NoError(t, f.db.Create(&model.CartItem{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  qty,
		UnitPrice: unitPrice,
	}).Error)
}

func (f *fixture) stock(t *testing.T, productID int64) int64 {
	t.Helper()
	var p model.Product
	require.NoError(t, f.db.Unscoped().First(&p, productID).Error)
	return p.Stock
}

func (f *fixture) count(t *testing.T, m interface{}, where ...interface{}) int64 {
	t.Helper()
	var n int64
	q := f.db.Model(m)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func (f *fixture) checkoutUsecase() *usecase.CheckoutUsecase {
	return usecase.NewCheckoutUsecase(
		f.txm,
		infraRepo.NewCartGormRepository(f.db),
		f.pub,
	)
}

func (f *fixture) cartUsecase() *usecase.CartUsecase {
	carts := infraRepo.NewCartGormRepository(f.db)
	return usecase.NewCartUsecase(f.txm, carts, carts)
}

func (f *fixture) adminOrderUsecase() *usecase.AdminOrderUsecase {
	orders := infraRepo.NewOrderGormRepository(f.db)
	return usecase.NewAdminOrderUsecase(f.txm, orders, orders, infraRepo.NewPaymentGormRepository(f.db), f.pub)
}

func (f *fixture) shipmentUsecase(requirePayment bool) *usecase.ShipmentUsecase {
	return usecase.NewShipmentUsecase(
		f.txm,
		infraRepo.NewTransporterGormRepository(f.db),
		infraRepo.NewShipmentGormRepository(f.db),
		f.pub,
		requirePayment,
	)
}

func (f *fixture) inventoryUsecase() *usecase.InventoryUsecase {
	return usecase.NewInventoryUsecase(f.txm, infraRepo.NewInventoryGormRepository(f.db), f.pub)
}

// =====================
// イベント記録用
// =====================

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *recordingPublisher) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

func requireHTTPError(t *testing.T, err error, status int, msg string) *usecase.HTTPError {
	t.Helper()
	require.Error(t, err)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok, "want HTTPError, got %v", err)
	require.Equal(t, status, he.Status)
	if msg != "" {
		require.Equal(t, msg, he.Message)
	}
	return he
}

func (f *fixture) checkoutAddresses() *infraRepo.AddressGormRepository {
	return infraRepo.NewAddressGormRepository(f.db)
}

func (f *fixture) checkoutCarts() *infraRepo.CartGormRepository {
	return infraRepo.NewCartGormRepository(f.db)
}
