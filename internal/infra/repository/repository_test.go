package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	repo "storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func TestInventory_DecreaseStockIfEnough(t *testing.T) {
	gdb := openDB(t)
	require.NoError(t, gdb.Create(&model.Product{ID: 1, Name: "p", Price: 10, Stock: 3, IsActive: true}).Error)
	inv := infraRepo.NewInventoryGormRepository(gdb)
	ctx := context.Background()

	ok, err := inv.DecreaseStockIfEnough(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	//足りなければ0件更新
	ok, err = inv.DecreaseStockIfEnough(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	stock, err := inv.GetStock(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stock)

	_, err = inv.GetStock(ctx, 42)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestInventory_ConcurrentDecrementNeverNegative(t *testing.T) {
	gdb := openDB(t)
	require.NoError(t, gdb.Create(&model.Product{ID: 1, Name: "p", Price: 10, Stock: 5, IsActive: true}).Error)
	inv := infraRepo.NewInventoryGormRepository(gdb)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := inv.DecreaseStockIfEnough(context.Background(), 1, 1)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, won)
	stock, err := inv.GetStock(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stock)
}

func TestCart_UpsertAndTotals(t *testing.T) {
	gdb := openDB(t)
	carts := infraRepo.NewCartGormRepository(gdb)
	ctx := context.Background()

	cart, err := carts.GetOrCreateActiveByUserID(ctx, 1)
	require.NoError(t, err)
	again, err := carts.GetOrCreateActiveByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)

	_, err = carts.UpsertByCartAndProduct(ctx, cart.ID, 7, 2, 10)
	require.NoError(t, err)
	item, err := carts.UpsertByCartAndProduct(ctx, cart.ID, 7, 1, 12)
	require.NoError(t, err)
	assert.Equal(t, int64(3), item.Quantity)
	assert.Equal(t, int64(12), item.UnitPrice)
	_, err = carts.UpsertByCartAndProduct(ctx, cart.ID, 9, 1, 25)
	require.NoError(t, err)

	totals, err := carts.Totals(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CartTotals{Lines: 2, Quantity: 4, Amount: 61}, totals)

	require.NoError(t, carts.Clear(ctx, cart.ID))
	totals, err = carts.Totals(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CartTotals{}, totals)

	assert.ErrorIs(t, carts.SetQuantity(ctx, cart.ID, 7, 2), repo.ErrNotFound)
}

func TestOrder_IdempotencyKeyUnique(t *testing.T) {
	gdb := openDB(t)
	orders := infraRepo.NewOrderGormRepository(gdb)
	ctx := context.Background()

	newOrder := func(userID int64) *model.Order {
		return &model.Order{
			UserID:         userID,
			CartID:         1,
			AddressID:      1,
			TotalAmount:    100,
			Status:         model.OrderStatusPendingPayment,
			PaymentStatus:  model.OrderPaymentPending,
			IdempotencyKey: "same",
		}
	}

	first := newOrder(1)
	require.NoError(t, orders.Create(ctx, first))

	err := orders.Create(ctx, newOrder(1))
	assert.ErrorIs(t, err, repo.ErrConflict)

	//ユーザーが違えば同じキーでもよい
	require.NoError(t, orders.Create(ctx, newOrder(2)))

	found, ok, err := orders.FindByIdempotencyKey(ctx, 1, "same")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.ID, found.ID)

	_, ok, err = orders.FindByIdempotencyKey(ctx, 1, "other")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProduct_LockByIDsSkipsDeleted(t *testing.T) {
	gdb := openDB(t)
	for _, id := range []int64{3, 1, 2} {
		require.NoError(t, gdb.Create(&model.Product{ID: id, Name: "p", Price: 10, Stock: 1, IsActive: true}).Error)
	}
	products := infraRepo.NewProductGormRepository(gdb)
	ctx := context.Background()
	require.NoError(t, products.SoftDelete(ctx, 2))

	locked, err := products.LockByIDs(ctx, []int64{3, 2, 1})
	require.NoError(t, err)
	require.Len(t, locked, 2)
	assert.Equal(t, int64(1), locked[0].ID)
	assert.Equal(t, int64(3), locked[1].ID)
}

func TestAuditLog_ListFilters(t *testing.T) {
	gdb := openDB(t)
	logs := infraRepo.NewAuditLogGormRepository(gdb)
	ctx := context.Background()

	for i, action := range []model.AuditAction{
		model.AuditActionUpdateStock,
		model.AuditActionUpdateOrderStatus,
		model.AuditActionUpdateStock,
	} {
		require.NoError(t, logs.Create(ctx, model.AuditLog{
			ActorUserID:  1,
			Action:       action,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   int64(i + 1),
			BeforeJSON:   `{}`,
			AfterJSON:    `{}`,
		}))
	}

	action := model.AuditActionUpdateStock
	list, err := logs.List(ctx, repo.AuditLogFilter{Action: &action})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(3), list[0].ResourceID)

	future := time.Now().UTC().Add(time.Hour)
	list, err = logs.List(ctx, repo.AuditLogFilter{CreatedFrom: &future})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTxManager_RollbackOnError(t *testing.T) {
	gdb := openDB(t)
	require.NoError(t, gdb.Create(&model.Product{ID: 1, Name: "p", Price: 10, Stock: 5, IsActive: true}).Error)
	tm := infraRepo.NewTxManagerGorm(gdb, time.Second)

	err := tm.WithinTx(context.Background(), func(r repo.TxRepos) error {
		ok, err := r.Inventory().DecreaseStockIfEnough(context.Background(), 1, 5)
		require.NoError(t, err)
		require.True(t, ok)
		return repo.ErrConflict
	})
	assert.ErrorIs(t, err, repo.ErrConflict)

	stock, err := infraRepo.NewInventoryGormRepository(gdb).GetStock(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stock)
}
