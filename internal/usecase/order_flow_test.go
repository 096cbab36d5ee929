package usecase_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// チェックアウト済みの注文を1件作る（7: x3, 9: x1）
func placeOrder(t *testing.T) (checkoutScenario, usecase.CheckoutOutput) {
	t.Helper()
	s := newCheckoutScenario(t, 5, 1)
	out, err := s.uc.Checkout(context.Background(), s.input("order-1"))
	require.NoError(t, err)
	return s, out
}

func TestAdminOrder_CancelRestocks(t *testing.T) {
	s, placed := placeOrder(t)
	f := s.f
	admin := f.admin(t, "admin@test.com")
	uc := f.adminOrderUsecase()

	o, err := uc.UpdateStatus(context.Background(), admin.ID, placed.OrderID, usecase.OrderStatusInput{Status: "canceled"})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCanceled, o.Status)

	//在庫が元に戻る
	assert.Equal(t, int64(5), f.stock(t, 7))
	assert.Equal(t, int64(1), f.stock(t, 9))

	var adjs []model.InventoryAdjustment
	require.NoError(t, f.db.Where("order_id = ?", placed.OrderID).Order("product_id asc").Find(&adjs).Error)
	require.Len(t, adjs, 2)
	assert.Equal(t, int64(3), adjs[0].Delta)
	assert.Equal(t, int64(5), adjs[0].StockAfter)

	assert.Equal(t, int64(1), f.count(t, &model.AuditLog{}, "action = ?", model.AuditActionUpdateOrderStatus))
	assert.Contains(t, f.pub.Keys(), usecase.EventOrderStatusChanged)

	//終端からは動かせない
	_, err = uc.UpdateStatus(context.Background(), admin.ID, placed.OrderID, usecase.OrderStatusInput{Status: "paid"})
	requireHTTPError(t, err, http.StatusConflict, "")
	assert.Equal(t, int64(5), f.stock(t, 7))
}

func TestAdminOrder_UpdateStatus_Rules(t *testing.T) {
	s, placed := placeOrder(t)
	admin := s.f.admin(t, "admin@test.com")
	uc := s.f.adminOrderUsecase()
	ctx := context.Background()

	_, err := uc.UpdateStatus(ctx, admin.ID, placed.OrderID, usecase.OrderStatusInput{Status: "lost"})
	requireHTTPError(t, err, http.StatusBadRequest, "invalid status")

	_, err = uc.UpdateStatus(ctx, admin.ID, placed.OrderID, usecase.OrderStatusInput{Status: "delivered"})
	requireHTTPError(t, err, http.StatusConflict, "")

	_, err = uc.UpdateStatus(ctx, admin.ID, 9999, usecase.OrderStatusInput{Status: "paid"})
	requireHTTPError(t, err, http.StatusNotFound, "order not found")

	//同じ状態への変更は何もしない
	o, err := uc.UpdateStatus(ctx, admin.ID, placed.OrderID, usecase.OrderStatusInput{Status: "pending_payment"})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPendingPayment, o.Status)
	assert.Equal(t, int64(0), s.f.count(t, &model.AuditLog{}))
}

func TestAdminPayment_CompletedMarksOrderPaid(t *testing.T) {
	s, placed := placeOrder(t)
	f := s.f
	admin := f.admin(t, "admin@test.com")
	uc := f.adminOrderUsecase()
	ctx := context.Background()

	var payment model.Payment
	require.NoError(t, f.db.Where("order_id = ?", placed.OrderID).First(&payment).Error)

	p, err := uc.UpdatePaymentStatus(ctx, admin.ID, payment.ID, usecase.PaymentStatusInput{Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCompleted, p.Status)

	var order model.Order
	require.NoError(t, f.db.First(&order, placed.OrderID).Error)
	assert.Equal(t, model.OrderStatusPaid, order.Status)
	assert.Equal(t, model.OrderPaymentPaid, order.PaymentStatus)

	_, err = uc.UpdatePaymentStatus(ctx, admin.ID, payment.ID, usecase.PaymentStatusInput{Status: "settled"})
	requireHTTPError(t, err, http.StatusBadRequest, "")
}

func TestShipment_StateMachineFollowsOrder(t *testing.T) {
	s, placed := placeOrder(t)
	f := s.f
	admin := f.admin(t, "admin@test.com")
	uc := f.shipmentUsecase(false)
	ctx := context.Background()

	tr, err := uc.CreateTransporter(ctx, usecase.TransporterInput{Name: "Yamato", Email: "ops@yamato.test"})
	require.NoError(t, err)

	sh, err := uc.Create(ctx, admin.ID, usecase.ShipmentInput{OrderID: placed.OrderID, TransporterID: tr.ID})
	require.NoError(t, err)
	assert.Equal(t, model.ShipmentStatusPending, sh.Status)
	assert.Equal(t, s.addr.ID, sh.AddressID)

	//1注文1出荷
	_, err = uc.Create(ctx, admin.ID, usecase.ShipmentInput{OrderID: placed.OrderID, TransporterID: tr.ID})
	requireHTTPError(t, err, http.StatusConflict, "")

	//pendingから直接deliveredは不可
	_, err = uc.UpdateStatus(ctx, admin.ID, sh.ID, usecase.ShipmentStatusInput{Status: "delivered"})
	requireHTTPError(t, err, http.StatusConflict, "")

	sh, err = uc.UpdateStatus(ctx, admin.ID, sh.ID, usecase.ShipmentStatusInput{Status: "shipped"})
	require.NoError(t, err)
	assert.Equal(t, model.ShipmentStatusShipped, sh.Status)
	assert.NotNil(t, sh.ShipmentDate)

	var order model.Order
	require.NoError(t, f.db.First(&order, placed.OrderID).Error)
	assert.Equal(t, model.OrderStatusShipped, order.Status)

	sh, err = uc.UpdateStatus(ctx, admin.ID, sh.ID, usecase.ShipmentStatusInput{Status: "delivered"})
	require.NoError(t, err)
	require.NoError(t, f.db.First(&order, placed.OrderID).Error)
	assert.Equal(t, model.OrderStatusDelivered, order.Status)

	//終端
	_, err = uc.UpdateStatus(ctx, admin.ID, sh.ID, usecase.ShipmentStatusInput{Status: "canceled"})
	requireHTTPError(t, err, http.StatusConflict, "")
	err = uc.Delete(ctx, sh.ID)
	requireHTTPError(t, err, http.StatusConflict, "")

	//配送中の業者は消せない
	err = uc.DeleteTransporter(ctx, tr.ID)
	requireHTTPError(t, err, http.StatusConflict, "")

	assert.Equal(t, int64(2), f.count(t, &model.AuditLog{}, "action = ?", model.AuditActionUpdateShipmentStatus))
}

func TestShipment_AddressAndDatesChecked(t *testing.T) {
	s, placed := placeOrder(t)
	f := s.f
	admin := f.admin(t, "admin@test.com")
	uc := f.shipmentUsecase(false)
	ctx := context.Background()

	tr, err := uc.CreateTransporter(ctx, usecase.TransporterInput{Name: "Yamato"})
	require.NoError(t, err)

	stranger := f.user(t, "stranger@test.com")
	strangerAddr := f.address(t, stranger.ID)

	//他人の住所・存在しない住所には送れない
	_, err = uc.Create(ctx, admin.ID, usecase.ShipmentInput{OrderID: placed.OrderID, TransporterID: tr.ID, AddressID: strangerAddr.ID})
	requireHTTPError(t, err, http.StatusBadRequest, "address not found")
	_, err = uc.Create(ctx, admin.ID, usecase.ShipmentInput{OrderID: placed.OrderID, TransporterID: tr.ID, AddressID: 9999})
	requireHTTPError(t, err, http.StatusBadRequest, "address not found")
	assert.Equal(t, int64(0), f.count(t, &model.Shipment{}))

	shipped := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	sh, err := uc.Create(ctx, admin.ID, usecase.ShipmentInput{OrderID: placed.OrderID, TransporterID: tr.ID, ShipmentDate: &shipped})
	require.NoError(t, err)

	_, err = uc.Update(ctx, sh.ID, usecase.ShipmentInput{AddressID: strangerAddr.ID})
	requireHTTPError(t, err, http.StatusBadRequest, "address not found")

	//保存済みの出荷日より前の到着予定は不可
	early := shipped.Add(-24 * time.Hour)
	_, err = uc.Update(ctx, sh.ID, usecase.ShipmentInput{EstimatedDeliveryDate: &early})
	requireHTTPError(t, err, http.StatusBadRequest, "estimated_delivery_date must be after shipment_date")

	own := f.address(t, s.user.ID)
	later := shipped.Add(48 * time.Hour)
	sh, err = uc.Update(ctx, sh.ID, usecase.ShipmentInput{AddressID: own.ID, EstimatedDeliveryDate: &later})
	require.NoError(t, err)
	assert.Equal(t, own.ID, sh.AddressID)
	require.NotNil(t, sh.EstimatedDeliveryDate)
	assert.True(t, later.Equal(*sh.EstimatedDeliveryDate))

	var stored model.Shipment
	require.NoError(t, f.db.First(&stored, sh.ID).Error)
	assert.Equal(t, own.ID, stored.AddressID)
}

func TestShipment_RequiresCompletedPayment(t *testing.T) {
	s, placed := placeOrder(t)
	f := s.f
	admin := f.admin(t, "admin@test.com")
	uc := f.shipmentUsecase(true)
	ctx := context.Background()

	tr, err := uc.CreateTransporter(ctx, usecase.TransporterInput{Name: "Sagawa"})
	require.NoError(t, err)

	_, err = uc.Create(ctx, admin.ID, usecase.ShipmentInput{OrderID: placed.OrderID, TransporterID: tr.ID})
	requireHTTPError(t, err, http.StatusConflict, "payment is not completed")

	require.NoError(t, f.db.Model(&model.Payment{}).
		Where("order_id = ?", placed.OrderID).
		Update("status", model.PaymentStatusCompleted).Error)

	_, err = uc.Create(ctx, admin.ID, usecase.ShipmentInput{OrderID: placed.OrderID, TransporterID: tr.ID})
	require.NoError(t, err)
}

func TestShipment_CanceledOrderRejected(t *testing.T) {
	s, placed := placeOrder(t)
	f := s.f
	admin := f.admin(t, "admin@test.com")
	ctx := context.Background()

	_, err := f.adminOrderUsecase().UpdateStatus(ctx, admin.ID, placed.OrderID, usecase.OrderStatusInput{Status: "canceled"})
	require.NoError(t, err)

	uc := f.shipmentUsecase(false)
	tr, err := uc.CreateTransporter(ctx, usecase.TransporterInput{Name: "JP Post"})
	require.NoError(t, err)

	_, err = uc.Create(ctx, admin.ID, usecase.ShipmentInput{OrderID: placed.OrderID, TransporterID: tr.ID})
	requireHTTPError(t, err, http.StatusConflict, "order is canceled")
}

func TestInventory_LongReasonKeepsRunes(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t, "admin@test.com")
	f.product(t, 7, 10, 3)
	ctx := context.Background()

	reason := strings.Repeat("入荷", 200) + "\xff"
	_, err := f.inventoryUsecase().AdminRestock(ctx, admin.ID, 7, usecase.AdjustStockInput{Amount: 1, Reason: reason})
	require.NoError(t, err)

	var adj model.InventoryAdjustment
	require.NoError(t, f.db.Where("product_id = ?", 7).First(&adj).Error)
	assert.True(t, utf8.ValidString(adj.Reason))
	assert.Equal(t, 255, utf8.RuneCountInString(adj.Reason))
	assert.True(t, strings.HasPrefix(reason, adj.Reason))

	_, err = f.inventoryUsecase().AdminRestock(ctx, admin.ID, 7, usecase.AdjustStockInput{Amount: 1, Reason: "  \xff "})
	require.NoError(t, err)
	require.NoError(t, f.db.Where("product_id = ?", 7).Order("id desc").First(&adj).Error)
	assert.Equal(t, "admin restock", adj.Reason)
}

func TestInventory_AdminAdjustments(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t, "admin@test.com")
	f.product(t, 7, 10, 3)
	uc := f.inventoryUsecase()
	ctx := context.Background()

	out, err := uc.AdminDecrement(ctx, admin.ID, 7, usecase.AdjustStockInput{Amount: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Stock)

	_, err = uc.AdminDecrement(ctx, admin.ID, 7, usecase.AdjustStockInput{Amount: 2})
	he := requireHTTPError(t, err, http.StatusConflict, usecase.CodeInsufficientStock)
	assert.Equal(t, int64(7), *he.ProductID)
	assert.Equal(t, int64(1), f.stock(t, 7))

	_, err = uc.AdminDecrement(ctx, admin.ID, 99, usecase.AdjustStockInput{Amount: 1})
	requireHTTPError(t, err, http.StatusNotFound, usecase.CodeProductNotFound)

	out, err = uc.AdminRestock(ctx, admin.ID, 7, usecase.AdjustStockInput{Amount: 4, Reason: "delivery"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), out.Stock)

	out, err = uc.AdminSetStock(ctx, admin.ID, 7, usecase.SetStockInput{Stock: 0})
	require.NoError(t, err)
	assert.Equal(t, int64(0), out.Stock)

	_, err = uc.AdminSetStock(ctx, admin.ID, 7, usecase.SetStockInput{Stock: -1})
	requireHTTPError(t, err, http.StatusBadRequest, "")

	adjs, err := uc.ListAdjustments(ctx, 7, 10)
	require.NoError(t, err)
	require.Len(t, adjs, 3)
	//新しい順
	assert.Equal(t, int64(-5), adjs[0].Delta)
	assert.Equal(t, "delivery", adjs[1].Reason)
	assert.Equal(t, int64(3), f.count(t, &model.AuditLog{}, "action = ?", model.AuditActionUpdateStock))
}
