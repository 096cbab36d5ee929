package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/rs/zerolog"
)

// 管理者の注文・支払い操作。状態変更と監査ログは同じTx
type AdminOrderUsecase struct {
	tx       repo.TransactionManager
	orders   repo.OrderRepository
	items    repo.OrderItemRepository
	payments repo.PaymentRepository
	events   EventPublisher
}

func NewAdminOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	items repo.OrderItemRepository,
	payments repo.PaymentRepository,
	events EventPublisher,
) *AdminOrderUsecase {
	return &AdminOrderUsecase{
		tx:       tx,
		orders:   orders,
		items:    items,
		payments: payments,
		events:   events,
	}
}

type AdminOrderListInput struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type OrderStatusInput struct {
	Status string `json:"status"`
}

type PaymentStatusInput struct {
	Status string `json:"status"`
}

type PaymentDetail struct {
	Payment model.Payment `json:"payment"`
	Order   model.Order   `json:"order"`
}

func (u *AdminOrderUsecase) List(ctx context.Context, in AdminOrderListInput) (OrderListOutput, error) {
	if in.Page <= 0 {
		in.Page = 1
	}
	if in.Limit <= 0 {
		in.Limit = 20
	}
	if in.Limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "limit must be <= 100")
	}
	if in.Status != "" && !model.OrderStatus(in.Status).Valid() {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	if in.From != nil && in.To != nil && in.From.After(*in.To) {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "from must be <= to")
	}

	list, total, err := u.orders.ListAdmin(ctx, repo.AdminOrderListFilter{
		Page:   in.Page,
		Limit:  in.Limit,
		Status: in.Status,
		UserID: in.UserID,
		From:   in.From,
		To:     in.To,
	})
	if err != nil {
		return OrderListOutput{}, dbError(err)
	}
	return OrderListOutput{Items: list, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

func (u *AdminOrderUsecase) Get(ctx context.Context, orderID int64) (OrderDetail, error) {
	o, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		return OrderDetail{}, notFoundOr(err, "order not found")
	}
	items, err := u.items.ListByOrderID(ctx, orderID)
	if err != nil {
		return OrderDetail{}, dbError(err)
	}
	return OrderDetail{Order: o, Items: items}, nil
}

// 状態遷移のチェック。canceledは在庫を戻す
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorID, orderID int64, in OrderStatusInput) (model.Order, error) {
	next := model.OrderStatus(in.Status)
	if !next.Valid() {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var (
		out     model.Order
		from    model.OrderStatus
		changed bool
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().LockByID(ctx, orderID)
		if err != nil {
			return notFoundOr(err, "order not found")
		}
		from, out, changed = o.Status, o, false
		if o.Status == next {
			return nil
		}
		if !o.Status.CanTransitionTo(next) {
			return NewHTTPError(http.StatusConflict, fmt.Sprintf("cannot change status from %s to %s", o.Status, next))
		}

		if err := r.Orders().UpdateStatus(ctx, o.ID, next); err != nil {
			return dbError(err)
		}
		if next == model.OrderStatusCanceled {
			if err := restockOrder(ctx, r, actorID, o.ID); err != nil {
				return err
			}
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   o.ID,
			BeforeJSON:   fmt.Sprintf(`{"order_status":%q}`, o.Status),
			AfterJSON:    fmt.Sprintf(`{"order_status":%q}`, next),
		}); err != nil {
			return dbError(err)
		}

		o.Status = next
		out, changed = o, true
		return nil
	})
	if err != nil {
		return model.Order{}, txError(err)
	}

	if changed {
		zerolog.Ctx(ctx).Info().
			Int64("order_id", orderID).
			Str("from", string(from)).
			Str("to", string(next)).
			Msg("order status changed")
		publish(ctx, u.events, EventOrderStatusChanged, StatusChangedEvent{
			ID: orderID, OrderID: orderID, From: string(from), To: string(next),
		})
	}
	return out, nil
}

// キャンセルした注文の明細分を在庫に戻す（台帳にも残す）
func restockOrder(ctx context.Context, r repo.TxRepos, actorID, orderID int64) error {
	items, err := r.OrderItems().ListByOrderID(ctx, orderID)
	if err != nil {
		return dbError(err)
	}
	oid := orderID
	for _, it := range items {
		if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
			return notFoundOr(err, CodeProductNotFound)
		}
		//論理削除された商品は履歴だけ残さない
		stock, err := r.Inventory().GetStock(ctx, it.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return dbError(err)
		}
		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   it.ProductID,
			ActorUserID: actorID,
			OrderID:     &oid,
			Delta:       it.Quantity,
			StockAfter:  stock,
			Reason:      "order canceled",
		}); err != nil {
			return dbError(err)
		}
	}
	return nil
}

// ===== payments =====

func (u *AdminOrderUsecase) GetPayment(ctx context.Context, paymentID int64) (PaymentDetail, error) {
	p, err := u.payments.FindByID(ctx, paymentID)
	if err != nil {
		return PaymentDetail{}, notFoundOr(err, "payment not found")
	}
	o, err := u.orders.FindByID(ctx, p.OrderID)
	if err != nil {
		return PaymentDetail{}, notFoundOr(err, "order not found")
	}
	return PaymentDetail{Payment: p, Order: o}, nil
}

// completedで注文側もpaidにする
func (u *AdminOrderUsecase) UpdatePaymentStatus(ctx context.Context, actorID, paymentID int64, in PaymentStatusInput) (model.Payment, error) {
	next := model.PaymentStatus(in.Status)
	if !next.Valid() {
		return model.Payment{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var (
		out     model.Payment
		from    model.PaymentStatus
		changed bool
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Payments().FindByID(ctx, paymentID)
		if err != nil {
			return notFoundOr(err, "payment not found")
		}
		o, err := r.Orders().LockByID(ctx, p.OrderID)
		if err != nil {
			return notFoundOr(err, "order not found")
		}
		from, out, changed = p.Status, p, false
		if p.Status == next {
			return nil
		}
		if o.Status == model.OrderStatusCanceled && next == model.PaymentStatusCompleted {
			return NewHTTPError(http.StatusConflict, "order is canceled")
		}

		if err := r.Payments().UpdateStatus(ctx, p.ID, next); err != nil {
			return dbError(err)
		}
		if err := r.Orders().UpdatePaymentStatus(ctx, o.ID, next.OrderPaymentStatus()); err != nil {
			return dbError(err)
		}
		if next == model.PaymentStatusCompleted && o.Status == model.OrderStatusPendingPayment {
			if err := r.Orders().UpdateStatus(ctx, o.ID, model.OrderStatusPaid); err != nil {
				return dbError(err)
			}
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorID,
			Action:       model.AuditActionUpdatePaymentStatus,
			ResourceType: model.AuditResourcePayment,
			ResourceID:   p.ID,
			BeforeJSON:   fmt.Sprintf(`{"status":%q}`, p.Status),
			AfterJSON:    fmt.Sprintf(`{"status":%q}`, next),
		}); err != nil {
			return dbError(err)
		}

		p.Status = next
		out, changed = p, true
		return nil
	})
	if err != nil {
		return model.Payment{}, txError(err)
	}

	if changed {
		publish(ctx, u.events, EventPaymentStatusChanged, StatusChangedEvent{
			ID: out.ID, OrderID: out.OrderID, From: string(from), To: string(next),
		})
	}
	return out, nil
}
