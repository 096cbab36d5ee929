package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type OrderUsecase struct {
	tx        repo.TransactionManager
	orders    repo.OrderRepository
	items     repo.OrderItemRepository
	payments  repo.PaymentRepository
	shipments repo.ShipmentRepository
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	items repo.OrderItemRepository,
	payments repo.PaymentRepository,
	shipments repo.ShipmentRepository,
) *OrderUsecase {
	return &OrderUsecase{
		tx:        tx,
		orders:    orders,
		items:     items,
		payments:  payments,
		shipments: shipments,
	}
}

type OrderDetail struct {
	Order model.Order       `json:"order"`
	Items []model.OrderItem `json:"items"`
}

type OrderListOutput struct {
	Items []model.Order `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type PaymentMethodInput struct {
	PaymentMethod string `json:"payment_method"`
}

func (u *OrderUsecase) ListMine(ctx context.Context, userID int64, page, limit int) (OrderListOutput, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "limit must be <= 100")
	}

	list, total, err := u.orders.ListByUserID(ctx, userID, page, limit)
	if err != nil {
		return OrderListOutput{}, dbError(err)
	}
	return OrderListOutput{Items: list, Total: total, Page: page, Limit: limit}, nil
}

func (u *OrderUsecase) Get(ctx context.Context, userID, orderID int64) (OrderDetail, error) {
	o, err := u.owned(ctx, userID, orderID)
	if err != nil {
		return OrderDetail{}, err
	}
	items, err := u.items.ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderDetail{}, dbError(err)
	}
	return OrderDetail{Order: o, Items: items}, nil
}

func (u *OrderUsecase) Items(ctx context.Context, userID, orderID int64) ([]model.OrderItem, error) {
	d, err := u.Get(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	return d.Items, nil
}

func (u *OrderUsecase) Payment(ctx context.Context, userID, orderID int64) (model.Payment, error) {
	if _, err := u.owned(ctx, userID, orderID); err != nil {
		return model.Payment{}, err
	}
	p, err := u.payments.FindByOrderID(ctx, orderID)
	if err != nil {
		return model.Payment{}, notFoundOr(err, "payment not found")
	}
	return p, nil
}

func (u *OrderUsecase) Shipment(ctx context.Context, userID, orderID int64) (model.Shipment, error) {
	if _, err := u.owned(ctx, userID, orderID); err != nil {
		return model.Shipment{}, err
	}
	s, err := u.shipments.FindByOrderID(ctx, orderID)
	if err != nil {
		return model.Shipment{}, notFoundOr(err, "shipment not found")
	}
	return s, nil
}

// 支払い方法の変更は支払い前のみ
func (u *OrderUsecase) ChangePaymentMethod(ctx context.Context, userID, orderID int64, in PaymentMethodInput) (model.Payment, error) {
	method := model.PaymentMethod(strings.TrimSpace(in.PaymentMethod))
	if !method.Valid() {
		return model.Payment{}, NewHTTPError(http.StatusBadRequest, "invalid payment_method")
	}

	var out model.Payment
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().LockByID(ctx, orderID)
		if err != nil {
			return notFoundOr(err, "order not found")
		}
		if o.UserID != userID {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if o.Status != model.OrderStatusPendingPayment {
			return NewHTTPError(http.StatusConflict, "order is not awaiting payment")
		}

		p, err := r.Payments().FindByOrderID(ctx, orderID)
		if err != nil {
			return notFoundOr(err, "payment not found")
		}
		if p.Status != model.PaymentStatusPending {
			return NewHTTPError(http.StatusConflict, "payment is not pending")
		}
		if err := r.Payments().UpdateMethod(ctx, p.ID, method); err != nil {
			return dbError(err)
		}
		p.Method = method
		out = p
		return nil
	})
	if err != nil {
		return model.Payment{}, txError(err)
	}
	return out, nil
}

// 他人の注文は404
func (u *OrderUsecase) owned(ctx context.Context, userID, orderID int64) (model.Order, error) {
	if orderID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && o.UserID != userID) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return model.Order{}, dbError(err)
	}
	return o, nil
}
