package usecase

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/rs/zerolog"
)

const maxIdempotencyKeyLen = 255

// 同じキーの注文が先にコミットされた（一意制約違反）
var errIdempotentRace = errors.New("idempotency key race")

// カート→注文の確定。在庫減算・注文作成・支払い作成・カート削除を1つのTxで行う
type CheckoutUsecase struct {
	tx     repo.TransactionManager
	carts  repo.CartRepository
	events EventPublisher
}

func NewCheckoutUsecase(
	tx repo.TransactionManager,
	carts repo.CartRepository,
	events EventPublisher,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		tx:     tx,
		carts:  carts,
		events: events,
	}
}

type CheckoutInput struct {
	//アクセストークンのユーザー
	UserID int64 `json:"-"`
	//bodyで来た場合はトークンと一致すること
	BodyUserID     *int64 `json:"user_id"`
	CartID         int64  `json:"cart_id"`
	AddressID      int64  `json:"address_id"`
	IdempotencyKey string `json:"idempotency_key"`
	PaymentMethod  string `json:"payment_method"`
}

type CheckoutOutput struct {
	OrderID     int64 `json:"order_id"`
	TotalAmount int64 `json:"total_amount"`
	Replayed    bool  `json:"replayed"`
}

func (u *CheckoutUsecase) validate(in *CheckoutInput) (model.PaymentMethod, error) {
	if in.UserID <= 0 {
		return "", ErrUnauthorized
	}
	if in.BodyUserID != nil && *in.BodyUserID != in.UserID {
		return "", NewHTTPError(http.StatusForbidden, "user_id does not match token")
	}

	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)
	if in.IdempotencyKey == "" {
		return "", NewHTTPError(http.StatusBadRequest, "idempotency_key is required")
	}
	if len(in.IdempotencyKey) > maxIdempotencyKeyLen {
		return "", NewHTTPError(http.StatusBadRequest, "idempotency_key is too long")
	}
	if in.CartID <= 0 {
		return "", NewHTTPError(http.StatusBadRequest, "cart_id is required")
	}
	if in.AddressID <= 0 {
		return "", NewHTTPError(http.StatusBadRequest, "address_id is required")
	}

	method := model.PaymentMethod(strings.TrimSpace(in.PaymentMethod))
	if method == "" {
		method = model.PaymentMethodCashOnDelivery
	}
	if !method.Valid() {
		return "", NewHTTPError(http.StatusBadRequest, "invalid payment_method")
	}
	return method, nil
}

// 同じキーでも別のカート/配送先なら別の注文とみなす
func sameCheckout(prev model.Order, in CheckoutInput) bool {
	return prev.CartID == in.CartID && prev.AddressID == in.AddressID
}

// 配送先は自分の住所のみ
func checkAddress(ctx context.Context, addresses repo.AddressRepository, in CheckoutInput) error {
	addr, err := addresses.FindByID(ctx, in.AddressID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && addr.UserID != in.UserID) {
		return NewHTTPError(http.StatusBadRequest, "address not found")
	}
	if err != nil {
		return dbError(err)
	}
	return nil
}

// 自分のACTIVEカートでチェックアウト（POST /orders）
func (u *CheckoutUsecase) CheckoutActiveCart(ctx context.Context, in CheckoutInput) (CheckoutOutput, error) {
	if in.UserID <= 0 {
		return CheckoutOutput{}, ErrUnauthorized
	}
	cart, err := u.carts.FindActiveByUserID(ctx, in.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return CheckoutOutput{}, NewHTTPError(http.StatusNotFound, CodeCartEmpty)
	}
	if err != nil {
		return CheckoutOutput{}, dbError(err)
	}
	in.CartID = cart.ID
	return u.Checkout(ctx, in)
}

func (u *CheckoutUsecase) Checkout(ctx context.Context, in CheckoutInput) (CheckoutOutput, error) {
	method, err := u.validate(&in)
	if err != nil {
		return CheckoutOutput{}, err
	}

	log := zerolog.Ctx(ctx).With().
		Int64("user_id", in.UserID).
		Int64("cart_id", in.CartID).
		Str("idempotency_key", in.IdempotencyKey).
		Logger()

	var (
		out   CheckoutOutput
		event *OrderPlacedEvent
	)
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		out, event = CheckoutOutput{}, nil

		//同じカートへの再送はここで直列になる
		cart, err := r.Carts().LockByID(ctx, in.CartID)
		if err != nil {
			return notFoundOr(err, "cart not found")
		}
		if cart.UserID != in.UserID {
			return NewHTTPError(http.StatusNotFound, "cart not found")
		}

		//同じキーなら前回の結果を返す（在庫は触らない）
		prev, found, err := r.Orders().FindByIdempotencyKey(ctx, in.UserID, in.IdempotencyKey)
		if err != nil {
			return dbError(err)
		}
		if found {
			if !sameCheckout(prev, in) {
				return NewHTTPError(http.StatusConflict, CodeIdempotencyConflict)
			}
			out = CheckoutOutput{OrderID: prev.ID, TotalAmount: prev.TotalAmount, Replayed: true}
			return nil
		}

		lines, err := r.CartItems().ListByCartID(ctx, in.CartID)
		if err != nil {
			return dbError(err)
		}
		if len(lines) == 0 {
			return NewHTTPError(http.StatusNotFound, CodeCartEmpty)
		}

		//デッドロック回避のためID昇順でロック
		ids := make([]int64, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.ProductID)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		locked, err := r.Products().LockByIDs(ctx, ids)
		if err != nil {
			return dbError(err)
		}
		products := make(map[int64]model.Product, len(locked))
		for _, p := range locked {
			products[p.ID] = p
		}

		var total int64
		items := make([]model.OrderItem, 0, len(lines))
		for _, l := range lines {
			p, ok := products[l.ProductID]
			if !ok || !p.IsActive {
				return productNotFound(l.ProductID)
			}
			if p.Stock < l.Quantity {
				return insufficientStock(l.ProductID)
			}
			total += l.Quantity * l.UnitPrice
			items = append(items, model.OrderItem{
				ProductID:           l.ProductID,
				ProductNameSnapshot: p.Name,
				Quantity:            l.Quantity,
				UnitPrice:           l.UnitPrice,
			})
		}

		//再送では削除済みの住所でも通す。新規注文のときだけ確認する
		if err := checkAddress(ctx, r.Addresses(), in); err != nil {
			return err
		}

		order := &model.Order{
			UserID:         in.UserID,
			CartID:         in.CartID,
			AddressID:      in.AddressID,
			TotalAmount:    total,
			Status:         model.OrderStatusPendingPayment,
			PaymentStatus:  model.OrderPaymentPending,
			IdempotencyKey: in.IdempotencyKey,
		}
		if err := r.Orders().Create(ctx, order); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return errIdempotentRace
			}
			return dbError(err)
		}

		if err := r.OrderItems().CreateBulk(ctx, order.ID, items); err != nil {
			return dbError(err)
		}

		for _, l := range lines {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, l.ProductID, l.Quantity)
			if err != nil {
				return dbError(err)
			}
			if !ok {
				return insufficientStock(l.ProductID)
			}
		}

		if err := r.Payments().Create(ctx, &model.Payment{
			OrderID: order.ID,
			Method:  method,
			Status:  model.PaymentStatusPending,
			Amount:  total,
		}); err != nil {
			return dbError(err)
		}

		if err := r.Carts().Clear(ctx, in.CartID); err != nil {
			return dbError(err)
		}

		out = CheckoutOutput{OrderID: order.ID, TotalAmount: total}
		event = &OrderPlacedEvent{
			OrderID:     order.ID,
			UserID:      in.UserID,
			CartID:      in.CartID,
			TotalAmount: total,
			Items:       len(items),
		}
		return nil
	})

	if errors.Is(err, errIdempotentRace) {
		return u.replay(ctx, in)
	}
	if err != nil {
		err = txError(err)
		if he, ok := AsHTTPError(err); ok && he.Status >= http.StatusInternalServerError {
			log.Error().Err(err).Msg("checkout failed")
		} else {
			log.Info().Err(err).Msg("checkout rejected")
		}
		return CheckoutOutput{}, err
	}

	if event != nil {
		publish(ctx, u.events, EventOrderPlaced, *event)
	}
	log.Info().
		Int64("order_id", out.OrderID).
		Int64("total_amount", out.TotalAmount).
		Bool("replayed", out.Replayed).
		Msg("checkout completed")
	return out, nil
}

// 競合に負けた側。勝った側の注文を読み直して返す
func (u *CheckoutUsecase) replay(ctx context.Context, in CheckoutInput) (CheckoutOutput, error) {
	var out CheckoutOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		prev, found, err := r.Orders().FindByIdempotencyKey(ctx, in.UserID, in.IdempotencyKey)
		if err != nil {
			return dbError(err)
		}
		if !found || !sameCheckout(prev, in) {
			return NewHTTPError(http.StatusConflict, CodeIdempotencyConflict)
		}
		out = CheckoutOutput{OrderID: prev.ID, TotalAmount: prev.TotalAmount, Replayed: true}
		return nil
	})
	if err != nil {
		return CheckoutOutput{}, txError(err)
	}

	zerolog.Ctx(ctx).Info().
		Int64("order_id", out.OrderID).
		Str("idempotency_key", in.IdempotencyKey).
		Msg("checkout replayed after race")
	return out, nil
}
