package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/rs/zerolog"
)

// 在庫台帳。増減はすべて条件付きUPDATEで行い、マイナスにしない
type InventoryUsecase struct {
	tx        repo.TransactionManager
	inventory repo.InventoryRepository
	events    EventPublisher
}

func NewInventoryUsecase(tx repo.TransactionManager, inventory repo.InventoryRepository, events EventPublisher) *InventoryUsecase {
	return &InventoryUsecase{tx: tx, inventory: inventory, events: events}
}

type StockOutput struct {
	ProductID int64 `json:"product_id"`
	Stock     int64 `json:"stock"`
}

type SetStockInput struct {
	Stock  int64  `json:"stock"`
	Reason string `json:"reason"`
}

type AdjustStockInput struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

func (u *InventoryUsecase) GetStock(ctx context.Context, productID int64) (StockOutput, error) {
	if productID <= 0 {
		return StockOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	stock, err := u.inventory.GetStock(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return StockOutput{}, productNotFound(productID)
	}
	if err != nil {
		return StockOutput{}, dbError(err)
	}
	return StockOutput{ProductID: productID, Stock: stock}, nil
}

// 管理者による在庫の上書き。台帳の履歴と監査ログを同じTxで残す
func (u *InventoryUsecase) AdminSetStock(ctx context.Context, actorID, productID int64, in SetStockInput) (StockOutput, error) {
	if in.Stock < 0 {
		return StockOutput{}, NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	reason := normalizeReason(in.Reason, "admin set")

	var before int64
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		locked, err := r.Products().LockByIDs(ctx, []int64{productID})
		if err != nil {
			return dbError(err)
		}
		if len(locked) == 0 {
			return productNotFound(productID)
		}
		before = locked[0].Stock

		if err := r.Inventory().SetStock(ctx, productID, in.Stock); err != nil {
			return notFoundOr(err, CodeProductNotFound)
		}
		return u.record(ctx, r, actorID, productID, in.Stock-before, in.Stock, reason, before)
	})
	if err != nil {
		return StockOutput{}, txError(err)
	}

	u.published(ctx, productID, in.Stock-before, in.Stock, reason)
	return StockOutput{ProductID: productID, Stock: in.Stock}, nil
}

// 足りなければInsufficientStock
func (u *InventoryUsecase) AdminDecrement(ctx context.Context, actorID, productID int64, in AdjustStockInput) (StockOutput, error) {
	if in.Amount <= 0 {
		return StockOutput{}, NewHTTPError(http.StatusBadRequest, "amount must be > 0")
	}
	return u.adjust(ctx, actorID, productID, -in.Amount, normalizeReason(in.Reason, "admin decrement"))
}

func (u *InventoryUsecase) AdminRestock(ctx context.Context, actorID, productID int64, in AdjustStockInput) (StockOutput, error) {
	if in.Amount <= 0 {
		return StockOutput{}, NewHTTPError(http.StatusBadRequest, "amount must be > 0")
	}
	return u.adjust(ctx, actorID, productID, in.Amount, normalizeReason(in.Reason, "admin restock"))
}

func (u *InventoryUsecase) ListAdjustments(ctx context.Context, productID int64, limit int) ([]model.InventoryAdjustment, error) {
	list, err := u.inventory.ListAdjustments(ctx, productID, limit)
	if err != nil {
		return nil, dbError(err)
	}
	return list, nil
}

func (u *InventoryUsecase) adjust(ctx context.Context, actorID, productID, delta int64, reason string) (StockOutput, error) {
	var after int64
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if delta < 0 {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, productID, -delta)
			if err != nil {
				return dbError(err)
			}
			if !ok {
				//商品が無いのか在庫不足なのかを分ける
				if _, err := r.Inventory().GetStock(ctx, productID); err != nil {
					if errors.Is(err, repo.ErrNotFound) {
						return productNotFound(productID)
					}
					return dbError(err)
				}
				return insufficientStock(productID)
			}
		} else {
			if err := r.Inventory().IncreaseStock(ctx, productID, delta); err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return productNotFound(productID)
				}
				return dbError(err)
			}
		}

		stock, err := r.Inventory().GetStock(ctx, productID)
		if err != nil {
			return notFoundOr(err, CodeProductNotFound)
		}
		after = stock
		return u.record(ctx, r, actorID, productID, delta, after, reason, after-delta)
	})
	if err != nil {
		return StockOutput{}, txError(err)
	}

	u.published(ctx, productID, delta, after, reason)
	return StockOutput{ProductID: productID, Stock: after}, nil
}

func (u *InventoryUsecase) record(ctx context.Context, r repo.TxRepos, actorID, productID, delta, after int64, reason string, before int64) error {
	if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
		ProductID:   productID,
		ActorUserID: actorID,
		Delta:       delta,
		StockAfter:  after,
		Reason:      reason,
	}); err != nil {
		return dbError(err)
	}
	if err := r.AuditLogs().Create(ctx, model.AuditLog{
		ActorUserID:  actorID,
		Action:       model.AuditActionUpdateStock,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   productID,
		BeforeJSON:   fmt.Sprintf(`{"stock":%d}`, before),
		AfterJSON:    fmt.Sprintf(`{"stock":%d}`, after),
	}); err != nil {
		return dbError(err)
	}
	return nil
}

func (u *InventoryUsecase) published(ctx context.Context, productID, delta, after int64, reason string) {
	zerolog.Ctx(ctx).Info().
		Int64("product_id", productID).
		Int64("delta", delta).
		Int64("stock_after", after).
		Msg("stock adjusted")

	publish(ctx, u.events, EventStockAdjusted, StockAdjustedEvent{
		ProductID:  productID,
		Delta:      delta,
		StockAfter: after,
		Reason:     reason,
	})
}

// varchar(255)は文字数。不正なUTF-8はDBが弾くので落とす
const maxReasonLen = 255

func normalizeReason(s, fallback string) string {
	s = strings.TrimSpace(strings.ToValidUTF8(s, ""))
	if s == "" {
		return fallback
	}
	if utf8.RuneCountInString(s) > maxReasonLen {
		return string([]rune(s)[:maxReasonLen])
	}
	return s
}
