package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// カート操作はすべてカート行をロックしてから行う（同じカートへの変更は直列になる）
type CartUsecase struct {
	tx    repo.TransactionManager
	carts repo.CartRepository
	items repo.CartItemRepository
	now   func() time.Time
}

func NewCartUsecase(tx repo.TransactionManager, carts repo.CartRepository, items repo.CartItemRepository) *CartUsecase {
	return &CartUsecase{tx: tx, carts: carts, items: items, now: time.Now}
}

// 一覧・更新で返す明細
type CartItemView struct {
	ID        int64 `json:"id"`
	CartID    int64 `json:"cart_id"`
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
}

// 追加（POST）の201はフロントが読む旧来の形
type AddedCartItem struct {
	ID        int64 `json:"id"`
	CartID    int64 `json:"cart_id"`
	ProductID int64 `json:"product"`
	Quantity  int64 `json:"quantity"`
	UnitPrice int64 `json:"price"`
}

type CartView struct {
	Cart   model.Cart       `json:"cart"`
	Items  []CartItemView   `json:"items"`
	Totals model.CartTotals `json:"totals"`
}

type AddCartItemInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
	//画面に表示していた単価。サーバー側の価格と違えば409
	UnitPrice *int64 `json:"unit_price"`
}

// 呼び出し元（admin は他人のカートも読める）
type CartActor struct {
	UserID int64
	Admin  bool
}

func toCartItemView(i model.CartItem) CartItemView {
	return CartItemView{
		ID:        i.ID,
		CartID:    i.CartID,
		ProductID: i.ProductID,
		Quantity:  i.Quantity,
		UnitPrice: i.UnitPrice,
	}
}

// 自分のACTIVEカート（無ければ作る）
func (u *CartUsecase) Mine(ctx context.Context, userID int64) (CartView, error) {
	cart, err := u.GetOrCreate(ctx, userID)
	if err != nil {
		return CartView{}, err
	}
	return u.view(ctx, cart)
}

func (u *CartUsecase) GetOrCreate(ctx context.Context, userID int64) (model.Cart, error) {
	if userID <= 0 {
		return model.Cart{}, ErrUnauthorized
	}
	cart, err := u.carts.GetOrCreateActiveByUserID(ctx, userID)
	if err != nil {
		return model.Cart{}, dbError(err)
	}
	return cart, nil
}

func (u *CartUsecase) Get(ctx context.Context, actor CartActor, cartID int64) (CartView, error) {
	cart, err := u.readable(ctx, actor, cartID)
	if err != nil {
		return CartView{}, err
	}
	return u.view(ctx, cart)
}

func (u *CartUsecase) ListItems(ctx context.Context, actor CartActor, cartID int64) ([]CartItemView, error) {
	if _, err := u.readable(ctx, actor, cartID); err != nil {
		return nil, err
	}
	items, err := u.items.ListByCartID(ctx, cartID)
	if err != nil {
		return nil, dbError(err)
	}
	out := make([]CartItemView, 0, len(items))
	for _, i := range items {
		out = append(out, toCartItemView(i))
	}
	return out, nil
}

func (u *CartUsecase) Totals(ctx context.Context, actor CartActor, cartID int64) (model.CartTotals, error) {
	if _, err := u.readable(ctx, actor, cartID); err != nil {
		return model.CartTotals{}, err
	}
	t, err := u.items.Totals(ctx, cartID)
	if err != nil {
		return model.CartTotals{}, dbError(err)
	}
	return t, nil
}

// 同じ商品なら数量を加算。単価はサーバー側で決める
func (u *CartUsecase) AddItem(ctx context.Context, userID, cartID int64, in AddCartItemInput) (AddedCartItem, error) {
	if in.ProductID <= 0 {
		return AddedCartItem{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity <= 0 {
		return AddedCartItem{}, NewHTTPError(http.StatusBadRequest, "quantity must be > 0")
	}

	var out model.CartItem
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := lockOwnedCart(ctx, r, userID, cartID); err != nil {
			return err
		}

		p, err := r.Products().FindByID(ctx, in.ProductID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return productNotFound(in.ProductID)
			}
			return dbError(err)
		}
		if !p.IsActive {
			return productNotFound(in.ProductID)
		}

		now := u.now().UTC()
		promos, err := r.Promotions().ListActiveByProductID(ctx, p.ID, now)
		if err != nil {
			return dbError(err)
		}
		price := model.EffectivePrice(p.Price, promos, now)
		if in.UnitPrice != nil && *in.UnitPrice != price {
			return NewHTTPError(http.StatusConflict, "price changed")
		}

		var current int64
		existing, err := r.CartItems().FindByCartAndProduct(ctx, cartID, p.ID)
		if err == nil {
			current = existing.Quantity
		} else if !errors.Is(err, repo.ErrNotFound) {
			return dbError(err)
		}
		if current+in.Quantity > p.Stock {
			return NewHTTPError(http.StatusBadRequest, "stock exceeded")
		}

		item, err := r.CartItems().UpsertByCartAndProduct(ctx, cartID, p.ID, in.Quantity, price)
		if err != nil {
			return dbError(err)
		}
		out = item
		return nil
	})
	if err != nil {
		return AddedCartItem{}, txError(err)
	}
	return AddedCartItem{
		ID:        out.ID,
		CartID:    out.CartID,
		ProductID: out.ProductID,
		Quantity:  out.Quantity,
		UnitPrice: out.UnitPrice,
	}, nil
}

// quantity<=0なら明細を削除（戻り値はnil）
func (u *CartUsecase) UpdateQuantity(ctx context.Context, userID, cartID, productID, quantity int64) (*CartItemView, error) {
	if productID <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if quantity <= 0 {
		return nil, u.RemoveItem(ctx, userID, cartID, productID)
	}

	var out model.CartItem
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := lockOwnedCart(ctx, r, userID, cartID); err != nil {
			return err
		}

		item, err := r.CartItems().FindByCartAndProduct(ctx, cartID, productID)
		if err != nil {
			return notFoundOr(err, "cart item not found")
		}

		stock, err := r.Inventory().GetStock(ctx, productID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return productNotFound(productID)
			}
			return dbError(err)
		}
		if quantity > stock {
			return NewHTTPError(http.StatusBadRequest, "stock exceeded")
		}

		if err := r.CartItems().SetQuantity(ctx, cartID, productID, quantity); err != nil {
			return notFoundOr(err, "cart item not found")
		}
		item.Quantity = quantity
		out = item
		return nil
	})
	if err != nil {
		return nil, txError(err)
	}
	v := toCartItemView(out)
	return &v, nil
}

func (u *CartUsecase) RemoveItem(ctx context.Context, userID, cartID, productID int64) error {
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := lockOwnedCart(ctx, r, userID, cartID); err != nil {
			return err
		}
		if err := r.CartItems().DeleteByCartAndProduct(ctx, cartID, productID); err != nil {
			return notFoundOr(err, "cart item not found")
		}
		return nil
	})
	return txError(err)
}

func (u *CartUsecase) Clear(ctx context.Context, userID, cartID int64) error {
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := lockOwnedCart(ctx, r, userID, cartID); err != nil {
			return err
		}
		if err := r.Carts().Clear(ctx, cartID); err != nil {
			return dbError(err)
		}
		return nil
	})
	return txError(err)
}

func (u *CartUsecase) readable(ctx context.Context, actor CartActor, cartID int64) (model.Cart, error) {
	if cartID <= 0 {
		return model.Cart{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	cart, err := u.carts.FindByID(ctx, cartID)
	if err != nil {
		return model.Cart{}, notFoundOr(err, "cart not found")
	}
	if cart.UserID != actor.UserID && !actor.Admin {
		return model.Cart{}, NewHTTPError(http.StatusNotFound, "cart not found")
	}
	return cart, nil
}

func (u *CartUsecase) view(ctx context.Context, cart model.Cart) (CartView, error) {
	items, err := u.items.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartView{}, dbError(err)
	}
	totals, err := u.items.Totals(ctx, cart.ID)
	if err != nil {
		return CartView{}, dbError(err)
	}

	out := CartView{Cart: cart, Items: make([]CartItemView, 0, len(items)), Totals: totals}
	for _, i := range items {
		out.Items = append(out.Items, toCartItemView(i))
	}
	return out, nil
}

// Tx内でカートをロックし、持ち主を確認する。他人のカートは404
func lockOwnedCart(ctx context.Context, r repo.TxRepos, userID, cartID int64) (model.Cart, error) {
	if cartID <= 0 {
		return model.Cart{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	cart, err := r.Carts().LockByID(ctx, cartID)
	if err != nil {
		return model.Cart{}, notFoundOr(err, "cart not found")
	}
	if cart.UserID != userID {
		return model.Cart{}, NewHTTPError(http.StatusNotFound, "cart not found")
	}
	if cart.Status != model.CartStatusActive {
		return model.Cart{}, NewHTTPError(http.StatusConflict, "cart is not active")
	}
	return cart, nil
}
