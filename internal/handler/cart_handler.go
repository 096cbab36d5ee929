package handler

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type UpdateCartItemRequest struct {
	Quantity *int64 `json:"quantity"`
}

type cartCountResponse struct {
	CartID int64 `json:"cart_id"`
	Lines  int64 `json:"lines"`
	Count  int64 `json:"count"`
	Total  int64 `json:"total"`
}

// /cart, /cart/:id を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/cart", authMiddlewares(cfg, userRepo)...)

	g.GET("", h.getMine)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.GET("/:id/items", h.listItems)
	g.POST("/:id/items", h.addItem)
	g.GET("/:id/items/count", h.count)
	g.PUT("/:id/items/:product_id", h.updateItem)
	g.DELETE("/:id/items/:product_id", h.deleteItem)
	g.DELETE("/:id/items", h.clear)
}

func cartActor(c echo.Context) (usecase.CartActor, bool) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return usecase.CartActor{}, false
	}
	return usecase.CartActor{UserID: userID, Admin: isAdmin(c)}, true
}

func (h *CartHandler) getMine(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	out, err := h.uc.Mine(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// ACTIVEカートの取得または作成
func (h *CartHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	cart, err := h.uc.GetOrCreate(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, cart)
}

func (h *CartHandler) get(c echo.Context) error {
	actor, ok := cartActor(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	out, err := h.uc.Get(c.Request().Context(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) listItems(c echo.Context) error {
	actor, ok := cartActor(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	out, err := h.uc.ListItems(c.Request().Context(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) count(c echo.Context) error {
	actor, ok := cartActor(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	t, err := h.uc.Totals(c.Request().Context(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cartCountResponse{CartID: id, Lines: t.Lines, Count: t.Quantity, Total: t.Amount})
}

func (h *CartHandler) addItem(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req usecase.AddCartItemInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	out, err := h.uc.AddItem(c.Request().Context(), userID, id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *CartHandler) updateItem(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok1 := paramID(c, "id")
	productID, ok2 := paramID(c, "product_id")
	if !ok1 || !ok2 {
		return invalidID(c)
	}
	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil || req.Quantity == nil {
		return invalidBody(c)
	}

	out, err := h.uc.UpdateQuantity(c.Request().Context(), userID, id, productID, *req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	//0以下は削除
	if out == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok1 := paramID(c, "id")
	productID, ok2 := paramID(c, "product_id")
	if !ok1 || !ok2 {
		return invalidID(c)
	}
	if err := h.uc.RemoveItem(c.Request().Context(), userID, id, productID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHandler) clear(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	if err := h.uc.Clear(c.Request().Context(), userID, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
