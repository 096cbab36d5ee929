package handler

import (
	"context"
	"net/http"

	"storefront/internal/config"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin/products と /admin/inventory をまとめる
type AdminProductHandler struct {
	uc        *usecase.ProductUsecase
	inventory *usecase.InventoryUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase, inventory *usecase.InventoryUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc, inventory: inventory}
}

func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := e.Group("/admin", adminMiddlewares(cfg, userRepo)...)

	admin.GET("/products/:id", h.getProduct)
	admin.POST("/products", h.createProduct)
	admin.PUT("/products/:id", h.updateProduct)
	admin.DELETE("/products/:id", h.deleteProduct)

	admin.POST("/products/:id/images", h.addImage)
	admin.PUT("/products/:id/images/:image_id/primary", h.setPrimaryImage)
	admin.DELETE("/products/:id/images/:image_id", h.deleteImage)

	admin.PUT("/inventory/:product_id", h.updateInventory)
	admin.POST("/inventory/:product_id/decrement", h.decrement)
	admin.POST("/inventory/:product_id/restock", h.restock)
	admin.GET("/inventory/:product_id/adjustments", h.adjustments)
}

func (h *AdminProductHandler) getProduct(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	p, err := h.uc.AdminGet(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *AdminProductHandler) createProduct(c echo.Context) error {
	var req usecase.ProductInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	p, err := h.uc.AdminCreate(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *AdminProductHandler) updateProduct(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req usecase.ProductInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	p, err := h.uc.AdminUpdate(c.Request().Context(), id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *AdminProductHandler) deleteProduct(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	if err := h.uc.AdminDelete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *AdminProductHandler) addImage(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req usecase.ProductImageInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	img, err := h.uc.AddImage(c.Request().Context(), id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, img)
}

func (h *AdminProductHandler) setPrimaryImage(c echo.Context) error {
	id, ok1 := paramID(c, "id")
	imageID, ok2 := paramID(c, "image_id")
	if !ok1 || !ok2 {
		return invalidID(c)
	}
	img, err := h.uc.SetPrimaryImage(c.Request().Context(), id, imageID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, img)
}

func (h *AdminProductHandler) deleteImage(c echo.Context) error {
	id, ok1 := paramID(c, "id")
	imageID, ok2 := paramID(c, "image_id")
	if !ok1 || !ok2 {
		return invalidID(c)
	}
	if err := h.uc.DeleteImage(c.Request().Context(), id, imageID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminProductHandler) updateInventory(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	productID, ok := paramID(c, "product_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product_id"})
	}
	var req usecase.SetStockInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	out, err := h.inventory.AdminSetStock(c.Request().Context(), adminID, productID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminProductHandler) decrement(c echo.Context) error {
	return h.adjust(c, h.inventory.AdminDecrement)
}

func (h *AdminProductHandler) restock(c echo.Context) error {
	return h.adjust(c, h.inventory.AdminRestock)
}

type adjustFunc func(ctx context.Context, actorID, productID int64, in usecase.AdjustStockInput) (usecase.StockOutput, error)

func (h *AdminProductHandler) adjust(c echo.Context, fn adjustFunc) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	productID, ok := paramID(c, "product_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product_id"})
	}
	var req usecase.AdjustStockInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	out, err := fn(c.Request().Context(), adminID, productID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminProductHandler) adjustments(c echo.Context) error {
	productID, ok := paramID(c, "product_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product_id"})
	}
	limit, ok := queryInt(c, "limit", 50)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}
	list, err := h.inventory.ListAdjustments(c.Request().Context(), productID, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}
