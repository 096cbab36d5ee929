package handler

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin/promotions
type PromotionHandler struct {
	uc *usecase.PromotionUsecase
}

func NewPromotionHandler(uc *usecase.PromotionUsecase) *PromotionHandler {
	return &PromotionHandler{uc: uc}
}

func (h *PromotionHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := e.Group("/admin", adminMiddlewares(cfg, userRepo)...)

	admin.GET("/promotions", h.list)
	admin.POST("/promotions", h.create)
	admin.GET("/promotions/:id", h.get)
	admin.PUT("/promotions/:id", h.update)
	admin.DELETE("/promotions/:id", h.delete)
	admin.POST("/products/:id/promotions/:promotion_id", h.assign)
	admin.DELETE("/products/:id/promotions/:promotion_id", h.unassign)
}

func (h *PromotionHandler) list(c echo.Context) error {
	list, err := h.uc.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *PromotionHandler) get(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	p, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PromotionHandler) create(c echo.Context) error {
	var req usecase.PromotionInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	p, err := h.uc.Create(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *PromotionHandler) update(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req usecase.PromotionInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	p, err := h.uc.Update(c.Request().Context(), id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PromotionHandler) delete(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	if err := h.uc.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PromotionHandler) assign(c echo.Context) error {
	productID, ok1 := paramID(c, "id")
	id, ok2 := paramID(c, "promotion_id")
	if !ok1 || !ok2 {
		return invalidID(c)
	}
	if err := h.uc.Assign(c.Request().Context(), productID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "assigned"})
}

func (h *PromotionHandler) unassign(c echo.Context) error {
	productID, ok1 := paramID(c, "id")
	id, ok2 := paramID(c, "promotion_id")
	if !ok1 || !ok2 {
		return invalidID(c)
	}
	if err := h.uc.Unassign(c.Request().Context(), productID, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
