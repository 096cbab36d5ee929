package handler

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin/transporters, /admin/shipments
type ShipmentHandler struct {
	uc *usecase.ShipmentUsecase
}

func NewShipmentHandler(uc *usecase.ShipmentUsecase) *ShipmentHandler {
	return &ShipmentHandler{uc: uc}
}

func (h *ShipmentHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := e.Group("/admin", adminMiddlewares(cfg, userRepo)...)

	admin.GET("/transporters", h.listTransporters)
	admin.POST("/transporters", h.createTransporter)
	admin.GET("/transporters/:id", h.getTransporter)
	admin.PUT("/transporters/:id", h.updateTransporter)
	admin.DELETE("/transporters/:id", h.deleteTransporter)

	admin.GET("/shipments", h.list)
	admin.POST("/shipments", h.create)
	admin.GET("/shipments/:id", h.get)
	admin.PUT("/shipments/:id", h.update)
	admin.PUT("/shipments/:id/status", h.updateStatus)
	admin.DELETE("/shipments/:id", h.delete)
}

func (h *ShipmentHandler) listTransporters(c echo.Context) error {
	list, err := h.uc.ListTransporters(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *ShipmentHandler) createTransporter(c echo.Context) error {
	var req usecase.TransporterInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	t, err := h.uc.CreateTransporter(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *ShipmentHandler) getTransporter(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	t, err := h.uc.GetTransporter(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *ShipmentHandler) updateTransporter(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req usecase.TransporterInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	t, err := h.uc.UpdateTransporter(c.Request().Context(), id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *ShipmentHandler) deleteTransporter(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	if err := h.uc.DeleteTransporter(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ShipmentHandler) list(c echo.Context) error {
	page, ok1 := queryInt(c, "page", 1)
	limit, ok2 := queryInt(c, "limit", 20)
	transporterID, ok3 := queryInt64Ptr(c, "transporter_id")
	if !ok1 || !ok2 || !ok3 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query"})
	}
	out, err := h.uc.List(c.Request().Context(), usecase.ShipmentListInput{
		Page:          page,
		Limit:         limit,
		Status:        c.QueryParam("status"),
		TransporterID: transporterID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ShipmentHandler) create(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	var req usecase.ShipmentInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	s, err := h.uc.Create(c.Request().Context(), adminID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *ShipmentHandler) get(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	s, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *ShipmentHandler) update(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req usecase.ShipmentInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	s, err := h.uc.Update(c.Request().Context(), id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *ShipmentHandler) updateStatus(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req usecase.ShipmentStatusInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	s, err := h.uc.UpdateStatus(c.Request().Context(), adminID, id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *ShipmentHandler) delete(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	if err := h.uc.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
