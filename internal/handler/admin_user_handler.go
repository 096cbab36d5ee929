package handler

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminUserHandler struct {
	auth  *usecase.AuthUsecase
	users *usecase.AdminUserUsecase
}

func NewAdminUserHandler(auth *usecase.AuthUsecase, users *usecase.AdminUserUsecase) *AdminUserHandler {
	return &AdminUserHandler{auth: auth, users: users}
}

type setRoleRequest struct {
	Role string `json:"role"`
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

func (h *AdminUserHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	// /admin 配下は全部「JWT必須 + token_version一致 + ADMIN限定」
	admin := e.Group("/admin", adminMiddlewares(cfg, userRepo)...)

	admin.GET("/users", h.list)
	admin.GET("/users/:id", h.get)
	admin.PUT("/users/:id/role", h.setRole)
	admin.PUT("/users/:id/active", h.setActive)
	admin.POST("/users/:id/force-logout", h.forceLogout)
}

func (h *AdminUserHandler) list(c echo.Context) error {
	page, ok1 := queryInt(c, "page", 1)
	limit, ok2 := queryInt(c, "limit", 20)
	if !ok1 || !ok2 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query"})
	}
	out, err := h.users.List(c.Request().Context(), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminUserHandler) get(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	out, err := h.users.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminUserHandler) setRole(c echo.Context) error {
	actorID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req setRoleRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	out, err := h.users.SetRole(c.Request().Context(), actorID, id, req.Role)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminUserHandler) setActive(c echo.Context) error {
	actorID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req setActiveRequest
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		return invalidBody(c)
	}

	out, err := h.users.SetActive(c.Request().Context(), actorID, id, *req.IsActive)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminUserHandler) forceLogout(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user_id"})
	}

	res, err := h.auth.ForceLogout(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
