package handler

import (
	"net/http"
	"strings"

	"storefront/internal/config"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

const (
	headerIdempotencyKey = "X-Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
)

// POST /checkout
type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

type CheckoutRequest struct {
	CartID         int64  `json:"cart_id"`
	UserID         *int64 `json:"user_id"`
	AddressID      int64  `json:"address_id"`
	IdempotencyKey string `json:"idempotency_key"`
	PaymentMethod  string `json:"payment_method"`
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	e.POST("/checkout", h.checkout, authMiddlewares(cfg, userRepo)...)
}

func (h *CheckoutHandler) checkout(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	//bodyに無ければヘッダーのキーを使う
	key := req.IdempotencyKey
	if strings.TrimSpace(key) == "" {
		key = c.Request().Header.Get(headerIdempotencyKey)
	}

	out, err := h.uc.Checkout(c.Request().Context(), usecase.CheckoutInput{
		UserID:         userID,
		BodyUserID:     req.UserID,
		CartID:         req.CartID,
		AddressID:      req.AddressID,
		IdempotencyKey: key,
		PaymentMethod:  req.PaymentMethod,
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeCheckout(c, out)
}

// 再送でも201。再送かどうかはヘッダーとbodyで分かる
func writeCheckout(c echo.Context, out usecase.CheckoutOutput) error {
	if out.Replayed {
		c.Response().Header().Set(headerReplayed, "true")
	}
	return c.JSON(http.StatusCreated, out)
}
