package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	CsrfCookieName = "csrf_token"
	CsrfHeaderName = "X-CSRF-Token"
)

// Double Submit: cookieのcsrf_tokenとX-CSRF-Tokenヘッダが一致すること
func CSRFDoubleSubmit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ck, err := c.Cookie(CsrfCookieName)
			if err != nil || ck.Value == "" {
				return c.JSON(http.StatusForbidden, errorJSON("csrf token missing"))
			}
			header := c.Request().Header.Get(CsrfHeaderName)
			if header == "" || subtle.ConstantTimeCompare([]byte(header), []byte(ck.Value)) != 1 {
				return c.JSON(http.StatusForbidden, errorJSON("csrf token mismatch"))
			}
			return next(c)
		}
	}
}
