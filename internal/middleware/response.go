package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// handler.ErrorResponse と同じ形
type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
}
