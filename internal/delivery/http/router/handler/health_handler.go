package handler

import (
	"net/http"

	"signup/internal/delivery/http/response"

	"github.com/labstack/echo/v4"
)

// Root describes the API.
func Root(c echo.Context) error {
	return response.Message(c, http.StatusOK, "User Registration API")
}

// HealthCheck reports liveness.
func HealthCheck(c echo.Context) error {
	return response.Status(c, http.StatusOK, "healthy")
}
