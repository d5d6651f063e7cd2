// Package response writes the flat JSON bodies of the HTTP API.
package response

import (
	"github.com/labstack/echo/v4"

	domainerrors "signup/internal/domain/errors"
)

// MessageResponse is the body of successful writes and informational endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// StatusResponse is the body of the health endpoint.
type StatusResponse struct {
	Status string `json:"status"`
}

// Message writes {"message": message}.
func Message(c echo.Context, statusCode int, message string) error {
	return c.JSON(statusCode, MessageResponse{Message: message})
}

// Status writes {"status": status}.
func Status(c echo.Context, statusCode int, status string) error {
	return c.JSON(statusCode, StatusResponse{Status: status})
}

// Detail writes {"detail": detail}. detail is a string or a list of violations.
func Detail(c echo.Context, statusCode int, detail any) error {
	if c.Request().Method == "HEAD" {
		return c.NoContent(statusCode)
	}

	return c.JSON(statusCode, domainerrors.ErrorResponse{Detail: detail})
}
