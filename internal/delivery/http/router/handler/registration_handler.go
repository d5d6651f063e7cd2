// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"

	"signup/internal/delivery/http/response"
	domainerrors "signup/internal/domain/errors"
	"signup/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AccountCreatedMessage is the body message of a successful registration.
const AccountCreatedMessage = "user created"

// RegisterRequest is the body of POST /api/register.
// Pointers tell a missing field apart from an empty one.
type RegisterRequest struct {
	Login    *string `json:"login" validate:"required"`
	Password *string `json:"password" validate:"required"`
}

// RegistrationHandler holds dependencies for registration handlers.
type RegistrationHandler struct {
	uc     usecase.RegistrationUsecase
	logger *slog.Logger
}

// NewRegistrationHandler is the constructor for RegistrationHandler, injected by Fx.
func NewRegistrationHandler(uc usecase.RegistrationUsecase, logger *slog.Logger) *RegistrationHandler {
	return &RegistrationHandler{
		uc:     uc,
		logger: logger,
	}
}

// Register handles the account registration request.
func (h *RegistrationHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return domainerrors.NewValidationError(domainerrors.ErrValidationFailed, []domainerrors.Violation{{
			Field:   "body",
			Rule:    "body",
			Message: "Request body must be a JSON object with string fields login and password",
		}})
	}

	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	_, err := h.uc.Register(c.Request().Context(), &usecase.RegisterInput{
		Login:    *req.Login,
		Password: *req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Message(c, http.StatusCreated, AccountCreatedMessage)
}
