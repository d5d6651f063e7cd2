// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"signup/internal/domain/entity"
)

// RegisterInput defines the credentials submitted for a new account.
type RegisterInput struct {
	Login    string
	Password string
}

// RegisterOutput returns the newly created account. PasswordHash is never sent to clients.
type RegisterOutput struct {
	Account *entity.Account
}

// RegistrationUsecase defines the account registration operation.
// This is the contract that the delivery layer depends on.
type RegistrationUsecase interface {
	// Register validates the credentials, hashes the password and creates the account.
	// Errors are domain errors: a *domainerrors.ValidationError (422),
	// ErrLoginAlreadyExists (409), ErrHashingUnavailable or ErrRepositoryUnavailable (503).
	Register(ctx context.Context, input *RegisterInput) (*RegisterOutput, error)
}
