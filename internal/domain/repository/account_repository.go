// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"signup/internal/domain/entity"
)

// ErrAccountNotFound is returned by lookups when no account has the given login.
var ErrAccountNotFound = errors.New("account not found")

// AccountRepository defines the persistence operations for accounts.
type AccountRepository interface {
	// Create atomically inserts a new account for login.
	// If the login is already taken it returns an error matching
	// domainerrors.ErrLoginAlreadyExists, even when several callers race on the same login.
	// Any other failure matches domainerrors.ErrRepositoryUnavailable.
	Create(ctx context.Context, login, passwordHash string) (*entity.Account, error)

	// FindByLogin retrieves an account by its exact login.
	// It is a convenience lookup only; uniqueness is decided by Create.
	FindByLogin(ctx context.Context, login string) (*entity.Account, error)
}
