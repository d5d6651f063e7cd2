// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Account is a registered user. It is created once and never modified by this service.
type Account struct {
	ID           uuid.UUID // Assigned by the repository at creation.
	Login        string    // Case-sensitive, globally unique.
	PasswordHash string    // Encoded argon2id hash; never the plaintext.
	CreatedAt    time.Time // Assigned by the store at creation.
}
