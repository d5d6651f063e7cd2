// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

import "context"

// PasswordHasher defines the interface for password hashing and verification.
// This abstracts the underlying algorithm, keeping the domain pure.
type PasswordHasher interface {
	// Hash generates a salted, self-describing hash from a plaintext password.
	// Errors match domainerrors.ErrHashingUnavailable.
	Hash(ctx context.Context, password string) (string, error)

	// Verify reports whether password matches encoded.
	// A mismatch is (false, nil); a structurally corrupt hash is (false, domainerrors.ErrMalformedHash).
	Verify(encoded, password string) (bool, error)

	// NeedsRehash reports whether encoded was produced with different parameters than the current ones.
	NeedsRehash(encoded string) bool
}
