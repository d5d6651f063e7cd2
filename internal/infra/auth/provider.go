package auth

import (
	"log/slog"

	"signup/config"
	"signup/internal/domain/service"
	"signup/internal/errors"
)

// NewPasswordHasher builds the service-wide hasher: argon2id with the configured costs,
// limited to cfg.Hashing.Workers concurrent hashes.
func NewPasswordHasher(cfg *config.Config, logger *slog.Logger) (service.PasswordHasher, error) {
	if cfg.Argon2 == nil || cfg.Hashing == nil {
		return nil, errors.New("argon2 and hashing config must be provided")
	}

	hasher, err := NewArgon2idHasher(ParamsFromConfig(cfg.Argon2))
	if err != nil {
		return nil, errors.Wrap(err, "create argon2id hasher")
	}

	return NewBoundedHasher(hasher, cfg.Hashing.Workers, logger), nil
}
