package auth

import (
	"context"
	"log/slog"

	domainerrors "signup/internal/domain/errors"
	"signup/internal/domain/service"
	"signup/internal/errors"

	"golang.org/x/sync/semaphore"
)

// boundedHasher caps the number of Hash calls running at once.
// Waiting callers give up when their context is done.
type boundedHasher struct {
	inner  service.PasswordHasher
	sem    *semaphore.Weighted
	logger *slog.Logger
}

// NewBoundedHasher wraps inner so that at most workers hashes run concurrently.
// Values below 1 are treated as 1.
func NewBoundedHasher(inner service.PasswordHasher, workers int, logger *slog.Logger) service.PasswordHasher {
	if workers < 1 {
		workers = 1
	}

	return &boundedHasher{
		inner:  inner,
		sem:    semaphore.NewWeighted(int64(workers)),
		logger: logger,
	}
}

func (h *boundedHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", domainerrors.ErrHashingUnavailable.Wrap(err)
	}
	defer h.sem.Release(1)

	return h.inner.Hash(ctx, password)
}

// Verify and NeedsRehash are not bounded; verification is not on the registration path.
// A corrupt stored hash is logged as an error and fails closed.
func (h *boundedHasher) Verify(encoded, password string) (bool, error) {
	ok, err := h.inner.Verify(encoded, password)
	if errors.Is(err, domainerrors.ErrMalformedHash) {
		h.logger.Error("Stored password hash is malformed",
			slog.String("code", domainerrors.ErrMalformedHash.ErrorCode()),
			slog.String("reason", err.Error()),
		)

		return false, err
	}

	return ok, err
}

func (h *boundedHasher) NeedsRehash(encoded string) bool {
	return h.inner.NeedsRehash(encoded)
}
