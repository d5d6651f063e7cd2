// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "signup/internal/delivery/context"
	"signup/internal/domain/entity"
	domainerrors "signup/internal/domain/errors"
	"signup/internal/domain/policy"
	"signup/internal/domain/repository"
	"signup/internal/domain/service"
	"signup/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// registrationService implements the RegistrationUsecase interface.
type registrationService struct {
	txManager   repository.TransactionManager
	accountRepo repository.AccountRepository
	hasher      service.PasswordHasher
	metrics     service.RegistrationMetrics
	logger      *slog.Logger
}

// RegistrationServiceParams holds dependencies for RegistrationService, injected by Fx.
type RegistrationServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	AccountRepo repository.AccountRepository
	Hasher      service.PasswordHasher
	Metrics     service.RegistrationMetrics `optional:"true"`
	Logger      *slog.Logger
}

// NewRegistrationService is the constructor for registrationService.
func NewRegistrationService(params RegistrationServiceParams) usecase.RegistrationUsecase {
	metrics := params.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}

	return &registrationService{
		txManager:   params.TxManager,
		accountRepo: params.AccountRepo,
		hasher:      params.Hasher,
		metrics:     metrics,
		logger:      params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *registrationService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register runs validate, pre-check, hash and create in that order. Only the
// insert decides uniqueness; the pre-check just spares a hash for taken logins.
func (srv *registrationService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	logger := srv.log(ctx).With(slog.String("login", input.Login))

	if err := policy.Validate(input.Login, input.Password).Err(); err != nil {
		srv.metrics.RecordRegistration(service.OutcomeInvalid)
		logger.Info("Registration rejected by credential policy", slog.String("reason", err.Error()))

		return nil, err
	}

	if err := srv.precheckLogin(ctx, logger, input.Login); err != nil {
		return nil, err
	}

	start := time.Now()
	hash, err := srv.hasher.Hash(ctx, input.Password)
	srv.metrics.ObserveHashDuration(time.Since(start))
	if err != nil {
		srv.metrics.RecordRegistration(service.OutcomeError)
		logger.Error("Password hashing failed", slog.Any("error", err))

		return nil, err
	}

	var account *entity.Account
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		created, err := repoFactory.AccountRepo().Create(ctx, input.Login, hash)
		if err != nil {
			return err
		}
		account = created

		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrLoginAlreadyExists) {
			srv.metrics.RecordRegistration(service.OutcomeConflict)
			logger.Info("Registration rejected, login taken")

			return nil, err
		}

		srv.metrics.RecordRegistration(service.OutcomeError)
		logger.Error("Failed to create account", slog.Any("error", err))

		return nil, err
	}

	srv.metrics.RecordRegistration(service.OutcomeCreated)
	logger.Info("Account registered", slog.String("account_id", account.ID.String()))

	return &usecase.RegisterOutput{Account: account}, nil
}

// precheckLogin returns a conflict for a login that is already stored.
// Lookup failures are logged and ignored; the insert still enforces uniqueness.
func (srv *registrationService) precheckLogin(ctx context.Context, logger *slog.Logger, login string) error {
	_, err := srv.accountRepo.FindByLogin(ctx, login)
	switch {
	case err == nil:
		srv.metrics.RecordRegistration(service.OutcomeConflict)
		logger.Info("Registration rejected, login taken")

		return domainerrors.ErrLoginAlreadyExists.WrapMessage("login pre-check")
	case errors.Is(err, repository.ErrAccountNotFound):
		return nil
	default:
		logger.Warn("Login pre-check failed, deferring to insert", slog.Any("error", err))

		return nil
	}
}

type noopMetrics struct{}

func (noopMetrics) RecordRegistration(string)         {}
func (noopMetrics) ObserveHashDuration(time.Duration) {}
