package main

import (
	"context"
	"log/slog"
	"os"

	"signup/config"
	"signup/internal/delivery"
	"signup/internal/delivery/http"
	"signup/internal/delivery/http/middleware"
	"signup/internal/delivery/http/router/handler"
	"signup/internal/domain/service"
	"signup/internal/infra/auth"
	logs "signup/internal/infra/log"
	"signup/internal/infra/metrics"
	"signup/internal/infra/persistence/memory"
	"signup/internal/infra/persistence/postgres"
	"signup/internal/usecase/impl"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP registration API",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			app := fx.New(appOptions(cfg))
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()

			return nil
		},
	}
}

func appOptions(cfg *config.Config) fx.Option {
	return fx.Options(
		injectInfra(cfg),
		injectRepo(cfg),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	)
}

func injectInfra(cfg *config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		fx.Provide(
			logs.New,
			context.Background,
			metrics.New,
			registrationMetrics,
		),
	)
}

// injectRepo selects the account store named by storage.driver.
func injectRepo(cfg *config.Config) fx.Option {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		return fx.Provide(
			memory.NewStore,
			memory.NewAccountRepository,
			memory.NewTransactionManager,
		)
	}

	return fx.Provide(
		postgres.New,
		postgres.NewAccountRepository,
		postgres.NewTransactionManager,
	)
}

func injectService() fx.Option {
	return fx.Provide(
		auth.NewPasswordHasher,
	)
}

func registrationMetrics(m *metrics.Metrics) service.RegistrationMetrics {
	return m
}

func injectUsecase() fx.Option {
	return fx.Provide(
		impl.NewRegistrationService,
	)
}

func injectMiddleware() fx.Option {
	return fx.Provide(
		middleware.NewErrorMiddleware,
	)
}

func injectHandler() fx.Option {
	return fx.Provide(
		handler.NewRegistrationHandler,
	)
}

func injectDelivery() fx.Option {
	return fx.Provide(
		fx.Annotate(
			http.NewServer,
			fx.ResultTags(`group:"deliveries"`),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
