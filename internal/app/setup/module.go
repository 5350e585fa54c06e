package setup

import (
	"log/slog"

	"github.com/LavaJover/shvark-payu-service/internal/config"
	"github.com/LavaJover/shvark-payu-service/internal/infrastructure/logger"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

var InfrastructureModule = fx.Module("infrastructure",
	fx.Provide(
		config.MustLoad,
		provideLogger,
		provideDB,
		provideMetrics,
		provideSigner,
		provideKafka,
		provideEventPublisher,
		logger.NewPGGatewayCallLogger,
		provideGatewayClient,
	),
)

var RepositoryModule = fx.Module("repositories",
	fx.Provide(
		provideTransactionRepo,
		provideRefundRepo,
		provideWebhookRepo,
	),
)

var UsecaseModule = fx.Module("usecases",
	fx.Provide(
		providePaymentUsecase,
		provideRefundUsecase,
		provideWebhookUsecase,
	),
)

var DeliveryModule = fx.Module("delivery",
	fx.Provide(
		provideRouter,
		provideHTTPServer,
		provideGRPCServer,
	),
)

// Options assembles the service. Migrations run before any listener opens.
func Options() fx.Option {
	return fx.Options(
		fx.WithLogger(func(l *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: l}
		}),
		InfrastructureModule,
		RepositoryModule,
		UsecaseModule,
		DeliveryModule,
		fx.Invoke(runMigrations),
		fx.Invoke(startHTTPServer),
		fx.Invoke(startGRPCServer),
		fx.Invoke(startBackgroundTasks),
	)
}

func App() *fx.App {
	return fx.New(Options())
}
