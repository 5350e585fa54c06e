package setup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/LavaJover/shvark-payu-service/internal/app/background"
	"github.com/LavaJover/shvark-payu-service/internal/config"
	"github.com/LavaJover/shvark-payu-service/internal/delivery/grpcapi"
	"github.com/LavaJover/shvark-payu-service/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-payu-service/internal/usecase/payment"
	"github.com/LavaJover/shvark-payu-service/internal/usecase/refund"
	"github.com/LavaJover/shvark-payu-service/internal/usecase/webhook"
	"go.uber.org/fx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"gorm.io/gorm"
)

const readHeaderTimeout = 10 * time.Second

func runMigrations(cfg *config.PayUServiceConfig, db *gorm.DB) error {
	if err := migrate.RunMigrations(db, cfg.PayUDB.MigrationsPath); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

func startHTTPServer(lc fx.Lifecycle, srv *http.Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			lis, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("failed to listen: %w", err)
			}
			go func() {
				slog.Info("HTTP server started", "addr", srv.Addr)
				if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.Error("HTTP server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			slog.Info("stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}

func startGRPCServer(lc fx.Lifecycle, cfg *config.PayUServiceConfig, srv *grpc.Server, hs *health.Server) {
	addr := cfg.GRPCServer.Host + ":" + cfg.GRPCServer.Port
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			lis, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("failed to listen: %w", err)
			}
			go func() {
				slog.Info("gRPC server started", "addr", addr)
				if err := srv.Serve(lis); err != nil {
					slog.Error("gRPC server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			slog.Info("stopping gRPC server")
			hs.SetServingStatus(grpcapi.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
			stopped := make(chan struct{})
			go func() {
				srv.GracefulStop()
				close(stopped)
			}()
			select {
			case <-stopped:
			case <-ctx.Done():
				srv.Stop()
			}
			return nil
		},
	})
}

func startBackgroundTasks(
	lc fx.Lifecycle,
	cfg *config.PayUServiceConfig,
	k KafkaClients,
	payments payment.PaymentUsecase,
	refunds refund.RefundUsecase,
	webhooks webhook.WebhookUsecase,
) {
	tasks := background.NewBackgroundTasks(payments, refunds, webhooks, nil, cfg.Reconcile, cfg.KafkaService)
	if k.Subscriber != nil {
		tasks.Subscriber = k.Subscriber
	}
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			tasks.StartAll(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
