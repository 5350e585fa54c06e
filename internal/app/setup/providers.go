package setup

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/LavaJover/shvark-payu-service/internal/client"
	"github.com/LavaJover/shvark-payu-service/internal/config"
	"github.com/LavaJover/shvark-payu-service/internal/delivery/grpcapi"
	"github.com/LavaJover/shvark-payu-service/internal/delivery/http/handlers"
	"github.com/LavaJover/shvark-payu-service/internal/domain"
	publisher "github.com/LavaJover/shvark-payu-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-payu-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-payu-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-payu-service/internal/infrastructure/notifier"
	"github.com/LavaJover/shvark-payu-service/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-payu-service/internal/infrastructure/postgres/repository"
	"github.com/LavaJover/shvark-payu-service/internal/signature"
	"github.com/LavaJover/shvark-payu-service/internal/usecase/payment"
	"github.com/LavaJover/shvark-payu-service/internal/usecase/refund"
	"github.com/LavaJover/shvark-payu-service/internal/usecase/webhook"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"gorm.io/gorm"
)

func provideLogger(lc fx.Lifecycle, cfg *config.PayUServiceConfig) (*slog.Logger, error) {
	l, closer, err := logger.Setup(cfg.LogConfig)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return closer.Close() },
	})
	l.Info("config loaded", "env", cfg.Env, "payu", cfg.PayU)
	return l, nil
}

func provideDB(lc fx.Lifecycle, cfg *config.PayUServiceConfig) *gorm.DB {
	db := postgres.MustInitDB(cfg)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return db
}

func provideMetrics() *metrics.PaymentMetrics {
	return metrics.NewPaymentMetrics(prometheus.DefaultRegisterer)
}

func provideSigner(cfg *config.PayUServiceConfig) *signature.Signer {
	return signature.NewSigner(cfg.PayU.Key, cfg.PayU.Salt)
}

func provideGatewayClient(cfg *config.PayUServiceConfig, m *metrics.PaymentMetrics, calls *logger.PGGatewayCallLogger) (*client.PayUClient, error) {
	endpoints := cfg.PayU.Active()
	return client.NewPayUClient(client.Config{
		Key:            cfg.PayU.Key,
		Salt:           cfg.PayU.Salt,
		PaymentURL:     endpoints.Payment,
		APIURL:         endpoints.API,
		ConnectTimeout: cfg.PayU.ConnectTimeout,
		RequestTimeout: cfg.PayU.RequestTimeout,
		Recorder: client.Recorders(
			client.RecorderFunc(func(_ context.Context, rec client.CallRecord) {
				m.RecordGatewayCall(rec.Command, rec.OK, rec.Duration)
			}),
			calls,
		),
	})
}

// KafkaClients is empty when no broker is configured.
type KafkaClients struct {
	Publisher  *publisher.DefaultKafkaPublisher
	Subscriber *publisher.DefaultKafkaSubscriber
}

func provideKafka(lc fx.Lifecycle, cfg *config.PayUServiceConfig) KafkaClients {
	if !cfg.KafkaService.Enabled() {
		slog.Warn("kafka is not configured, payment events will not be published")
		return KafkaClients{}
	}
	brokers := []string{cfg.KafkaService.Addr()}
	clients := KafkaClients{
		Publisher:  publisher.NewDefaultKafkaPublisher(brokers),
		Subscriber: publisher.NewDefaultKafkaSubscriber(brokers),
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return clients.Publisher.Close() },
	})
	return clients
}

func provideEventPublisher(cfg *config.PayUServiceConfig, k KafkaClients) domain.EventPublisher {
	var pubs publisher.MultiEventPublisher
	if k.Publisher != nil {
		pubs = append(pubs, publisher.NewPaymentEventPublisher(k.Publisher, cfg.KafkaService.EventsTopic))
	}
	if cfg.Callback.URL != "" {
		pubs = append(pubs, notifier.NewCallbackNotifier(cfg.Callback.URL, cfg.Callback.Secret, cfg.Callback.Timeout))
	}
	switch len(pubs) {
	case 0:
		return publisher.NopEventPublisher{}
	case 1:
		return pubs[0]
	}
	return pubs
}

func provideTransactionRepo(db *gorm.DB) domain.TransactionRepository {
	return repository.NewDefaultTransactionRepository(db)
}

func provideRefundRepo(db *gorm.DB) domain.RefundRepository {
	return repository.NewDefaultRefundRepository(db)
}

func provideWebhookRepo(db *gorm.DB) domain.WebhookRepository {
	return repository.NewDefaultWebhookRepository(db)
}

func providePaymentUsecase(
	cfg *config.PayUServiceConfig,
	txRepo domain.TransactionRepository,
	gw *client.PayUClient,
	signer *signature.Signer,
	pub domain.EventPublisher,
	m *metrics.PaymentMetrics,
) payment.PaymentUsecase {
	env := "sandbox"
	if cfg.PayU.EnvProd {
		env = "production"
	}
	return payment.NewDefaultPaymentUsecase(txRepo, gw, signer, pub, m, payment.Options{
		SuccessURL: cfg.PayU.SuccessURL,
		FailureURL: cfg.PayU.FailureURL,
		Env:        env,
	})
}

func provideRefundUsecase(
	cfg *config.PayUServiceConfig,
	txRepo domain.TransactionRepository,
	refundRepo domain.RefundRepository,
	gw *client.PayUClient,
	pub domain.EventPublisher,
	m *metrics.PaymentMetrics,
) refund.RefundUsecase {
	return refund.NewDefaultRefundUsecase(txRepo, refundRepo, gw, pub, m,
		refund.WithLostAfter(cfg.Reconcile.RefundLostAfter))
}

func provideWebhookUsecase(
	repo domain.WebhookRepository,
	payments payment.PaymentUsecase,
	refunds refund.RefundUsecase,
	signer *signature.Signer,
	m *metrics.PaymentMetrics,
) webhook.WebhookUsecase {
	return webhook.NewDefaultWebhookUsecase(repo, payments, refunds, signer, m)
}

func provideRouter(
	payments payment.PaymentUsecase,
	refunds refund.RefundUsecase,
	webhooks webhook.WebhookUsecase,
	calls *logger.PGGatewayCallLogger,
) *gin.Engine {
	h := handlers.NewPaymentHandler(payments, refunds, webhooks).WithCallLog(calls)
	return handlers.NewRouter(h, promhttp.Handler())
}

func provideHTTPServer(cfg *config.PayUServiceConfig, router *gin.Engine) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPServer.Host + ":" + cfg.HTTPServer.Port,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func provideGRPCServer(
	payments payment.PaymentUsecase,
	refunds refund.RefundUsecase,
	webhooks webhook.WebhookUsecase,
	gw *client.PayUClient,
) (*grpc.Server, *health.Server) {
	return grpcapi.NewServer(grpcapi.NewPaymentHandler(payments, refunds, webhooks, gw))
}
