package config

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type PayUServiceConfig struct {
	Env          string `yaml:"env" env:"PAYU_ENV" env-default:"local"`
	GRPCServer   `yaml:"grpc_server"`
	HTTPServer   `yaml:"http_server"`
	PayUDB       `yaml:"payu_db"`
	LogConfig    `yaml:"log_config"`
	KafkaService `yaml:"kafka-service"`
	PayU         PayU `yaml:"payu"`
	Reconcile    `yaml:"reconcile"`
	Callback     `yaml:"callback"`
}

type GRPCServer struct {
	Host string `yaml:"host" env-default:"0.0.0.0"`
	Port string `yaml:"port" env-default:"50061"`
}

type HTTPServer struct {
	Host string `yaml:"host" env-default:"0.0.0.0"`
	Port string `yaml:"port" env-default:"8085"`
}

type PayUDB struct {
	Dsn            string `yaml:"dsn" env:"PAYU_DB_DSN"`
	MigrationsPath string `yaml:"migrations_path" env-default:"migrations"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env-default:"info"`
	LogFormat string `yaml:"log_format" env-default:"json"`
	LogOutput string `yaml:"log_output" env-default:"stdout"`
}

type KafkaService struct {
	Host         string `yaml:"host"`
	Port         string `yaml:"port"`
	EventsTopic  string `yaml:"events_topic" env-default:"payu-payment-events"`
	WebhookTopic string `yaml:"webhook_topic"`
	WebhookGroup string `yaml:"webhook_group" env-default:"payu-webhook-relay"`
}

func (k KafkaService) Enabled() bool { return k.Host != "" && k.Port != "" }

func (k KafkaService) Addr() string { return k.Host + ":" + k.Port }

type Endpoints struct {
	Payment string `yaml:"payment"`
	API     string `yaml:"api"`
}

type URLs struct {
	Sandbox    Endpoints `yaml:"sandbox"`
	Production Endpoints `yaml:"production"`
}

type PayU struct {
	EnvProd        bool          `yaml:"env_prod" env:"PAYU_ENV_PROD"`
	Key            string        `yaml:"key" env:"PAYU_KEY"`
	Salt           string        `yaml:"salt" env:"PAYU_SALT"`
	SuccessURL     string        `yaml:"success_url" env:"PAYU_SUCCESS_URL"`
	FailureURL     string        `yaml:"failure_url" env:"PAYU_FAILURE_URL"`
	URLs           URLs          `yaml:"urls"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env-default:"30s"`
	RequestTimeout time.Duration `yaml:"request_timeout" env-default:"60s"`
}

// Active returns the endpoints for the configured environment.
func (p PayU) Active() Endpoints {
	if p.EnvProd {
		return p.URLs.Production
	}
	return p.URLs.Sandbox
}

// LogValue keeps the salt out of every log line.
func (p PayU) LogValue() slog.Value {
	env := "sandbox"
	if p.EnvProd {
		env = "production"
	}
	return slog.GroupValue(
		slog.String("env", env),
		slog.String("key", p.Key),
		slog.String("salt", "[REDACTED]"),
		slog.String("api_url", p.Active().API),
	)
}

type Reconcile struct {
	RefundPollInterval    time.Duration `yaml:"refund_poll_interval" env-default:"5m"`
	PendingVerifyInterval time.Duration `yaml:"pending_verify_interval" env-default:"10m"`
	PendingVerifyAfter    time.Duration `yaml:"pending_verify_after" env-default:"30m"`
	BatchSize             int           `yaml:"batch_size" env-default:"50"`
	// RefundLostAfter cancels pending refunds the gateway has no record of.
	RefundLostAfter time.Duration `yaml:"refund_lost_after" env-default:"24h"`
}

// Callback is the merchant endpoint notified of every ledger change.
// Empty URL disables it.
type Callback struct {
	URL     string        `yaml:"url" env:"PAYU_CALLBACK_URL"`
	Secret  string        `yaml:"secret" env:"PAYU_CALLBACK_SECRET"`
	Timeout time.Duration `yaml:"timeout" env-default:"5s"`
}

var defaultURLs = URLs{
	Sandbox: Endpoints{
		Payment: "https://sandboxsecure.payu.in/_payment",
		API:     "https://sandboxsecure.payu.in/merchant/postservice?form=2",
	},
	Production: Endpoints{
		Payment: "https://secure.payu.in/_payment",
		API:     "https://info.payu.in/merchant/postservice?form=2",
	},
}

// Load reads the YAML file at path, applies env overrides and defaults,
// and validates the result.
func Load(path string) (*PayUServiceConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	var cfg PayUServiceConfig
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg.PayU.URLs = withDefaults(cfg.PayU.URLs)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MustLoad() *PayUServiceConfig {

	// Processing env config variable and file
	configPath := os.Getenv("PAYU_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("PAYU_CONFIG_PATH was not found\n")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	return cfg
}

func withDefaults(u URLs) URLs {
	if u.Sandbox.Payment == "" {
		u.Sandbox.Payment = defaultURLs.Sandbox.Payment
	}
	if u.Sandbox.API == "" {
		u.Sandbox.API = defaultURLs.Sandbox.API
	}
	if u.Production.Payment == "" {
		u.Production.Payment = defaultURLs.Production.Payment
	}
	if u.Production.API == "" {
		u.Production.API = defaultURLs.Production.API
	}
	return u
}

func (c *PayUServiceConfig) validate() error {
	var errs []error
	if c.PayU.Key == "" {
		errs = append(errs, errors.New("payu.key is required"))
	}
	if c.PayU.Salt == "" {
		errs = append(errs, errors.New("payu.salt is required"))
	}
	if c.PayUDB.Dsn == "" {
		errs = append(errs, errors.New("payu_db.dsn is required"))
	}
	return errors.Join(errs...)
}
