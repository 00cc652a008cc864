package config

import (
	"fmt"

	pkgconfig "github.com/nm-digitalhub/sumit-gateway/pkg/config"
)

// Persistence modes for the built-in transaction store.
const (
	PersistenceNone    = "none"
	PersistenceBuiltin = "builtin"
)

// Config holds all configuration for the gateway service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"GATEWAY_HTTP_PORT" envDefault:"8080"`

	// Persistence: "none" disables the built-in store entirely, "builtin"
	// persists transactions and tokens to Postgres.
	PersistenceMode string `env:"PERSISTENCE_MODE" envDefault:"builtin"`

	// PostgreSQL (used when PersistenceMode is "builtin")
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"sumit"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"sumit_secret"`
	PostgresDB   string `env:"GATEWAY_DB_NAME" envDefault:"sumit_gateway"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Kafka relay (optional audit stream of lifecycle events)
	KafkaRelayEnabled bool     `env:"KAFKA_RELAY_ENABLED" envDefault:"false"`
	KafkaBrokers      []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Circuit breaker around the gateway transport
	BreakerEnabled bool `env:"GATEWAY_BREAKER_ENABLED" envDefault:"false"`

	// Tracing
	TracingEnabled bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint   string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TraceSampleAll float64 `env:"TRACE_SAMPLE_RATE" envDefault:"1.0"`

	// SUMIT gateway settings (initial values for the settings store)
	SumitCompanyID        string  `env:"SUMIT_COMPANY_ID"`
	SumitAPIKey           string  `env:"SUMIT_API_KEY"`
	SumitPublicKey        string  `env:"SUMIT_API_PUBLIC_KEY"`
	SumitMerchantNumber   string  `env:"SUMIT_MERCHANT_NUMBER"`
	SumitSubsMerchant     string  `env:"SUMIT_SUBSCRIPTIONS_MERCHANT_NUMBER"`
	SumitEnvironment      string  `env:"SUMIT_ENVIRONMENT" envDefault:"www"`
	SumitBaseURL          string  `env:"SUMIT_BASE_URL"`
	SumitTestingMode      bool    `env:"SUMIT_TESTING_MODE" envDefault:"false"`
	SumitPCIMode          string  `env:"SUMIT_PCI_MODE" envDefault:"redirect"`
	SumitTokenMethod      string  `env:"SUMIT_TOKEN_METHOD" envDefault:"J2"`
	SumitAPITimeoutSecs   int     `env:"SUMIT_API_TIMEOUT" envDefault:"180"`
	SumitSendClientIP     bool    `env:"SUMIT_SEND_CLIENT_IP" envDefault:"false"`
	SumitVATIncluded      bool    `env:"SUMIT_VAT_INCLUDED" envDefault:"true"`
	SumitVATRate          float64 `env:"SUMIT_DEFAULT_VAT_RATE" envDefault:"17"`
	SumitDocumentLanguage string  `env:"SUMIT_DOCUMENT_LANGUAGE" envDefault:"he"`
	SumitMaximumPayments  int     `env:"SUMIT_MAXIMUM_PAYMENTS" envDefault:"1"`
	SumitDraftDocument    bool    `env:"SUMIT_DRAFT_DOCUMENT" envDefault:"false"`
	SumitEmailDocument    bool    `env:"SUMIT_EMAIL_DOCUMENT" envDefault:"true"`
	SumitVerifyWebhooks   bool    `env:"SUMIT_WEBHOOK_VERIFY_SIGNATURE" envDefault:"true"`
	SumitCallbackURL      string  `env:"SUMIT_CALLBACK_URL"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load gateway config: %w", err)
	}
	if cfg.PersistenceMode != PersistenceNone && cfg.PersistenceMode != PersistenceBuiltin {
		return nil, fmt.Errorf("invalid PERSISTENCE_MODE %q", cfg.PersistenceMode)
	}
	return cfg, nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
