package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	IntegrationRedirect = "redirect"
	IntegrationPopup    = "popup"
)

type Config struct {
	HTTPPort string `env:"BRIDGE_HTTP_PORT"`

	// PortPos merchant credentials and environment.
	AppKey    string `env:"PORTPOS_APP_KEY"`
	SecretKey string `env:"PORTPOS_SECRET_KEY"`
	Sandbox   bool   `env:"PORTPOS_SANDBOX"`

	// IntegrationMethod selects how the payer reaches the hosted page:
	// "redirect" sends the browser straight to PortPos, "popup" returns to
	// checkout with a flag that opens the page in an overlay.
	IntegrationMethod string `env:"PORTPOS_INTEGRATION_METHOD"`

	// Currency is the single currency the gateway accepts.
	Currency string `env:"PORTPOS_CURRENCY"`

	// PublicBaseURL is the externally reachable base of this service, used
	// to build the return and IPN callback URLs handed to the provider.
	PublicBaseURL string `env:"BRIDGE_PUBLIC_BASE_URL"`
	CheckoutURL   string `env:"BRIDGE_CHECKOUT_URL"`
	SuccessURL    string `env:"BRIDGE_SUCCESS_URL"`
	StoreName     string `env:"BRIDGE_STORE_NAME"`

	DBConfig struct {
		DBHost     string `env:"BRIDGE_DB_HOST"`
		DBPort     string `env:"BRIDGE_DB_PORT"`
		DBUser     string `env:"BRIDGE_DB_USER"`
		DBPassword string `env:"BRIDGE_DB_PASSWORD"`
		DBName     string `env:"BRIDGE_DB_NAME"`
		DBSSLMode  string `env:"BRIDGE_DB_SSLMODE"`
	}

	// KafkaURL is optional; when empty, payment status events are not
	// published and the bridge runs standalone.
	KafkaURL                string `env:"KAFKA_BROKER_URL"`
	KafkaPaymentStatusTopic string `env:"KAFKA_PAYMENT_STATUS_TOPIC"`

	ShutdownTimeout time.Duration `env:"BRIDGE_SHUTDOWN_TIMEOUT"`
}

func LoadConfig() (*Config, error) {
	// Local development convenience; absence of a .env file is fine.
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.HTTPPort = getEnvOrDefault("BRIDGE_HTTP_PORT", "8080")

	cfg.AppKey = getEnvOrDefault("PORTPOS_APP_KEY", "")
	cfg.SecretKey = getEnvOrDefault("PORTPOS_SECRET_KEY", "")
	cfg.Sandbox = getEnvOrDefault("PORTPOS_SANDBOX", "true") == "true"

	cfg.IntegrationMethod = getEnvOrDefault("PORTPOS_INTEGRATION_METHOD", IntegrationRedirect)
	if cfg.IntegrationMethod != IntegrationRedirect && cfg.IntegrationMethod != IntegrationPopup {
		return nil, fmt.Errorf("invalid PORTPOS_INTEGRATION_METHOD: %s", cfg.IntegrationMethod)
	}

	cfg.Currency = getEnvOrDefault("PORTPOS_CURRENCY", "BDT")

	cfg.PublicBaseURL = getEnvOrDefault("BRIDGE_PUBLIC_BASE_URL", "http://localhost:8080")
	cfg.CheckoutURL = getEnvOrDefault("BRIDGE_CHECKOUT_URL", "http://localhost:8080/checkout")
	cfg.SuccessURL = getEnvOrDefault("BRIDGE_SUCCESS_URL", "http://localhost:8080/success")
	cfg.StoreName = getEnvOrDefault("BRIDGE_STORE_NAME", "Store")

	cfg.DBConfig.DBHost = getEnvOrDefault("BRIDGE_DB_HOST", "localhost")
	cfg.DBConfig.DBPort = getEnvOrDefault("BRIDGE_DB_PORT", "5432")
	cfg.DBConfig.DBUser = getEnvOrDefault("BRIDGE_DB_USER", "postgres")
	cfg.DBConfig.DBPassword = getEnvOrDefault("BRIDGE_DB_PASSWORD", "postgres")
	cfg.DBConfig.DBName = getEnvOrDefault("BRIDGE_DB_NAME", "portpos_bridge_db")
	cfg.DBConfig.DBSSLMode = getEnvOrDefault("BRIDGE_DB_SSLMODE", "disable")

	cfg.KafkaURL = getEnvOrDefault("KAFKA_BROKER_URL", "")
	cfg.KafkaPaymentStatusTopic = getEnvOrDefault("KAFKA_PAYMENT_STATUS_TOPIC", "payment_status_updates")

	shutdownTimeoutStr := getEnvOrDefault("BRIDGE_SHUTDOWN_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(shutdownTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid BRIDGE_SHUTDOWN_TIMEOUT: %w", err)
	}
	cfg.ShutdownTimeout = timeout

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func (c *Config) GetDBConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBConfig.DBHost, c.DBConfig.DBPort, c.DBConfig.DBUser, c.DBConfig.DBPassword, c.DBConfig.DBName, c.DBConfig.DBSSLMode)
}

func (c *Config) GetDBMigrationConnectionString() string {
	return fmt.Sprintf("%s:%s@%s:%s/%s?sslmode=%s",
		c.DBConfig.DBUser, c.DBConfig.DBPassword, c.DBConfig.DBHost, c.DBConfig.DBPort, c.DBConfig.DBName, c.DBConfig.DBSSLMode)
}

func (c *Config) GetKafkaBrokers() []string {
	return []string{c.KafkaURL}
}
