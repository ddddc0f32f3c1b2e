package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // reservation opening hours need a zone database in slim images
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Logger      LoggerConfig
	Auth        AuthConfig
	CORS        CORSConfig
	Payment     PaymentConfig
	Order       OrderConfig
	Reservation ReservationConfig
	Events      EventsConfig
	Redis       RedisConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds bearer-token verification settings.
type AuthConfig struct {
	JWTSecret string
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string
}

// PaymentConfig holds Mercado Pago settings.
type PaymentConfig struct {
	AccessToken          string
	BaseURL              string
	Timeout              time.Duration
	Currency             string
	ExcludedPaymentTypes []string
	Sandbox              bool
	ProviderLabel        string // stored as the order's payment method
	FrontendURL          string
	APIBaseURL           string
}

// OrderConfig holds order classification rules.
type OrderConfig struct {
	// CashTokens are matched case-insensitively against the payment method.
	CashTokens []string
}

// ReservationConfig holds reservation rules.
type ReservationConfig struct {
	Timezone string
}

// EventsConfig holds the optional Kafka mirror for notification events.
type EventsConfig struct {
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// RedisConfig holds the webhook de-duplication store settings.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	DedupTTL time.Duration
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 3001),
		},
		Database: databaseFromEnv(),
		Logger:   loggerFromEnv(),
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ORIGINS", []string{
				"http://localhost:5173",
				"http://localhost:5174",
				"http://localhost:5175",
			}),
		},
		Payment: PaymentConfig{
			AccessToken:          getEnv("MERCADOPAGO_ACCESS_TOKEN", ""),
			BaseURL:              getEnv("MERCADOPAGO_BASE_URL", "https://api.mercadopago.com"),
			Timeout:              getEnvAsDuration("PAYMENT_TIMEOUT", 5*time.Second),
			Currency:             getEnv("PAYMENT_CURRENCY", "PEN"),
			ExcludedPaymentTypes: getEnvAsSlice("PAYMENT_EXCLUDED_TYPES", []string{"credit_card", "debit_card", "ticket"}),
			Sandbox:              getEnvAsBool("PAYMENT_SANDBOX", false),
			ProviderLabel:        getEnv("PAYMENT_PROVIDER_LABEL", "Mercado Pago"),
			FrontendURL:          strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),
			APIBaseURL:           strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:3001"), "/"),
		},
		Order: OrderConfig{
			CashTokens: getEnvAsSlice("ORDER_CASH_TOKENS", []string{"efectivo", "cash"}),
		},
		Reservation: ReservationConfig{
			Timezone: getEnv("RESERVATION_TIMEZONE", "America/Lima"),
		},
		Events: EventsConfig{
			KafkaEnabled: getEnvAsBool("EVENTS_KAFKA_ENABLED", false),
			KafkaBrokers: getEnvAsSlice("EVENTS_KAFKA_BROKERS", []string{"localhost:9092"}),
			KafkaTopic:   getEnv("EVENTS_KAFKA_TOPIC", "polleria.notifications"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			DedupTTL: getEnvAsDuration("WEBHOOK_DEDUP_TTL", 72*time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadDatabase reads only the database and logger settings, for tools that
// never serve traffic.
func LoadDatabase() (DatabaseConfig, LoggerConfig, error) {
	db, lc := databaseFromEnv(), loggerFromEnv()
	if db.Host == "" || db.User == "" || db.Database == "" {
		return db, lc, fmt.Errorf("database host, user and name are required")
	}
	if db.MinConnections > db.MaxConnections {
		return db, lc, fmt.Errorf("database min connections cannot exceed max connections")
	}
	return db, lc, nil
}

func databaseFromEnv() DatabaseConfig {
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		Database:        getEnv("DB_NAME", "polleria"),
		MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 10),
		MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 2),
		MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
	}
}

func loggerFromEnv() LoggerConfig {
	return LoggerConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "json"),
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Payment.AccessToken == "" {
		return fmt.Errorf("Mercado Pago access token is required")
	}

	if c.Payment.Timeout <= 0 {
		return fmt.Errorf("payment timeout must be positive")
	}

	if c.Payment.Currency == "" {
		return fmt.Errorf("payment currency is required")
	}

	if c.Payment.FrontendURL == "" || c.Payment.APIBaseURL == "" {
		return fmt.Errorf("frontend URL and API base URL are required")
	}

	if len(c.Order.CashTokens) == 0 {
		return fmt.Errorf("at least one cash token is required")
	}

	if _, err := time.LoadLocation(c.Reservation.Timezone); err != nil {
		return fmt.Errorf("invalid reservation timezone: %s", c.Reservation.Timezone)
	}

	if c.Events.KafkaEnabled {
		if len(c.Events.KafkaBrokers) == 0 {
			return fmt.Errorf("Kafka brokers are required when Kafka is enabled")
		}
		if c.Events.KafkaTopic == "" {
			return fmt.Errorf("Kafka topic is required when Kafka is enabled")
		}
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("Redis address is required when Redis is enabled")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("5s", "72h").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsSlice splits a comma-separated variable, dropping empty entries.
func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
