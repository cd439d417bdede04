package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DBUrl         string
	JWTSecret     string
	AllowedOrigin string
	// DB Config
	DBMaxConns        int32
	DBMinConns        int32
	DBMaxConnIdleTime time.Duration
	// Checkout
	MaxCartQuantity        int
	OrderNumberMaxAttempts int
	OfflinePaymentMethods  []string
	StrictPromoCodes       bool
	// Payment gateway
	PaymentGatewayURL string
	PaymentGatewayKey string
	PaymentCurrency   string
	PaymentTimeout    time.Duration
	// Notifications (empty brokers => log only)
	KafkaBrokers    []string
	KafkaOrderTopic string
	// Cache
	CacheStatsTTL time.Duration
	// Rate limiting
	RateLimitRPS   float64
	RateLimitBurst int
}

func LoadConfig() *Config {
	// 1. Check if a specific config file is requested via env var
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Warn().Err(err).Str("file", configFile).Msg("Failed to load config file")
		} else {
			log.Info().Str("file", configFile).Msg("Loaded configuration")
		}
	} else {
		// 2. Default fallback: .env for local dev, system env vars otherwise
		if err := godotenv.Load(); err != nil {
			log.Debug().Msg("No .env file found, relying on system env vars")
		}
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DBUrl:         getEnv("DB_DSN", ""),
		JWTSecret:     getEnv("JWT_SECRET", "default_secret_CHANGE_ME"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),

		DBMaxConns:        getInt32Env("DB_MAX_CONNS", 50),
		DBMinConns:        getInt32Env("DB_MIN_CONNS", 10),
		DBMaxConnIdleTime: getDurationEnv("DB_MAX_CONN_IDLE_TIME", time.Minute*15),

		MaxCartQuantity:        getIntEnv("MAX_CART_QUANTITY", 1000),
		OrderNumberMaxAttempts: getIntEnv("ORDER_NUMBER_MAX_ATTEMPTS", 20),
		OfflinePaymentMethods:  getListEnv("OFFLINE_PAYMENT_METHODS", []string{"cod", "esewa", "khalti"}),
		StrictPromoCodes:       getBoolEnv("STRICT_PROMO_CODES", false),

		PaymentGatewayURL: getEnv("PAYMENT_GATEWAY_URL", ""),
		PaymentGatewayKey: getEnv("PAYMENT_GATEWAY_KEY", ""),
		PaymentCurrency:   getEnv("PAYMENT_CURRENCY", "usd"),
		PaymentTimeout:    getDurationEnv("PAYMENT_TIMEOUT", 15*time.Second),

		KafkaBrokers:    getListEnv("KAFKA_BROKERS", nil),
		KafkaOrderTopic: getEnv("KAFKA_ORDER_TOPIC", "orders"),

		CacheStatsTTL: getDurationEnv("CACHE_STATS_TTL", 30*time.Minute),

		RateLimitRPS:   getFloatEnv("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 50),
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("CRITICAL: invalid configuration")
	}
	if cfg.JWTSecret == "default_secret_CHANGE_ME" {
		log.Warn().Msg("Using default JWT secret. Setting up for failure in production.")
	}
	return cfg
}

func (c *Config) Validate() error {
	if c.DBUrl == "" {
		return errors.New("DB_DSN environment variable is required")
	}
	if c.OrderNumberMaxAttempts < 1 {
		return errors.New("ORDER_NUMBER_MAX_ATTEMPTS must be at least 1")
	}
	if c.PaymentGatewayURL != "" && c.PaymentGatewayKey == "" {
		return errors.New("PAYMENT_GATEWAY_KEY is required when PAYMENT_GATEWAY_URL is set")
	}
	return nil
}

// IsOfflinePayment reports whether method settles outside the gateway.
func (c *Config) IsOfflinePayment(method string) bool {
	for _, m := range c.OfflinePaymentMethods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}
