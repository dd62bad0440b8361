// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, Redis and Kafka endpoints,
// worker tuning, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-store-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// RedisConfig defines the cache / notification-channel connection settings.
type RedisConfig struct {
	Addr         string // REDIS_ADDR host:port
	Username     string // REDIS_USERNAME (managed Redis / ACL setups)
	Password     string // REDIS_PASSWORD
	DB           int    // REDIS_DB
	TLS          bool   // REDIS_TLS
	StockChannel string // STOCK_CHANNEL pub/sub channel for stock events
}

// KafkaConfig defines the purchase-intent message queue settings.
type KafkaConfig struct {
	Brokers       []string // KAFKA_BROKERS (CSV)
	PurchaseTopic string   // PURCHASE_TOPIC
	ConsumerGroup string   // CONSUMER_GROUP for the settlement worker
}

// WorkerConfig tunes the settlement worker loop.
type WorkerConfig struct {
	PaymentDelay time.Duration // PAYMENT_DELAY simulated gateway latency
	MinBackoff   time.Duration // WORKER_MIN_BACKOFF first reconnect delay
	MaxBackoff   time.Duration // WORKER_MAX_BACKOFF reconnect delay ceiling
}

// SeedConfig describes the default product guaranteed to exist at startup.
type SeedConfig struct {
	ProductID    int     // DEFAULT_PRODUCT_ID
	ProductName  string  // DEFAULT_PRODUCT_NAME
	ProductStock int     // DEFAULT_PRODUCT_STOCK
	ProductPrice float64 // DEFAULT_PRODUCT_PRICE
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route (needs swag-generated docs)
	APIBasePath    string // base path for API routes

	// Store
	DBPath string // SQLite path

	// Cache / queue / worker
	Redis  RedisConfig
	Kafka  KafkaConfig
	Worker WorkerConfig
	Seed   SeedConfig

	// Live updates
	SSEKeepAlive time.Duration // interval between SSE keep-alive comments

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Store
		DBPath: getenv("DB_PATH", "store.db"),

		// Cache
		Redis: RedisConfig{
			Addr:         getenv("REDIS_ADDR", "localhost:6379"),
			Username:     getenv("REDIS_USERNAME", ""),
			Password:     getenv("REDIS_PASSWORD", ""),
			DB:           getint("REDIS_DB", 0),
			TLS:          getbool("REDIS_TLS", false),
			StockChannel: getenv("STOCK_CHANNEL", "stock-updates"),
		},

		// Queue
		Kafka: KafkaConfig{
			Brokers:       splitCSV(getenv("KAFKA_BROKERS", "localhost:9092")),
			PurchaseTopic: getenv("PURCHASE_TOPIC", "purchases"),
			ConsumerGroup: getenv("CONSUMER_GROUP", "settlement-worker"),
		},

		// Worker
		Worker: WorkerConfig{
			PaymentDelay: getdur("PAYMENT_DELAY", time.Second),
			MinBackoff:   getdur("WORKER_MIN_BACKOFF", time.Second),
			MaxBackoff:   getdur("WORKER_MAX_BACKOFF", 30*time.Second),
		},

		// Seeding
		Seed: SeedConfig{
			ProductID:    getint("DEFAULT_PRODUCT_ID", 1),
			ProductName:  getenv("DEFAULT_PRODUCT_NAME", "Widget"),
			ProductStock: getint("DEFAULT_PRODUCT_STOCK", 100),
			ProductPrice: getfloat("DEFAULT_PRODUCT_PRICE", 9.99),
		},

		// Live updates
		SSEKeepAlive: getdur("SSE_KEEPALIVE", 5*time.Second),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 20.0),
		RateBurst: getint("RATE_BURST", 40),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-store-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		return cfg, errors.New("REDIS_ADDR must not be empty")
	}
	if cfg.Redis.DB < 0 || cfg.Redis.DB > 15 {
		return cfg, errors.New("REDIS_DB must be in [0,15]")
	}
	if strings.TrimSpace(cfg.Redis.StockChannel) == "" {
		return cfg, errors.New("STOCK_CHANNEL must not be empty")
	}
	if len(cfg.Kafka.Brokers) == 0 {
		return cfg, errors.New("KAFKA_BROKERS must not be empty")
	}
	if strings.TrimSpace(cfg.Kafka.PurchaseTopic) == "" {
		return cfg, errors.New("PURCHASE_TOPIC must not be empty")
	}
	if strings.TrimSpace(cfg.Kafka.ConsumerGroup) == "" {
		return cfg, errors.New("CONSUMER_GROUP must not be empty")
	}
	if cfg.Worker.PaymentDelay < 0 {
		return cfg, errors.New("PAYMENT_DELAY must be >= 0")
	}
	if cfg.Worker.MinBackoff <= 0 || cfg.Worker.MaxBackoff < cfg.Worker.MinBackoff {
		return cfg, errors.New("worker backoff bounds must satisfy 0 < min <= max")
	}
	if cfg.Seed.ProductID <= 0 {
		return cfg, errors.New("DEFAULT_PRODUCT_ID must be > 0")
	}
	if cfg.Seed.ProductStock < 0 {
		return cfg, errors.New("DEFAULT_PRODUCT_STOCK must be >= 0")
	}
	if cfg.Seed.ProductPrice < 0 {
		return cfg, errors.New("DEFAULT_PRODUCT_PRICE must be >= 0")
	}
	if cfg.SSEKeepAlive <= 0 {
		return cfg, errors.New("SSE_KEEPALIVE must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
