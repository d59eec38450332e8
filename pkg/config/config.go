package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// All environment variables are read here and nowhere else.
type Config struct {
	// Server
	Env string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Scanner thresholds and weights
	Scanner ScannerConfig

	// Benchmark reference asset
	Benchmark BenchmarkConfig

	// Market data source
	Data DataConfig

	// HTTP API
	API APIConfig

	// Continuous scan mode
	Watch WatchConfig

	// Notifications
	Telegram TelegramConfig

	// Scan history persistence
	TrackingEnabled bool

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// ScannerConfig holds every threshold and weight the scoring pipeline uses.
// Passed by value into components so concurrent scans can run with
// different parameters.
type ScannerConfig struct {
	MaxResults        int
	MinPrice          float64
	MaxPrice          float64
	MinVolumeMultiple float64
	MinScore          float64
	MinProbability    float64

	// Signal weights, out of 100. Float and timing weights are folded
	// into the fuel and ignition sub-scores rather than applied as
	// separate multipliers.
	IgnitionWeight float64
	PressureWeight float64
	VolumeWeight   float64
	FloatWeight    float64
	TimingWeight   float64

	MaxExtremeDistance float64
	MinFloatShares     int64
	MaxFloatShares     int64

	BatchSize  int
	BatchDelay time.Duration
}

// BenchmarkConfig holds reference-asset settings
type BenchmarkConfig struct {
	Symbol     string
	CacheTTL   time.Duration
	Timeframes []string
}

// Data provider names
const (
	ProviderSynthetic = "synthetic"
	ProviderYahoo     = "yahoo"
)

// DataConfig selects the market data provider
type DataConfig struct {
	Provider     string // synthetic, yahoo
	YahooBaseURL string
	SeedFile     string
}

// APIConfig holds HTTP server settings
type APIConfig struct {
	Host string
	Port string
}

// WatchConfig holds continuous-scan settings
type WatchConfig struct {
	Interval     time.Duration
	ErrorBackoff time.Duration
}

// TelegramConfig holds optional notifier credentials
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// Load reads configuration from environment variables.
// Only this function calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("FLASHPOINT_ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", "postgres://localhost:5432/flashpoint"),
			MaxConns:        getEnvAsInt("DATABASE_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DATABASE_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DATABASE_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DATABASE_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		Scanner: ScannerConfig{
			MaxResults:        getEnvAsInt("SCAN_MAX_RESULTS", 3),
			MinPrice:          getEnvAsFloat("SCAN_MIN_PRICE", 2.0),
			MaxPrice:          getEnvAsFloat("SCAN_MAX_PRICE", 500.0),
			MinVolumeMultiple: getEnvAsFloat("SCAN_MIN_VOLUME_MULTIPLE", 2.0),
			MinScore:          getEnvAsFloat("SCAN_MIN_SCORE", 70),
			MinProbability:    getEnvAsFloat("SCAN_MIN_PROBABILITY", 0.65),

			IgnitionWeight: getEnvAsFloat("WEIGHT_IGNITION", 25.0),
			PressureWeight: getEnvAsFloat("WEIGHT_PRESSURE", 30.0),
			VolumeWeight:   getEnvAsFloat("WEIGHT_VOLUME", 20.0),
			FloatWeight:    getEnvAsFloat("WEIGHT_FLOAT", 15.0),
			TimingWeight:   getEnvAsFloat("WEIGHT_TIMING", 10.0),

			MaxExtremeDistance: getEnvAsFloat("SCAN_MAX_EXTREME_DISTANCE", 0.20),
			MinFloatShares:     getEnvAsInt64("SCAN_MIN_FLOAT", 1_000_000),
			MaxFloatShares:     getEnvAsInt64("SCAN_MAX_FLOAT", 20_000_000),

			BatchSize:  getEnvAsInt("SCAN_BATCH_SIZE", 10),
			BatchDelay: getEnvAsDuration("SCAN_BATCH_DELAY", "500ms"),
		},

		Benchmark: BenchmarkConfig{
			Symbol:     getEnv("BENCHMARK_SYMBOL", "BTC-USD"),
			CacheTTL:   getEnvAsDuration("BENCHMARK_CACHE_TTL", "300s"),
			Timeframes: getEnvAsSlice("SCAN_TIMEFRAMES", []string{"1h", "4h", "1d"}),
		},

		Data: DataConfig{
			Provider:     getEnv("DATA_PROVIDER", ProviderSynthetic),
			YahooBaseURL: getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			SeedFile:     getEnv("UNIVERSE_SEED_FILE", ""),
		},

		API: APIConfig{
			Host: getEnv("API_HOST", "0.0.0.0"),
			Port: getEnv("API_PORT", "8080"),
		},

		Watch: WatchConfig{
			Interval:     getEnvAsDuration("WATCH_INTERVAL", "60s"),
			ErrorBackoff: getEnvAsDuration("WATCH_ERROR_BACKOFF", "30s"),
		},

		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		},

		TrackingEnabled: getEnvAsBool("TRACKING_ENABLED", true),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are consistent
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("FLASHPOINT_ENV must be one of: development, staging, production")
	}

	s := c.Scanner
	if s.MinPrice <= 0 || s.MaxPrice <= s.MinPrice {
		return fmt.Errorf("price bounds invalid: min=%.2f max=%.2f", s.MinPrice, s.MaxPrice)
	}
	if s.MinFloatShares <= 0 || s.MaxFloatShares <= s.MinFloatShares {
		return fmt.Errorf("float bounds invalid: min=%d max=%d", s.MinFloatShares, s.MaxFloatShares)
	}
	if s.MinProbability < 0 || s.MinProbability > 1 {
		return fmt.Errorf("SCAN_MIN_PROBABILITY must be within [0,1]: %.2f", s.MinProbability)
	}
	if s.BatchSize < 1 {
		return fmt.Errorf("SCAN_BATCH_SIZE must be >= 1: %d", s.BatchSize)
	}

	sum := s.IgnitionWeight + s.PressureWeight + s.VolumeWeight + s.FloatWeight + s.TimingWeight
	if sum < 99.9 || sum > 100.1 {
		return fmt.Errorf("signal weights must sum to 100, got %.1f", sum)
	}

	if c.Data.Provider != ProviderSynthetic && c.Data.Provider != ProviderYahoo {
		return fmt.Errorf("DATA_PROVIDER must be one of: synthetic, yahoo")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
