package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional run archive)
	Database DatabaseConfig

	// Redis (optional detail cache / shared rate limit)
	Redis RedisConfig

	// Scraping
	Finviz FinvizConfig
	HTTP   HTTPConfig

	// Pipeline I/O
	IntradayDir    string
	OutputCSV      string
	MarketTimezone string

	// Notification
	Telegram TelegramConfig

	// Scheduler
	Schedule string

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
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

// Enabled reports whether a database URL was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// FinvizConfig holds screener scraping configuration
type FinvizConfig struct {
	BaseURL        string
	ScreenerConfig string // optional YAML screener definition

	FetchMaxAttempts  int
	FetchRetryDelay   time.Duration
	DetailMaxAttempts int
	DetailRetryDelay  time.Duration
	DetailRatePerSec  float64 // 0 = unpaced
	DetailCacheTTL    time.Duration
}

// HTTPConfig holds outbound HTTP settings
type HTTPConfig struct {
	UserAgent string
	Timeout   time.Duration
}

// TelegramConfig holds Telegram Bot API configuration
type TelegramConfig struct {
	BotToken    string
	ChannelID   string
	BaseURL     string
	MaxAttempts int // 0 = retry rate limits until the context ends
}

// Enabled reports whether notifications should be sent
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != ""
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 5),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Finviz: FinvizConfig{
			BaseURL:           getEnv("FINVIZ_BASE_URL", "https://finviz.com"),
			ScreenerConfig:    getEnv("SCREENER_CONFIG", ""),
			FetchMaxAttempts:  getEnvAsInt("FETCH_MAX_ATTEMPTS", 3),
			FetchRetryDelay:   getEnvAsDuration("FETCH_RETRY_DELAY", "3s"),
			DetailMaxAttempts: getEnvAsInt("DETAIL_MAX_ATTEMPTS", 3),
			DetailRetryDelay:  getEnvAsDuration("DETAIL_RETRY_DELAY", "3s"),
			DetailRatePerSec:  getEnvAsFloat("DETAIL_RATE_PER_SEC", 0),
			DetailCacheTTL:    getEnvAsDuration("DETAIL_CACHE_TTL", "10m"),
		},

		HTTP: HTTPConfig{
			UserAgent: getEnv("USER_AGENT", defaultUserAgent),
			Timeout:   getEnvAsDuration("HTTP_TIMEOUT", "30s"),
		},

		IntradayDir:    getEnv("INTRADAY_DIR", "1m/{date}"),
		OutputCSV:      getEnv("OUTPUT_CSV", "stocks_data_with_premarket.csv"),
		MarketTimezone: getEnv("MARKET_TIMEZONE", "America/New_York"),

		Telegram: TelegramConfig{
			BotToken:    getEnv("BOT_TOKEN", ""),
			ChannelID:   getEnv("CHANNEL_ID", ""),
			BaseURL:     getEnv("TELEGRAM_BASE_URL", "https://api.telegram.org"),
			MaxAttempts: getEnvAsInt("TELEGRAM_MAX_ATTEMPTS", 0),
		},

		// 평일 09:00 (장 시작 30분 전)
		Schedule: getEnv("SCHEDULE", "0 0 9 * * 1-5"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
		LogFile:   getEnv("LOG_FILE", "logs.log"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Location returns the market timezone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.MarketTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Finviz.BaseURL == "" {
		return fmt.Errorf("FINVIZ_BASE_URL is required")
	}

	if c.Finviz.FetchMaxAttempts < 1 {
		return fmt.Errorf("FETCH_MAX_ATTEMPTS must be at least 1")
	}

	if c.Finviz.DetailMaxAttempts < 1 {
		return fmt.Errorf("DETAIL_MAX_ATTEMPTS must be at least 1")
	}

	if c.Telegram.MaxAttempts < 0 {
		return fmt.Errorf("TELEGRAM_MAX_ATTEMPTS must not be negative")
	}

	if _, err := time.LoadLocation(c.MarketTimezone); err != nil {
		return fmt.Errorf("MARKET_TIMEZONE %q is invalid: %w", c.MarketTimezone, err)
	}

	// 토큰만 있고 채널이 없으면 전송 불가
	if c.Telegram.BotToken != "" && c.Telegram.ChannelID == "" {
		return fmt.Errorf("CHANNEL_ID is required when BOT_TOKEN is set")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
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
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
