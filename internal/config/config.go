package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server       Server       `mapstructure:"server"`
	Database     Database     `mapstructure:"database"`
	Logger       Logger       `mapstructure:"logger"`
	Quotes       Quotes       `mapstructure:"quotes"`
	Cache        Cache        `mapstructure:"cache"`
	Risk         Risk         `mapstructure:"risk"`
	History      History      `mapstructure:"history"`
	Subscription Subscription `mapstructure:"subscription"`
	Stocks       Stocks       `mapstructure:"stocks"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port            int           `mapstructure:"port"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
	SecureCookies   bool          `mapstructure:"secure_cookies"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	LogRequests     bool          `mapstructure:"log_requests"`
}

// Database holds the configuration for the database.
type Database struct {
	Driver   string `mapstructure:"driver"` // sqlite, postgres or mysql
	DSN      string `mapstructure:"dsn"`
	LogLevel string `mapstructure:"log_level"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Quotes configures the stock quote providers.
type Quotes struct {
	Source         string        `mapstructure:"source"` // static, yahoo, polygon or store
	BaseURL        string        `mapstructure:"base_url"`
	PolygonAPIKey  string        `mapstructure:"polygon_api_key"`
	ExchangeSuffix string        `mapstructure:"exchange_suffix"`
	Timeout        time.Duration `mapstructure:"timeout"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	RateLimit      float64       `mapstructure:"rate_limit"` // requests per second, per source
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	DefaultPrice   float64       `mapstructure:"default_price"`
}

// Cache selects the quote cache backend. An empty RedisAddr keeps the cache in process.
type Cache struct {
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	Prefix        string `mapstructure:"prefix"`
}

// Risk holds the defaults applied to new accounts.
type Risk struct {
	DefaultCapital     float64 `mapstructure:"default_capital"`
	DefaultRiskPercent float64 `mapstructure:"default_risk_percent"`
}

// History bounds the calculation history listing.
type History struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
}

// Subscription seeds the device trial gate and the app control row.
type Subscription struct {
	TrialDays       int    `mapstructure:"trial_days"`
	MaintenanceMode bool   `mapstructure:"maintenance_mode"`
	ForcePayment    bool   `mapstructure:"force_payment"`
	Message         string `mapstructure:"message"`
	Version         string `mapstructure:"version"`
}

// Stocks configures the stock table refresher.
type Stocks struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"` // 0 disables the background refresher
	MaxStocks       int           `mapstructure:"max_stocks"`
	Universe        []string      `mapstructure:"universe"`
}

// LoadConfig reads configuration from file or environment variables.
// A .env file in the working directory is loaded first when present.
func LoadConfig(path string) (config Config, err error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	// Allow environment variables to override config file
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.session_ttl", 14*24*time.Hour)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.log_requests", true)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "risk_calculator.db")
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")

	v.SetDefault("quotes.source", "static")
	v.SetDefault("quotes.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("quotes.exchange_suffix", ".NS")
	v.SetDefault("quotes.timeout", 10*time.Second)
	v.SetDefault("quotes.cache_ttl", 5*time.Minute)
	v.SetDefault("quotes.rate_limit", 1) // requests per second
	v.SetDefault("quotes.rate_limit_burst", 1)
	v.SetDefault("quotes.default_price", 150.00)

	v.SetDefault("cache.prefix", "riskcalc:quote:")

	v.SetDefault("risk.default_capital", 2000000)
	v.SetDefault("risk.default_risk_percent", 1.0)

	v.SetDefault("history.default_limit", 50)
	v.SetDefault("history.max_limit", 100)

	v.SetDefault("subscription.trial_days", 30)
	v.SetDefault("subscription.version", "1.0.0")

	v.SetDefault("stocks.max_stocks", 200)
}
