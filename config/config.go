package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Provider  ProviderConfig
	Store     StoreConfig
	RateLimit RateLimitConfig
	History   HistoryConfig
	Matching  MatchingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ProviderConfig holds search provider configuration
type ProviderConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	ProductLookupURL  string        `mapstructure:"product_lookup_url"`
}

// StoreConfig holds document store configuration
type StoreConfig struct {
	Type string `mapstructure:"type"` // "memory" or "mysql"
	DSN  string `mapstructure:"dsn"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP             int `mapstructure:"per_ip"`              // requests per minute per client IP
	SearchesPerMinute int `mapstructure:"searches_per_minute"` // provider searches per account
}

// HistoryConfig bounds the stored price history
type HistoryConfig struct {
	MaxEntriesPerStore int `mapstructure:"max_entries_per_store"`
	MaxDocumentBytes   int `mapstructure:"max_document_bytes"`
}

// MatchingConfig holds list reconciliation configuration
type MatchingConfig struct {
	EnableDebugLogging bool `mapstructure:"enable_debug_logging"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/groceryscout/")

	// GROCERYSCOUT_PROVIDER_API_KEY -> provider.api_key
	v.SetEnvPrefix("GROCERYSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env into the process environment when present.
// Variables that are already set are not overridden.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(".env")
}

// setDefaults sets default configuration values. Every key needs a default so
// AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.base_url", "http://localhost:9090")
	v.SetDefault("provider.model", "")
	v.SetDefault("provider.timeout", "60s")
	v.SetDefault("provider.requests_per_second", 1.0)
	v.SetDefault("provider.burst", 5)
	v.SetDefault("provider.product_lookup_url", "https://world.openfoodfacts.org")

	v.SetDefault("store.type", "memory")
	v.SetDefault("store.dsn", "")

	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.searches_per_minute", 10)

	v.SetDefault("history.max_entries_per_store", 1000)
	v.SetDefault("history.max_document_bytes", 1048576)

	v.SetDefault("matching.enable_debug_logging", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Provider.APIKey == "" {
		return fmt.Errorf("provider API key is required (set GROCERYSCOUT_PROVIDER_API_KEY)")
	}

	if config.Store.Type != "memory" && config.Store.Type != "mysql" {
		return fmt.Errorf("store type must be 'memory' or 'mysql', got: %s", config.Store.Type)
	}

	if config.Store.Type == "mysql" && config.Store.DSN == "" {
		return fmt.Errorf("MySQL DSN is required when store type is 'mysql'")
	}

	if config.History.MaxEntriesPerStore <= 0 {
		return fmt.Errorf("history.max_entries_per_store must be positive, got: %d", config.History.MaxEntriesPerStore)
	}

	if config.History.MaxDocumentBytes <= 0 {
		return fmt.Errorf("history.max_document_bytes must be positive, got: %d", config.History.MaxDocumentBytes)
	}

	return nil
}
