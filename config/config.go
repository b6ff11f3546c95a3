package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Storefront StorefrontConfig `mapstructure:"storefront"`
	Fetcher    FetcherConfig    `mapstructure:"fetcher"`
	Cache      CacheConfig      `mapstructure:"cache"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Drying     DryingConfig     `mapstructure:"drying"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StorefrontConfig controls which product URLs are accepted
type StorefrontConfig struct {
	AllowedHosts      []string `mapstructure:"allowed_hosts"`
	ProductPathMarker string   `mapstructure:"product_path_marker"`
	EmbedImages       bool     `mapstructure:"embed_images"`
}

// FetcherConfig holds outbound HTTP configuration
type FetcherConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
	Accept            string        `mapstructure:"accept"`
	AcceptLanguage    string        `mapstructure:"accept_language"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	MaxBodyBytes      int64         `mapstructure:"max_body_bytes"`
	MaxRetries        int           `mapstructure:"max_retries"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
}

// RateLimitConfig holds inbound rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute, 0 disables
}

// DryingConfig locates the drying table and its upstream source
type DryingConfig struct {
	TableFile string `mapstructure:"table_file"`
	WikiURL   string `mapstructure:"wiki_url"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // "text" or "json"
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// DefaultWikiURL is the vendor page the drying table is generated from
const DefaultWikiURL = "https://wiki.bambulab.com/en/filament-acc/filament/dry-filament"

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
	v.AddConfigPath("/etc/baglabel/")

	// BAGLABEL_CACHE_TTL maps to cache.ttl
	v.SetEnvPrefix("BAGLABEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
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

// loadEnvFile loads .env from the working directory when present.
// Variables already set in the environment win.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(".env")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Storefront defaults
	v.SetDefault("storefront.allowed_hosts", []string{"bambulab.com"})
	v.SetDefault("storefront.product_path_marker", "/products/")
	v.SetDefault("storefront.embed_images", true)

	// Fetcher defaults
	v.SetDefault("fetcher.timeout", "10s")
	v.SetDefault("fetcher.user_agent", "")
	v.SetDefault("fetcher.accept", "")
	v.SetDefault("fetcher.accept_language", "")
	v.SetDefault("fetcher.requests_per_second", 2.0)
	v.SetDefault("fetcher.burst", 5)
	v.SetDefault("fetcher.max_body_bytes", 8<<20)
	v.SetDefault("fetcher.max_retries", 2)

	// Cache defaults
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.max_entries", 100)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)

	// Drying table defaults
	v.SetDefault("drying.table_file", "")
	v.SetDefault("drying.wiki_url", DefaultWikiURL)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", true)
}

// validate validates the configuration
func validate(config *Config) error {
	hosts := 0
	for _, h := range config.Storefront.AllowedHosts {
		if strings.TrimSpace(h) != "" {
			hosts++
		}
	}
	if hosts == 0 {
		return fmt.Errorf("at least one storefront host is required (set BAGLABEL_STOREFRONT_ALLOWED_HOSTS)")
	}

	if config.Fetcher.Timeout <= 0 {
		return fmt.Errorf("fetcher timeout must be positive, got: %s", config.Fetcher.Timeout)
	}

	if config.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache max entries must be positive, got: %d", config.Cache.MaxEntries)
	}

	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got: %s", config.Cache.TTL)
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("ratelimit per_ip must not be negative, got: %d", config.RateLimit.PerIP)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("log format must be 'text' or 'json', got: %s", config.Log.Format)
	}

	return nil
}
