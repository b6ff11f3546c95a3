package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if len(cfg.Storefront.AllowedHosts) != 1 || cfg.Storefront.AllowedHosts[0] != "bambulab.com" {
			t.Errorf("Storefront.AllowedHosts = %v, want [bambulab.com]", cfg.Storefront.AllowedHosts)
		}
		if cfg.Storefront.ProductPathMarker != "/products/" {
			t.Errorf("Storefront.ProductPathMarker = %s, want /products/", cfg.Storefront.ProductPathMarker)
		}
		if !cfg.Storefront.EmbedImages {
			t.Errorf("Storefront.EmbedImages = false, want true")
		}
		if cfg.Fetcher.Timeout != 10*time.Second {
			t.Errorf("Fetcher.Timeout = %v, want 10s", cfg.Fetcher.Timeout)
		}
		if cfg.Fetcher.MaxRetries != 2 {
			t.Errorf("Fetcher.MaxRetries = %d, want 2", cfg.Fetcher.MaxRetries)
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
		if cfg.Cache.MaxEntries != 100 {
			t.Errorf("Cache.MaxEntries = %d, want 100", cfg.Cache.MaxEntries)
		}
		if cfg.RateLimit.PerIP != 60 {
			t.Errorf("RateLimit.PerIP = %d, want 60", cfg.RateLimit.PerIP)
		}
		if cfg.Drying.WikiURL != DefaultWikiURL {
			t.Errorf("Drying.WikiURL = %s, want %s", cfg.Drying.WikiURL, DefaultWikiURL)
		}
		if cfg.Log.Format != "text" {
			t.Errorf("Log.Format = %s, want text", cfg.Log.Format)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		t.Setenv("BAGLABEL_SERVER_PORT", "9090")
		t.Setenv("BAGLABEL_SERVER_ENVIRONMENT", "production")
		t.Setenv("BAGLABEL_STOREFRONT_ALLOWED_HOSTS", "bambulab.com,store.example.com")
		t.Setenv("BAGLABEL_FETCHER_TIMEOUT", "3s")
		t.Setenv("BAGLABEL_CACHE_TTL", "1h")
		t.Setenv("BAGLABEL_CACHE_MAX_ENTRIES", "10")
		t.Setenv("BAGLABEL_RATELIMIT_PER_IP", "200")
		t.Setenv("BAGLABEL_DRYING_TABLE_FILE", "/tmp/drying.yaml")
		t.Setenv("BAGLABEL_LOG_FORMAT", "json")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if len(cfg.Storefront.AllowedHosts) != 2 || cfg.Storefront.AllowedHosts[1] != "store.example.com" {
			t.Errorf("Storefront.AllowedHosts = %v, want [bambulab.com store.example.com]", cfg.Storefront.AllowedHosts)
		}
		if cfg.Fetcher.Timeout != 3*time.Second {
			t.Errorf("Fetcher.Timeout = %v, want 3s", cfg.Fetcher.Timeout)
		}
		if cfg.Cache.TTL != time.Hour {
			t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
		}
		if cfg.Cache.MaxEntries != 10 {
			t.Errorf("Cache.MaxEntries = %d, want 10", cfg.Cache.MaxEntries)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
		if cfg.Drying.TableFile != "/tmp/drying.yaml" {
			t.Errorf("Drying.TableFile = %s, want /tmp/drying.yaml", cfg.Drying.TableFile)
		}
		if cfg.Log.Format != "json" {
			t.Errorf("Log.Format = %s, want json", cfg.Log.Format)
		}
	})

	t.Run("fails validation for invalid log format", func(t *testing.T) {
		t.Setenv("BAGLABEL_LOG_FORMAT", "xml")

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for invalid log format")
		}
	})

	t.Run("fails validation for zero cache size", func(t *testing.T) {
		t.Setenv("BAGLABEL_CACHE_MAX_ENTRIES", "0")

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for zero cache size")
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		os.Chdir(t.TempDir())

		if err := loadEnvFile(); err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables from .env file", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		os.Chdir(t.TempDir())

		envContent := "# Comment line\nBAGLABEL_TEST_VAR_1=value1\n\nBAGLABEL_TEST_VAR_2=value2\n"
		if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}
		defer os.Unsetenv("BAGLABEL_TEST_VAR_1")
		defer os.Unsetenv("BAGLABEL_TEST_VAR_2")

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("BAGLABEL_TEST_VAR_1") != "value1" {
			t.Errorf("BAGLABEL_TEST_VAR_1 = %s, want value1", os.Getenv("BAGLABEL_TEST_VAR_1"))
		}
		if os.Getenv("BAGLABEL_TEST_VAR_2") != "value2" {
			t.Errorf("BAGLABEL_TEST_VAR_2 = %s, want value2", os.Getenv("BAGLABEL_TEST_VAR_2"))
		}
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		os.Chdir(t.TempDir())
		t.Setenv("BAGLABEL_TEST_OVERRIDE", "existing-value")

		if err := os.WriteFile(".env", []byte("BAGLABEL_TEST_OVERRIDE=new-value"), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("BAGLABEL_TEST_OVERRIDE") != "existing-value" {
			t.Errorf("BAGLABEL_TEST_OVERRIDE = %s, want existing-value", os.Getenv("BAGLABEL_TEST_OVERRIDE"))
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Storefront: StorefrontConfig{AllowedHosts: []string{"bambulab.com"}},
			Fetcher:    FetcherConfig{Timeout: 10 * time.Second},
			Cache:      CacheConfig{TTL: time.Hour, MaxEntries: 100},
			Log:        LogConfig{Format: "text"},
		}
	}

	t.Run("validates successfully with all required fields", func(t *testing.T) {
		if err := validate(valid()); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no allowed hosts", func(c *Config) { c.Storefront.AllowedHosts = nil }},
		{"blank allowed hosts", func(c *Config) { c.Storefront.AllowedHosts = []string{" "} }},
		{"zero timeout", func(c *Config) { c.Fetcher.Timeout = 0 }},
		{"zero ttl", func(c *Config) { c.Cache.TTL = 0 }},
		{"negative cache size", func(c *Config) { c.Cache.MaxEntries = -1 }},
		{"negative rate limit", func(c *Config) { c.RateLimit.PerIP = -1 }},
		{"unknown log format", func(c *Config) { c.Log.Format = "yaml" }},
	}

	for _, tt := range tests {
		t.Run("fails for "+tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := validate(cfg); err == nil {
				t.Error("validate() error = nil, want error")
			}
		})
	}
}
