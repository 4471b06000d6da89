package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	CMC struct {
		BaseURL    string `yaml:"base_url"`
		APIKey     string `yaml:"api_key"`
		Convert    string `yaml:"convert"`
		Limit      int    `yaml:"limit"`
		TimeoutSec int    `yaml:"timeout_sec"`
	} `yaml:"cmc"`
	Refresh struct {
		IntervalSec    int    `yaml:"interval_sec"`
		SnapshotTTLSec int    `yaml:"snapshot_ttl_sec"`
		CatalogCron    string `yaml:"catalog_cron"`
	} `yaml:"refresh"`
	Server struct {
		Addr       string `yaml:"addr"`
		PageSize   int    `yaml:"page_size"`
		CORSOrigin string `yaml:"cors_origin"`
	} `yaml:"server"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	RateLimit struct {
		MaxPerMinute int `yaml:"max_per_minute"`
		Burst        int `yaml:"burst"`
	} `yaml:"ratelimit"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides. A local .env file is honored so the API key can stay out of
// the config file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("CMC_API_KEY"); v != "" {
		cfg.CMC.APIKey = v
	}
	if v := os.Getenv("CMC_BASE_URL"); v != "" {
		cfg.CMC.BaseURL = v
	}
	if v := os.Getenv("CMC_CONVERT"); v != "" {
		cfg.CMC.Convert = v
	}
	if v := os.Getenv("CMC_LIMIT"); v != "" {
		var limit int
		if _, err := fmt.Sscanf(v, "%d", &limit); err == nil {
			cfg.CMC.Limit = limit
		}
	}
	if v := os.Getenv("REFRESH_INTERVAL_SEC"); v != "" {
		var sec int
		if _, err := fmt.Sscanf(v, "%d", &sec); err == nil {
			cfg.Refresh.IntervalSec = sec
		}
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.CMC.BaseURL == "" {
		cfg.CMC.BaseURL = "https://pro-api.coinmarketcap.com"
	}
	if cfg.CMC.Convert == "" {
		cfg.CMC.Convert = "USD"
	}
	if cfg.CMC.Limit == 0 {
		cfg.CMC.Limit = 100
	}
	if cfg.CMC.TimeoutSec == 0 {
		cfg.CMC.TimeoutSec = 15
	}
	if cfg.Refresh.IntervalSec == 0 {
		cfg.Refresh.IntervalSec = 30
	}
	if cfg.Refresh.SnapshotTTLSec == 0 {
		cfg.Refresh.SnapshotTTLSec = 120
	}
	if cfg.Refresh.CatalogCron == "" {
		cfg.Refresh.CatalogCron = "0 0 6 * * *"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.PageSize == 0 {
		cfg.Server.PageSize = 20
	}
	if cfg.RateLimit.MaxPerMinute == 0 {
		cfg.RateLimit.MaxPerMinute = 25
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 5
	}

	return cfg, nil
}

// Validate checks that all required fields are set and in range.
func (c *Config) Validate() error {
	if c.CMC.APIKey == "" {
		return fmt.Errorf("cmc.api_key is required (set CMC_API_KEY)")
	}
	switch c.CMC.Convert {
	case "USD", "EUR", "CNY":
	default:
		return fmt.Errorf("cmc.convert must be one of USD, EUR, CNY")
	}
	if c.CMC.Limit < 10 || c.CMC.Limit > 500 {
		return fmt.Errorf("cmc.limit must be between 10 and 500")
	}
	if c.Refresh.IntervalSec < 5 {
		return fmt.Errorf("refresh.interval_sec must be at least 5")
	}
	if !validPageSize(c.Server.PageSize) {
		return fmt.Errorf("server.page_size must be one of 10, 20, 30, 50")
	}
	return nil
}

// PageSizes are the page sizes the dashboard offers.
var PageSizes = []int{10, 20, 30, 50}

func validPageSize(n int) bool {
	for _, p := range PageSizes {
		if n == p {
			return true
		}
	}
	return false
}
