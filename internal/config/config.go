package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/dead-stock/internal/common"
	"github.com/Veraticus/dead-stock/internal/marketplace"
	"github.com/Veraticus/dead-stock/internal/model"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
)

// Export generators and formats.
const (
	GeneratorLocal  = "local"
	GeneratorRemote = "remote"
	FormatCSV       = "csv"
	FormatXLSX      = "xlsx"
)

// History backends.
const (
	HistoryLocal  = "local"
	HistoryRemote = "remote"
)

// SetDefaults registers default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "~/.local/share/deadstock/deadstock.db")
	v.SetDefault("user", "default")
	v.SetDefault("cache.backend", CacheSQLite)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("filter.period_days", model.DefaultPeriodDays)
	v.SetDefault("filter.max_sales", model.DefaultMaxSales)
	v.SetDefault("filter.max_watches", model.DefaultMaxWatches)
	v.SetDefault("filter.max_impressions", model.DefaultMaxImpressions)
	v.SetDefault("filter.max_views", model.DefaultMaxViews)
	v.SetDefault("filter.marketplace", model.FilterAll)
	v.SetDefault("filter.supplier", model.FilterAll)
	v.SetDefault("export.dir", ".")
	v.SetDefault("export.generator", GeneratorLocal)
	v.SetDefault("export.format", FormatCSV)
	v.SetDefault("export.default_tool", "autods")
	v.SetDefault("history.backend", HistoryLocal)
}

// LoadMarketplaceConfig loads the marketplace API configuration.
// It follows this precedence:
// 1. Viper configuration (from config file or DEADSTOCK_ env vars)
// 2. Direct environment variables (MARKETPLACE_*)
func LoadMarketplaceConfig(v *viper.Viper) (*marketplace.Config, error) {
	cfg := marketplace.Config{
		BaseURL: v.GetString("marketplace.base_url"),
		APIKey:  v.GetString("marketplace.api_key"),
		User:    v.GetString("user"),
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("MARKETPLACE_BASE_URL")
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("MARKETPLACE_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFilterConfig loads the configured thresholds. Values are not
// validated here; the filter engine coerces malformed ones.
func LoadFilterConfig(v *viper.Viper) model.FilterConfig {
	return model.FilterConfig{
		PeriodDays:        v.GetInt("filter.period_days"),
		MaxSales:          v.GetInt("filter.max_sales"),
		MaxWatches:        v.GetInt("filter.max_watches"),
		MaxImpressions:    v.GetInt("filter.max_impressions"),
		MaxViews:          v.GetInt("filter.max_views"),
		MarketplaceFilter: v.GetString("filter.marketplace"),
		SupplierFilter:    v.GetString("filter.supplier"),
	}
}

// Export holds export settings.
type Export struct {
	Dir         string
	Generator   string
	Format      string
	DefaultTool string
}

// LoadExportConfig loads and validates export settings.
func LoadExportConfig(v *viper.Viper) (*Export, error) {
	cfg := &Export{
		Dir:         ExpandPath(v.GetString("export.dir")),
		Generator:   strings.ToLower(v.GetString("export.generator")),
		Format:      strings.ToLower(v.GetString("export.format")),
		DefaultTool: v.GetString("export.default_tool"),
	}

	if err := oneOf("export.generator", cfg.Generator, GeneratorLocal, GeneratorRemote); err != nil {
		return nil, err
	}
	if err := oneOf("export.format", cfg.Format, FormatCSV, FormatXLSX); err != nil {
		return nil, err
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("%w: export.dir", common.ErrMissingConfig)
	}
	return cfg, nil
}

// Storage holds persistence settings.
type Storage struct {
	DatabasePath   string
	CacheBackend   string
	RedisAddr      string
	HistoryBackend string
}

// LoadStorageConfig loads and validates persistence settings.
func LoadStorageConfig(v *viper.Viper) (*Storage, error) {
	cfg := &Storage{
		DatabasePath:   ExpandPath(v.GetString("database.path")),
		CacheBackend:   strings.ToLower(v.GetString("cache.backend")),
		RedisAddr:      v.GetString("redis.addr"),
		HistoryBackend: strings.ToLower(v.GetString("history.backend")),
	}

	if err := oneOf("cache.backend", cfg.CacheBackend, CacheMemory, CacheSQLite, CacheRedis); err != nil {
		return nil, err
	}
	if err := oneOf("history.backend", cfg.HistoryBackend, HistoryLocal, HistoryRemote); err != nil {
		return nil, err
	}
	if cfg.CacheBackend == CacheRedis && cfg.RedisAddr == "" {
		return nil, fmt.Errorf("%w: redis.addr", common.ErrMissingConfig)
	}
	return cfg, nil
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %s must be one of %s, got %q",
		common.ErrInvalidConfig, key, strings.Join(allowed, ", "), value)
}
