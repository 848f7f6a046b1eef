package model

import "strings"

// Default filter thresholds.
const (
	DefaultPeriodDays     = 30
	DefaultMaxSales       = 0
	DefaultMaxWatches     = 0
	DefaultMaxImpressions = 100
	DefaultMaxViews       = 10
)

// FilterAll is the scope value that disables marketplace or supplier scoping.
const FilterAll = "all"

// FilterConfig is the user-supplied threshold configuration for finding
// removal candidates. It never mutates a Listing.
type FilterConfig struct {
	MarketplaceFilter string `json:"marketplace_filter"`
	SupplierFilter    string `json:"supplier_filter"`
	PeriodDays        int    `json:"period_days"`
	MaxSales          int    `json:"max_sales"`
	MaxWatches        int    `json:"max_watches"`
	MaxImpressions    int    `json:"max_impressions"`
	MaxViews          int    `json:"max_views"`
}

// DefaultFilterConfig returns the default thresholds.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		PeriodDays:        DefaultPeriodDays,
		MaxSales:          DefaultMaxSales,
		MaxWatches:        DefaultMaxWatches,
		MaxImpressions:    DefaultMaxImpressions,
		MaxViews:          DefaultMaxViews,
		MarketplaceFilter: FilterAll,
		SupplierFilter:    FilterAll,
	}
}

// ScopesMarketplace reports whether the config restricts by marketplace.
func (c FilterConfig) ScopesMarketplace() bool {
	return !isUnscoped(c.MarketplaceFilter)
}

// ScopesSupplier reports whether the config restricts by supplier.
func (c FilterConfig) ScopesSupplier() bool {
	return !isUnscoped(c.SupplierFilter)
}

func isUnscoped(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, FilterAll)
}
