// Package filter decides which listings are removal candidates.
package filter

import (
	"strings"

	"github.com/Veraticus/dead-stock/internal/common"
	"github.com/Veraticus/dead-stock/internal/model"
)

// Matches reports whether l satisfies every threshold in cfg.
// Marketplace and supplier scoping are not part of the predicate.
func Matches(l *model.Listing, cfg model.FilterConfig) bool {
	return l.DaysListed >= cfg.PeriodDays &&
		l.TotalSales <= cfg.MaxSales &&
		l.WatchCount <= cfg.MaxWatches &&
		l.Impressions <= cfg.MaxImpressions &&
		l.ViewCount <= cfg.MaxViews
}

// InScope reports whether l falls within the marketplace and supplier
// scope of cfg. A supplier filter matches either the supplier name or the
// supplier wrapped by an automation tool.
func InScope(l *model.Listing, cfg model.FilterConfig) bool {
	if cfg.ScopesMarketplace() && !strings.EqualFold(l.Marketplace, strings.TrimSpace(cfg.MarketplaceFilter)) {
		return false
	}
	if cfg.ScopesSupplier() {
		want := strings.TrimSpace(cfg.SupplierFilter)
		if !strings.EqualFold(l.SupplierName, want) && !strings.EqualFold(l.WrappedSupplier, want) {
			return false
		}
	}
	return true
}

// Apply returns the in-scope listings that match cfg, preserving order.
// It is idempotent: the same snapshot and config yield the same set.
func Apply(listings []model.Listing, cfg model.FilterConfig) []model.Listing {
	candidates := make([]model.Listing, 0)
	for i := range listings {
		l := &listings[i]
		if InScope(l, cfg) && Matches(l, cfg) {
			candidates = append(candidates, *l)
		}
	}
	return candidates
}

// Normalize coerces malformed thresholds to their defaults. Each coerced
// field is reported as a *common.ValidationError warning; the returned
// config is always usable.
func Normalize(cfg model.FilterConfig) (model.FilterConfig, []error) {
	var warnings []error

	fix := func(field string, v *int, def int) {
		if *v < 0 {
			warnings = append(warnings, &common.ValidationError{Field: field, Value: *v, Default: def})
			*v = def
		}
	}

	fix("period_days", &cfg.PeriodDays, model.DefaultPeriodDays)
	fix("max_sales", &cfg.MaxSales, model.DefaultMaxSales)
	fix("max_watches", &cfg.MaxWatches, model.DefaultMaxWatches)
	fix("max_impressions", &cfg.MaxImpressions, model.DefaultMaxImpressions)
	fix("max_views", &cfg.MaxViews, model.DefaultMaxViews)

	cfg.MarketplaceFilter = normalizeScope(cfg.MarketplaceFilter)
	cfg.SupplierFilter = normalizeScope(cfg.SupplierFilter)

	return cfg, warnings
}

func normalizeScope(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, model.FilterAll) {
		return model.FilterAll
	}
	return v
}
