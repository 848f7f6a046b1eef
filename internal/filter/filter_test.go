package filter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dead-stock/internal/common"
	"github.com/Veraticus/dead-stock/internal/model"
)

func deadListing(id string) model.Listing {
	return model.Listing{
		ID:           id,
		SupplierName: "Amazon",
		Marketplace:  "EBAY_US",
		DaysListed:   45,
		Impressions:  20,
		ViewCount:    3,
	}
}

func TestMatches(t *testing.T) {
	cfg := model.DefaultFilterConfig()

	tests := []struct {
		mutate func(l *model.Listing)
		name   string
		want   bool
	}{
		{name: "all five hold", mutate: func(*model.Listing) {}, want: true},
		{name: "exactly at every threshold", mutate: func(l *model.Listing) {
			l.DaysListed = 30
			l.Impressions = 100
			l.ViewCount = 10
		}, want: true},
		{name: "too young", mutate: func(l *model.Listing) { l.DaysListed = 29 }, want: false},
		{name: "has a sale", mutate: func(l *model.Listing) { l.TotalSales = 1 }, want: false},
		{name: "has a watcher", mutate: func(l *model.Listing) { l.WatchCount = 1 }, want: false},
		{name: "too many impressions", mutate: func(l *model.Listing) { l.Impressions = 101 }, want: false},
		{name: "too many views", mutate: func(l *model.Listing) { l.ViewCount = 11 }, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := deadListing("1")
			tt.mutate(&l)
			assert.Equal(t, tt.want, Matches(&l, cfg))
		})
	}
}

func TestApply(t *testing.T) {
	listings := []model.Listing{deadListing("a"), deadListing("b"), deadListing("c"), deadListing("d")}
	listings[1].TotalSales = 3
	listings[2].Marketplace = "EBAY_GB"
	listings[3].SupplierName = "AutoDS"
	listings[3].WrappedSupplier = "Amazon"

	t.Run("unscoped", func(t *testing.T) {
		got := Apply(listings, model.DefaultFilterConfig())
		assert.Equal(t, []string{"a", "c", "d"}, model.IDs(got))
	})

	t.Run("idempotent", func(t *testing.T) {
		cfg := model.DefaultFilterConfig()
		assert.Equal(t, Apply(listings, cfg), Apply(listings, cfg))
	})

	t.Run("marketplace scope", func(t *testing.T) {
		cfg := model.DefaultFilterConfig()
		cfg.MarketplaceFilter = "ebay_gb"
		assert.Equal(t, []string{"c"}, model.IDs(Apply(listings, cfg)))
	})

	t.Run("supplier scope includes wrapped supplier", func(t *testing.T) {
		cfg := model.DefaultFilterConfig()
		cfg.SupplierFilter = "Amazon"
		assert.Equal(t, []string{"a", "c", "d"}, model.IDs(Apply(listings, cfg)))

		cfg.SupplierFilter = "AutoDS"
		assert.Equal(t, []string{"d"}, model.IDs(Apply(listings, cfg)))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Apply(nil, model.DefaultFilterConfig()))
	})
}

func TestNormalize(t *testing.T) {
	t.Run("valid config is unchanged", func(t *testing.T) {
		cfg := model.DefaultFilterConfig()
		got, warnings := Normalize(cfg)
		assert.Empty(t, warnings)
		assert.Equal(t, cfg, got)
	})

	t.Run("negative values fall back to defaults", func(t *testing.T) {
		cfg := model.FilterConfig{
			PeriodDays:     -1,
			MaxSales:       2,
			MaxWatches:     -3,
			MaxImpressions: 50,
			MaxViews:       -10,
		}

		got, warnings := Normalize(cfg)
		require.Len(t, warnings, 3)

		var vErr *common.ValidationError
		require.True(t, errors.As(warnings[0], &vErr))
		assert.Equal(t, "period_days", vErr.Field)
		assert.Equal(t, -1, vErr.Value)

		assert.Equal(t, model.DefaultPeriodDays, got.PeriodDays)
		assert.Equal(t, 2, got.MaxSales)
		assert.Equal(t, model.DefaultMaxWatches, got.MaxWatches)
		assert.Equal(t, 50, got.MaxImpressions)
		assert.Equal(t, model.DefaultMaxViews, got.MaxViews)
		assert.Equal(t, model.FilterAll, got.MarketplaceFilter)
		assert.Equal(t, model.FilterAll, got.SupplierFilter)
	})

	t.Run("scope values are trimmed", func(t *testing.T) {
		cfg := model.DefaultFilterConfig()
		cfg.SupplierFilter = "  Walmart "
		cfg.MarketplaceFilter = "ALL"

		got, _ := Normalize(cfg)
		assert.Equal(t, "Walmart", got.SupplierFilter)
		assert.Equal(t, model.FilterAll, got.MarketplaceFilter)
	})
}
