// Package listings provides a fluent builder for upstream listing records
// used across tests.
//
// Example usage:
//
//	raws := listings.NewBuilder().
//		WithFixture(listings.FixtureStaleAmazon).
//		With("w1", "WM-12345", listings.Days(3)).
//		Build()
package listings

import (
	"time"

	"github.com/Veraticus/dead-stock/internal/model"
)

// Option sets fields on a raw listing.
type Option func(*model.RawListing)

// Days sets days_listed.
func Days(n int) Option {
	return func(r *model.RawListing) { r.DaysListed = &n }
}

// StartedAt sets start_time instead of days_listed.
func StartedAt(t time.Time) Option {
	return func(r *model.RawListing) { r.StartTime = &t }
}

// Sales sets quantity_sold.
func Sales(n int) Option {
	return func(r *model.RawListing) { r.QuantitySold = &n }
}

// Watchers sets watch_count.
func Watchers(n int) Option {
	return func(r *model.RawListing) { r.WatchCount = &n }
}

// Views sets view_count.
func Views(n int) Option {
	return func(r *model.RawListing) { r.ViewCount = &n }
}

// Impressions sets impressions.
func Impressions(n int) Option {
	return func(r *model.RawListing) { r.Impressions = &n }
}

// Title sets the title.
func Title(s string) Option {
	return func(r *model.RawListing) { r.Title = s }
}

// Marketplace sets the marketplace code.
func Marketplace(s string) Option {
	return func(r *model.RawListing) { r.Marketplace = s }
}

// Price sets a raw JSON price value, e.g. `"$12.99"` or `12.99`.
func Price(raw string) Option {
	return func(r *model.RawListing) { r.Price = []byte(raw) }
}

// Fixture is a named, predefined set of listings.
type Fixture string

// Available fixtures.
const (
	// FixtureStaleAmazon is two long-listed Amazon items with no activity.
	FixtureStaleAmazon Fixture = "stale_amazon"
	// FixtureMixed covers stale, selling and fresh listings across suppliers.
	FixtureMixed Fixture = "mixed"
)

var fixtures = map[Fixture][]model.RawListing{
	FixtureStaleAmazon: {
		build("stale-1", "AMZ-B08ABC1234", Title("Desk Lamp"), Marketplace("ebay_us"), Days(90)),
		build("stale-2", "AMZ-B08ABC5678", Title("Garlic Press"), Marketplace("ebay_us"), Days(45)),
	},
	FixtureMixed: {
		build("stale-1", "AMZ-B08ABC1234", Title("Desk Lamp"), Marketplace("ebay_us"), Days(90)),
		build("stale-2", "WM-55512", Title("Mug"), Marketplace("ebay_us"), Days(45)),
		build("seller", "AMZ-B08XYZ9999", Title("Blender"), Marketplace("ebay_us"), Days(90), Sales(3)),
		build("fresh", "AMZ-B08QQQ1111", Title("Kettle"), Marketplace("ebay_us"), Days(5)),
	},
}

// Builder accumulates raw listings in insertion order.
type Builder struct {
	raws []model.RawListing
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// With adds one listing.
func (b *Builder) With(id, sku string, opts ...Option) *Builder {
	b.raws = append(b.raws, build(id, sku, opts...))
	return b
}

// WithFixture adds every listing of a fixture.
func (b *Builder) WithFixture(f Fixture) *Builder {
	for _, r := range fixtures[f] {
		b.raws = append(b.raws, clone(r))
	}
	return b
}

// Build returns a copy of the accumulated listings.
func (b *Builder) Build() []model.RawListing {
	out := make([]model.RawListing, len(b.raws))
	for i, r := range b.raws {
		out[i] = clone(r)
	}
	return out
}

func build(id, sku string, opts ...Option) model.RawListing {
	r := model.RawListing{ItemID: id, SKU: sku, Title: id}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// clone copies pointer fields so fixtures are never shared between tests.
func clone(r model.RawListing) model.RawListing {
	ints := []**int{
		&r.DaysListed, &r.QuantitySold, &r.TotalSales, &r.Sold, &r.WatchCount,
		&r.Watchers, &r.ViewCount, &r.Views, &r.HitCount, &r.Impressions,
	}
	for _, p := range ints {
		if *p != nil {
			v := **p
			*p = &v
		}
	}
	if r.StartTime != nil {
		t := *r.StartTime
		r.StartTime = &t
	}
	if r.Price != nil {
		r.Price = append([]byte(nil), r.Price...)
	}
	return r
}
