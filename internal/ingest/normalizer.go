// Package ingest turns upstream listing records into canonical listings.
// Alias resolution, classification and scoring happen here exactly once.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/dead-stock/internal/model"
	"github.com/Veraticus/dead-stock/internal/scoring"
)

// Classifier assigns supplier fields to a listing.
type Classifier interface {
	Apply(l *model.Listing)
}

// Normalizer converts raw records into scored, classified listings.
type Normalizer struct {
	classifier Classifier
	now        func() time.Time
}

// NewNormalizer creates a normalizer using classifier.
func NewNormalizer(classifier Classifier) *Normalizer {
	return &Normalizer{classifier: classifier, now: time.Now}
}

// WithClock returns a copy of n using now as its time source.
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	cp := *n
	cp.now = now
	return &cp
}

// Normalize converts one raw record.
func (n *Normalizer) Normalize(raw *model.RawListing) model.Listing {
	l := model.Listing{
		ID:                firstString(raw.ItemID, raw.ListingID),
		Title:             strings.TrimSpace(raw.Title),
		SKU:               strings.TrimSpace(raw.SKU),
		ImageURL:          strings.TrimSpace(raw.ImageURL),
		Marketplace:       strings.ToUpper(strings.TrimSpace(raw.Marketplace)),
		Price:             parsePrice(raw.Price),
		TotalSales:        firstInt(raw.QuantitySold, raw.TotalSales, raw.Sold),
		WatchCount:        firstInt(raw.WatchCount, raw.Watchers),
		ViewCount:         firstInt(raw.ViewCount, raw.Views, raw.HitCount),
		Impressions:       firstInt(raw.Impressions),
		DaysListed:        n.daysListed(raw),
		IsGlobalWinner:    raw.IsGlobalWinner,
		IsActiveElsewhere: raw.IsActiveElsewhere,
	}

	n.classifier.Apply(&l)
	scoring.Apply(&l)

	return l
}

// NormalizeAll converts raw records, skipping records without an id and
// duplicate ids. progress, if not nil, is called after each record.
func (n *Normalizer) NormalizeAll(ctx context.Context, raws []model.RawListing, progress func()) ([]model.Listing, error) {
	listings := make([]model.Listing, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))

	for i := range raws {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		l := n.Normalize(&raws[i])
		if progress != nil {
			progress()
		}

		if l.ID == "" {
			slog.Warn("Skipping listing without an id", "title", l.Title, "sku", l.SKU)
			continue
		}
		if _, dup := seen[l.ID]; dup {
			slog.Debug("Skipping duplicate listing", "id", l.ID)
			continue
		}
		seen[l.ID] = struct{}{}
		listings = append(listings, l)
	}

	return listings, nil
}

func (n *Normalizer) daysListed(raw *model.RawListing) int {
	if raw.DaysListed != nil {
		return max(*raw.DaysListed, 0)
	}
	if raw.StartTime != nil && !raw.StartTime.IsZero() {
		days := int(n.now().Sub(*raw.StartTime).Hours() / 24)
		return max(days, 0)
	}
	return 0
}

// parsePrice accepts a JSON number or a string such as "$12.50".
func parsePrice(raw json.RawMessage) decimal.Decimal {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero
	}

	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero
		}
	} else {
		s = string(raw)
	}

	s = strings.TrimSpace(strings.NewReplacer("$", "", ",", "", "£", "", "€", "").Replace(s))
	if s == "" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		slog.Debug("Unparseable price", "value", string(raw), "error", err)
		return decimal.Zero
	}
	return d
}

func firstString(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstInt(values ...*int) int {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}
