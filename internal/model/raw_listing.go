package model

import (
	"encoding/json"
	"time"
)

// RawListing is an upstream listing record as delivered by a listing source.
// Different sources name the same metric differently, so several aliases are
// kept side by side and resolved once by the ingest normalizer.
type RawListing struct {
	StartTime         *time.Time      `json:"start_time,omitempty"`
	DaysListed        *int            `json:"days_listed,omitempty"`
	QuantitySold      *int            `json:"quantity_sold,omitempty"`
	TotalSales        *int            `json:"total_sales,omitempty"`
	Sold              *int            `json:"sold,omitempty"`
	WatchCount        *int            `json:"watch_count,omitempty"`
	Watchers          *int            `json:"watchers,omitempty"`
	ViewCount         *int            `json:"view_count,omitempty"`
	Views             *int            `json:"views,omitempty"`
	HitCount          *int            `json:"hit_count,omitempty"`
	Impressions       *int            `json:"impressions,omitempty"`
	Price             json.RawMessage `json:"price,omitempty"`
	ItemID            string          `json:"item_id"`
	ListingID         string          `json:"listing_id,omitempty"`
	Title             string          `json:"title"`
	SKU               string          `json:"sku"`
	ImageURL          string          `json:"image_url,omitempty"`
	Marketplace       string          `json:"marketplace,omitempty"`
	IsGlobalWinner    bool            `json:"is_global_winner,omitempty"`
	IsActiveElsewhere bool            `json:"is_active_elsewhere,omitempty"`
}
