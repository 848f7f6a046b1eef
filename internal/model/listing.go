// Package model defines the core domain models used throughout the application.
package model

import (
	"github.com/shopspring/decimal"
)

// Recommendation is the suggested action for a scored listing.
type Recommendation string

// Recommendation constants.
const (
	RecommendDelete   Recommendation = "DELETE"
	RecommendOptimize Recommendation = "OPTIMIZE"
	RecommendMonitor  Recommendation = "MONITOR"
	RecommendReview   Recommendation = "REVIEW"
)

// Pool is the mutually exclusive location of a listing in the sweep workflow.
type Pool string

// Pool constants.
const (
	PoolActive    Pool = "ACTIVE"
	PoolCandidate Pool = "CANDIDATE"
	PoolQueued    Pool = "QUEUED"
)

// Supplier names that are not backed by an entry in the supplier table.
const (
	SupplierUnknown    = "Unknown"
	SupplierUnverified = "Unverified"
)

// Listing is the canonical, normalized shape of a marketplace listing.
// Classification and score fields are computed once at ingestion.
type Listing struct {
	SupplierID        *string         `json:"supplier_id"`
	AutomationTool    *string         `json:"automation_tool"`
	Price             decimal.Decimal `json:"price"`
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	SKU               string          `json:"sku"`
	ImageURL          string          `json:"image_url,omitempty"`
	Marketplace       string          `json:"marketplace,omitempty"`
	SupplierName      string          `json:"supplier_name"`
	WrappedSupplier   string          `json:"wrapped_supplier,omitempty"`
	Recommendation    Recommendation  `json:"recommendation"`
	DaysListed        int             `json:"days_listed"`
	TotalSales        int             `json:"total_sales"`
	WatchCount        int             `json:"watch_count"`
	ViewCount         int             `json:"view_count"`
	Impressions       int             `json:"impressions"`
	ZombieScore       int             `json:"zombie_score"`
	IsGlobalWinner    bool            `json:"is_global_winner"`
	IsActiveElsewhere bool            `json:"is_active_elsewhere"`
}

// Tool returns the automation tool name or an empty string.
func (l *Listing) Tool() string {
	if l.AutomationTool == nil {
		return ""
	}
	return *l.AutomationTool
}

// SupplierRef returns the supplier id or an empty string.
func (l *Listing) SupplierRef() string {
	if l.SupplierID == nil {
		return ""
	}
	return *l.SupplierID
}

// IDs returns the ids of the given listings in order.
func IDs(listings []Listing) []string {
	ids := make([]string, len(listings))
	for i, l := range listings {
		ids[i] = l.ID
	}
	return ids
}
