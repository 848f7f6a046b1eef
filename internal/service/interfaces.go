// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/dead-stock/internal/model"
)

// Persistence keys stored through the KV port, scoped per user.
const (
	KeyToolMapping   = "tool_mapping"
	KeySyncModeMap   = "sync_mode_map"
	KeyQueueIDs      = "queue_ids"
	KeyCacheSnapshot = "cache_snapshot"
	KeyFilterConfig  = "filter_config"
)

// KV is the persistence port: per-user key-value storage that survives
// process restarts.
type KV interface {
	Get(ctx context.Context, userKey, key string) ([]byte, bool, error)
	Set(ctx context.Context, userKey, key string, value []byte) error
	Remove(ctx context.Context, userKey, key string) error
}

// ListingSource supplies raw listings from the marketplace.
type ListingSource interface {
	FetchListings(ctx context.Context) ([]model.RawListing, error)
}

// Billing is the credit/billing collaborator that meters costed scans.
type Billing interface {
	Balance(ctx context.Context) (*model.CreditBalance, error)
	Consume(ctx context.Context, credits int) (*model.CreditBalance, error)
}

// HistoryLog records exported listings and reports the running total.
type HistoryLog interface {
	Append(ctx context.Context, userKey string, records []model.AuditRecord) (int, error)
	Count(ctx context.Context, userKey string) (int, error)
}

// HistoryReader is implemented by history logs that can list past records.
type HistoryReader interface {
	Recent(ctx context.Context, userKey string, limit int) ([]model.AuditRecord, error)
}

// GenerateRequest is the input of a CSV generation call.
type GenerateRequest struct {
	TargetTool string
	ExportMode model.ExportMode
	Items      []model.Listing
	// Survivors holds the supplier's remaining inventory for survivor exports.
	Survivors []model.Listing
}

// CSVGenerator turns export items into file bytes.
type CSVGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]byte, error)
}

// HealthChecker reports upstream availability.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// Linear grows the delay by InitialDelay per attempt instead of multiplying.
	Linear bool
}

// NoRetry runs an operation exactly once.
var NoRetry = RetryOptions{MaxAttempts: 1}

// ReadRetry is the bounded linear policy for health-check and credit reads.
var ReadRetry = RetryOptions{
	MaxAttempts:  3,
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     2 * time.Second,
	Linear:       true,
}
