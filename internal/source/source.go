// Package source provides listing sources beyond the marketplace API: a
// local JSON export and a fallback wrapper that switches to a secondary
// source when the primary is unreachable.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/Veraticus/dead-stock/internal/common"
	"github.com/Veraticus/dead-stock/internal/config"
	"github.com/Veraticus/dead-stock/internal/model"
	"github.com/Veraticus/dead-stock/internal/service"
)

// FileSource reads raw listings from a JSON file. The file holds either an
// array of listings or an object with a "listings" array.
type FileSource struct {
	path string
}

// NewFileSource creates a source for path. "~" and environment variables
// are expanded.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: config.ExpandPath(path)}
}

// FetchListings implements service.ListingSource.
func (s *FileSource) FetchListings(ctx context.Context) ([]model.RawListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read listings file: %w", err)
	}

	var listings []model.RawListing
	if err := json.Unmarshal(data, &listings); err == nil {
		return listings, nil
	}

	var wrapped struct {
		Listings []model.RawListing `json:"listings"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse listings file %s: %w", s.path, err)
	}
	return wrapped.Listings, nil
}

// Fallback fetches from Primary and, when it is unreachable, from
// Secondary. Other errors are returned as is.
type Fallback struct {
	Primary   service.ListingSource
	Secondary service.ListingSource
}

// FetchListings implements service.ListingSource.
func (f *Fallback) FetchListings(ctx context.Context) ([]model.RawListing, error) {
	listings, err := f.Primary.FetchListings(ctx)
	if err == nil {
		return listings, nil
	}
	if f.Secondary == nil || !common.IsUnreachable(err) {
		return nil, err
	}

	slog.Warn("Primary listing source unreachable, using fallback", "error", err)

	listings, fbErr := f.Secondary.FetchListings(ctx)
	if fbErr != nil {
		return nil, fmt.Errorf("fallback source failed (%w) after primary failed: %w", fbErr, err)
	}
	return listings, nil
}

var (
	_ service.ListingSource = (*FileSource)(nil)
	_ service.ListingSource = (*Fallback)(nil)
)
