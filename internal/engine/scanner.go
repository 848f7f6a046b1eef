// Package engine orchestrates scans: fetching listings, charging credits,
// caching the snapshot and applying the filter. A scan is either costed
// (fresh fetch, billed) or free (re-evaluation of the cached snapshot).
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/dead-stock/internal/cache"
	"github.com/Veraticus/dead-stock/internal/common"
	"github.com/Veraticus/dead-stock/internal/filter"
	"github.com/Veraticus/dead-stock/internal/ingest"
	"github.com/Veraticus/dead-stock/internal/model"
	"github.com/Veraticus/dead-stock/internal/queue"
	"github.com/Veraticus/dead-stock/internal/service"
)

// Scanner runs costed and free scans for users.
type Scanner struct {
	source     service.ListingSource
	billing    service.Billing
	cache      *cache.Store
	normalizer *ingest.Normalizer
	queue      *queue.Manager
	kv         service.KV
}

// Config holds the scanner's collaborators. Queue and KV are optional.
type Config struct {
	Source     service.ListingSource
	Billing    service.Billing
	Cache      *cache.Store
	Normalizer *ingest.Normalizer
	Queue      *queue.Manager
	KV         service.KV
}

// New creates a scanner.
func New(cfg Config) *Scanner {
	return &Scanner{
		source:     cfg.Source,
		billing:    cfg.Billing,
		cache:      cfg.Cache,
		normalizer: cfg.Normalizer,
		queue:      cfg.Queue,
		kv:         cfg.KV,
	}
}

// ScanOptions controls one scan.
type ScanOptions struct {
	// Progress is called with (done, total) while listings are normalized.
	Progress func(done, total int)
	// Force skips the cache and supersedes any fetch in flight.
	Force bool
}

// ScanResult is the outcome of a scan.
type ScanResult struct {
	Snapshot   *model.CacheSnapshot
	Balance    *model.CreditBalance
	Candidates []model.Listing
	// Warnings lists filter values that were coerced to defaults.
	Warnings    []error
	CreditsUsed int
	Costed      bool
	// CacheErr is set when the paid-for snapshot could not be cached.
	CacheErr error
	// Superseded is set when a newer fetch started before this one
	// finished; its snapshot was not cached and the queue was left alone.
	Superseded bool
}

// Scan evaluates cfg against the user's cached snapshot when one is valid
// and opts.Force is not set. Otherwise it performs a costed scan.
func (s *Scanner) Scan(ctx context.Context, userKey string, cfg model.FilterConfig, opts ScanOptions) (*ScanResult, error) {
	cfg, warnings := filter.Normalize(cfg)

	if !opts.Force {
		snap, err := s.cache.Get(ctx, userKey)
		switch {
		case err == nil:
			slog.Debug("Using cached snapshot", "user", userKey, "age", snap.Timestamp)
			return s.evaluate(ctx, userKey, snap, cfg, warnings, true), nil
		case !errors.Is(err, common.ErrCacheMiss):
			return nil, err
		}
	}

	return s.costed(ctx, userKey, cfg, warnings, opts)
}

// Refilter re-applies cfg to the cached snapshot without any billing. It
// returns common.ErrCacheMiss when there is no valid snapshot.
func (s *Scanner) Refilter(ctx context.Context, userKey string, cfg model.FilterConfig) (*ScanResult, error) {
	cfg, warnings := filter.Normalize(cfg)

	snap, err := s.cache.Get(ctx, userKey)
	if err != nil {
		return nil, err
	}
	return s.evaluate(ctx, userKey, snap, cfg, warnings, true), nil
}

// Reload re-applies cfg to the user's last snapshot whatever its age, so a
// saved queue stays reachable after the cache window closes. It returns
// common.ErrCacheMiss when no snapshot is held.
func (s *Scanner) Reload(ctx context.Context, userKey string, cfg model.FilterConfig) (*ScanResult, error) {
	cfg, warnings := filter.Normalize(cfg)

	snap, err := s.cache.Peek(ctx, userKey)
	if err != nil {
		return nil, err
	}
	return s.evaluate(ctx, userKey, snap, cfg, warnings, true), nil
}

// Disconnect invalidates the user's cached snapshot.
func (s *Scanner) Disconnect(ctx context.Context, userKey string) error {
	if err := s.cache.Invalidate(ctx, userKey); err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	slog.Info("Disconnected account", "user", userKey)
	return nil
}

// LastFilter returns the filter config used by the user's last scan.
func (s *Scanner) LastFilter(ctx context.Context, userKey string) (model.FilterConfig, bool, error) {
	if s.kv == nil {
		return model.FilterConfig{}, false, nil
	}

	data, ok, err := s.kv.Get(ctx, userKey, service.KeyFilterConfig)
	if err != nil || !ok {
		return model.FilterConfig{}, false, err
	}

	var cfg model.FilterConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return model.FilterConfig{}, false, fmt.Errorf("failed to decode filter config: %w", err)
	}
	return cfg, true, nil
}

func (s *Scanner) costed(ctx context.Context, userKey string, cfg model.FilterConfig, warnings []error, opts ScanOptions) (*ScanResult, error) {
	ticket, err := s.cache.Begin(userKey, opts.Force)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			s.cache.Abandon(ticket)
		}
	}()

	raws, err := s.source.FetchListings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listings: %w", err)
	}

	var progress func()
	if opts.Progress != nil {
		done := 0
		progress = func() {
			done++
			opts.Progress(done, len(raws))
		}
	}

	listings, err := s.normalizer.NormalizeAll(ctx, raws, progress)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize listings: %w", err)
	}

	required := max(1, len(listings))

	balance, err := s.billing.Balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check credits: %w", err)
	}
	if balance.AvailableCredits < required {
		return nil, &common.CreditError{Required: required, Available: balance.AvailableCredits}
	}

	balance, err = s.billing.Consume(ctx, required)
	if err != nil {
		return nil, fmt.Errorf("failed to consume credits: %w", err)
	}

	// Credits are spent from here on, so failures below must not drop
	// the result.
	snap := model.NewSnapshot(listings)
	stored, cacheErr := s.cache.Commit(ctx, ticket, snap)
	committed = true
	if cacheErr != nil {
		common.LogError(cacheErr, "Failed to cache snapshot", common.Fields{"user": userKey})
	}
	superseded := !stored && cacheErr == nil

	result := s.evaluate(ctx, userKey, snap, cfg, warnings, !superseded)
	result.Costed = true
	result.CreditsUsed = required
	result.Balance = balance
	result.Superseded = superseded
	result.CacheErr = cacheErr

	slog.Info("Completed costed scan",
		"user", userKey,
		"listings", len(listings),
		"candidates", len(result.Candidates),
		"credits_used", required)

	return result, nil
}

// evaluate applies the filter to snap. When shared is set it also loads
// the queue pools and records cfg as the user's last filter.
func (s *Scanner) evaluate(ctx context.Context, userKey string, snap *model.CacheSnapshot, cfg model.FilterConfig, warnings []error, shared bool) *ScanResult {
	candidates := filter.Apply(snap.Listings, cfg)
	result := &ScanResult{
		Snapshot:   snap,
		Candidates: candidates,
		Warnings:   warnings,
	}
	if !shared {
		return result
	}

	if s.queue != nil {
		s.queue.Load(snap.Listings, model.IDs(candidates))
	}

	if s.kv != nil {
		if data, err := json.Marshal(cfg); err == nil {
			if err := s.kv.Set(ctx, userKey, service.KeyFilterConfig, data); err != nil {
				common.LogError(err, "Failed to save filter config", common.Fields{"user": userKey})
			}
		}
	}

	return result
}
