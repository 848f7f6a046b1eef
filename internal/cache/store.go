// Package cache holds the per-user listing snapshot that lets filters be
// re-applied without paying for another upstream scan.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/dead-stock/internal/common"
	"github.com/Veraticus/dead-stock/internal/model"
)

// TTL is how long a snapshot stays valid for a free scan after it is stored.
const TTL = 5 * time.Minute

// Retention is how long backends keep a snapshot. Past the TTL it only
// backs the saved queue through Peek.
const Retention = 24 * time.Hour

// Backend persists snapshots by user key.
type Backend interface {
	Load(ctx context.Context, userKey string) (*model.CacheSnapshot, bool, error)
	Save(ctx context.Context, userKey string, snap *model.CacheSnapshot, ttl time.Duration) error
	Delete(ctx context.Context, userKey string) error
}

// Ticket identifies one fetch started with Begin.
type Ticket struct {
	key string
	id  uint64
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the store's time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithTTL overrides the snapshot lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithRetention overrides how long backends keep snapshots. It is never
// shorter than the TTL.
func WithRetention(retention time.Duration) Option {
	return func(s *Store) {
		s.retention = retention
	}
}

// Store is a TTL-bounded snapshot cache with per-key fetch deduplication.
// Each fetch takes a monotonic ticket; only the latest ticket for a key may
// commit, so a superseded response never overwrites a newer one.
type Store struct {
	backend  Backend
	now      func() time.Time
	inflight  map[string]uint64
	ttl       time.Duration
	retention time.Duration
	seq       uint64
	mu        sync.Mutex
}

// NewStore creates a store over the given backend.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:   backend,
		now:       time.Now,
		ttl:       TTL,
		retention: Retention,
		inflight:  make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.retention = max(s.retention, s.ttl)
	return s
}

// TTL returns the configured snapshot lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Get returns the user's snapshot, or common.ErrCacheMiss if it is absent
// or its age has reached the TTL.
func (s *Store) Get(ctx context.Context, userKey string) (*model.CacheSnapshot, error) {
	snap, ok, err := s.backend.Load(ctx, userKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if !ok {
		return nil, common.ErrCacheMiss
	}
	if snap.Age(s.now()) >= s.ttl {
		slog.Debug("Cached snapshot expired", "user", userKey, "timestamp", snap.Timestamp)
		return nil, common.ErrCacheMiss
	}
	return snap, nil
}

// Peek returns the user's snapshot whatever its age, or common.ErrCacheMiss
// if the backend no longer holds one. It must not be used to skip billing.
func (s *Store) Peek(ctx context.Context, userKey string) (*model.CacheSnapshot, error) {
	snap, ok, err := s.backend.Load(ctx, userKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if !ok {
		return nil, common.ErrCacheMiss
	}
	return snap, nil
}

// Set stores the snapshot stamped with the current time.
func (s *Store) Set(ctx context.Context, userKey string, snap *model.CacheSnapshot) error {
	stamped := *snap
	stamped.Timestamp = s.now()
	if err := s.backend.Save(ctx, userKey, &stamped, s.retention); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	snap.Timestamp = stamped.Timestamp
	return nil
}

// Invalidate clears the user's snapshot and supersedes any fetch in flight.
func (s *Store) Invalidate(ctx context.Context, userKey string) error {
	s.mu.Lock()
	delete(s.inflight, userKey)
	s.mu.Unlock()

	if err := s.backend.Delete(ctx, userKey); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Begin registers a fetch for userKey. A second fetch while one is in
// flight is dropped with common.ErrFetchInFlight unless force is set, in
// which case it supersedes the earlier one.
func (s *Store) Begin(userKey string, force bool) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inflight[userKey]; busy && !force {
		return Ticket{}, common.ErrFetchInFlight
	}

	s.seq++
	s.inflight[userKey] = s.seq
	return Ticket{key: userKey, id: s.seq}, nil
}

// Commit stores snap if t is still the latest fetch for its key. It
// reports whether the snapshot was stored.
func (s *Store) Commit(ctx context.Context, t Ticket, snap *model.CacheSnapshot) (bool, error) {
	s.mu.Lock()
	latest, ok := s.inflight[t.key]
	if !ok || latest != t.id {
		s.mu.Unlock()
		slog.Debug("Discarding superseded fetch", "user", t.key, "ticket", t.id)
		return false, nil
	}
	delete(s.inflight, t.key)
	s.mu.Unlock()

	if err := s.Set(ctx, t.key, snap); err != nil {
		return false, err
	}
	return true, nil
}

// Abandon releases t after a failed fetch.
func (s *Store) Abandon(t Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if latest, ok := s.inflight[t.key]; ok && latest == t.id {
		delete(s.inflight, t.key)
	}
}

// InFlight reports whether a fetch is registered for userKey.
func (s *Store) InFlight(userKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inflight[userKey]
	return ok
}
