package cache

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/Veraticus/dead-stock/internal/model"
)

// MemoryBackend keeps snapshots in process memory.
type MemoryBackend struct {
	entries map[string]*model.CacheSnapshot
	mu      sync.RWMutex
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]*model.CacheSnapshot),
	}
}

// Load returns a copy of the stored snapshot.
func (b *MemoryBackend) Load(_ context.Context, userKey string) (*model.CacheSnapshot, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snap, ok := b.entries[userKey]
	if !ok {
		return nil, false, nil
	}
	return cloneSnapshot(snap), true, nil
}

// Save stores a copy of snap. Expiry is enforced by the Store.
func (b *MemoryBackend) Save(_ context.Context, userKey string, snap *model.CacheSnapshot, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[userKey] = cloneSnapshot(snap)
	return nil
}

// Delete removes the user's snapshot.
func (b *MemoryBackend) Delete(_ context.Context, userKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, userKey)
	return nil
}

// Len returns the number of stored snapshots.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

func cloneSnapshot(snap *model.CacheSnapshot) *model.CacheSnapshot {
	out := *snap
	out.Listings = append([]model.Listing(nil), snap.Listings...)
	out.Breakdowns = model.Breakdowns{
		BySupplier:       maps.Clone(snap.Breakdowns.BySupplier),
		ByRecommendation: maps.Clone(snap.Breakdowns.ByRecommendation),
		ByTool:           maps.Clone(snap.Breakdowns.ByTool),
	}
	return &out
}
