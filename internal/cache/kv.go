package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Veraticus/dead-stock/internal/model"
	"github.com/Veraticus/dead-stock/internal/service"
)

// KVBackend stores snapshots through the persistence port so they survive
// process restarts.
type KVBackend struct {
	kv service.KV
}

// NewKVBackend creates a backend over kv.
func NewKVBackend(kv service.KV) *KVBackend {
	return &KVBackend{kv: kv}
}

// Load decodes the user's stored snapshot.
func (b *KVBackend) Load(ctx context.Context, userKey string) (*model.CacheSnapshot, bool, error) {
	data, ok, err := b.kv.Get(ctx, userKey, service.KeyCacheSnapshot)
	if err != nil || !ok {
		return nil, false, err
	}

	var snap model.CacheSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, true, nil
}

// Save encodes snap under the cache_snapshot key.
func (b *KVBackend) Save(ctx context.Context, userKey string, snap *model.CacheSnapshot, _ time.Duration) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return b.kv.Set(ctx, userKey, service.KeyCacheSnapshot, data)
}

// Delete removes the user's stored snapshot.
func (b *KVBackend) Delete(ctx context.Context, userKey string) error {
	return b.kv.Remove(ctx, userKey, service.KeyCacheSnapshot)
}
