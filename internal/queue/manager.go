// Package queue tracks which pool each listing is in and groups the
// listings staged for removal by supplier.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/Veraticus/dead-stock/internal/common"
	"github.com/Veraticus/dead-stock/internal/model"
	"github.com/Veraticus/dead-stock/internal/service"
)

// Manager holds the pool membership of every loaded listing plus the
// per-supplier export configuration. Every loaded listing is in exactly
// one pool.
type Manager struct {
	listings    map[string]model.Listing
	pools       map[string]model.Pool
	tools       map[string]string
	syncModes   map[string]bool
	restored    []string
	defaultTool string
	order       []string // load order
	queueOrder  []string // order listings were queued in
	mu          sync.RWMutex
}

// NewManager creates an empty manager. defaultTool is used for groups with
// no configured export tool.
func NewManager(defaultTool string) *Manager {
	return &Manager{
		listings:    make(map[string]model.Listing),
		pools:       make(map[string]model.Pool),
		tools:       make(map[string]string),
		syncModes:   make(map[string]bool),
		defaultTool: defaultTool,
	}
}

// Load replaces the pool contents with listings. Ids in candidateIDs start
// as candidates; ids that were queued before (or restored from
// persistence) and are still present stay queued; the rest are active.
func (m *Manager) Load(listings []model.Listing, candidateIDs []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	candidates := make(map[string]struct{}, len(candidateIDs))
	for _, id := range candidateIDs {
		candidates[id] = struct{}{}
	}

	wasQueued := make(map[string]struct{}, len(m.queueOrder)+len(m.restored))
	prevOrder := append([]string(nil), m.queueOrder...)
	prevOrder = append(prevOrder, m.restored...)
	for _, id := range prevOrder {
		wasQueued[id] = struct{}{}
	}

	m.listings = make(map[string]model.Listing, len(listings))
	m.pools = make(map[string]model.Pool, len(listings))
	m.order = m.order[:0]

	for _, l := range listings {
		if _, dup := m.listings[l.ID]; dup {
			continue
		}
		m.listings[l.ID] = l
		m.order = append(m.order, l.ID)

		switch {
		case has(wasQueued, l.ID):
			m.pools[l.ID] = model.PoolQueued
		case has(candidates, l.ID):
			m.pools[l.ID] = model.PoolCandidate
		default:
			m.pools[l.ID] = model.PoolActive
		}
	}

	m.queueOrder = m.queueOrder[:0]
	for _, id := range prevOrder {
		if m.pools[id] == model.PoolQueued && !contains(m.queueOrder, id) {
			m.queueOrder = append(m.queueOrder, id)
		}
	}
	m.restored = nil
}

// Add moves candidates to the queue and returns the ids actually moved.
// Ids already queued, unknown or not candidates are skipped.
func (m *Manager) Add(ids []string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var moved []string
	for _, id := range ids {
		if m.pools[id] != model.PoolCandidate {
			continue
		}
		m.pools[id] = model.PoolQueued
		m.queueOrder = append(m.queueOrder, id)
		moved = append(moved, id)
	}
	return moved
}

// Remove moves a queued listing back to the candidate pool.
func (m *Manager) Remove(id string) error {
	if moved := m.BulkRemove([]string{id}); len(moved) == 0 {
		return fmt.Errorf("listing %s is not queued: %w", id, common.ErrNotFound)
	}
	return nil
}

// BulkRemove moves queued listings back to candidates and returns the ids
// actually moved.
func (m *Manager) BulkRemove(ids []string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var moved []string
	for _, id := range ids {
		if m.pools[id] != model.PoolQueued {
			continue
		}
		m.pools[id] = model.PoolCandidate
		m.queueOrder = without(m.queueOrder, id)
		moved = append(moved, id)
	}
	return moved
}

// Drop removes exported listings from every pool.
func (m *Manager) Drop(ids []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		if _, ok := m.listings[id]; !ok {
			continue
		}
		delete(m.listings, id)
		delete(m.pools, id)
		m.order = without(m.order, id)
		m.queueOrder = without(m.queueOrder, id)
	}
}

// SetExportTool sets the export tool of a supplier group.
func (m *Manager) SetExportTool(supplier, tool string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tools[supplier] = tool
}

// SetSyncMode sets whether a supplier group exports survivors.
func (m *Manager) SetSyncMode(supplier string, sync bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncModes[supplier] = sync
}

// Config returns the export configuration of a supplier group.
func (m *Manager) Config(supplier string) model.GroupConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.configLocked(supplier)
}

func (m *Manager) configLocked(supplier string) model.GroupConfig {
	tool, ok := m.tools[supplier]
	if !ok || tool == "" {
		tool = m.defaultTool
	}
	return model.GroupConfig{ExportTool: tool, SyncMode: m.syncModes[supplier]}
}

// GroupBySupplier returns the queued listings grouped by supplier, sorted
// by supplier name. It is computed from the current queue on every call.
func (m *Manager) GroupBySupplier() []model.QueueGroup {
	m.mu.RLock()
	defer m.mu.RUnlock()

	index := make(map[string]int)
	var groups []model.QueueGroup
	for _, id := range m.queueOrder {
		l := m.listings[id]
		i, ok := index[l.SupplierName]
		if !ok {
			cfg := m.configLocked(l.SupplierName)
			groups = append(groups, model.QueueGroup{
				SupplierName: l.SupplierName,
				ExportTool:   cfg.ExportTool,
				SyncMode:     cfg.SyncMode,
			})
			i = len(groups) - 1
			index[l.SupplierName] = i
		}
		groups[i].Listings = append(groups[i].Listings, l)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].SupplierName < groups[j].SupplierName
	})
	return groups
}

// Group returns the queue group of one supplier.
func (m *Manager) Group(supplier string) (model.QueueGroup, bool) {
	for _, g := range m.GroupBySupplier() {
		if g.SupplierName == supplier {
			return g, true
		}
	}
	return model.QueueGroup{}, false
}

// Survivors returns the supplier's loaded listings that are not in exclude,
// in load order.
func (m *Manager) Survivors(supplier string, exclude []string) []model.Listing {
	m.mu.RLock()
	defer m.mu.RUnlock()

	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	var out []model.Listing
	for _, id := range m.order {
		l := m.listings[id]
		if l.SupplierName != supplier || has(skip, id) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Pool returns the pool of a listing.
func (m *Manager) Pool(id string) (model.Pool, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pools[id]
	return p, ok
}

// Listings returns the listings in a pool. Queued listings are returned in
// queue order, the others in load order.
func (m *Manager) Listings(pool model.Pool) []model.Listing {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.order
	if pool == model.PoolQueued {
		ids = m.queueOrder
	}

	out := make([]model.Listing, 0)
	for _, id := range ids {
		if m.pools[id] == pool {
			out = append(out, m.listings[id])
		}
	}
	return out
}

// Counts returns the number of listings per pool.
func (m *Manager) Counts() map[model.Pool]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := map[model.Pool]int{
		model.PoolActive:    0,
		model.PoolCandidate: 0,
		model.PoolQueued:    0,
	}
	for _, p := range m.pools {
		counts[p]++
	}
	return counts
}

// Save writes the queued ids and group configuration through kv.
func (m *Manager) Save(ctx context.Context, kv service.KV, userKey string) error {
	m.mu.RLock()
	queued := append([]string{}, m.queueOrder...)
	queued = append(queued, m.restored...)
	values := map[string]any{
		service.KeyQueueIDs:    queued,
		service.KeyToolMapping: m.tools,
		service.KeySyncModeMap: m.syncModes,
	}
	encoded := make(map[string][]byte, len(values))
	for key, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			m.mu.RUnlock()
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		encoded[key] = data
	}
	m.mu.RUnlock()

	for _, key := range []string{service.KeyQueueIDs, service.KeyToolMapping, service.KeySyncModeMap} {
		if err := kv.Set(ctx, userKey, key, encoded[key]); err != nil {
			return fmt.Errorf("failed to save %s: %w", key, err)
		}
	}
	return nil
}

// Restore reads queued ids and group configuration written by Save. The
// restored ids become queued on the next Load if they are still present.
func (m *Manager) Restore(ctx context.Context, kv service.KV, userKey string) error {
	var (
		queued    []string
		tools     map[string]string
		syncModes map[string]bool
	)

	targets := []struct {
		dst any
		key string
	}{
		{key: service.KeyQueueIDs, dst: &queued},
		{key: service.KeyToolMapping, dst: &tools},
		{key: service.KeySyncModeMap, dst: &syncModes},
	}

	for _, target := range targets {
		data, ok, err := kv.Get(ctx, userKey, target.key)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", target.key, err)
		}
		if !ok {
			continue
		}
		if err := json.Unmarshal(data, target.dst); err != nil {
			slog.Warn("Ignoring corrupt queue state", "key", target.key, "error", err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for supplier, tool := range tools {
		m.tools[supplier] = tool
	}
	for supplier, sync := range syncModes {
		m.syncModes[supplier] = sync
	}
	m.restored = append(m.restored, queued...)
	return nil
}

func has(set map[string]struct{}, id string) bool {
	_, ok := set[id]
	return ok
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
