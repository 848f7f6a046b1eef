package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Veraticus/dead-stock/internal/common"
	"github.com/Veraticus/dead-stock/internal/model"
)

// HistoryStore is an in-memory deletion history.
type HistoryStore struct {
	records map[string][]model.AuditRecord // keyed by user
	ids     map[string]struct{}
	mu      sync.RWMutex
}

// NewHistoryStore creates an empty history.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{
		records: make(map[string][]model.AuditRecord),
		ids:     make(map[string]struct{}),
	}
}

// Append adds records and returns the user's running total. Returns
// common.ErrDuplicateEntry if any record id already exists; nothing is
// appended in that case.
func (s *HistoryStore) Append(_ context.Context, userKey string, records []model.AuditRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		if _, exists := s.ids[r.ID]; exists {
			return len(s.records[userKey]), common.ErrDuplicateEntry
		}
	}

	for _, r := range records {
		s.ids[r.ID] = struct{}{}
		s.records[userKey] = append(s.records[userKey], r)
	}
	return len(s.records[userKey]), nil
}

// Count returns the number of records for the user.
func (s *HistoryStore) Count(_ context.Context, userKey string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[userKey]), nil
}

// Recent returns up to limit records, newest first.
func (s *HistoryStore) Recent(_ context.Context, userKey string, limit int) ([]model.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]model.AuditRecord(nil), s.records[userKey]...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExportedAt.After(out[j].ExportedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
