package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dead-stock/internal/common"
	"github.com/Veraticus/dead-stock/internal/model"
)

func TestKVStore(t *testing.T) {
	ctx := context.Background()
	s := NewKVStore()

	_, ok, err := s.Get(ctx, "alice", "k")
	require.NoError(t, err)
	assert.False(t, ok)

	value := []byte("v1")
	require.NoError(t, s.Set(ctx, "alice", "k", value))
	value[0] = 'x'

	got, ok, err := s.Get(ctx, "alice", "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), got, "stored value must not alias the caller's slice")

	_, ok, _ = s.Get(ctx, "bob", "k")
	assert.False(t, ok, "keys are scoped per user")

	require.NoError(t, s.Remove(ctx, "alice", "k"))
	require.NoError(t, s.Remove(ctx, "nobody", "k"))
	_, ok, _ = s.Get(ctx, "alice", "k")
	assert.False(t, ok)
}

func TestHistoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	total, err := s.Append(ctx, "alice", []model.AuditRecord{
		{ID: "1", ListingID: "a", ExportedAt: base},
		{ID: "2", ListingID: "b", ExportedAt: base.Add(time.Minute)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	_, err = s.Append(ctx, "alice", []model.AuditRecord{{ID: "2"}, {ID: "3"}})
	require.ErrorIs(t, err, common.ErrDuplicateEntry)

	count, err := s.Count(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	recent, err := s.Recent(ctx, "alice", 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "b", recent[0].ListingID)

	count, _ = s.Count(ctx, "bob")
	assert.Zero(t, count)
}
