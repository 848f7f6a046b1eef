package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dead-stock/internal/common"
	"github.com/Veraticus/dead-stock/internal/model"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testRecords(batch string, n int, base time.Time) []model.AuditRecord {
	records := make([]model.AuditRecord, n)
	for i := range records {
		records[i] = model.AuditRecord{
			ID:           fmt.Sprintf("%s-%d", batch, i),
			BatchID:      batch,
			ListingID:    fmt.Sprintf("listing-%d", i),
			Title:        "Widget",
			SKU:          "AMZ-B08ABC1234",
			SupplierName: "Amazon",
			TargetTool:   "autods",
			ExportMode:   model.ExportDeleteOnly,
			ExportedAt:   base.Add(time.Duration(i) * time.Second),
		}
	}
	return records
}

func TestMigrate(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Running again is a no-op.
	require.NoError(t, store.Migrate(ctx))
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestKV(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "alice", "tool_mapping")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "alice", "tool_mapping", []byte(`{"Amazon":"autods"}`)))
	require.NoError(t, store.Set(ctx, "alice", "tool_mapping", []byte(`{"Amazon":"hgr"}`)))

	value, ok, err := store.Get(ctx, "alice", "tool_mapping")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"Amazon":"hgr"}`, string(value))

	_, ok, err = store.Get(ctx, "bob", "tool_mapping")
	require.NoError(t, err)
	assert.False(t, ok, "values are scoped per user")

	require.NoError(t, store.Remove(ctx, "alice", "tool_mapping"))
	require.NoError(t, store.Remove(ctx, "alice", "tool_mapping"))

	_, ok, err = store.Get(ctx, "alice", "tool_mapping")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKV_Validation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	tests := []struct {
		fn      func() error
		wantErr error
		name    string
	}{
		{
			name:    "nil context",
			fn:      func() error { _, _, err := store.Get(nil, "alice", "k"); return err }, //nolint:staticcheck // testing nil context
			wantErr: ErrNilContext,
		},
		{
			name:    "empty key",
			fn:      func() error { return store.Set(ctx, "alice", "", []byte("v")) },
			wantErr: ErrEmptyString,
		},
		{
			name:    "nil value",
			fn:      func() error { return store.Set(ctx, "alice", "k", nil) },
			wantErr: ErrNilParameter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.fn(), tt.wantErr)
		})
	}
}

func TestKV_SurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Set(ctx, "alice", "queue_ids", []byte(`["a1"]`)))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	require.NoError(t, reopened.Migrate(ctx))

	value, ok, err := reopened.Get(ctx, "alice", "queue_ids")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `["a1"]`, string(value))
}

func TestHistory(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	total, err := store.Append(ctx, "alice", testRecords("b1", 3, base))
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	total, err = store.Append(ctx, "alice", testRecords("b2", 2, base.Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	_, err = store.Append(ctx, "bob", testRecords("b3", 1, base))
	require.NoError(t, err)

	count, err := store.Count(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	recent, err := store.Recent(ctx, "alice", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "b2-1", recent[0].ID)
	assert.Equal(t, "b2-0", recent[1].ID)
	assert.Equal(t, "alice", recent[0].User)
	assert.Equal(t, model.ExportDeleteOnly, recent[0].ExportMode)
	assert.True(t, base.Add(time.Hour+time.Second).Equal(recent[0].ExportedAt))
}

func TestHistory_DuplicateRollsBack(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	base := time.Now()

	_, err := store.Append(ctx, "alice", testRecords("b1", 1, base))
	require.NoError(t, err)

	batch := append(testRecords("b2", 1, base), testRecords("b1", 1, base)...)
	_, err = store.Append(ctx, "alice", batch)
	require.ErrorIs(t, err, common.ErrDuplicateEntry)

	count, err := store.Count(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "a failed batch leaves no partial rows")
}

func TestHistory_InvalidRecord(t *testing.T) {
	store := createTestStorage(t)

	_, err := store.Append(context.Background(), "alice", []model.AuditRecord{{ID: "x", ListingID: "l"}})
	assert.ErrorIs(t, err, ErrInvalidAuditEntry)
}

func TestHistory_DatabaseFailures(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := NewFromDB(db)
	ctx := context.Background()
	dbErr := errors.New("disk I/O error")

	t.Run("insert failure rolls back", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectPrepare("INSERT INTO history").
			ExpectExec().
			WillReturnError(dbErr)
		mock.ExpectRollback()

		_, err := store.Append(ctx, "alice", testRecords("b1", 1, time.Now()))
		require.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to insert history record")
	})

	t.Run("count failure", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WithArgs("alice").
			WillReturnError(dbErr)

		_, err := store.Count(ctx, "alice")
		require.ErrorIs(t, err, dbErr)
	})

	t.Run("kv write failure", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO kv").
			WillReturnError(dbErr)

		err := store.Set(ctx, "alice", "queue_ids", []byte("[]"))
		require.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to set queue_ids")
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
