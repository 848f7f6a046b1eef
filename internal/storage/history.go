package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/dead-stock/internal/common"
	"github.com/Veraticus/dead-stock/internal/model"
)

// Append records exported listings in one transaction and returns the
// user's running total.
func (s *SQLiteStorage) Append(ctx context.Context, userKey string, records []model.AuditRecord) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateAuditRecords(records); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO history (
			id, batch_id, user_key, listing_id, title, sku,
			supplier_name, target_tool, export_mode, exported_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		_, err = stmt.ExecContext(ctx,
			r.ID, r.BatchID, userKey, r.ListingID, r.Title, r.SKU,
			r.SupplierName, r.TargetTool, string(r.ExportMode), r.ExportedAt.UTC(),
		)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				err = fmt.Errorf("history record %s: %w", r.ID, common.ErrDuplicateEntry)
				return 0, err
			}
			return 0, fmt.Errorf("failed to insert history record: %w", err)
		}
	}

	var total int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM history WHERE user_key = ?`, userKey).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit history: %w", err)
	}

	slog.Debug("Appended history records", "user", userKey, "count", len(records), "total", total)
	return total, nil
}

// Count returns the number of history records for the user.
func (s *SQLiteStorage) Count(ctx context.Context, userKey string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history WHERE user_key = ?`, userKey).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return total, nil
}

// Recent returns up to limit records for the user, newest first.
func (s *SQLiteStorage) Recent(ctx context.Context, userKey string, limit int) ([]model.AuditRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, batch_id, user_key, listing_id, title, sku,
			supplier_name, target_tool, export_mode, exported_at
		FROM history
		WHERE user_key = ?
		ORDER BY exported_at DESC, id
		LIMIT ?`, userKey, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Warn("failed to close rows", "error", err)
		}
	}()

	var records []model.AuditRecord
	for rows.Next() {
		var (
			r    model.AuditRecord
			mode string
		)
		if err := rows.Scan(
			&r.ID, &r.BatchID, &r.User, &r.ListingID, &r.Title, &r.SKU,
			&r.SupplierName, &r.TargetTool, &mode, &r.ExportedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		r.ExportMode = model.ExportMode(mode)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return records, nil
}
