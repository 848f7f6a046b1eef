// Package storage provides the SQLite persistence layer: the per-user
// key-value port and the deletion history.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/dead-stock/internal/model"
)

// Validation errors.
var (
	ErrNilContext        = errors.New("context cannot be nil")
	ErrEmptyString       = errors.New("string parameter cannot be empty")
	ErrNilParameter      = errors.New("parameter cannot be nil")
	ErrInvalidAuditEntry = errors.New("invalid audit record")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateAuditRecords(records []model.AuditRecord) error {
	for i, r := range records {
		if err := validateAuditRecord(&r); err != nil {
			return fmt.Errorf("record at index %d: %w", i, err)
		}
	}
	return nil
}

func validateAuditRecord(r *model.AuditRecord) error {
	switch {
	case r.ID == "":
		return fmt.Errorf("%w: missing ID", ErrInvalidAuditEntry)
	case r.ListingID == "":
		return fmt.Errorf("%w: missing listing ID", ErrInvalidAuditEntry)
	case r.ExportedAt.IsZero():
		return fmt.Errorf("%w: missing export time", ErrInvalidAuditEntry)
	}
	return nil
}
