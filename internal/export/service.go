// Package export turns queue groups into files for listing-automation
// tools. An export appends to the deletion history, generates the file,
// saves it and only then drops the listings from the queue.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/dead-stock/internal/common"
	"github.com/Veraticus/dead-stock/internal/model"
	"github.com/Veraticus/dead-stock/internal/queue"
	"github.com/Veraticus/dead-stock/internal/service"
)

// Export stages reported in common.ExportError.
const (
	StageGenerate = "generate"
	StageSave     = "save"
)

// Sink stores a finished export file.
type Sink interface {
	Save(ctx context.Context, filename string, data []byte) (string, error)
}

// Request describes one export.
type Request struct {
	SupplierName string
	TargetTool   string
	Mode         model.ExportMode
	Items        []model.Listing
}

// Result describes a completed export.
type Result struct {
	// AuditErr is set when the history append failed; the export still ran.
	AuditErr     error
	BatchID      string
	Filename     string
	Path         string
	Exported     int
	HistoryTotal int
}

// Service runs exports. Only one export may be in flight at a time.
type Service struct {
	queue       *queue.Manager
	history     service.HistoryLog
	generator   service.CSVGenerator
	sink        Sink
	kv          service.KV
	now         func() time.Time
	user        string
	subscribers []func(total int)
	subsMu      sync.Mutex
	inFlight    atomic.Bool
}

// Config wires a Service to its collaborators. KV is optional; when set,
// queue state is saved after each export.
type Config struct {
	Queue     *queue.Manager
	History   service.HistoryLog
	Generator service.CSVGenerator
	Sink      Sink
	KV        service.KV
	User      string
}

// NewService creates an export service.
func NewService(cfg Config) *Service {
	return &Service{
		queue:     cfg.Queue,
		history:   cfg.History,
		generator: cfg.Generator,
		sink:      cfg.Sink,
		kv:        cfg.KV,
		user:      cfg.User,
		now:       time.Now,
	}
}

// Subscribe registers fn to be called with the new history total after
// each successful export.
func (s *Service) Subscribe(fn func(total int)) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// InFlight reports whether an export is running.
func (s *Service) InFlight() bool {
	return s.inFlight.Load()
}

// ExportGroup exports the queued listings of one supplier using the
// group's configured tool and sync mode.
func (s *Service) ExportGroup(ctx context.Context, supplier string) (*Result, error) {
	group, ok := s.queue.Group(supplier)
	if !ok {
		return nil, fmt.Errorf("supplier %q: %w", supplier, common.ErrNothingQueued)
	}
	return s.Export(ctx, Request{
		SupplierName: group.SupplierName,
		TargetTool:   group.ExportTool,
		Mode:         group.Mode(),
		Items:        group.Listings,
	})
}

// Export runs one export. A generation or save failure aborts the export
// and leaves the queue untouched.
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, common.ErrExportInFlight
	}
	defer s.inFlight.Store(false)

	if len(req.Items) == 0 {
		return nil, common.ErrNothingQueued
	}

	ids := model.IDs(req.Items)
	result := &Result{
		BatchID:  uuid.NewString(),
		Exported: len(req.Items),
	}

	total, err := s.history.Append(ctx, s.user, s.auditRecords(result.BatchID, req))
	if err != nil {
		common.LogError(err, "Failed to record export history", common.Fields{
			"supplier": req.SupplierName,
			"batch_id": result.BatchID,
		})
		result.AuditErr = err
	}
	result.HistoryTotal = total

	genReq := service.GenerateRequest{
		TargetTool: req.TargetTool,
		ExportMode: req.Mode,
		Items:      req.Items,
	}
	if req.Mode == model.ExportSurvivors {
		genReq.Survivors = s.queue.Survivors(req.SupplierName, ids)
	}

	data, err := s.generator.Generate(ctx, genReq)
	if err != nil {
		return nil, &common.ExportError{Stage: StageGenerate, Err: err}
	}

	result.Filename = Filename(req.SupplierName, req.TargetTool, req.Mode, extensionOf(s.generator))
	result.Path, err = s.sink.Save(ctx, result.Filename, data)
	if err != nil {
		return nil, &common.ExportError{Stage: StageSave, Err: err}
	}

	s.queue.Drop(ids)
	if s.kv != nil {
		if err := s.queue.Save(ctx, s.kv, s.user); err != nil {
			common.LogError(err, "Failed to persist queue after export", nil)
		}
	}

	slog.Info("Exported listings",
		"supplier", req.SupplierName,
		"tool", req.TargetTool,
		"mode", req.Mode,
		"count", len(ids),
		"path", result.Path)

	if result.AuditErr == nil {
		s.notify(result.HistoryTotal)
	}
	return result, nil
}

func (s *Service) auditRecords(batchID string, req Request) []model.AuditRecord {
	exportedAt := s.now().UTC()
	records := make([]model.AuditRecord, len(req.Items))
	for i, l := range req.Items {
		records[i] = model.AuditRecord{
			ID:           uuid.NewString(),
			BatchID:      batchID,
			User:         s.user,
			ListingID:    l.ID,
			Title:        l.Title,
			SKU:          l.SKU,
			SupplierName: l.SupplierName,
			TargetTool:   req.TargetTool,
			ExportMode:   req.Mode,
			ExportedAt:   exportedAt,
		}
	}
	return records
}

func (s *Service) notify(total int) {
	s.subsMu.Lock()
	subs := append([]func(int){}, s.subscribers...)
	s.subsMu.Unlock()

	for _, fn := range subs {
		fn(total)
	}
}
