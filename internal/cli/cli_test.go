package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dead-stock/internal/model"
)

// syncBuffer provides thread-safe access to a bytes.Buffer.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (s *syncBuffer) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestInterruptHandler(t *testing.T) {
	output := &syncBuffer{}
	handler := NewInterruptHandler(output).WithNotice("Scan stopped")

	ctx, stop := handler.HandleInterrupts(context.Background())
	defer stop()

	select {
	case <-ctx.Done():
		t.Fatal("context should not be canceled initially")
	default:
	}

	assert.False(t, handler.WasInterrupted())
	handler.Interrupt()
	handler.Interrupt()

	assert.True(t, handler.WasInterrupted())
	assert.Equal(t, 1, strings.Count(output.String(), "Scan stopped"))
}

func TestInterruptHandler_StopCancels(t *testing.T) {
	handler := NewInterruptHandler(io.Discard)
	ctx, stop := handler.HandleInterrupts(context.Background())

	stop()
	stop()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("stop should cancel the context")
	}
	assert.False(t, handler.WasInterrupted())
}

func TestNewInterruptHandler_NilWriter(t *testing.T) {
	handler := NewInterruptHandler(nil)
	assert.NotNil(t, handler.writer)
}

func TestPrompter_Confirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "full yes with spaces", input: "  YES \n", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "empty line", input: "\n", want: false},
		{name: "eof", input: "", want: false},
		{name: "answer without newline", input: "yes", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(tt.input), &out)

			got, err := p.Confirm(context.Background(), "Export 3 listings?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Export 3 listings? [y/N]")
		})
	}
}

func TestPrompter_ConfirmCanceled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	p := NewPrompter(r, io.Discard)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Confirm(ctx, "Continue?")
	assert.ErrorIs(t, err, ErrInputCancelled)
}

func TestRenderTable(t *testing.T) {
	out := RenderTable([]string{"ID", "NAME"}, [][]string{
		{"1", "short"},
		{"22", "a much longer value"},
		{"3"},
	})

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "a much longer value")
}

func TestRenderListings(t *testing.T) {
	assert.Contains(t, RenderListings(nil), "No listings.")

	out := RenderListings([]model.Listing{
		{
			ID:              "a1",
			Title:           "Stainless steel garlic press with a very long descriptive title",
			SupplierName:    "AutoDS",
			WrappedSupplier: "Amazon",
			DaysListed:      65,
			ZombieScore:     0,
			Recommendation:  model.RecommendDelete,
			Price:           decimal.RequireFromString("12.99"),
		},
	})

	assert.Contains(t, out, "a1")
	assert.Contains(t, out, "AutoDS › Amazon")
	assert.Contains(t, out, "DELETE")
	assert.Contains(t, out, "…")
}

func TestRenderQueue(t *testing.T) {
	assert.Contains(t, RenderQueue(nil), "Queue is empty.")

	out := RenderQueue([]model.QueueGroup{{
		SupplierName: "Amazon",
		ExportTool:   "AutoDS",
		SyncMode:     true,
		Listings:     []model.Listing{{ID: "a1", SupplierName: "Amazon"}},
	}})
	assert.Contains(t, out, "Amazon")
	assert.Contains(t, out, "1 queued")
	assert.Contains(t, out, "mode survivors")
}

func TestRenderHistory(t *testing.T) {
	assert.Contains(t, RenderHistory(nil, 0), "Nothing exported yet.")

	out := RenderHistory([]model.AuditRecord{{
		ListingID:    "a1",
		Title:        "Mug",
		SupplierName: "Walmart",
		TargetTool:   "autods",
		ExportMode:   model.ExportDeleteOnly,
		ExportedAt:   time.Now(),
	}}, 7)
	assert.Contains(t, out, "7 total")
	assert.Contains(t, out, "Walmart")
}

func TestRenderSnapshotSummary(t *testing.T) {
	now := time.Now()
	snap := model.NewSnapshot([]model.Listing{
		{ID: "a", SupplierName: "Amazon", Recommendation: model.RecommendDelete},
		{ID: "b", SupplierName: "Amazon", Recommendation: model.RecommendMonitor},
		{ID: "c", SupplierName: "Walmart", Recommendation: model.RecommendDelete},
	})
	snap.Timestamp = now.Add(-90 * time.Second)

	out := RenderSnapshotSummary(snap, 2, now)
	assert.Contains(t, out, "Listings:   3")
	assert.Contains(t, out, "Candidates: 2")
	assert.Contains(t, out, "1m30s ago")
	assert.Less(t, strings.Index(out, "Amazon"), strings.Index(out, "Walmart"))
}

func TestRenderCredits(t *testing.T) {
	assert.Contains(t, RenderCredits(nil), "unknown")
	assert.Contains(t, RenderCredits(&model.CreditBalance{Plan: "pro", AvailableCredits: 40, UsedCredits: 10}), "40 credits available")
}

func TestProgress(t *testing.T) {
	var out syncBuffer
	p := NewProgress(&out, "Scoring listings")

	p.Update(0, 0)
	p.Finish()
	assert.Empty(t, out.String())

	for i := 1; i <= 3; i++ {
		p.Update(i, 3)
	}
	p.Finish()
	assert.Contains(t, out.String(), "Scoring listings")
}

func TestFormatHelpers(t *testing.T) {
	tests := []struct {
		format func(string) string
		prefix string
		name   string
	}{
		{name: "success", format: FormatSuccess, prefix: "✓"},
		{name: "error", format: FormatError, prefix: "✗"},
		{name: "warning", format: FormatWarning, prefix: "⚠️"},
		{name: "info", format: FormatInfo, prefix: "ℹ️"},
		{name: "title", format: FormatTitle, prefix: "📦"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, tt.format("3 listings"), tt.prefix+" 3 listings")
		})
	}
}

func TestRenderBox(t *testing.T) {
	out := RenderBox("Status", "Credits: 12")
	assert.Contains(t, out, "Status")
	assert.Contains(t, out, "Credits: 12")
	assert.Contains(t, out, "╭")
}
