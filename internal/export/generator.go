package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/dead-stock/internal/model"
	"github.com/Veraticus/dead-stock/internal/service"
)

// ExtXLSX is the extension of spreadsheet exports.
const ExtXLSX = ".xlsx"

const sheetName = "Sheet1"

// column renders one field of an export row.
type column struct {
	render func(l *model.Listing, mode model.ExportMode) string
	header string
}

// layouts are the per-tool column sets. Tools not listed use generic.
var layouts = map[string][]column{
	"autods": {
		{header: "Source ID", render: func(l *model.Listing, _ model.ExportMode) string { return l.SupplierRef() }},
		{header: "Item ID", render: func(l *model.Listing, _ model.ExportMode) string { return l.ID }},
		{header: "SKU", render: func(l *model.Listing, _ model.ExportMode) string { return l.SKU }},
		{header: "Title", render: func(l *model.Listing, _ model.ExportMode) string { return l.Title }},
		{header: "Action", render: action},
	},
	"yaballe": {
		{header: "ItemID", render: func(l *model.Listing, _ model.ExportMode) string { return l.ID }},
		{header: "SKU", render: func(l *model.Listing, _ model.ExportMode) string { return l.SKU }},
		{header: "Title", render: func(l *model.Listing, _ model.ExportMode) string { return l.Title }},
		{header: "Price", render: func(l *model.Listing, _ model.ExportMode) string { return l.Price.StringFixed(2) }},
	},
	"dsmtool": {
		{header: "Item Number", render: func(l *model.Listing, _ model.ExportMode) string { return l.ID }},
		{header: "Custom Label", render: func(l *model.Listing, _ model.ExportMode) string { return l.SKU }},
		{header: "Action", render: action},
	},
	"hgr": {
		{header: "sku", render: func(l *model.Listing, _ model.ExportMode) string { return l.SKU }},
		{header: "item_id", render: func(l *model.Listing, _ model.ExportMode) string { return l.ID }},
		{header: "title", render: func(l *model.Listing, _ model.ExportMode) string { return l.Title }},
		{header: "supplier", render: func(l *model.Listing, _ model.ExportMode) string { return supplierOf(l) }},
	},
	"generic": {
		{header: "id", render: func(l *model.Listing, _ model.ExportMode) string { return l.ID }},
		{header: "sku", render: func(l *model.Listing, _ model.ExportMode) string { return l.SKU }},
		{header: "title", render: func(l *model.Listing, _ model.ExportMode) string { return l.Title }},
		{header: "supplier", render: func(l *model.Listing, _ model.ExportMode) string { return l.SupplierName }},
		{header: "supplier_id", render: func(l *model.Listing, _ model.ExportMode) string { return l.SupplierRef() }},
		{header: "automation_tool", render: func(l *model.Listing, _ model.ExportMode) string { return l.Tool() }},
		{header: "price", render: func(l *model.Listing, _ model.ExportMode) string { return l.Price.StringFixed(2) }},
		{header: "days_listed", render: func(l *model.Listing, _ model.ExportMode) string { return strconv.Itoa(l.DaysListed) }},
		{header: "zombie_score", render: func(l *model.Listing, _ model.ExportMode) string { return strconv.Itoa(l.ZombieScore) }},
		{header: "recommendation", render: func(l *model.Listing, _ model.ExportMode) string { return string(l.Recommendation) }},
	},
}

var toolAliases = map[string]string{
	"autods":        "autods",
	"yaballe":       "yaballe",
	"dsm":           "dsmtool",
	"dsmtool":       "dsmtool",
	"hgr":           "hgr",
	"hustlegotreal": "hgr",
}

func action(_ *model.Listing, mode model.ExportMode) string {
	if mode == model.ExportSurvivors {
		return "KEEP"
	}
	return "DELETE"
}

func supplierOf(l *model.Listing) string {
	if l.WrappedSupplier != "" {
		return l.WrappedSupplier
	}
	return l.SupplierName
}

// LayoutFor returns the layout key used for tool.
func LayoutFor(tool string) string {
	key := strings.ReplaceAll(Slug(tool), "_", "")
	if layout, ok := toolAliases[key]; ok {
		return layout
	}
	return "generic"
}

// LocalGenerator renders exports in-process as CSV or XLSX.
type LocalGenerator struct {
	xlsx bool
}

// NewLocalGenerator creates a generator. format is "csv" or "xlsx".
func NewLocalGenerator(format string) *LocalGenerator {
	return &LocalGenerator{xlsx: strings.EqualFold(format, "xlsx")}
}

// Extension returns the file extension of generated files.
func (g *LocalGenerator) Extension() string {
	if g.xlsx {
		return ExtXLSX
	}
	return ExtCSV
}

// Generate implements service.CSVGenerator. Delete-only exports list the
// items; survivor exports list the supplier's remaining inventory.
func (g *LocalGenerator) Generate(ctx context.Context, req service.GenerateRequest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := req.Items
	if req.ExportMode == model.ExportSurvivors {
		rows = req.Survivors
	}

	cols := layouts[LayoutFor(req.TargetTool)]
	table := make([][]string, 0, len(rows)+1)

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.header
	}
	table = append(table, header)

	for i := range rows {
		record := make([]string, len(cols))
		for j, c := range cols {
			record[j] = c.render(&rows[i], req.ExportMode)
		}
		table = append(table, record)
	}

	if g.xlsx {
		return writeXLSX(table)
	}
	return writeCSV(table)
}

func writeCSV(table [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(table); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func writeXLSX(table [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, record := range table {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("failed to address row %d: %w", i+1, err)
		}
		values := make([]any, len(record))
		for j, v := range record {
			values[j] = v
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

var _ service.CSVGenerator = (*LocalGenerator)(nil)
