package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/dead-stock/internal/model"
)

// maxTitleWidth truncates long listing titles in tables.
const maxTitleWidth = 40

// RenderTable renders rows under a bold header with aligned columns.
func RenderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := range headers {
			if i < len(row) && lipgloss.Width(row[i]) > widths[i] {
				widths[i] = lipgloss.Width(row[i])
			}
		}
	}

	cell := func(text string, width int) string {
		return TableCellStyle.Width(width + TableCellStyle.GetPaddingRight()).Render(text)
	}

	headerCells := make([]string, len(headers))
	for i, h := range headers {
		headerCells[i] = cell(h, widths[i])
	}

	lines := []string{TableHeaderStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, headerCells...))}
	for _, row := range rows {
		cells := make([]string, len(headers))
		for i := range headers {
			text := ""
			if i < len(row) {
				text = row[i]
			}
			cells[i] = cell(text, widths[i])
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(lines, "\n")
}

// StyleRecommendation colors a recommendation.
func StyleRecommendation(r model.Recommendation) string {
	switch r {
	case model.RecommendDelete:
		return deleteStyle.Render(string(r))
	case model.RecommendOptimize:
		return optimizeStyle.Render(string(r))
	case model.RecommendMonitor:
		return monitorStyle.Render(string(r))
	default:
		return reviewStyle.Render(string(r))
	}
}

// RenderListings renders a listing table.
func RenderListings(listings []model.Listing) string {
	if len(listings) == 0 {
		return SubtleStyle.Render("No listings.")
	}

	rows := make([][]string, 0, len(listings))
	for _, l := range listings {
		rows = append(rows, []string{
			l.ID,
			truncate(l.Title, maxTitleWidth),
			supplierLabel(l),
			fmt.Sprintf("%d", l.DaysListed),
			fmt.Sprintf("%d", l.TotalSales),
			fmt.Sprintf("%d", l.ViewCount),
			fmt.Sprintf("%d", l.ZombieScore),
			StyleRecommendation(l.Recommendation),
		})
	}
	return RenderTable([]string{"ID", "TITLE", "SUPPLIER", "DAYS", "SALES", "VIEWS", "SCORE", "ACTION"}, rows)
}

// RenderSnapshotSummary renders the totals of a snapshot.
func RenderSnapshotSummary(snap *model.CacheSnapshot, candidates int, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Listings:   %d\n", snap.TotalCount)
	fmt.Fprintf(&b, "Candidates: %d\n", candidates)
	fmt.Fprintf(&b, "Scanned:    %s ago\n", snap.Age(now).Round(time.Second))

	writeBreakdown(&b, "By supplier", snap.Breakdowns.BySupplier)
	writeBreakdown(&b, "By action", snap.Breakdowns.ByRecommendation)
	writeBreakdown(&b, "By tool", snap.Breakdowns.ByTool)

	return RenderBox(chartIcon+" Inventory", strings.TrimRight(b.String(), "\n"))
}

// RenderQueue renders queued listings grouped by supplier.
func RenderQueue(groups []model.QueueGroup) string {
	if len(groups) == 0 {
		return SubtleStyle.Render("Queue is empty.")
	}

	sections := make([]string, 0, len(groups))
	for _, g := range groups {
		header := fmt.Sprintf("%s %s  %s",
			queueIcon,
			BoldStyle.Render(g.SupplierName),
			SubtleStyle.Render(fmt.Sprintf("%d queued · tool %s · mode %s", len(g.Listings), g.ExportTool, g.Mode())))
		sections = append(sections, header+"\n"+RenderListings(g.Listings))
	}
	return strings.Join(sections, "\n\n")
}

// RenderHistory renders audit records, newest first.
func RenderHistory(records []model.AuditRecord, total int) string {
	title := fmt.Sprintf("Removal history (%d total)", total)
	if len(records) == 0 {
		return TitleStyle.Render(title) + "\n" + SubtleStyle.Render("Nothing exported yet.")
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.ExportedAt.Local().Format("2006-01-02 15:04"),
			r.ListingID,
			truncate(r.Title, maxTitleWidth),
			r.SupplierName,
			r.TargetTool,
			string(r.ExportMode),
		})
	}
	return TitleStyle.Render(title) + "\n" +
		RenderTable([]string{"EXPORTED", "ID", "TITLE", "SUPPLIER", "TOOL", "MODE"}, rows)
}

// RenderCredits renders a credit balance line.
func RenderCredits(b *model.CreditBalance) string {
	if b == nil {
		return SubtleStyle.Render(creditIcon + " credits unknown")
	}
	return fmt.Sprintf("%s %d credits available (%d used, plan %s)", creditIcon, b.AvailableCredits, b.UsedCredits, b.Plan)
}

func supplierLabel(l model.Listing) string {
	if l.WrappedSupplier != "" {
		return l.SupplierName + " › " + l.WrappedSupplier
	}
	return l.SupplierName
}

func writeBreakdown(b *strings.Builder, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	fmt.Fprintf(b, "\n%s\n", BoldStyle.Render(title))
	for _, k := range keys {
		fmt.Fprintf(b, "  %-20s %d\n", k, counts[k])
	}
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
