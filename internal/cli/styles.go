// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	amber = lipgloss.Color("#E8A33D")
	teal  = lipgloss.Color("#4ECDC4")
	straw = lipgloss.Color("#FFE66D")
	coral = lipgloss.Color("#FF6B6B")
	mint  = lipgloss.Color("#95E1D3")
	slate = lipgloss.Color("#666666")
	rule  = lipgloss.Color("#333")

	// TitleStyle heads a section or box.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(amber).MarginBottom(1)
	// SuccessStyle marks completed work.
	SuccessStyle = lipgloss.NewStyle().Foreground(teal)
	// ErrorStyle marks failures.
	ErrorStyle = lipgloss.NewStyle().Foreground(coral)
	// SubtleStyle dims secondary text.
	SubtleStyle = lipgloss.NewStyle().Foreground(slate)
	// BoldStyle emphasizes a value.
	BoldStyle = lipgloss.NewStyle().Bold(true)

	// TableHeaderStyle underlines the header row of RenderTable.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(rule)
	// TableCellStyle pads table cells.
	TableCellStyle = lipgloss.NewStyle().PaddingRight(2)

	warningStyle = lipgloss.NewStyle().Foreground(straw)
	infoStyle    = lipgloss.NewStyle().Foreground(mint)
	promptStyle  = lipgloss.NewStyle().Bold(true).Foreground(amber)
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(rule).
			Padding(1, 2)

	deleteStyle   = lipgloss.NewStyle().Foreground(coral).Bold(true)
	optimizeStyle = lipgloss.NewStyle().Foreground(straw)
	monitorStyle  = lipgloss.NewStyle().Foreground(teal)
	reviewStyle   = lipgloss.NewStyle().Foreground(mint)
)

const (
	boxIcon    = "📦"
	chartIcon  = "📊"
	queueIcon  = "🗂️"
	creditIcon = "💳"
)

// FormatSuccess prefixes message with a check mark.
func FormatSuccess(message string) string {
	return SuccessStyle.Render("✓ " + message)
}

// FormatError prefixes message with a cross.
func FormatError(message string) string {
	return ErrorStyle.Render("✗ " + message)
}

// FormatWarning prefixes message with a warning sign.
func FormatWarning(message string) string {
	return warningStyle.Render("⚠️ " + message)
}

// FormatInfo prefixes message with an info sign.
func FormatInfo(message string) string {
	return infoStyle.Render("ℹ️ " + message)
}

// FormatTitle renders a section title.
func FormatTitle(title string) string {
	return TitleStyle.Render(boxIcon + " " + title)
}

func formatPrompt(prompt string) string {
	return promptStyle.Render(prompt + " → ")
}

// RenderBox draws content under title inside a rounded border.
func RenderBox(title, content string) string {
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.UnsetMargins().Render(title),
		content,
	))
}
