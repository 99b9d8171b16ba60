// Package tui implements the terminal user interface using Bubbletea.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Jayphen/taskboard/internal/types"
)

// Color palette
var (
	ColorCyan    = lipgloss.Color("86")
	ColorGreen   = lipgloss.Color("78")
	ColorYellow  = lipgloss.Color("221")
	ColorRed     = lipgloss.Color("196")
	ColorMagenta = lipgloss.Color("213")
	ColorBlue    = lipgloss.Color("111")
	ColorGray    = lipgloss.Color("245")
	ColorDimGray = lipgloss.Color("239")
)

// StatusColors colors column headings.
var StatusColors = map[types.Status]lipgloss.Color{
	types.StatusToDo:       ColorBlue,
	types.StatusInProgress: ColorCyan,
	types.StatusBlocked:    ColorRed,
	types.StatusForReview:  ColorYellow,
	types.StatusDone:       ColorGreen,
}

// PriorityColors colors the priority marker in front of a task.
var PriorityColors = map[types.Priority]lipgloss.Color{
	types.PriorityLow:      ColorDimGray,
	types.PriorityMedium:   ColorGray,
	types.PriorityHigh:     ColorYellow,
	types.PriorityCritical: ColorRed,
}

// Common styles
var (
	// Title style
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	// Subtitle/dim text
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	// Selected item style
	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	// Dim text style
	DimStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)

	// Bold text
	BoldStyle = lipgloss.NewStyle().Bold(true)

	// Column box style
	ColumnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDimGray).
			Padding(0, 1)

	// Column under the cursor, or under a dragged task
	ActiveColumnStyle = ColumnStyle.
				BorderForeground(ColorCyan)

	DropColumnStyle = ColumnStyle.
			BorderForeground(ColorMagenta)

	// Calendar day cell
	CellStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(ColorDimGray)

	TodayStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true)

	// Help key style
	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	// Help text style
	HelpTextStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	// Error style
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	// Status message style
	StatusMsgStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	// Warning style
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	// Tab styles
	TabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(ColorGray)
	ActiveTabStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(ColorCyan).Bold(true).Underline(true)
)

// Indicators
const (
	IndicatorSelected  = "❯"
	IndicatorDragging  = "✥"
	IndicatorKeyTask   = "★"
	IndicatorRecurring = "↻"
	IndicatorCollapsed = "▸"
	IndicatorExpanded  = "▾"
	IndicatorPriority  = "●"
)

// statusStyle returns the heading style for a column.
func statusStyle(s types.Status) lipgloss.Style {
	color, ok := StatusColors[s]
	if !ok {
		color = ColorGray
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true)
}

// priorityMarker returns a colored dot for the task's priority.
func priorityMarker(p types.Priority) string {
	color, ok := PriorityColors[p]
	if !ok {
		color = ColorGray
	}
	return lipgloss.NewStyle().Foreground(color).Render(IndicatorPriority)
}
