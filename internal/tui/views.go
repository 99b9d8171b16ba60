package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/Jayphen/taskboard/internal/board"
	"github.com/Jayphen/taskboard/internal/calendar"
	"github.com/Jayphen/taskboard/internal/drag"
	"github.com/Jayphen/taskboard/internal/types"
)

const (
	defaultWidth   = 120
	minColumnWidth = 18
	minCellWidth   = 12
)

// View renders the UI.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	var body string
	switch {
	case m.newMode:
		body = m.renderNewPrompt()
	case m.loading && m.svc.Collection().Snapshot().Len() == 0:
		body = m.spinner.View() + " Loading tasks..."
	case m.err != nil:
		body = ErrorStyle.Render("Error: "+m.err.Error()) + "\n" + DimStyle.Render("Press r to retry")
	case m.view == viewCalendar:
		body = m.renderCalendar()
	default:
		body = m.renderBoard()
	}

	status := m.renderStatusBar()
	if m.height > 0 {
		// Header plus its gap take four rows.
		body = truncateLines(body, m.height-4-lipgloss.Height(status), DimStyle.Render("..."))
	}

	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(status)
	return b.String()
}

// renderHeader renders the title and the view tabs.
func (m *Model) renderHeader() string {
	title := TitleStyle.Render("Taskboard")
	if m.version != "" {
		title += " " + SubtitleStyle.Render("v"+m.version)
	}
	if ws := m.svc.Workspace(); ws != "" {
		title += " " + SubtitleStyle.Render("· "+ws)
	}

	var tabs []string
	for _, v := range []viewMode{viewBoard, viewCalendar} {
		if v == m.view {
			tabs = append(tabs, ActiveTabStyle.Render(v.String()))
		} else {
			tabs = append(tabs, TabStyle.Render(v.String()))
		}
	}
	return title + "\n" + strings.Join(tabs, " ")
}

// renderNewPrompt renders the new task dialog.
func (m *Model) renderNewPrompt() string {
	var b strings.Builder

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorCyan).
		Padding(1, 2)

	heading := "New task"
	if m.view == viewCalendar {
		heading += " due " + types.FormatDate(m.selDay)
	} else {
		heading += " in " + board.Columns()[m.colIdx].Label()
	}
	b.WriteString(lipgloss.NewStyle().Foreground(ColorCyan).Render(heading))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(DimStyle.Render("Enter to create, Esc to cancel"))

	return style.Render(b.String())
}

func (m *Model) contentWidth() int {
	if m.width <= 0 {
		return defaultWidth
	}
	return m.width
}

// Board

func (m *Model) renderBoard() string {
	b := board.Partition(m.tasks())
	cols := board.Columns()

	width := (m.contentWidth() - 2) / len(cols)
	if width < minColumnWidth {
		width = minColumnWidth
	}

	var hover types.Status
	dragging := ""
	if m.drag != nil {
		dragging = m.drag.TaskID()
		if st, ok := m.drag.Hovering().(drag.StatusTarget); ok {
			hover = types.Status(st)
		}
	}

	rendered := make([]string, 0, len(cols))
	for i, status := range cols {
		col, _ := b.Column(status)
		rendered = append(rendered, m.renderColumn(i, col, width, hover, dragging))
	}

	var out strings.Builder
	if m.busy {
		out.WriteString(m.spinner.View() + " " + DimStyle.Render("Saving..."))
		out.WriteString("\n")
	}
	out.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	if err := b.Err(); err != nil {
		out.WriteString("\n")
		out.WriteString(WarningStyle.Render(err.Error()))
	}
	return out.String()
}

func (m *Model) renderColumn(idx int, col board.Column, width int, hover types.Status, dragging string) string {
	// The border and padding take four cells.
	inner := width - 4
	collapsed := m.collapse.Collapsed(col.Status)

	marker := IndicatorExpanded
	if collapsed {
		marker = IndicatorCollapsed
	}
	heading := statusStyle(col.Status).Render(fmt.Sprintf("%s %s (%d)", marker, col.Status.Label(), len(col.Tasks)))

	var b strings.Builder
	b.WriteString(heading)
	if !collapsed {
		for row, t := range col.Tasks {
			b.WriteString("\n")
			selected := m.drag == nil && idx == m.colIdx && row == m.rowIdx
			b.WriteString(m.renderBoardTask(t, inner, selected, t.ID == dragging))
		}
		if len(col.Tasks) == 0 {
			b.WriteString("\n" + DimStyle.Render("No tasks"))
		}
	}

	if dragging != "" && hover == col.Status {
		if t, ok := m.svc.Collection().Get(dragging); ok && t.Status != col.Status {
			b.WriteString("\n")
			b.WriteString(SelectedStyle.Render(IndicatorDragging + " " + ansi.Truncate(t.Title, inner-2, "…")))
		}
	}

	style := ColumnStyle
	switch {
	case dragging != "" && hover == col.Status:
		style = DropColumnStyle
	case idx == m.colIdx:
		style = ActiveColumnStyle
	}
	return style.Width(width - 2).Render(b.String())
}

func (m *Model) renderBoardTask(t types.Task, width int, selected, dragged bool) string {
	prefix := " "
	switch {
	case dragged:
		prefix = IndicatorDragging
	case selected:
		prefix = IndicatorSelected
	}

	var badges string
	if t.IsKeyTask {
		badges += IndicatorKeyTask
	}
	if t.Recurring != nil {
		badges += IndicatorRecurring
	}

	titleWidth := width - 4 - lipgloss.Width(badges)
	title := ansi.Truncate(t.Title, titleWidth, "…")

	line := prefix + " " + priorityMarker(t.Priority) + " " + title
	if badges != "" {
		line += " " + WarningStyle.Render(badges)
	}

	switch {
	case dragged:
		return DimStyle.Render(line)
	case selected:
		return SelectedStyle.Render(line)
	}
	return line
}

// Calendar

func (m *Model) renderCalendar() string {
	var b strings.Builder
	b.WriteString(BoldStyle.Render(m.nav.Title()))
	b.WriteString("  ")
	b.WriteString(DimStyle.Render(m.nav.Granularity.String() + " view"))
	b.WriteString("\n")

	cells := m.nav.Cells(m.tasks())
	switch m.nav.Granularity {
	case calendar.Day:
		b.WriteString(m.renderDay(cells[0]))
	default:
		b.WriteString(m.renderGrid(cells))
	}

	if undated := m.countUndated(); undated > 0 {
		b.WriteString("\n")
		b.WriteString(DimStyle.Render(fmt.Sprintf("%d task(s) without a due date", undated)))
	}
	return b.String()
}

func (m *Model) renderGrid(cells []*calendar.Cell) string {
	width := (m.contentWidth() - 2) / 7
	if width < minCellWidth {
		width = minCellWidth
	}
	// Week views show every task.
	limit := m.overflowLimit
	if m.nav.Granularity == calendar.Week {
		limit = 0
	}

	header := make([]string, 7)
	for i, name := range calendar.Weekdays {
		header[i] = DimStyle.Render(padRight(" "+name, width))
	}

	var rows []string
	rows = append(rows, strings.Join(header, ""))
	for start := 0; start < len(cells); start += 7 {
		week := cells[start : start+7]
		rendered := make([]string, len(week))
		height := 1
		bodies := make([]string, len(week))
		for i, c := range week {
			bodies[i] = m.renderCell(c, width-2, limit)
			if h := lipgloss.Height(bodies[i]); h > height {
				height = h
			}
		}
		for i, c := range week {
			style := CellStyle
			if c != nil && types.SameDay(c.Date, m.selDay) {
				style = style.BorderForeground(ColorCyan)
				if m.drag != nil {
					style = style.BorderForeground(ColorMagenta)
				}
			}
			rendered[i] = style.Width(width - 2).Height(height).Render(bodies[i])
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	}
	return strings.Join(rows, "\n")
}

func (m *Model) renderCell(c *calendar.Cell, width, limit int) string {
	if c == nil {
		return ""
	}

	day := fmt.Sprintf("%2d", c.Date.Day())
	switch {
	case types.SameDay(c.Date, m.now()):
		day = TodayStyle.Render(day)
	case types.SameDay(c.Date, m.selDay):
		day = SelectedStyle.Render(day)
	}

	lines := []string{day}
	if m.popover.Open(c.Date) {
		limit = 0
	}
	visible, more := c.Visible(limit)

	selected := types.SameDay(c.Date, m.selDay)
	for i, t := range visible {
		lines = append(lines, m.renderCellTask(t, width, selected && m.drag == nil && i == m.taskIdx))
	}
	if more > 0 {
		lines = append(lines, DimStyle.Render(fmt.Sprintf("+%d more", more)))
	}

	if m.drag != nil && selected && !c.Contains(m.drag.TaskID()) {
		if t, ok := m.svc.Collection().Get(m.drag.TaskID()); ok {
			lines = append(lines, SelectedStyle.Render(IndicatorDragging+" "+ansi.Truncate(t.Title, width-2, "…")))
		}
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderCellTask(t types.Task, width int, selected bool) string {
	prefix := priorityMarker(t.Priority)
	if m.drag != nil && m.drag.TaskID() == t.ID {
		prefix = IndicatorDragging
	}
	if t.Recurring != nil {
		width--
	}
	line := prefix + " " + ansi.Truncate(t.Title, width-2, "…")
	if t.Recurring != nil {
		line += IndicatorRecurring
	}
	if selected {
		return SelectedStyle.Render(line)
	}
	return line
}

func (m *Model) renderDay(c *calendar.Cell) string {
	if len(c.Tasks) == 0 {
		return DimStyle.Render("Nothing due")
	}

	var b strings.Builder
	width := m.contentWidth() - 4
	for i, t := range c.Tasks {
		selected := m.drag == nil && i == m.taskIdx
		prefix := " "
		if selected {
			prefix = IndicatorSelected
		}
		line := fmt.Sprintf("%s %s %s", prefix, priorityMarker(t.Priority),
			ansi.Truncate(t.Title, width/2, "…"))
		line = padRight(line, width/2+6)
		line += " " + statusStyle(t.Status).Render(t.Status.Label())
		if t.Recurring != nil {
			line += "  " + DimStyle.Render(IndicatorRecurring+" "+types.DescribeRule(t.Recurring))
		}
		if selected {
			line = SelectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m *Model) countUndated() int {
	n := 0
	for _, t := range m.tasks() {
		if !t.HasDueDate() {
			n++
		}
	}
	return n
}

// padRight pads a string to the specified visible width.
func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

// truncateLines keeps the first maxLines lines, replacing the last with
// suffix when anything was dropped.
func truncateLines(s string, maxLines int, suffix string) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= maxLines {
		return s
	}
	if suffix != "" {
		if maxLines == 1 {
			return suffix
		}
		lines = lines[:maxLines-1]
		lines = append(lines, suffix)
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[:maxLines], "\n")
}

// renderStatusBar renders the bottom status bar.
func (m *Model) renderStatusBar() string {
	var help []string
	if m.view == viewCalendar {
		help = []string{
			HelpKeyStyle.Render("←→↑↓") + " day",
			HelpKeyStyle.Render("jk") + " task",
			HelpKeyStyle.Render("[ ]") + " prev/next",
			HelpKeyStyle.Render("t") + " today",
			HelpKeyStyle.Render("v") + " view",
			HelpKeyStyle.Render("o") + " more",
		}
	} else {
		help = []string{
			HelpKeyStyle.Render("←→/hl") + " column",
			HelpKeyStyle.Render("↑↓/jk") + " task",
			HelpKeyStyle.Render("c") + " collapse",
		}
	}
	if m.drag != nil {
		help = append(help,
			HelpKeyStyle.Render("↵")+" drop",
			HelpKeyStyle.Render("esc")+" cancel")
	} else {
		help = append(help,
			HelpKeyStyle.Render("space")+" move",
			HelpKeyStyle.Render("n")+" new")
	}
	help = append(help,
		HelpKeyStyle.Render("tab")+" switch",
		HelpKeyStyle.Render("r")+" reload",
		HelpKeyStyle.Render("q")+" quit")
	helpLine := DimStyle.Render(strings.Join(help, "  "))

	snap := m.svc.Collection().Snapshot()
	counts := DimStyle.Render(fmt.Sprintf("%d task(s)", snap.Len()))

	sep := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), true, false, false, false).
		BorderForeground(ColorGray).
		PaddingTop(1)

	spacing := 16 - lipgloss.Width(counts)
	if spacing < 2 {
		spacing = 2
	}

	var b strings.Builder
	if status := m.currentStatus(); status != "" {
		style := StatusMsgStyle
		if status == msgRetry || status == msgOutOfSync {
			style = ErrorStyle
		}
		b.WriteString(style.Render(status))
		b.WriteString("\n")
	}
	b.WriteString(counts)
	b.WriteString(strings.Repeat(" ", spacing))
	b.WriteString(helpLine)

	return sep.Render(b.String())
}
