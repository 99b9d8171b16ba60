package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Jayphen/taskboard/internal/app"
	"github.com/Jayphen/taskboard/internal/board"
	"github.com/Jayphen/taskboard/internal/calendar"
	"github.com/Jayphen/taskboard/internal/drag"
	"github.com/Jayphen/taskboard/internal/logging"
	"github.com/Jayphen/taskboard/internal/types"
)

const statusTTL = 3 * time.Second

// Status line texts for failed drops.
const (
	msgRetry     = "failed to update task, please try again"
	msgOutOfSync = "failed to update task, view out of sync until reload (r)"
)

type viewMode int

const (
	viewBoard viewMode = iota
	viewCalendar
)

func (v viewMode) String() string {
	if v == viewCalendar {
		return "Calendar"
	}
	return "Board"
}

// Options configures a Model.
type Options struct {
	Version         string
	OverflowLimit   int
	Granularity     calendar.Granularity
	StartOnCalendar bool
	Now             func() time.Time
	Log             *logging.Logger
}

// Model is the Bubbletea model for the TUI.
type Model struct {
	svc     *app.Service
	log     *logging.Logger
	version string
	now     func() time.Time

	// UI state
	view          viewMode
	loading       bool
	err           error
	statusMessage string
	statusExpiry  time.Time
	width, height int

	// Board
	collapse   *board.CollapseState
	colIdx     int
	rowIdx     int
	boardMoves *drag.Protocol
	busy       bool

	// Calendar
	nav           *calendar.Navigator
	selDay        time.Time
	taskIdx       int
	popover       calendar.PopoverState
	overflowLimit int
	calMoves      *drag.Protocol

	// The drag in progress, on either view.
	drag *drag.Drag

	// New task prompt
	newMode bool
	input   textinput.Model

	// Components
	spinner spinner.Model
}

// Messages
type (
	loadedMsg struct{ count int }
	errMsg    struct{ err error }
	commitMsg struct {
		commit *drag.Commit
		res    drag.Result
	}
	createdMsg struct {
		task types.Task
		err  error
	}
)

// NewModel creates a new TUI model over svc.
func NewModel(svc *app.Service, opts Options) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorCyan)

	ti := textinput.New()
	ti.Placeholder = "Task title"
	ti.CharLimit = 200
	ti.Width = 50

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	log := opts.Log
	if log == nil {
		log = logging.Nop()
	}
	limit := opts.OverflowLimit
	if limit <= 0 {
		limit = calendar.DefaultOverflowLimit
	}

	today := types.Midnight(now())
	nav := calendar.NewNavigator(opts.Granularity, today)
	nav.SetClock(now)

	m := &Model{
		svc:           svc,
		log:           log.WithCommand("tui"),
		version:       opts.Version,
		now:           now,
		loading:       true,
		collapse:      board.NewCollapseState(),
		nav:           nav,
		selDay:        today,
		overflowLimit: limit,
		input:         ti,
		spinner:       s,
	}
	if opts.StartOnCalendar {
		m.view = viewCalendar
	}
	m.boardMoves = svc.BoardMoves(func(busy bool) { m.busy = busy })
	m.calMoves = svc.CalendarMoves()
	return m
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.load(),
	)
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		m.loading = false
		m.err = nil
		m.clampCursors()
		m.log.Debugf("view loaded with %d tasks", msg.count)
		return m, nil

	case errMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case commitMsg:
		return m, m.settle(msg)

	case createdMsg:
		if msg.err != nil {
			m.setStatus(describeError(msg.err))
			return m, nil
		}
		m.setStatus("Created: " + msg.task.Title)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.newMode {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKey handles keyboard input.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.newMode {
		return m.handlePromptKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab":
		m.cancelDrag()
		if m.view == viewBoard {
			m.view = viewCalendar
		} else {
			m.view = viewBoard
		}
		return m, nil

	case "r":
		if m.drag != nil {
			return m, nil
		}
		m.loading = true
		return m, m.load()

	case "n":
		if m.drag != nil {
			return m, nil
		}
		m.newMode = true
		m.input.Focus()
		return m, textinput.Blink
	}

	if m.view == viewCalendar {
		return m.handleCalendarKey(msg)
	}
	return m.handleBoardKey(msg)
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.newMode = false
		m.input.SetValue("")
		m.input.Blur()
		m.setStatus("Cancelled")
		return m, nil
	case "enter":
		title := strings.TrimSpace(m.input.Value())
		m.newMode = false
		m.input.SetValue("")
		m.input.Blur()
		if title == "" {
			m.setStatus("Cancelled")
			return m, nil
		}
		draft := types.NewDraft(title, m.svc.Workspace())
		if m.view == viewCalendar {
			due := m.selDay
			draft.DueDate = &due
		} else if cols := board.Columns(); m.colIdx < len(cols) {
			draft.Status = cols[m.colIdx]
		}
		return m, m.create(draft)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// Board keys

func (m *Model) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cols := board.Columns()

	switch msg.String() {
	case "left", "h":
		if m.colIdx > 0 {
			m.colIdx--
			m.afterColumnMove()
		}
	case "right", "l":
		if m.colIdx < len(cols)-1 {
			m.colIdx++
			m.afterColumnMove()
		}
	case "up", "k":
		if m.drag == nil && m.rowIdx > 0 {
			m.rowIdx--
		}
	case "down", "j":
		if m.drag == nil && m.rowIdx < len(m.columnTasks(m.colIdx))-1 {
			m.rowIdx++
		}
	case "c":
		status := cols[m.colIdx]
		if m.collapse.Toggle(status) {
			m.setStatus(status.Label() + " collapsed")
		} else {
			m.setStatus(status.Label() + " expanded")
		}
	case " ":
		return m, m.pickOnBoard()
	case "enter":
		return m, m.release(m.boardMoves)
	case "esc":
		m.cancelDrag()
	}
	return m, nil
}

func (m *Model) afterColumnMove() {
	if m.drag != nil {
		m.drag.Over(drag.StatusTarget(board.Columns()[m.colIdx]))
		return
	}
	m.clampCursors()
}

func (m *Model) pickOnBoard() tea.Cmd {
	if m.drag != nil {
		return nil
	}
	if m.busy {
		m.setStatus("Saving, please wait")
		return nil
	}
	status := board.Columns()[m.colIdx]
	if m.collapse.Collapsed(status) {
		m.setStatus(status.Label() + " is collapsed")
		return nil
	}
	task, ok := m.selectedBoardTask()
	if !ok {
		return nil
	}
	d, err := m.boardMoves.Pick(task.ID)
	if err != nil {
		m.setStatus(err.Error())
		return nil
	}
	d.Over(drag.StatusTarget(status))
	m.drag = d
	m.setStatus("Moving: " + task.Title)
	return nil
}

// Calendar keys

func (m *Model) handleCalendarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		m.moveDay(-1)
	case "right", "l":
		m.moveDay(1)
	case "up":
		m.moveDay(-m.rowStep())
	case "down":
		m.moveDay(m.rowStep())
	case "k":
		if m.drag == nil && m.taskIdx > 0 {
			m.taskIdx--
		}
	case "j":
		if m.drag == nil && m.taskIdx < len(m.dayTasks(m.selDay))-1 {
			m.taskIdx++
		}
	case "[":
		m.nav.Advance(-1)
		m.jumpTo(m.nav.Ref)
	case "]":
		m.nav.Advance(1)
		m.jumpTo(m.nav.Ref)
	case "t":
		m.jumpTo(m.nav.Today())
	case "v":
		m.nav.Cycle()
		m.nav.Ref = m.selDay
		m.setStatus("View: " + m.nav.Granularity.String())
	case "o":
		m.popover.Toggle(m.selDay)
	case " ":
		return m, m.pickOnCalendar()
	case "enter":
		return m, m.release(m.calMoves)
	case "esc":
		if m.drag != nil {
			m.cancelDrag()
		} else {
			m.popover.Close()
		}
	}
	return m, nil
}

func (m *Model) rowStep() int {
	if m.nav.Granularity == calendar.Day {
		return 1
	}
	return 7
}

func (m *Model) moveDay(days int) {
	m.jumpTo(m.selDay.AddDate(0, 0, days))
}

// jumpTo selects day, scrolling the view when day is outside it.
func (m *Model) jumpTo(day time.Time) {
	m.selDay = types.Midnight(day)
	if !m.dayVisible(m.selDay) {
		m.nav.Ref = m.selDay
	}
	if m.drag != nil {
		m.drag.Over(drag.NewDayTarget(m.selDay))
		return
	}
	m.taskIdx = 0
}

func (m *Model) dayVisible(day time.Time) bool {
	ref := m.nav.Ref
	switch m.nav.Granularity {
	case calendar.Month:
		return day.Year() == ref.Year() && day.Month() == ref.Month()
	case calendar.Week:
		return calendar.WeekStart(day).Equal(calendar.WeekStart(ref))
	default:
		return types.SameDay(day, ref)
	}
}

func (m *Model) pickOnCalendar() tea.Cmd {
	if m.drag != nil {
		return nil
	}
	tasks := m.dayTasks(m.selDay)
	if m.taskIdx >= len(tasks) {
		return nil
	}
	task := tasks[m.taskIdx]
	d, err := m.calMoves.Pick(task.ID)
	if err != nil {
		m.setStatus(err.Error())
		return nil
	}
	d.Over(drag.NewDayTarget(m.selDay))
	m.drag = d
	m.setStatus("Rescheduling: " + task.Title)
	return nil
}

// Drag lifecycle

// release drops the current drag. The mutation is sent from a command so
// the UI keeps drawing; settle runs when its result arrives.
func (m *Model) release(p *drag.Protocol) tea.Cmd {
	if m.drag == nil {
		return nil
	}
	d := m.drag
	m.drag = nil

	c, err := p.Release(d)
	if err != nil {
		m.log.WithTask(d.TaskID()).WithError(err).Debug("drop rejected")
		m.setStatus(describeError(err))
		return nil
	}
	if c == nil {
		// Dropped where it already was.
		m.clampCursors()
		return nil
	}
	return m.send(c)
}

func (m *Model) settle(msg commitMsg) tea.Cmd {
	err := msg.commit.Settle(msg.res)
	m.clampCursors()
	if err == nil {
		m.setStatus(fmt.Sprintf("Moved %s to %s", msg.commit.Candidate().Title, describeTarget(msg.commit.Target())))
		return nil
	}

	var ce *types.CommitError
	if errors.As(err, &ce) && ce.OutOfSync {
		m.setStatus(msgOutOfSync)
	} else {
		m.setStatus(msgRetry)
	}
	return nil
}

func (m *Model) cancelDrag() {
	if m.drag == nil {
		return
	}
	m.drag.Cancel()
	m.drag = nil
	m.setStatus("Move cancelled")
}

// Helper methods

func (m *Model) setStatus(msg string) {
	m.statusMessage = msg
	m.statusExpiry = m.now().Add(statusTTL)
}

// currentStatus returns the status line text if it has not expired.
func (m *Model) currentStatus() string {
	if m.statusMessage == "" || m.now().After(m.statusExpiry) {
		return ""
	}
	return m.statusMessage
}

func (m *Model) tasks() []types.Task {
	return m.svc.Collection().Snapshot().Tasks
}

func (m *Model) columnTasks(col int) []types.Task {
	cols := board.Columns()
	if col < 0 || col >= len(cols) {
		return nil
	}
	return board.BucketFor(m.tasks(), cols[col])
}

func (m *Model) selectedBoardTask() (types.Task, bool) {
	tasks := m.columnTasks(m.colIdx)
	if m.rowIdx < 0 || m.rowIdx >= len(tasks) {
		return types.Task{}, false
	}
	return tasks[m.rowIdx], true
}

func (m *Model) dayTasks(day time.Time) []types.Task {
	return calendar.BucketFor(m.tasks(), day)
}

func (m *Model) clampCursors() {
	if n := len(m.columnTasks(m.colIdx)); m.rowIdx >= n {
		m.rowIdx = n - 1
	}
	if m.rowIdx < 0 {
		m.rowIdx = 0
	}
	if n := len(m.dayTasks(m.selDay)); m.taskIdx >= n {
		m.taskIdx = n - 1
	}
	if m.taskIdx < 0 {
		m.taskIdx = 0
	}
}

func describeTarget(t drag.Target) string {
	switch t := t.(type) {
	case drag.StatusTarget:
		return types.Status(t).Label()
	case drag.DayTarget:
		return types.FormatDate(t.Day())
	}
	return t.String()
}

func describeError(err error) string {
	var ve *types.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var ce *types.CommitError
	if errors.As(err, &ce) {
		return msgRetry
	}
	return err.Error()
}

// Commands

func (m *Model) load() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		snap, err := svc.Load(context.Background())
		if err != nil {
			return errMsg{err: err}
		}
		return loadedMsg{count: snap.Len()}
	}
}

func (m *Model) send(c *drag.Commit) tea.Cmd {
	return func() tea.Msg {
		return commitMsg{commit: c, res: c.Send(context.Background())}
	}
}

func (m *Model) create(draft types.Task) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		t, err := svc.Create(context.Background(), draft)
		return createdMsg{task: t, err: err}
	}
}
