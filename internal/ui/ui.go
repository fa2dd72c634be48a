package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"myday/internal/config"
	"myday/internal/report"
	"myday/internal/status"
	"myday/internal/task"
	"myday/internal/views"
)

// Service is the task service the UI drives.
type Service interface {
	Add(ctx context.Context, name string, due task.DueDate, important bool) (task.Task, error)
	Restore(ctx context.Context, snap task.DeletedSnapshot) (task.Task, error)
	SetCompleted(ctx context.Context, id int64, completed bool) (task.Task, error)
	ToggleImportance(ctx context.Context, id int64) (task.Task, error)
	Postpone(ctx context.Context, id int64) (task.Task, error)
	Delete(ctx context.Context, t task.Task, position int) (task.DeletedSnapshot, error)
	Subscribe(ctx context.Context) <-chan []task.Task
	Reconcile(ctx context.Context) (status.Result, error)
	Today() task.DueDate
	RetentionDays() int
}

type mode int

const (
	modeList mode = iota
	modeAdd
	modeSearch
)

type tab int

const (
	tabMyDay tab = iota
	tabImportant
	tabPlan
	tabAll
	tabReport
	tabCount
)

var tabNames = [...]string{"My Day", "Important", "Plan", "All", "Report"}

func (t tab) String() string { return tabNames[t] }

func tabFromView(v string) tab {
	switch v {
	case "important":
		return tabImportant
	case "plan":
		return tabPlan
	case "all":
		return tabAll
	case "report":
		return tabReport
	default:
		return tabMyDay
	}
}

type (
	snapshotMsg       []task.Task
	snapshotClosedMsg struct{}
	reconciledMsg     struct {
		res status.Result
		err error
	}
	undoExpiredMsg struct {
		deletedAt time.Time
	}
)

type Model struct {
	ctx       context.Context
	svc       Service
	cfg       config.Config
	snapshots <-chan []task.Task
	now       func() time.Time

	tasks  []task.Task
	tab    tab
	cursor int
	mode   mode
	input  textinput.Model
	status string
	query  string
	width  int

	plan         views.PlanFilter
	reportFilter report.Filter
	undo         *task.DeletedSnapshot
}

// New builds the model. Snapshots are read from svc.Subscribe(ctx).
func New(ctx context.Context, svc Service, cfg config.Config) Model {
	ti := textinput.New()
	ti.Placeholder = "Task name | due date | !"
	ti.CharLimit = 256
	ti.Width = 40

	return Model{
		ctx:       ctx,
		svc:       svc,
		cfg:       cfg,
		snapshots: svc.Subscribe(ctx),
		now:       time.Now,
		tab:       tabFromView(cfg.DefaultView),
		mode:      modeList,
		input:     ti,
		status:    fmt.Sprintf("Press '%s' to add, '%s' to switch view.", cfg.Keys.Add, cfg.Keys.NextTab),
	}
}

func Run(ctx context.Context, svc Service, cfg config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(New(ctx, svc, cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForSnapshot(), m.reconcile())
}

func (m Model) waitForSnapshot() tea.Cmd {
	ch := m.snapshots
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return snapshotClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func (m Model) reconcile() tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		res, err := svc.Reconcile(ctx)
		return reconciledMsg{res: res, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.tasks = msg
		m.cursor = clampCursor(m.cursor, len(m.visible()))
		return m, m.waitForSnapshot()
	case snapshotClosedMsg:
		return m, tea.Quit
	case reconciledMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("reconcile failed: %v", msg.err)
		}
		return m, nil
	case undoExpiredMsg:
		if m.undo != nil && m.undo.DeletedAt.Equal(msg.deletedAt) {
			m.undo = nil
		}
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeAdd:
			return m.updateAddMode(msg)
		case modeSearch:
			return m.updateSearchMode(msg)
		}
		return m.updateListMode(msg.String())
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

func (m Model) updateAddMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.cfg.Keys.Cancel:
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case m.cfg.Keys.Confirm:
		in, err := parseAddInput(m.input.Value(), m.svc.Today())
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		created, err := m.svc.Add(m.ctx, in.name, in.due, in.important)
		if err != nil {
			m.status = fmt.Sprintf("save failed: %v", err)
			return m, nil
		}
		m.status = fmt.Sprintf("Added %q for %s", created.Name, created.Due)
		m.input.SetValue("")
		m.input.Blur()
		m.mode = modeList
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) updateSearchMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.cfg.Keys.Cancel:
		m.query = ""
		fallthrough
	case m.cfg.Keys.Confirm:
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		m.input.Placeholder = "Task name | due date | !"
		m.cursor = clampCursor(m.cursor, len(m.visible()))
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.query = m.input.Value()
		m.cursor = clampCursor(m.cursor, len(m.visible()))
		return m, cmd
	}
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	visible := m.visible()

	switch key {
	case "ctrl+c", m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(visible))
	case m.cfg.Keys.Up, "up":
		m.cursor = clampCursor(m.cursor-1, len(visible))
	case m.cfg.Keys.NextTab, "right":
		return m.switchTab((m.tab + 1) % tabCount)
	case m.cfg.Keys.PrevTab, "left":
		return m.switchTab((m.tab + tabCount - 1) % tabCount)
	case "1", "2", "3", "4", "5":
		return m.switchTab(tab(key[0] - '1'))
	case m.cfg.Keys.Add:
		m.mode = modeAdd
		m.input.Focus()
		m.status = "Add: name | due (today, tomorrow, +3, May 16, 2025) | ! for important"
	case m.cfg.Keys.Search:
		if m.tab != tabAll {
			return m, nil
		}
		m.mode = modeSearch
		m.input.SetValue(m.query)
		m.input.Placeholder = "Search"
		m.input.Focus()
		m.status = "Search tasks"
	case m.cfg.Keys.Filter:
		switch m.tab {
		case tabPlan:
			m.plan = m.plan.Next()
			m.cursor = 0
			m.status = "Plan: " + m.plan.String()
		case tabReport:
			m.reportFilter = m.reportFilter.Next()
			m.status = "Report: " + m.reportFilter.Label()
		}
	case m.cfg.Keys.Toggle:
		if len(visible) == 0 {
			return m, nil
		}
		t := visible[m.cursor]
		updated, err := m.svc.SetCompleted(m.ctx, t.ID, !t.Completed)
		if err != nil {
			m.status = fmt.Sprintf("toggle failed: %v", err)
			return m, nil
		}
		m.status = fmt.Sprintf("%q %s", updated.Name, humanDone(updated.Completed))
	case m.cfg.Keys.Star:
		if len(visible) == 0 {
			return m, nil
		}
		updated, err := m.svc.ToggleImportance(m.ctx, visible[m.cursor].ID)
		if err != nil {
			m.status = fmt.Sprintf("star failed: %v", err)
			return m, nil
		}
		if updated.Important {
			m.status = fmt.Sprintf("Marked %q important", updated.Name)
		} else {
			m.status = fmt.Sprintf("Unmarked %q", updated.Name)
		}
	case m.cfg.Keys.Postpone:
		if len(visible) == 0 {
			return m, nil
		}
		updated, err := m.svc.Postpone(m.ctx, visible[m.cursor].ID)
		if err != nil {
			m.status = fmt.Sprintf("postpone failed: %v", err)
			return m, nil
		}
		m.status = fmt.Sprintf("%q now due %s", updated.Name, updated.Due)
	case m.cfg.Keys.Delete:
		if len(visible) == 0 {
			return m, nil
		}
		snap, err := m.svc.Delete(m.ctx, visible[m.cursor], m.cursor)
		if err != nil {
			m.status = fmt.Sprintf("delete failed: %v", err)
			return m, nil
		}
		m.undo = &snap
		m.status = fmt.Sprintf("Deleted %q. Press '%s' to undo.", snap.Task.Name, m.cfg.Keys.Undo)
		window := m.cfg.UndoWindow.Std()
		return m, tea.Tick(window, func(time.Time) tea.Msg {
			return undoExpiredMsg{deletedAt: snap.DeletedAt}
		})
	case m.cfg.Keys.Undo:
		if m.undo == nil || m.undo.Expired(m.now(), m.cfg.UndoWindow.Std()) {
			m.undo = nil
			m.status = "Nothing to undo"
			return m, nil
		}
		snap := *m.undo
		m.undo = nil
		if _, err := m.svc.Restore(m.ctx, snap); err != nil {
			m.status = fmt.Sprintf("undo failed: %v", err)
			return m, nil
		}
		m.cursor = snap.Position
		m.status = fmt.Sprintf("Restored %q", snap.Task.Name)
	}
	return m, nil
}

func (m Model) switchTab(t tab) (tea.Model, tea.Cmd) {
	if t < 0 || t >= tabCount {
		return m, nil
	}
	m.tab = t
	m.cursor = 0
	m.status = t.String()
	if t == tabMyDay || t == tabImportant {
		return m, m.reconcile()
	}
	return m, nil
}

// visible returns the tasks listed on the current tab.
func (m Model) visible() []task.Task {
	today := m.svc.Today()
	switch m.tab {
	case tabMyDay:
		return views.Today(m.tasks, today)
	case tabImportant:
		return views.Important(m.tasks)
	case tabPlan:
		return views.Plan(m.tasks, today, m.plan)
	case tabAll:
		return views.All(m.tasks, today, m.svc.RetentionDays(), m.query)
	default:
		return nil
	}
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

func humanDone(done bool) string {
	if done {
		return "done"
	}
	return "pending"
}

func emptyPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(empty)"
	}
	return v
}
