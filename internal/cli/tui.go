package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/groundwork/internal/cli/formatter"
	"github.com/alexanderramin/groundwork/internal/domain"
	"github.com/alexanderramin/groundwork/internal/service"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type scheduleKeyMap struct {
	Indent   key.Binding
	Outdent  key.Binding
	MoveUp   key.Binding
	MoveDown key.Binding
	Delete   key.Binding
	Recalc   key.Binding
	Gantt    key.Binding
	Quit     key.Binding
}

func defaultScheduleKeys() scheduleKeyMap {
	return scheduleKeyMap{
		Indent:   key.NewBinding(key.WithKeys("tab", ">"), key.WithHelp("tab", "indent")),
		Outdent:  key.NewBinding(key.WithKeys("shift+tab", "<"), key.WithHelp("shift+tab", "outdent")),
		MoveUp:   key.NewBinding(key.WithKeys("K"), key.WithHelp("K", "move up")),
		MoveDown: key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "move down")),
		Delete:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		Recalc:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "recalculate")),
		Gantt:    key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "table/gantt")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k scheduleKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Indent, k.Outdent, k.MoveUp, k.MoveDown, k.Delete, k.Recalc, k.Gantt, k.Quit}
}

func (k scheduleKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// tasksLoadedMsg carries a fresh project snapshot.
type tasksLoadedMsg struct {
	tasks []*domain.Task
	err   error
}

// changeDoneMsg reports a finished schedule change.
type changeDoneMsg struct {
	action string
	res    *service.ChangeResult
	err    error
}

// scheduleModel is an interactive task table. Structural keys call the
// schedule service and redraw from the snapshot it returns.
type scheduleModel struct {
	ctx     context.Context
	svc     service.ScheduleService
	project *domain.Project

	tasks  []*domain.Task
	table  table.Model
	keys   scheduleKeyMap
	help   help.Model
	gantt  bool
	status string
	busy   bool
}

var scheduleColumns = []table.Column{
	{Title: "#", Width: 8},
	{Title: "TASK", Width: 32},
	{Title: "START", Width: 10},
	{Title: "END", Width: 10},
	{Title: "DAYS", Width: 5},
	{Title: "DONE", Width: 5},
	{Title: "PREDECESSORS", Width: 20},
}

func newScheduleModel(ctx context.Context, svc service.ScheduleService, p *domain.Project) *scheduleModel {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(formatter.ColorHeader).Bold(true)
	styles.Selected = styles.Selected.Foreground(formatter.ColorFg).Background(formatter.ColorBlue).Bold(false)

	return &scheduleModel{
		ctx:     ctx,
		svc:     svc,
		project: p,
		table: table.New(
			table.WithColumns(scheduleColumns),
			table.WithFocused(true),
			table.WithHeight(15),
			table.WithStyles(styles),
		),
		keys: defaultScheduleKeys(),
		help: help.New(),
	}
}

func (m *scheduleModel) Init() tea.Cmd {
	return m.load
}

func (m *scheduleModel) load() tea.Msg {
	tasks, err := m.svc.Tasks(m.ctx, m.project.ID)
	return tasksLoadedMsg{tasks: tasks, err: err}
}

func (m *scheduleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-6, 3))
		m.help.Width = msg.Width
		return m, nil

	case tasksLoadedMsg:
		if msg.err != nil {
			m.status = formatter.StyleRed.Render(msg.err.Error())
			return m, nil
		}
		m.setTasks(msg.tasks, "")
		return m, nil

	case changeDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.status = formatter.StyleRed.Render(msg.err.Error())
			return m, nil
		}
		focus := ""
		if msg.res.Task != nil {
			focus = msg.res.Task.ID
		}
		m.setTasks(msg.res.Tasks, focus)
		m.status = summarizeChange(msg.action, msg.res)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if key.Matches(msg, m.keys.Gantt) {
			m.gantt = !m.gantt
			return m, nil
		}
		if cmd := m.handleAction(msg); cmd != nil {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// handleAction maps a key to a schedule change. It returns nil when the
// key is not an action, so the table can use it for navigation.
func (m *scheduleModel) handleAction(msg tea.KeyMsg) tea.Cmd {
	var (
		action string
		run    func(t *domain.Task) (*service.ChangeResult, error)
	)
	pid := m.project.ID
	switch {
	case key.Matches(msg, m.keys.Indent):
		action = "Indented"
		run = func(t *domain.Task) (*service.ChangeResult, error) { return m.svc.Indent(m.ctx, pid, t.ID) }
	case key.Matches(msg, m.keys.Outdent):
		action = "Outdented"
		run = func(t *domain.Task) (*service.ChangeResult, error) { return m.svc.Outdent(m.ctx, pid, t.ID) }
	case key.Matches(msg, m.keys.MoveUp):
		action = "Moved"
		run = func(t *domain.Task) (*service.ChangeResult, error) {
			prev := sibling(m.tasks, t, -1)
			if prev == nil {
				return nil, fmt.Errorf("%s is already first among its siblings", t.HierarchyNumber)
			}
			return m.svc.Move(m.ctx, pid, t.ID, prev.ID, domain.PlaceAbove)
		}
	case key.Matches(msg, m.keys.MoveDown):
		action = "Moved"
		run = func(t *domain.Task) (*service.ChangeResult, error) {
			next := sibling(m.tasks, t, +1)
			if next == nil {
				return nil, fmt.Errorf("%s is already last among its siblings", t.HierarchyNumber)
			}
			return m.svc.Move(m.ctx, pid, t.ID, next.ID, domain.PlaceBelow)
		}
	case key.Matches(msg, m.keys.Delete):
		action = "Deleted"
		run = func(t *domain.Task) (*service.ChangeResult, error) { return m.svc.DeleteTask(m.ctx, pid, t.ID, false) }
	case key.Matches(msg, m.keys.Recalc):
		m.busy = true
		return func() tea.Msg {
			res, err := m.svc.Recalculate(m.ctx, pid)
			return changeDoneMsg{action: "Recalculated", res: res, err: err}
		}
	default:
		return nil
	}

	selected := m.selected()
	if selected == nil || m.busy {
		return func() tea.Msg { return nil }
	}
	m.busy = true
	return func() tea.Msg {
		res, err := run(selected)
		return changeDoneMsg{action: action, res: res, err: err}
	}
}

func (m *scheduleModel) selected() *domain.Task {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.tasks) {
		return nil
	}
	return m.tasks[i]
}

// setTasks redraws the table and keeps the cursor on focusID, or on the
// same row when focusID is empty.
func (m *scheduleModel) setTasks(tasks []*domain.Task, focusID string) {
	m.tasks = tasks
	rows := make([]table.Row, len(tasks))
	cursor := min(m.table.Cursor(), max(len(tasks)-1, 0))
	for i, t := range tasks {
		rows[i] = tableRow(t)
		if t.ID == focusID {
			cursor = i
		}
	}
	m.table.SetRows(rows)
	m.table.SetCursor(cursor)
}

func tableRow(t *domain.Task) table.Row {
	return table.Row{
		t.HierarchyNumber,
		strings.Repeat("  ", t.Depth()-1) + t.Name,
		formatter.FormatDate(t.StartDate),
		formatter.FormatDate(t.EndDate),
		strconv.Itoa(t.Duration),
		fmt.Sprintf("%d%%", t.Progress),
		strings.Join(t.Predecessors, ","),
	}
}

// sibling returns the task next to t under the same parent, dir -1 for the
// previous one and +1 for the next, or nil at either end.
func sibling(tasks []*domain.Task, t *domain.Task, dir int) *domain.Task {
	parent := domain.ParentHierarchy(t.HierarchyNumber)
	var siblings []*domain.Task
	at := -1
	for _, o := range tasks {
		if o.Depth() != t.Depth() || domain.ParentHierarchy(o.HierarchyNumber) != parent {
			continue
		}
		if o.ID == t.ID {
			at = len(siblings)
		}
		siblings = append(siblings, o)
	}
	if at < 0 || at+dir < 0 || at+dir >= len(siblings) {
		return nil
	}
	return siblings[at+dir]
}

func summarizeChange(action string, res *service.ChangeResult) string {
	parts := []string{formatter.StyleGreen.Render("✔ " + action)}
	if len(res.Renames) > 0 {
		parts = append(parts, formatter.Plural(len(res.Renames), "renumbered task"))
	}
	if len(res.Patches) > 0 {
		parts = append(parts, formatter.Plural(len(res.Patches), "rescheduled task"))
	}
	line := strings.Join(parts, formatter.Dim(" · "))
	for _, w := range res.Warnings {
		line += "\n" + formatter.Warning(w)
	}
	return line
}

func (m *scheduleModel) View() string {
	var b strings.Builder
	b.WriteString(formatter.Header(m.project.Code+" · "+m.project.Name) + "\n\n")
	if m.gantt {
		b.WriteString(formatter.FormatGantt(m.tasks))
	} else {
		b.WriteString(lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(formatter.ColorDim).Render(m.table.View()))
	}
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(m.status + "\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
