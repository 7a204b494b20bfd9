package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/nibzard/tasklist/internal/remote"
	"github.com/nibzard/tasklist/internal/todo"
)

// storeChangedMsg signals that the store was mutated outside Update, for
// example by a remote merge. The model re-reads the store on receipt.
type storeChangedMsg struct{}

// statusChangedMsg signals a new or cleared fetch status message.
type statusChangedMsg struct{}

// fetchDoneMsg carries the result of a FetchOnce run.
type fetchDoneMsg struct {
	result remote.Result
}

// Model is the bubbletea model of the task list screen.
type Model struct {
	ctx    context.Context
	store  *todo.Store
	syncer *remote.Syncer
	logger *log.Logger

	tasks    []todo.Task
	filter   todo.Filter
	cursor   int
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	pending  bool
	status   string
	confirm  *todo.Task
	showHelp bool
	width    int
}

// NewModel returns a model over store. syncer may be nil, in which case the
// fetch key does nothing.
func NewModel(ctx context.Context, store *todo.Store, syncer *remote.Syncer, filter todo.Filter, logger *log.Logger) *Model {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	ti := textinput.New()
	ti.Placeholder = "What needs to be done?"
	ti.Width = 50
	ti.Prompt = "> "

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(accent)

	return &Model{
		ctx:     ctx,
		store:   store,
		syncer:  syncer,
		logger:  logger,
		tasks:   store.Tasks(),
		filter:  filter,
		input:   ti,
		spinner: sp,
		help:    help.New(),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case storeChangedMsg:
		m.refresh()
		return m, nil

	case statusChangedMsg:
		if m.syncer != nil {
			m.status = m.syncer.Session().Status()
		}
		return m, nil

	case fetchDoneMsg:
		m.pending = false
		m.refresh()
		if m.syncer != nil {
			m.status = m.syncer.Session().Status()
		}
		if msg.result.Outcome == remote.OutcomeMerged {
			m.logger.Debug("fetch merged tasks", "added", msg.result.Added)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.confirm != nil {
			return m.updateConfirm(msg)
		}
		if m.input.Focused() {
			return m.updateInput(msg)
		}
		return m.updateList(msg)
	}

	return m, nil
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Confirm):
		id := m.confirm.ID
		m.confirm = nil
		if m.store.Delete(id, todo.AlwaysConfirm) {
			m.logger.Info("deleted task", "id", id)
		}
		m.refresh()
	case key.Matches(msg, keys.Deny):
		m.confirm = nil
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, keys.Cancel):
		m.input.Blur()
		return m, nil
	case key.Matches(msg, keys.Submit):
		task, err := m.store.Add(m.input.Value())
		if err != nil {
			// Whitespace-only input is ignored and keeps focus.
			m.logger.Debug("add rejected", "err", err)
			return m, nil
		}
		m.logger.Info("added task", "id", task.ID)
		m.input.Reset()
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.visible()

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, keys.Down):
		if m.cursor < len(visible)-1 {
			m.cursor++
		}

	case key.Matches(msg, keys.Add):
		return m, m.input.Focus()

	case key.Matches(msg, keys.Toggle):
		if len(visible) > 0 {
			id := visible[m.cursor].ID
			if m.store.Toggle(id) {
				m.logger.Info("toggled task", "id", id)
			}
			m.refresh()
		}

	case key.Matches(msg, keys.Delete):
		if len(visible) > 0 {
			t := visible[m.cursor]
			m.confirm = &t
		}

	case key.Matches(msg, keys.Filter):
		m.filter = m.filter.Next()
		m.cursor = 0
		m.clampCursor()

	case key.Matches(msg, keys.Fetch):
		if m.syncer == nil || m.pending {
			return m, nil
		}
		m.pending = true
		m.status = ""
		return m, tea.Batch(m.spinner.Tick, m.fetchCmd())
	}

	return m, nil
}

func (m *Model) fetchCmd() tea.Cmd {
	ctx, syncer := m.ctx, m.syncer
	return func() tea.Msg {
		return fetchDoneMsg{result: syncer.FetchOnce(ctx)}
	}
}

func (m *Model) refresh() {
	m.tasks = m.store.Tasks()
	m.clampCursor()
}

func (m *Model) visible() []todo.Task {
	return todo.View(m.tasks, m.filter)
}

func (m *Model) clampCursor() {
	n := len(m.visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Task List"))
	b.WriteString("\n")

	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	b.WriteString(m.filterTabs())
	b.WriteString("\n\n")

	visible := m.visible()
	if len(visible) == 0 {
		b.WriteString(emptyStyle.Render("  No tasks."))
		b.WriteString("\n")
	}
	for i, t := range visible {
		b.WriteString(m.renderTask(t, i == m.cursor && !m.input.Focused()))
		b.WriteString("\n")
	}

	st := todo.Summarize(m.tasks)
	b.WriteString("\n")
	b.WriteString(statsStyle.Render(fmt.Sprintf("%d tasks, %d done, %d open (%d%%)", st.Total, st.Done, st.Open, st.Percent())))
	b.WriteString("\n")

	switch {
	case m.pending:
		b.WriteString(m.spinner.View() + " Fetching remote tasks...")
		b.WriteString("\n")
	case m.status != "":
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}

	if m.confirm != nil {
		prompt := fmt.Sprintf("%s\n%q\n\n[y] yes  [n] no", todo.DeletePrompt, m.confirm.Text)
		b.WriteString(confirmStyle.Render(prompt))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString("\n")
	switch {
	case m.input.Focused():
		b.WriteString(m.help.ShortHelpView([]key.Binding{keys.Submit, keys.Cancel}))
	case m.showHelp:
		b.WriteString(m.help.FullHelpView(keys.fullHelp()))
	default:
		b.WriteString(m.help.ShortHelpView(keys.listHelp()))
	}
	b.WriteString("\n")
	return b.String()
}

func (m *Model) filterTabs() string {
	tabs := make([]string, 0, len(todo.Filters))
	for _, f := range todo.Filters {
		label := strings.ToUpper(string(f[:1])) + string(f[1:])
		if f == m.filter {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderTask(t todo.Task, selected bool) string {
	cursor := "  "
	if selected {
		cursor = cursorStyle.Render("> ")
	}
	box := "[ ]"
	text := openTextStyle.Render(t.Text)
	if t.Done {
		box = "[x]"
		text = doneTextStyle.Render(t.Text)
	}
	return fmt.Sprintf("%s%s %s", cursor, box, text)
}
