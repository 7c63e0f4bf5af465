package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskpad/internal/config"
	"taskpad/internal/store"
	"taskpad/internal/task"
)

type Store interface {
	AddTask(text string) bool
	ToggleTask(id int64) bool
	DeleteTask(id int64) bool
	ClearAllTasks()
	SetFilter(f store.Filter) error
	Filter() store.Filter
	FilteredTasks() []task.Task
	Stats() store.Stats
	SaveStatus() store.SaveStatus
}

type mode int

const (
	modeList mode = iota
	modeAdd
	modeConfirmDelete
	modeConfirmClear
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	doneStyle  = lipgloss.NewStyle().Strikethrough(true).Faint(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

type Model struct {
	store      Store
	keys       config.Keymap
	tasks      []task.Task
	cursor     int
	mode       mode
	input      textinput.Model
	status     string
	pendingDel *task.Task
}

func New(s Store, keys config.Keymap) Model {
	ti := textinput.New()
	ti.Placeholder = "What needs to be done?"
	ti.CharLimit = 256
	ti.Width = 40

	m := Model{
		store:  s,
		keys:   keys,
		input:  ti,
		mode:   modeList,
		status: fmt.Sprintf("Press '%s' to add, '%s' to toggle, '%s' to delete.", keys.Add, keyLabel(keys.Toggle), keys.Delete),
	}
	m.refresh()
	return m
}

// Run blocks until the user quits.
func Run(s Store, cfg config.Config) error {
	_, err := tea.NewProgram(New(s, cfg.Keys)).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.mode {
		case modeAdd:
			return m.updateAddMode(msg)
		case modeConfirmDelete:
			return m.updateDeleteConfirm(msg.String())
		case modeConfirmClear:
			return m.updateClearConfirm(msg.String())
		default:
			return m.updateListMode(msg.String())
		}
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

// refresh re-reads the filtered list from the store.
func (m *Model) refresh() {
	m.tasks = m.store.FilteredTasks()
	m.cursor = clampCursor(m.cursor, len(m.tasks))
}

func (m Model) updateAddMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.keys.Cancel:
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case m.keys.Confirm:
		if !m.store.AddTask(m.input.Value()) {
			m.status = "Task cannot be empty"
			return m, nil
		}
		m.cursor = 0
		m.refresh()
		m.status = m.savedStatus("Added task")
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

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", m.keys.Quit:
		return m, tea.Quit
	case m.keys.Down, "down":
		if len(m.tasks) == 0 {
			return m, nil
		}
		m.cursor = clampCursor(m.cursor+1, len(m.tasks))
	case m.keys.Up, "up":
		m.cursor = clampCursor(m.cursor-1, len(m.tasks))
	case m.keys.Add:
		m.mode = modeAdd
		m.input.Focus()
		m.status = "Add mode: type a task and press Enter"
	case m.keys.Toggle:
		if len(m.tasks) == 0 {
			return m, nil
		}
		if !m.store.ToggleTask(m.tasks[m.cursor].ID) {
			m.status = "Task no longer exists"
		} else {
			m.status = m.savedStatus("Toggled task")
		}
		m.refresh()
	case m.keys.Delete:
		if len(m.tasks) == 0 {
			return m, nil
		}
		t := m.tasks[m.cursor]
		m.pendingDel = &t
		m.mode = modeConfirmDelete
		m.status = fmt.Sprintf("Delete \"%s\"? y/n", t.Text)
	case m.keys.Filter:
		next := m.store.Filter().Next()
		if err := m.store.SetFilter(next); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.cursor = 0
		m.refresh()
		m.status = "Showing " + string(next) + " tasks"
	case m.keys.Clear:
		if m.store.Stats().Total == 0 {
			m.status = "Nothing to clear"
			return m, nil
		}
		m.mode = modeConfirmClear
		m.status = "Delete ALL tasks? This cannot be undone. y/n"
	}
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.keys.Cancel:
		m.status = "Delete cancelled"
	case "y", "Y":
		if m.pendingDel == nil || !m.store.DeleteTask(m.pendingDel.ID) {
			m.status = "Nothing to delete"
		} else {
			m.status = m.savedStatus("Deleted task")
		}
		m.refresh()
	default:
		return m, nil
	}
	m.mode = modeList
	m.pendingDel = nil
	return m, nil
}

func (m Model) updateClearConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.keys.Cancel:
		m.status = "Clear cancelled"
	case "y", "Y":
		m.store.ClearAllTasks()
		m.cursor = 0
		m.refresh()
		m.status = m.savedStatus("Cleared all tasks")
	default:
		return m, nil
	}
	m.mode = modeList
	return m, nil
}

// savedStatus appends a warning when the last change did not reach storage.
func (m Model) savedStatus(msg string) string {
	st := m.store.SaveStatus()
	if !st.Unsaved {
		return msg
	}
	return msg + " (not saved: " + errString(st.LastError) + ")"
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Tasks"))
	b.WriteString(dimStyle.Render(" [" + string(m.store.Filter()) + "]"))
	b.WriteString("\n\n")

	if len(m.tasks) == 0 {
		b.WriteString(m.emptyMessage())
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderTaskList())
	}

	b.WriteString("\n")
	b.WriteString(renderStats(m.store.Stats()))
	if st := m.store.SaveStatus(); st.Unsaved {
		b.WriteString("  ")
		b.WriteString(warnStyle.Render("unsaved changes"))
	}
	b.WriteString("\n---\n")

	if m.mode == modeAdd {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(renderHelp(m.keys))

	return b.String()
}

func (m Model) emptyMessage() string {
	switch m.store.Filter() {
	case store.FilterActive:
		return "No active tasks."
	case store.FilterCompleted:
		return "No completed tasks."
	default:
		return fmt.Sprintf("No tasks yet. Press '%s' to add one.", m.keys.Add)
	}
}

func (m Model) renderTaskList() string {
	var b strings.Builder
	for i, t := range m.tasks {
		cursor := " "
		if m.cursor == i && m.mode == modeList {
			cursor = ">"
		}

		checkbox := "[ ]"
		text := t.Text
		if t.Completed {
			checkbox = "[x]"
			text = doneStyle.Render(text)
		}

		b.WriteString(fmt.Sprintf("%s %s %s\n", cursor, checkbox, text))
	}
	return b.String()
}

func renderStats(st store.Stats) string {
	return fmt.Sprintf("%d total • %d active • %d completed", st.Total, st.Active, st.Completed)
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • %s toggle • %s delete • %s filter • %s clear all • %s quit",
		k.Up, k.Down, k.Add, keyLabel(k.Toggle), k.Delete, k.Filter, k.Clear, k.Quit)
}

func keyLabel(k string) string {
	if k == " " {
		return "space"
	}
	return k
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
