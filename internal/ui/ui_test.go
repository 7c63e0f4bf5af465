package ui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpad/internal/config"
	"taskpad/internal/storage"
	"taskpad/internal/store"
)

func keys() config.Keymap {
	return config.Default(".").Keys
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func addTask(t *testing.T, m Model, text string) Model {
	t.Helper()
	m = press(t, m, runes("a"))
	require.Equal(t, modeAdd, m.mode)
	m.input.SetValue(text)
	return press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func newModel(t *testing.T) (Model, *store.Store, *storage.Memory) {
	t.Helper()
	kv := storage.NewMemory(0)
	s := store.New(kv)
	return New(s, keys()), s, kv
}

func TestAddFlow(t *testing.T) {
	m, s, _ := newModel(t)

	m = addTask(t, m, "Buy milk")
	assert.Equal(t, modeList, m.mode)
	assert.Equal(t, "Added task", m.status)
	require.Len(t, m.tasks, 1)
	assert.Equal(t, "Buy milk", s.Tasks()[0].Text)
	assert.Contains(t, m.View(), "Buy milk")
	assert.Contains(t, m.View(), "1 total • 1 active • 0 completed")
}

func TestAddBlankStaysInAddMode(t *testing.T) {
	m, s, _ := newModel(t)

	m = addTask(t, m, "   ")
	assert.Equal(t, modeAdd, m.mode)
	assert.Equal(t, "Task cannot be empty", m.status)
	assert.Empty(t, s.Tasks())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, modeList, m.mode)
}

func TestToggleAndFilter(t *testing.T) {
	m, s, _ := newModel(t)
	m = addTask(t, m, "first")
	m = addTask(t, m, "second")

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.True(t, s.Tasks()[0].Completed)
	assert.Equal(t, store.Stats{Total: 2, Completed: 1, Active: 1}, s.Stats())

	m = press(t, m, runes("f"))
	assert.Equal(t, store.FilterActive, s.Filter())
	require.Len(t, m.tasks, 1)
	assert.Equal(t, "first", m.tasks[0].Text)

	m = press(t, m, runes("f"))
	assert.Equal(t, store.FilterCompleted, s.Filter())
	require.Len(t, m.tasks, 1)
	assert.Equal(t, "second", m.tasks[0].Text)

	m = press(t, m, runes("f"))
	assert.Equal(t, store.FilterAll, s.Filter())
	assert.Len(t, m.tasks, 2)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	m, s, _ := newModel(t)
	m = addTask(t, m, "keep")
	m = addTask(t, m, "drop")

	m = press(t, m, runes("d"))
	assert.Equal(t, modeConfirmDelete, m.mode)
	m = press(t, m, runes("n"))
	assert.Equal(t, modeList, m.mode)
	assert.Len(t, s.Tasks(), 2)

	m = press(t, m, runes("d"), runes("y"))
	assert.Equal(t, "Deleted task", m.status)
	require.Len(t, s.Tasks(), 1)
	assert.Equal(t, "keep", s.Tasks()[0].Text)
}

func TestClearAll(t *testing.T) {
	m, s, _ := newModel(t)
	m = press(t, m, runes("C"))
	assert.Equal(t, "Nothing to clear", m.status)

	m = addTask(t, m, "a")
	m = addTask(t, m, "b")
	m = press(t, m, runes("C"))
	assert.Equal(t, modeConfirmClear, m.mode)
	m = press(t, m, runes("y"))
	assert.Empty(t, s.Tasks())
	assert.Empty(t, m.tasks)
	assert.Contains(t, m.View(), "No tasks yet")
}

func TestCursorMovement(t *testing.T) {
	m, _, _ := newModel(t)
	for _, text := range []string{"a", "b", "c"} {
		m = addTask(t, m, text)
	}
	assert.Equal(t, 0, m.cursor)

	m = press(t, m, runes("j"), runes("j"), runes("j"))
	assert.Equal(t, 2, m.cursor)
	m = press(t, m, runes("k"))
	assert.Equal(t, 1, m.cursor)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyUp}, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.cursor)
}

func TestUnsavedChangesShown(t *testing.T) {
	m, _, kv := newModel(t)
	kv.SetWriteError(errors.New("quota exceeded"))

	m = addTask(t, m, "volatile")
	assert.Contains(t, m.status, "not saved: ")
	assert.Contains(t, m.status, "quota exceeded")
	assert.Contains(t, m.View(), "unsaved changes")
}

func TestQuit(t *testing.T) {
	m, _, _ := newModel(t)
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestClampCursor(t *testing.T) {
	assert.Equal(t, 0, clampCursor(5, 0))
	assert.Equal(t, 0, clampCursor(-1, 3))
	assert.Equal(t, 2, clampCursor(9, 3))
	assert.Equal(t, 1, clampCursor(1, 3))
}
