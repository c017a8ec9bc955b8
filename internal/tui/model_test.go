package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoapp/internal/client"
	"todoapp/internal/todo"
)

type memBackend struct {
	items     []todo.ItemDTO
	nextID    int
	deleteErr error
}

func (b *memBackend) List(context.Context) ([]todo.ItemDTO, error) {
	return append([]todo.ItemDTO(nil), b.items...), nil
}

func (b *memBackend) Create(_ context.Context, text string) (todo.ItemDTO, error) {
	b.nextID++
	item := todo.ItemDTO{ID: b.nextID, Text: text}
	b.items = append(b.items, item)
	return item, nil
}

func (b *memBackend) Replace(_ context.Context, item todo.ItemForUpdate) (todo.ItemDTO, error) {
	for i := range b.items {
		if b.items[i].ID == item.ID {
			b.items[i] = todo.ItemDTO{ID: item.ID, Text: item.Text, Completed: item.Completed}
			return b.items[i], nil
		}
	}
	return todo.ItemDTO{}, errors.New("not found")
}

func (b *memBackend) Delete(_ context.Context, id int) error {
	if b.deleteErr != nil {
		return b.deleteErr
	}
	for i := range b.items {
		if b.items[i].ID == id {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func newBackend() *memBackend {
	return &memBackend{
		items:  []todo.ItemDTO{{ID: 1, Text: "ToDo item 1"}, {ID: 2, Text: "ToDo item 2"}},
		nextID: 2,
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key that only changes local state.
func press(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// pressAndWait sends a key that starts a backend call, runs the call, and
// feeds its result back.
func pressAndWait(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	require.NotNil(t, cmd)
	done, ok := cmd().(doneMsg)
	require.True(t, ok, "expected a backend call")
	next, _ = next.(Model).Update(done)
	return next.(Model)
}

func loaded(t *testing.T, backend *memBackend) (Model, *client.Controller) {
	t.Helper()
	ctrl := client.NewController(backend)
	m := New(context.Background(), ctrl)
	msg := m.Init()()
	next, _ := m.Update(msg)
	return next.(Model), ctrl
}

func TestInitLoadsItems(t *testing.T) {
	m, ctrl := loaded(t, newBackend())

	require.Len(t, ctrl.Items(), 2)
	view := m.View()
	assert.Contains(t, view, "ToDo List")
	assert.Contains(t, view, "ToDo item 1")
	assert.Contains(t, view, "ToDo item 2")
}

func TestToggleSelectedItem(t *testing.T) {
	m, ctrl := loaded(t, newBackend())

	m = press(t, m, runes("j"))
	m = pressAndWait(t, m, runes("x"))

	items := ctrl.Items()
	assert.False(t, items[0].Completed)
	assert.True(t, items[1].Completed)
	assert.Equal(t, 1, m.cursor)
}

func TestAddThroughInput(t *testing.T) {
	backend := newBackend()
	m, ctrl := loaded(t, backend)

	m = press(t, m, runes("a"))
	require.Equal(t, modeAdd, m.mode)
	m = press(t, m, runes("buy milk"))
	m = pressAndWait(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, modeList, m.mode)
	items := ctrl.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "buy milk", items[2].Text)
}

func TestEditAndCancel(t *testing.T) {
	m, ctrl := loaded(t, newBackend())

	m = press(t, m, runes("e"))
	require.Equal(t, modeEdit, m.mode)
	assert.True(t, ctrl.Items()[0].IsEditing)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, modeList, m.mode)
	assert.False(t, ctrl.Items()[0].IsEditing)
	assert.Equal(t, "ToDo item 1", ctrl.Items()[0].Text)
}

func TestEditAndSave(t *testing.T) {
	backend := newBackend()
	m, ctrl := loaded(t, backend)

	m = press(t, m, runes("e"))
	m = press(t, m, runes("!"))
	m = pressAndWait(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, modeList, m.mode)
	assert.Equal(t, "ToDo item 1!", ctrl.Items()[0].Text)
	assert.Equal(t, "ToDo item 1!", backend.items[0].Text)
}

func TestDeleteFailureShowsError(t *testing.T) {
	backend := newBackend()
	backend.deleteErr = errors.New("ToDoItem 1 not found")
	m, ctrl := loaded(t, backend)

	m = pressAndWait(t, m, runes("d"))

	assert.Len(t, ctrl.Items(), 2)
	assert.Contains(t, m.View(), "ToDoItem 1 not found")
}

func TestDeleteClampsCursor(t *testing.T) {
	m, ctrl := loaded(t, newBackend())

	m = press(t, m, runes("j"))
	m = pressAndWait(t, m, runes("d"))

	assert.Len(t, ctrl.Items(), 1)
	assert.Equal(t, 0, m.cursor)
}

func TestKeyAfterUnrenderedRemoval(t *testing.T) {
	m, ctrl := loaded(t, newBackend())
	m = press(t, m, runes("j"))
	require.Equal(t, 1, m.cursor)

	// The list shrinks before the model sees any change message.
	require.NoError(t, ctrl.Remove(context.Background(), 2))

	m = pressAndWait(t, m, runes("x"))
	assert.Equal(t, 0, m.cursor)
	items := ctrl.Items()
	require.Len(t, items, 1)
	assert.True(t, items[0].Completed)
}

func TestQuit(t *testing.T) {
	m, _ := loaded(t, newBackend())

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
