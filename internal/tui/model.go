// Package tui is the terminal frontend for the item list. It renders the
// client controller's state and forwards key presses to it.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"todoapp/internal/client"
	"todoapp/internal/todo"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeEdit
)

// changedMsg tells the model the controller state moved. It carries nothing;
// View reads the controller directly.
type changedMsg struct{}

// doneMsg reports the end of a backend call started by the model.
type doneMsg struct{ err error }

// Model drives a client.Controller.
type Model struct {
	ctx    context.Context
	ctrl   *client.Controller
	input  textinput.Model
	mode   mode
	cursor int
	busy   int
}

// New returns a model for ctrl. Run wires the controller's change hook to
// the program so optimistic updates re-render.
func New(ctx context.Context, ctrl *client.Controller) Model {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "What needs doing?"
	input.CharLimit = todo.MaxTextLength

	return Model{ctx: ctx, ctrl: ctrl, input: input}
}

func (m Model) Init() tea.Cmd {
	return m.run(m.ctrl.Load)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case changedMsg:
		m.clampCursor()
		return m, nil
	case doneMsg:
		if m.busy > 0 {
			m.busy--
		}
		m.clampCursor()
		return m, nil
	case tea.KeyMsg:
		if m.mode != modeList {
			return m.updateInput(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The list can shrink between a change and its changedMsg.
	m.clampCursor()
	items := m.ctrl.Items()

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(items)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Add):
		m.mode = modeAdd
		m.input.SetValue("")
		cmd := m.input.Focus()
		return m, cmd
	case key.Matches(msg, keys.Reload):
		return m.start(m.run(m.ctrl.Load))
	case len(items) == 0:
		return m, nil
	case key.Matches(msg, keys.Toggle):
		id := items[m.cursor].ID
		return m.start(m.run(func(ctx context.Context) error { return m.ctrl.ToggleCompleted(ctx, id) }))
	case key.Matches(msg, keys.Delete):
		id := items[m.cursor].ID
		return m.start(m.run(func(ctx context.Context) error { return m.ctrl.Remove(ctx, id) }))
	case key.Matches(msg, keys.Edit):
		item := items[m.cursor]
		m.ctrl.BeginEdit(item.ID)
		m.mode = modeEdit
		m.input.SetValue(item.Text)
		m.input.CursorEnd()
		cmd := m.input.Focus()
		return m, cmd
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Cancel):
		if id, ok := m.editingID(); ok {
			m.ctrl.CancelEdit(id)
		}
		m.leaveInput()
		return m, nil
	case key.Matches(msg, keys.Submit):
		text := m.input.Value()
		var cmd tea.Cmd
		if m.mode == modeAdd {
			cmd = m.run(func(ctx context.Context) error { return m.ctrl.Add(ctx, text) })
		} else if id, ok := m.editingID(); ok {
			cmd = m.run(func(ctx context.Context) error { return m.ctrl.SaveEdit(ctx, id, text) })
		}
		m.leaveInput()
		if cmd == nil {
			return m, nil
		}
		return m.start(cmd)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) leaveInput() {
	m.mode = modeList
	m.input.SetValue("")
	m.input.Blur()
}

func (m Model) start(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.busy++
	return m, cmd
}

func (m Model) run(fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return doneMsg{err: fn(ctx)}
	}
}

func (m Model) editingID() (int, bool) {
	for _, item := range m.ctrl.Items() {
		if item.IsEditing {
			return item.ID, true
		}
	}
	return 0, false
}

func (m *Model) clampCursor() {
	n := len(m.ctrl.Items())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) View() string {
	items := m.ctrl.Items()
	var b strings.Builder

	done := 0
	for _, item := range items {
		if item.Completed {
			done++
		}
	}
	fmt.Fprintf(&b, "%s   %s %d  %s %d\n\n",
		titleStyle.Render("ToDo List"),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), len(items)-done,
	)

	if m.ctrl.Loading() {
		b.WriteString(mutedStyle.Render("Loading…") + "\n")
	}
	if m.busy > 0 {
		b.WriteString(mutedStyle.Render("saving…") + "\n")
	}
	if msg := m.ctrl.Err(); msg != "" {
		b.WriteString(errorStyle.Render("✖ "+msg) + "\n")
	}

	for i, item := range items {
		prefix := "  "
		if i == m.cursor && m.mode == modeList {
			prefix = selectedStyle.Render("> ")
		}
		if item.IsEditing && m.mode == modeEdit {
			b.WriteString(prefix + m.input.View() + "\n")
			continue
		}
		box, text := mutedStyle.Render(boxUnchecked), item.Text
		if item.Completed {
			box, text = successStyle.Render(boxChecked), doneStyle.Render(item.Text)
		}
		fmt.Fprintf(&b, "%s%s %s\n", prefix, box, text)
	}

	if m.mode == modeAdd {
		b.WriteString("\n" + m.input.View() + "\n")
	}

	b.WriteString("\n" + helpStyle.Render(m.helpLine()))
	return b.String()
}

func (m Model) helpLine() string {
	bindings := keys.listHelp()
	if m.mode != modeList {
		bindings = keys.inputHelp()
	}
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return strings.Join(parts, " • ")
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(ctx context.Context, api client.Backend, opts ...client.ControllerOption) error {
	var program *tea.Program
	notify := func() {
		if program != nil {
			program.Send(changedMsg{})
		}
	}
	ctrl := client.NewController(api, append(opts, client.WithOnChange(notify))...)
	program = tea.NewProgram(New(ctx, ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}
