// Package tui is the interactive terminal browser behind "poke-cli browse".
// It drives a controller.Controller with key presses and renders its View.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fleveque/poke-finder/internal/controller"
	"github.com/fleveque/poke-finder/internal/model"
)

// listColumns is how many list-card names are shown per row.
const listColumns = 4

// ViewMsg carries a freshly rendered controller view.
type ViewMsg struct {
	View *controller.View
	Err  error
}

// Model is the Bubble Tea model for the Pokédex browser. Actions reach the
// controller one at a time in key-press order; while one is in flight the
// rest queue up.
type Model struct {
	ctx     context.Context
	ctrl    *controller.Controller
	input   textinput.Model
	view    controller.View
	err     error
	busy    bool
	pending []controller.Action
	width   int
}

// NewModel creates a browser over ctrl. ctx bounds every load it starts.
func NewModel(ctx context.Context, ctrl *controller.Controller) Model {
	ti := textinput.New()
	ti.Placeholder = "Search Pokémon"
	ti.CharLimit = 40
	ti.Prompt = "> "
	ti.Focus()

	return Model{
		ctx:   ctx,
		ctrl:  ctrl,
		input: ti,
		view:  controller.View{SelectionState: ctrl.State()},
		busy:  true,
	}
}

// Init renders the initial generation list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.run(nil))
}

// Current returns the last rendered controller view.
func (m Model) Current() controller.View {
	return m.view
}

// Err returns the error of the last render, if any.
func (m Model) Err() error {
	return m.err
}

// dispatch sends a to the controller, or queues it behind the one in
// flight. A queued text input is replaced by a newer one.
func (m *Model) dispatch(a controller.Action) tea.Cmd {
	if !m.busy {
		m.busy = true
		return m.run(&a)
	}
	if n := len(m.pending); n > 0 && a.Type == controller.ActionTextInput && m.pending[n-1].Type == controller.ActionTextInput {
		m.pending[n-1] = a
		return nil
	}
	m.pending = append(m.pending, a)
	return nil
}

// run applies a (if any) and renders the result off the UI goroutine.
func (m Model) run(a *controller.Action) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		if a != nil {
			if err := ctrl.Dispatch(ctx, *a); err != nil {
				return ViewMsg{Err: err}
			}
		}
		v, err := ctrl.View(ctx)
		return ViewMsg{View: v, Err: err}
	}
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ViewMsg:
		m.err = msg.Err
		if msg.View != nil {
			m.view = *msg.View
		}
		if len(m.pending) == 0 {
			m.busy = false
			return m, nil
		}
		next := m.pending[0]
		m.pending = m.pending[1:]
		return m, m.run(&next)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		switch {
		case m.view.SelectedName != "":
			return m, m.dispatch(controller.Close())
		case m.input.Value() != "":
			m.input.SetValue("")
			return m, m.dispatch(controller.TextInput(""))
		default:
			return m, tea.Quit
		}
	case "down", "tab":
		return m, m.dispatch(controller.NextSuggestion())
	case "up", "shift+tab":
		return m, m.dispatch(controller.PrevSuggestion())
	case "enter":
		// Enter commits the highlighted suggestion; Submit then commits the
		// raw text only if nothing was highlighted.
		m.input.SetValue("")
		cmd := m.dispatch(controller.Enter())
		m.dispatch(controller.Submit())
		return m, cmd
	case "pgdown":
		return m, m.dispatch(controller.SelectGeneration(m.shiftGeneration(1).Key))
	case "pgup":
		return m, m.dispatch(controller.SelectGeneration(m.shiftGeneration(-1).Key))
	case "ctrl+f":
		if len(m.view.Forms) > 0 {
			return m, m.dispatch(controller.SelectForm(m.view.Forms[0].Name))
		}
		return m, nil
	case "ctrl+r":
		return m, m.dispatch(controller.Retry())
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}
	return m, tea.Batch(cmd, m.dispatch(controller.TextInput(m.input.Value())))
}

// shiftGeneration returns the generation delta steps away, wrapping.
func (m Model) shiftGeneration(delta int) model.Generation {
	n := len(model.Generations)
	for i, g := range model.Generations {
		if g.Key == m.view.Generation.Key {
			return model.Generations[((i+delta)%n+n)%n]
		}
	}
	return model.DefaultGeneration()
}

// View renders the search box, suggestions, detail panel and list.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Pokédex"))
	b.WriteString(dimStyle.Render("  " + m.view.Generation.Label))
	if m.busy {
		b.WriteString(dimStyle.Render("  loading…"))
	}
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	for i, s := range m.view.Suggestions {
		line := "  " + model.Capitalize(s.Name)
		if i == m.view.ActiveSuggestion {
			line = activeStyle.Render("▸ " + model.Capitalize(s.Name))
		}
		b.WriteString(line + "\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Something went wrong: " + m.err.Error()))
		b.WriteString(dimStyle.Render("  (ctrl+r to try again)"))
		b.WriteString("\n")
	}

	if d := m.view.Detail; d != nil {
		b.WriteString("\n")
		b.WriteString(m.renderDetail(d))
		b.WriteString("\n")
	} else if len(m.view.Suggestions) == 0 {
		b.WriteString("\n")
		b.WriteString(renderList(m.view.List))
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("↑/↓ suggestions • enter select • pgup/pgdn generation • ctrl+f form • esc close • ctrl+c quit"))
	return b.String()
}

func (m Model) renderDetail(d *model.EntityDetail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  #%d\n", activeStyle.Render(d.DisplayName()), d.ID)

	badges := make([]string, 0, len(d.Types))
	for _, t := range d.TypeNames() {
		badges = append(badges, TypeBadge(t))
	}
	b.WriteString(strings.Join(badges, " "))
	b.WriteString("\n\n")

	for _, s := range d.Stats {
		b.WriteString(StatBar(s))
		b.WriteString("\n")
	}

	if len(m.view.Forms) > 0 {
		labels := make([]string, 0, len(m.view.Forms))
		for _, f := range m.view.Forms {
			labels = append(labels, f.Label)
		}
		b.WriteString("\nForms: " + strings.Join(labels, ", "))
	}
	if img := d.ImageURL(); img != "" {
		b.WriteString("\n" + dimStyle.Render(img))
	}

	style := detailBorder
	if m.width > 4 {
		style = style.MaxWidth(m.width)
	}
	return style.Render(b.String())
}

func renderList(cards []model.ListCard) string {
	var b strings.Builder
	for i, c := range cards {
		fmt.Fprintf(&b, "%-4d %-16s", c.ID, c.DisplayName)
		if (i+1)%listColumns == 0 {
			b.WriteString("\n")
		}
	}
	if len(cards)%listColumns != 0 {
		b.WriteString("\n")
	}
	return b.String()
}
