package tui

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"go.uber.org/zap"

	"github.com/fleveque/poke-finder/internal/cache"
	"github.com/fleveque/poke-finder/internal/controller"
	"github.com/fleveque/poke-finder/internal/model"
	"github.com/fleveque/poke-finder/internal/pokeapi"
	"github.com/fleveque/poke-finder/internal/pokeapi/pokeapitest"
	"github.com/fleveque/poke-finder/internal/service"
)

// newModel returns a model that has not rendered yet, as NewModel does.
func newModel(t *testing.T) (Model, *pokeapitest.Server) {
	t.Helper()
	upstream := pokeapitest.NewServer(t)
	client := pokeapi.NewClient(upstream.BaseURL(), 5*time.Second, zap.NewNop())
	pokedex := service.NewPokedexService(client, cache.New(cache.DefaultStaleness, zap.NewNop()), zap.NewNop())
	m := NewModel(context.Background(), controller.New(pokedex, "https://sprites.example", zap.NewNop()))
	// A static cursor keeps blink ticks out of the command stream.
	m.input.Cursor.SetMode(cursor.CursorStatic)
	return m, upstream
}

// newTestModel returns a model after its initial render.
func newTestModel(t *testing.T) (Model, *pokeapitest.Server) {
	t.Helper()
	m, upstream := newModel(t)
	return settle(t, m, m.run(nil)), upstream
}

// settle runs cmd and feeds every resulting ViewMsg back into m until the
// action queue is drained.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for cmd != nil {
		var next tea.Cmd
		for _, msg := range viewMsgs(cmd) {
			updated, c := m.Update(msg)
			m = updated.(Model)
			if c != nil {
				next = c
			}
		}
		cmd = next
	}
	if m.busy {
		t.Fatal("model still busy after settling")
	}
	return m
}

func viewMsgs(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, viewMsgs(c)...)
		}
		return out
	case ViewMsg:
		return []tea.Msg{msg}
	}
	return nil
}

func press(t *testing.T, m Model, msg tea.KeyMsg) Model {
	t.Helper()
	updated, cmd := m.Update(msg)
	return settle(t, updated.(Model), cmd)
}

func typeText(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_InitialRender(t *testing.T) {
	m, _ := newTestModel(t)

	if len(m.Current().List) != 6 {
		t.Fatalf("expected 6 list cards, got %d", len(m.Current().List))
	}
	out := m.View()
	if !strings.Contains(out, "Gen One") || !strings.Contains(out, "Bulbasaur") {
		t.Errorf("expected generation label and list, got:\n%s", out)
	}
}

func TestModel_SearchAndSelect(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, typeText("rai"))
	if got := len(m.Current().Suggestions); got != 2 {
		t.Fatalf("expected 2 suggestions, got %d", got)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.Current().ActiveSuggestion != 1 {
		t.Fatalf("expected second suggestion active, got %d", m.Current().ActiveSuggestion)
	}
	if !strings.Contains(m.View(), "▸ Raichu-alola") {
		t.Errorf("expected highlighted suggestion, got:\n%s", m.View())
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	v := m.Current()
	if v.SelectedName != "raichu-alola" || v.Detail == nil || v.Detail.ID != 10100 {
		t.Fatalf("expected raichu-alola detail, got %+v", v.SelectionState)
	}
	if m.input.Value() != "" || v.SearchTerm != "" {
		t.Error("expected search to be cleared")
	}
	if len(v.Forms) != 1 || v.Forms[0].Label != "Base" {
		t.Errorf("expected the base form on offer, got %+v", v.Forms)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlF})
	if m.Current().SelectedName != "raichu" {
		t.Errorf("expected form switch to raichu, got %q", m.Current().SelectedName)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.Current().SelectedName != "" {
		t.Error("expected esc to close the detail")
	}
}

func TestModel_SubmitRawText(t *testing.T) {
	m, _ := newTestModel(t)

	updated, c1 := m.Update(typeText("PIKACHU"))
	m = updated.(Model)
	// Enter arrives before the text input has been applied.
	updated, c2 := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	if len(m.pending) != 2 {
		t.Fatalf("expected enter and submit to queue, got %d pending", len(m.pending))
	}
	m = settle(t, m, tea.Batch(c1, c2))

	if got := m.Current().SelectedName; got != "PIKACHU" {
		t.Fatalf("expected raw text to be committed, got %q", got)
	}
	if d := m.Current().Detail; d == nil || d.ID != 25 {
		t.Errorf("expected pikachu detail, got %+v", d)
	}
}

func TestModel_QueuedTextInputsCollapse(t *testing.T) {
	m, _ := newTestModel(t)

	updated, cmd := m.Update(typeText("p"))
	m = updated.(Model)
	for _, s := range []string{"i", "k", "a"} {
		updated, _ = m.Update(typeText(s))
		m = updated.(Model)
	}
	if len(m.pending) != 1 || m.pending[0].Text != "pika" {
		t.Fatalf("expected a single queued text input, got %+v", m.pending)
	}

	m = settle(t, m, cmd)
	if s := m.Current().Suggestions; len(s) != 1 || s[0].Name != "pikachu" {
		t.Errorf("unexpected suggestions %+v", s)
	}
}

func TestModel_GenerationPaging(t *testing.T) {
	m, upstream := newTestModel(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyPgDown})
	if got := m.Current().Generation.Key; got != "genTwo" {
		t.Fatalf("expected genTwo, got %s", got)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyPgUp})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyPgUp})
	if got := m.Current().Generation.Key; got != "genNine" {
		t.Errorf("expected wrap to genNine, got %s", got)
	}

	queries := upstream.Queries()
	if queries[1] != "offset=151&limit=100" {
		t.Errorf("expected gen two range query, got %v", queries)
	}
}

func TestModel_ErrorAndRetry(t *testing.T) {
	m, upstream := newTestModel(t)
	upstream.FailPath("/api/v2/pokemon/squirtle", http.StatusInternalServerError)

	m = press(t, m, typeText("squirtle"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Err() == nil {
		t.Fatal("expected the detail failure to surface")
	}
	if !strings.Contains(m.View(), "Something went wrong") {
		t.Errorf("expected error banner, got:\n%s", m.View())
	}

	upstream.ClearFailures()
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if m.Err() != nil {
		t.Fatalf("expected retry to recover, got %v", m.Err())
	}
	if d := m.Current().Detail; d == nil || d.Name != "squirtle" {
		t.Errorf("expected squirtle detail after retry, got %+v", d)
	}
}

func TestModel_EscQuitsWhenIdle(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected esc on an empty screen to quit")
	}
}

func TestStatBar(t *testing.T) {
	bar := StatBar(model.StatEntry{BaseStat: 255, Stat: model.NamedResource{Name: "special-attack"}})
	if !strings.HasPrefix(bar, "Special attack") || !strings.Contains(bar, strings.Repeat("█", barWidth)) {
		t.Errorf("unexpected bar %q", bar)
	}
}

func TestModel_Teatest_Browse(t *testing.T) {
	m, _ := newModel(t)
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 40))

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("Bulbasaur"))
	}, teatest.WithDuration(3*time.Second))

	tm.Type("pikachu")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("#25"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))

	final := tm.FinalModel(t).(Model)
	if got := final.Current().SelectedName; got != "pikachu" {
		t.Errorf("expected pikachu selected, got %q", got)
	}
}
