package llm

import (
	"strings"
	"testing"

	"github.com/fleveque/poke-finder/internal/model"
)

func TestBuildPrompt(t *testing.T) {
	detail := &model.EntityDetail{
		ID:      25,
		Name:    "pikachu",
		Species: &model.NamedResource{Name: "pikachu"},
		Types: []model.TypeSlot{
			{Slot: 1, Type: model.NamedResource{Name: "electric"}},
		},
		Stats: []model.StatEntry{
			{BaseStat: 35, Stat: model.NamedResource{Name: "hp"}},
			{BaseStat: 90, Stat: model.NamedResource{Name: "speed"}},
		},
	}

	prompt := buildPrompt(detail)
	for _, want := range []string{`"Pikachu" (#25)`, "Types: electric", "Hp 35, Speed 90", submitToolName} {
		if !strings.Contains(prompt, want) {
			t.Errorf("expected prompt to contain %q:\n%s", want, prompt)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := validate(&EntryResult{Text: "  "}, "pikachu"); err == nil {
		t.Error("expected error for blank text")
	}
	if err := validate(&EntryResult{Text: "It sparks."}, "pikachu"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
