// Package llm provides a provider-agnostic interface for having an LLM write
// a short Pokédex entry from a Pokémon's base data.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/fleveque/poke-finder/internal/model"
)

// EntryResult is the structured answer returned through the submit tool.
type EntryResult struct {
	Category string `json:"category"` // e.g. "Mouse Pokémon"
	Text     string `json:"text"`
}

// Client is implemented by each LLM provider so the entry writer can fall
// back from one to the next.
type Client interface {
	WriteEntry(ctx context.Context, detail *model.EntityDetail) (*EntryResult, error)
	ProviderName() string
	ModelName() string
}

const submitToolName = "submit_pokedex_entry"

const submitToolDescription = "Submit the finished Pokédex entry. Call this exactly once."

// entryProperties is the JSON schema shared by both providers.
var entryProperties = map[string]interface{}{
	"category": map[string]interface{}{
		"type":        "string",
		"description": "The Pokémon's category, for example 'Mouse Pokémon'.",
	},
	"text": map[string]interface{}{
		"type":        "string",
		"description": "Two or three sentences of Pokédex flavour text.",
	},
}

// buildPrompt creates the user prompt for the LLM.
func buildPrompt(detail *model.EntityDetail) string {
	var stats []string
	for _, s := range detail.Stats {
		stats = append(stats, fmt.Sprintf("%s %d", s.Label(), s.BaseStat))
	}

	return fmt.Sprintf(`Write a Pokédex entry for the Pokémon "%s" (#%d).

Known data:
- Types: %s
- Base stats: %s

Requirements:
- A category in the style of the games (e.g. "Seed Pokémon")
- Two or three sentences, present tense, in the voice of an in-game Pokédex
- Do not mention stats by number

Call the %s tool with the category and text.`,
		detail.DisplayName(), detail.ID,
		strings.Join(detail.TypeNames(), ", "),
		strings.Join(stats, ", "),
		submitToolName)
}

func validate(result *EntryResult, name string) error {
	if strings.TrimSpace(result.Text) == "" {
		return fmt.Errorf("empty entry text for %s", name)
	}
	return nil
}
