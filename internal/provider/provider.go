// Package provider holds the external sources the service acquires data from
// beyond the PokeAPI itself: sprite images and LLM-written Pokédex entries.
package provider

import (
	"errors"

	"github.com/fleveque/poke-finder/internal/llm"
)

// ErrAlreadyExists is returned by an import callback to count an item as skipped.
var ErrAlreadyExists = errors.New("already exists")

// SpriteResult is a successfully downloaded, not yet processed sprite.
type SpriteResult struct {
	PokemonID   int
	Name        string
	ImageData   []byte // Raw image bytes as served upstream
	Source      string // "artwork" or "sprite"
	OriginalURL string
}

// ImportStats tracks the results of a bulk import operation.
type ImportStats struct {
	Total    int      `json:"total"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"` // Already existed
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// EntryResult is an entry together with the model that wrote it.
type EntryResult struct {
	llm.EntryResult
	Provider string
	Model    string
}
