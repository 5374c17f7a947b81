// Package model defines the core data types shared by the Pokédex client,
// the sprite pipeline and the HTTP API.
package model

import "time"

// SpriteSize represents the available sprite sizes served by the proxy.
type SpriteSize string

const (
	SizeXS SpriteSize = "xs" // 24px
	SizeS  SpriteSize = "s"  // 48px
	SizeM  SpriteSize = "m"  // 96px
	SizeL  SpriteSize = "l"  // 192px
	SizeXL SpriteSize = "xl" // 384px
)

// SizePixels maps each SpriteSize to its pixel dimension.
var SizePixels = map[SpriteSize]int{
	SizeXS: 24,
	SizeS:  48,
	SizeM:  96,
	SizeL:  192,
	SizeXL: 384,
}

// AllSizes is the ordered list of all sizes for iteration.
var AllSizes = []SpriteSize{SizeXS, SizeS, SizeM, SizeL, SizeXL}

// ValidSize checks if a string is a valid SpriteSize.
func ValidSize(s string) bool {
	_, ok := SizePixels[SpriteSize(s)]
	return ok
}

// SpriteStatus represents the processing state of a sprite.
type SpriteStatus string

const (
	StatusPending   SpriteStatus = "pending"
	StatusProcessed SpriteStatus = "processed"
	StatusFailed    SpriteStatus = "failed"
)

// Sprite is the stored metadata for one Pokémon's image. The processed PNGs
// live on disk, one file per size.
type Sprite struct {
	ID           int64        `db:"id" json:"id"`
	PokemonID    int          `db:"pokemon_id" json:"pokemon_id"`
	Name         string       `db:"name" json:"name"`
	Source       string       `db:"source" json:"source"`
	OriginalURL  string       `db:"original_url" json:"original_url"`
	HasXS        bool         `db:"has_xs" json:"has_xs"`
	HasS         bool         `db:"has_s" json:"has_s"`
	HasM         bool         `db:"has_m" json:"has_m"`
	HasL         bool         `db:"has_l" json:"has_l"`
	HasXL        bool         `db:"has_xl" json:"has_xl"`
	Status       SpriteStatus `db:"status" json:"status"`
	ErrorMessage *string      `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// HasSize returns whether the sprite has been processed at the given size.
func (s *Sprite) HasSize(size SpriteSize) bool {
	switch size {
	case SizeXS:
		return s.HasXS
	case SizeS:
		return s.HasS
	case SizeM:
		return s.HasM
	case SizeL:
		return s.HasL
	case SizeXL:
		return s.HasXL
	default:
		return false
	}
}

// PokedexEntry is an LLM-written flavour text, persisted so each Pokémon is
// only ever written once.
type PokedexEntry struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Category  string    `db:"category" json:"category"`
	Text      string    `db:"text" json:"text"`
	Provider  string    `db:"provider" json:"provider"`
	Model     string    `db:"model" json:"model"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// LLMCall tracks each call to an LLM provider for cost monitoring.
type LLMCall struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Provider   string    `db:"provider" json:"provider"`
	Model      string    `db:"model" json:"model"`
	Success    bool      `db:"success" json:"success"`
	DurationMs *int64    `db:"duration_ms" json:"duration_ms,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
