package model

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultSpriteBaseURL is where PokeAPI publishes its sprite images.
const DefaultSpriteBaseURL = "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon"

// NamedResource is the lightweight {name, url} reference returned by list
// endpoints and embedded in detail records.
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ID parses the numeric id from the trailing path segment of URL,
// e.g. "https://pokeapi.co/api/v2/pokemon/25/" → 25.
func (r NamedResource) ID() (int, bool) {
	return ResourceID(r.URL)
}

// ResourceID extracts the last non-empty path segment of a resource URL as an int.
func ResourceID(url string) (int, bool) {
	segments := strings.Split(url, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] == "" {
			continue
		}
		id, err := strconv.Atoi(segments[i])
		if err != nil {
			return 0, false
		}
		return id, true
	}
	return 0, false
}

// ListResponse is the body of the paginated list endpoint.
type ListResponse struct {
	Count   int             `json:"count"`
	Results []NamedResource `json:"results"`
}

// EntityDetail is the full creature record returned by GET {base}/{name}.
// Species and the image URLs may be absent upstream, so they are pointers.
type EntityDetail struct {
	ID      int            `json:"id"`
	Name    string         `json:"name"`
	Species *NamedResource `json:"species,omitempty"`
	Sprites Sprites        `json:"sprites"`
	Types   []TypeSlot     `json:"types"`
	Stats   []StatEntry    `json:"stats"`
}

type Sprites struct {
	FrontDefault *string       `json:"front_default"`
	Other        *OtherSprites `json:"other,omitempty"`
}

type OtherSprites struct {
	OfficialArtwork *Artwork `json:"official-artwork,omitempty"`
}

type Artwork struct {
	FrontDefault *string `json:"front_default"`
}

type TypeSlot struct {
	Slot int           `json:"slot"`
	Type NamedResource `json:"type"`
}

type StatEntry struct {
	BaseStat int           `json:"base_stat"`
	Stat     NamedResource `json:"stat"`
}

// ImageURL picks the official artwork when present, falling back to the
// default front sprite. Empty when neither exists.
func (e *EntityDetail) ImageURL() string {
	if o := e.Sprites.Other; o != nil && o.OfficialArtwork != nil {
		if u := o.OfficialArtwork.FrontDefault; u != nil && *u != "" {
			return *u
		}
	}
	if u := e.Sprites.FrontDefault; u != nil {
		return *u
	}
	return ""
}

// DisplayName is the species name when known, otherwise the entity name.
func (e *EntityDetail) DisplayName() string {
	if e.Species != nil && e.Species.Name != "" {
		return Capitalize(e.Species.Name)
	}
	return Capitalize(e.Name)
}

// SpeciesURL returns the species reference URL, or "" when absent.
func (e *EntityDetail) SpeciesURL() string {
	if e == nil || e.Species == nil {
		return ""
	}
	return e.Species.URL
}

// TypeNames returns the entity's type names in slot order.
func (e *EntityDetail) TypeNames() []string {
	names := make([]string, 0, len(e.Types))
	for _, t := range e.Types {
		names = append(names, t.Type.Name)
	}
	return names
}

// BaseStat returns the base value of the named stat, or 0.
func (e *EntityDetail) BaseStat(name string) int {
	for _, s := range e.Stats {
		if s.Stat.Name == name {
			return s.BaseStat
		}
	}
	return 0
}

// Label renders the stat name for display: "special-attack" → "Special attack".
func (s StatEntry) Label() string {
	return Capitalize(strings.Replace(s.Stat.Name, "-", " ", 1))
}

// BarPercent scales the base stat against the 255 maximum, capped at 100.
func (s StatEntry) BarPercent() float64 {
	pct := float64(s.BaseStat) / 255 * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// SpeciesDetail is the subset of the species record used for alternate forms.
type SpeciesDetail struct {
	Varieties []Variety `json:"varieties"`
}

type Variety struct {
	IsDefault bool          `json:"is_default"`
	Pokemon   NamedResource `json:"pokemon"`
}

// ListCard is one entry of a generation page, with both image candidates.
type ListCard struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	ArtworkURL  string `json:"artwork_url"`
	FallbackURL string `json:"fallback_url"`
}

// NewListCard builds a card from a list entry using the given sprite base URL.
func NewListCard(r NamedResource, spriteBase string) ListCard {
	card := ListCard{Name: r.Name, DisplayName: Capitalize(r.Name)}
	if id, ok := r.ID(); ok {
		card.ID = id
		card.ArtworkURL = ArtworkURL(spriteBase, id)
		card.FallbackURL = FallbackSpriteURL(spriteBase, id)
	}
	return card
}

// ArtworkURL is the primary image for a Pokémon id.
func ArtworkURL(base string, id int) string {
	return fmt.Sprintf("%s/other/official-artwork/%d.png", strings.TrimRight(base, "/"), id)
}

// FallbackSpriteURL is used when the official artwork is missing.
func FallbackSpriteURL(base string, id int) string {
	return fmt.Sprintf("%s/%d.png", strings.TrimRight(base, "/"), id)
}

// Capitalize upper-cases the first letter of s.
func Capitalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// TypeColors are the conventional badge colours per elemental type.
var TypeColors = map[string]string{
	"normal":   "#A8A77A",
	"fire":     "#EE8130",
	"water":    "#6390F0",
	"electric": "#F7D02C",
	"grass":    "#7AC74C",
	"ice":      "#96D9D6",
	"fighting": "#C22E28",
	"poison":   "#A33EA1",
	"ground":   "#E2BF65",
	"flying":   "#A98FF3",
	"psychic":  "#F95587",
	"bug":      "#A6B91A",
	"rock":     "#B6A136",
	"ghost":    "#735797",
	"dragon":   "#6F35FC",
	"dark":     "#705746",
	"steel":    "#B7B7CE",
	"fairy":    "#D685AD",
}

// TypeColor returns the colour for a type, or a neutral grey.
func TypeColor(typeName string) string {
	if c, ok := TypeColors[typeName]; ok {
		return c
	}
	return "#777777"
}
