package cache

import (
	"fmt"
	"strings"
)

// Operation names used in keys.
const (
	OpIndex   = "index"
	OpRange   = "range"
	OpEntity  = "entity"
	OpSpecies = "species"
)

// IndexKey identifies the full name index.
func IndexKey() Key {
	return Key{Op: OpIndex}
}

// RangeKey identifies one generation page.
func RangeKey(start, end int) Key {
	return Key{Op: OpRange, Arg: fmt.Sprintf("%d-%d", start, end)}
}

// EntityKey identifies an entity lookup; names are case-insensitive.
func EntityKey(name string) Key {
	return Key{Op: OpEntity, Arg: strings.ToLower(strings.TrimSpace(name))}
}

// SpeciesKey identifies a species lookup by its absolute URL.
func SpeciesKey(url string) Key {
	return Key{Op: OpSpecies, Arg: url}
}
