// Package search implements the autocomplete filter over the name index.
package search

import (
	"strings"

	"github.com/fleveque/poke-finder/internal/model"
)

// MaxSuggestions caps the number of matches returned by Filter.
const MaxSuggestions = 10

// Filter returns the first MaxSuggestions entries of index whose name
// contains query, case-insensitively, in index order. An empty query
// yields no suggestions rather than the whole index.
func Filter(query string, index []model.NamedResource) []model.NamedResource {
	q := strings.ToLower(query)
	if q == "" {
		return []model.NamedResource{}
	}

	matches := make([]model.NamedResource, 0, MaxSuggestions)
	for _, r := range index {
		if r.Name == "" {
			continue
		}
		if strings.Contains(strings.ToLower(r.Name), q) {
			matches = append(matches, r)
			if len(matches) == MaxSuggestions {
				break
			}
		}
	}
	return matches
}
