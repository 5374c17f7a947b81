// Package pokeapitest provides an in-process fake of the PokeAPI pokemon
// endpoints for tests.
package pokeapitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/fleveque/poke-finder/internal/model"
)

// Server serves a small, fixed dataset and counts requests per path.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	index    []model.NamedResource
	entities map[string]*model.EntityDetail
	species  map[string]*model.SpeciesDetail
	failures map[string]int
	hits     map[string]int
	queries  []string
}

// NewServer starts a fake upstream seeded with Seed() and closes it on cleanup.
func NewServer(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		entities: make(map[string]*model.EntityDetail),
		species:  make(map[string]*model.SpeciesDetail),
		failures: make(map[string]int),
		hits:     make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	s.seed()
	return s
}

// BaseURL is the pokemon collection root to hand to pokeapi.NewClient.
func (s *Server) BaseURL() string {
	return s.URL + "/api/v2/pokemon"
}

// SpeciesURL is the absolute species URL for a species name.
func (s *Server) SpeciesURL(name string) string {
	return s.URL + "/api/v2/pokemon-species/" + name + "/"
}

// AddEntity registers a Pokémon in the index and detail endpoints. The
// detail endpoint answers to both the name and the numeric id.
func (s *Server) AddEntity(e *model.EntityDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[e.Name] = e
	s.entities[strconv.Itoa(e.ID)] = e
	s.index = append(s.index, model.NamedResource{
		Name: e.Name,
		URL:  fmt.Sprintf("%s/api/v2/pokemon/%d/", s.URL, e.ID),
	})
}

// AddSpecies registers a species record under its name.
func (s *Server) AddSpecies(name string, sp *model.SpeciesDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.species[name] = sp
}

// FailPath makes every request whose path equals p answer with status.
func (s *Server) FailPath(p string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[p] = status
}

// ClearFailures removes all injected failures.
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]int)
}

// Hits returns how many requests reached path p.
func (s *Server) Hits(p string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[p]
}

// Queries returns the raw query strings of list requests, in arrival order.
func (s *Server) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	status, failing := s.failures[r.URL.Path]
	s.mu.Unlock()

	if failing {
		http.Error(w, http.StatusText(status), status)
		return
	}

	switch {
	case r.URL.Path == "/api/v2/pokemon/" || r.URL.Path == "/api/v2/pokemon":
		s.serveList(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v2/pokemon-species/"):
		name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v2/pokemon-species/"), "/")
		s.mu.Lock()
		sp, ok := s.species[name]
		s.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, sp)
	case strings.HasPrefix(r.URL.Path, "/api/v2/pokemon/"):
		name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v2/pokemon/"), "/")
		s.mu.Lock()
		e, ok := s.entities[name]
		s.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, e)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) serveList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.queries = append(s.queries, r.URL.RawQuery)
	index := append([]model.NamedResource(nil), s.index...)
	s.mu.Unlock()

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		limit = 20
	}
	if offset > len(index) {
		offset = len(index)
	}
	end := offset + limit
	if end > len(index) {
		end = len(index)
	}
	writeJSON(w, model.ListResponse{Count: len(index), Results: index[offset:end]})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) seed() {
	for _, e := range []*model.EntityDetail{
		Entity(1, "bulbasaur", "bulbasaur", []string{"grass", "poison"}),
		Entity(4, "charmander", "charmander", []string{"fire"}),
		Entity(7, "squirtle", "squirtle", []string{"water"}),
		Entity(25, "pikachu", "pikachu", []string{"electric"}),
		Entity(26, "raichu", "raichu", []string{"electric"}),
		Entity(10100, "raichu-alola", "raichu", []string{"electric", "psychic"}),
	} {
		if e.Species != nil {
			e.Species.URL = s.SpeciesURL(e.Species.Name)
		}
		s.AddEntity(e)
	}
	s.AddSpecies("pikachu", &model.SpeciesDetail{Varieties: []model.Variety{
		{IsDefault: true, Pokemon: model.NamedResource{Name: "pikachu"}},
	}})
	s.AddSpecies("raichu", &model.SpeciesDetail{Varieties: []model.Variety{
		{IsDefault: true, Pokemon: model.NamedResource{Name: "raichu"}},
		{Pokemon: model.NamedResource{Name: "raichu-alola"}},
	}})
}

// Entity builds a plausible detail record with fixed stats.
func Entity(id int, name, species string, types []string) *model.EntityDetail {
	front := fmt.Sprintf("https://sprites.example/%d.png", id)
	artwork := fmt.Sprintf("https://sprites.example/other/official-artwork/%d.png", id)
	e := &model.EntityDetail{
		ID:      id,
		Name:    name,
		Species: &model.NamedResource{Name: species},
		Sprites: model.Sprites{
			FrontDefault: &front,
			Other:        &model.OtherSprites{OfficialArtwork: &model.Artwork{FrontDefault: &artwork}},
		},
	}
	for i, t := range types {
		e.Types = append(e.Types, model.TypeSlot{Slot: i + 1, Type: model.NamedResource{Name: t}})
	}
	for i, stat := range []string{"hp", "attack", "defense", "special-attack", "special-defense", "speed"} {
		e.Stats = append(e.Stats, model.StatEntry{BaseStat: 40 + i*5, Stat: model.NamedResource{Name: stat}})
	}
	return e
}
