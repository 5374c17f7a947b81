// Package controller holds the per-session view state of the Pokédex and
// the transitions that mutate it. It knows nothing about how the state is
// rendered; the HTTP API and the terminal UI both drive it through Dispatch
// and read it back through View.
package controller

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/fleveque/poke-finder/internal/model"
	"github.com/fleveque/poke-finder/internal/pokeapi"
	"github.com/fleveque/poke-finder/internal/search"
)

// NoSuggestion is the ActiveSuggestion value when nothing is highlighted.
const NoSuggestion = -1

// Pokedex is the cached data source the controller renders from.
type Pokedex interface {
	Index(ctx context.Context) ([]model.NamedResource, error)
	Range(ctx context.Context, gen model.Generation) ([]model.NamedResource, error)
	Entity(ctx context.Context, name string) (*model.EntityDetail, error)
	Forms(ctx context.Context, detail *model.EntityDetail) ([]model.FormOption, error)
	Reset()
}

// SelectionState is everything the user has chosen so far.
type SelectionState struct {
	SearchTerm       string                `json:"search_term"`
	Suggestions      []model.NamedResource `json:"suggestions"`
	SelectedName     string                `json:"selected_name"`
	ActiveSuggestion int                   `json:"active_suggestion"`
	Generation       model.Generation      `json:"generation"`
}

// DefaultState is the state of a fresh session.
func DefaultState() SelectionState {
	return SelectionState{
		Suggestions:      []model.NamedResource{},
		ActiveSuggestion: NoSuggestion,
		Generation:       model.DefaultGeneration(),
	}
}

// Controller is safe for concurrent use.
type Controller struct {
	mu         sync.Mutex
	state      SelectionState
	pokedex    Pokedex
	spriteBase string
	reset      func()
	logger     *zap.Logger
}

// Option customizes a Controller.
type Option func(*Controller)

// WithRetry replaces what the retry action clears. By default it is
// Pokedex.Reset, which drops every cached response.
func WithRetry(reset func()) Option {
	return func(c *Controller) { c.reset = reset }
}

// New creates a controller in the default state.
func New(pokedex Pokedex, spriteBase string, logger *zap.Logger, opts ...Option) *Controller {
	if spriteBase == "" {
		spriteBase = model.DefaultSpriteBaseURL
	}
	c := &Controller{
		state:      DefaultState(),
		pokedex:    pokedex,
		spriteBase: spriteBase,
		reset:      pokedex.Reset,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a copy of the current selection state.
func (c *Controller) State() SelectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller) snapshot() SelectionState {
	s := c.state
	s.Suggestions = append([]model.NamedResource{}, c.state.Suggestions...)
	return s
}

// Dispatch applies one action. Only text_input and retry touch the data
// source; the returned error is the index fetch failure for text_input.
func (c *Controller) Dispatch(ctx context.Context, a Action) error {
	c.logger.Debug("dispatch", zap.Stringer("action", a))

	switch a.Type {
	case ActionTextInput:
		return c.textInput(ctx, a.Text)
	case ActionRetry:
		c.reset()
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch a.Type {
	case ActionNextSuggestion:
		if n := len(c.state.Suggestions); n > 0 {
			if c.state.ActiveSuggestion < n-1 {
				c.state.ActiveSuggestion++
			} else {
				c.state.ActiveSuggestion = 0
			}
		}
	case ActionPrevSuggestion:
		if n := len(c.state.Suggestions); n > 0 {
			if c.state.ActiveSuggestion > 0 {
				c.state.ActiveSuggestion--
			} else {
				c.state.ActiveSuggestion = n - 1
			}
		}
	case ActionHighlight:
		if a.Index >= 0 && a.Index < len(c.state.Suggestions) {
			c.state.ActiveSuggestion = a.Index
		}
	case ActionEnter:
		i := c.state.ActiveSuggestion
		if i != NoSuggestion && i < len(c.state.Suggestions) {
			c.commit(c.state.Suggestions[i].Name)
		}
	case ActionSubmit:
		if c.state.SearchTerm != "" && c.state.ActiveSuggestion == NoSuggestion {
			c.commit(c.state.SearchTerm)
		}
	case ActionSelect, ActionSelectForm:
		c.commit(a.Name)
	case ActionSelectGeneration:
		gen, err := model.LookupGeneration(a.Generation)
		if err != nil {
			return err
		}
		c.state.Generation = gen
		c.state.SelectedName = ""
		c.clearSearch()
	case ActionClose:
		c.state.SelectedName = ""
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}
	return nil
}

// textInput records the new term immediately, then recomputes suggestions
// once the index is available. A slower index load for an older term is
// discarded if the term changed meanwhile.
func (c *Controller) textInput(ctx context.Context, text string) error {
	c.mu.Lock()
	c.state.SearchTerm = text
	c.state.ActiveSuggestion = NoSuggestion
	c.state.Suggestions = []model.NamedResource{}
	c.mu.Unlock()

	if text == "" {
		return nil
	}

	index, err := c.pokedex.Index(ctx)
	if err != nil {
		c.logger.Error("loading name index", zap.Error(err))
		return fmt.Errorf("loading name index: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.SearchTerm == text {
		c.state.Suggestions = search.Filter(text, index)
	}
	return nil
}

func (c *Controller) commit(name string) {
	c.state.SelectedName = name
	c.clearSearch()
}

func (c *Controller) clearSearch() {
	c.state.SearchTerm = ""
	c.state.Suggestions = []model.NamedResource{}
	c.state.ActiveSuggestion = NoSuggestion
}

// View is everything needed to draw one frame.
type View struct {
	SelectionState
	Generations []model.Generation  `json:"generations"`
	List        []model.ListCard    `json:"list"`
	Detail      *model.EntityDetail `json:"detail,omitempty"`
	Forms       []model.FormOption  `json:"forms,omitempty"`
}

// View derives the current frame from the state and the cache. A selection
// that does not exist upstream is cleared rather than reported. Any other
// failure is returned for the caller's top-level error display.
func (c *Controller) View(ctx context.Context) (*View, error) {
	state := c.State()

	list, err := c.pokedex.Range(ctx, state.Generation)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", state.Generation.Label, err)
	}

	v := &View{
		SelectionState: state,
		Generations:    model.Generations,
		List:           make([]model.ListCard, 0, len(list)),
	}
	for _, r := range list {
		v.List = append(v.List, model.NewListCard(r, c.spriteBase))
	}

	if state.SelectedName == "" {
		return v, nil
	}

	detail, err := c.pokedex.Entity(ctx, state.SelectedName)
	if pokeapi.IsNotFound(err) {
		c.logger.Warn("no pokemon for selection", zap.String("name", state.SelectedName))
		c.clearSelection(state.SelectedName)
		v.SelectedName = ""
		return v, nil
	}
	if err != nil {
		c.logger.Error("pokemon details fetch failed",
			zap.String("name", state.SelectedName),
			zap.Error(err),
		)
		return nil, fmt.Errorf("loading %s: %w", state.SelectedName, err)
	}
	if detail == nil {
		return v, nil
	}

	forms, err := c.pokedex.Forms(ctx, detail)
	if err != nil {
		return nil, fmt.Errorf("loading forms of %s: %w", detail.Name, err)
	}

	v.Detail = detail
	v.Forms = forms
	return v, nil
}

// clearSelection drops name from the selection unless the user has already
// moved on to something else.
func (c *Controller) clearSelection(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.SelectedName == name {
		c.state.SelectedName = ""
	}
}
