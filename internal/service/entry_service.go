package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fleveque/poke-finder/internal/model"
	"github.com/fleveque/poke-finder/internal/pokeapi"
	"github.com/fleveque/poke-finder/internal/provider"
	"github.com/fleveque/poke-finder/internal/storage"
)

// ErrEntriesDisabled is returned when no LLM provider is configured.
var ErrEntriesDisabled = errors.New("pokedex entries are disabled: no LLM provider configured")

// EntityReader is the part of the Pokédex the entry writer needs.
type EntityReader interface {
	Entity(ctx context.Context, name string) (*model.EntityDetail, error)
}

// EntryService returns the stored Pokédex entry for a Pokémon, writing one
// with an LLM the first time it is asked for.
type EntryService struct {
	entryRepo storage.EntryRepository
	pokedex   EntityReader
	writer    *provider.EntryProvider
	group     singleflight.Group
	logger    *zap.Logger
}

// NewEntryService creates the entry service. writer may have no clients, in
// which case only already stored entries are served.
func NewEntryService(entryRepo storage.EntryRepository, pokedex EntityReader, writer *provider.EntryProvider, logger *zap.Logger) *EntryService {
	return &EntryService{
		entryRepo: entryRepo,
		pokedex:   pokedex,
		writer:    writer,
		logger:    logger,
	}
}

// GetEntry returns the entry for name.
func (s *EntryService) GetEntry(ctx context.Context, name string) (*model.PokedexEntry, error) {
	name = pokeapi.NormalizeName(name)

	entry, err := s.entryRepo.GetByName(ctx, name)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	if s.writer == nil || !s.writer.Configured() {
		return nil, ErrEntriesDisabled
	}

	detail, err := s.pokedex.Entity(ctx, name)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, &pokeapi.NotFoundError{Resource: "pokemon", Name: name}
	}

	// Entries are stored under the canonical name; name may be an id or
	// another alias PokeAPI resolves.
	if detail.Name != name {
		entry, err := s.entryRepo.GetByName(ctx, detail.Name)
		if err == nil {
			return entry, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
	}

	v, err, _ := s.group.Do(detail.Name, func() (interface{}, error) {
		return s.write(context.WithoutCancel(ctx), detail)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.PokedexEntry), nil
}

func (s *EntryService) write(ctx context.Context, detail *model.EntityDetail) (*model.PokedexEntry, error) {
	// A peer that held the flight for this name may have stored it already.
	if entry, err := s.entryRepo.GetByName(ctx, detail.Name); err == nil {
		return entry, nil
	}

	s.logger.Info("writing pokedex entry", zap.String("name", detail.Name))

	result, err := s.writer.WriteEntry(ctx, detail)
	if err != nil {
		return nil, fmt.Errorf("writing entry for %s: %w", detail.Name, err)
	}

	entry := &model.PokedexEntry{
		Name:     detail.Name,
		Category: result.Category,
		Text:     result.Text,
		Provider: result.Provider,
		Model:    result.Model,
	}
	if err := s.entryRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("storing entry for %s: %w", detail.Name, err)
	}
	return entry, nil
}
