package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/fleveque/poke-finder/internal/cache"
	"github.com/fleveque/poke-finder/internal/model"
	"github.com/fleveque/poke-finder/internal/pokeapi"
)

// Upstream is the remote data client the Pokédex reads through.
type Upstream interface {
	ListAll(ctx context.Context) ([]model.NamedResource, error)
	ListRange(ctx context.Context, start, count int) ([]model.NamedResource, error)
	GetEntity(ctx context.Context, name string) (*model.EntityDetail, error)
	GetSpecies(ctx context.Context, url string) (*model.SpeciesDetail, error)
}

// PokedexService serves every upstream read through the shared cache, so
// each request key is fetched at most once per staleness window.
type PokedexService struct {
	upstream Upstream
	cache    *cache.Cache
	logger   *zap.Logger
}

// NewPokedexService wires the remote client to the cache.
func NewPokedexService(upstream Upstream, c *cache.Cache, logger *zap.Logger) *PokedexService {
	return &PokedexService{
		upstream: upstream,
		cache:    c,
		logger:   logger,
	}
}

// Index returns the full name index used for autocomplete.
func (s *PokedexService) Index(ctx context.Context) ([]model.NamedResource, error) {
	return cache.Resolve(ctx, s.cache, cache.IndexKey(), s.upstream.ListAll)
}

// Range returns the list page for a generation.
func (s *PokedexService) Range(ctx context.Context, gen model.Generation) ([]model.NamedResource, error) {
	return cache.Resolve(ctx, s.cache, cache.RangeKey(gen.Start, gen.End), func(ctx context.Context) ([]model.NamedResource, error) {
		return s.upstream.ListRange(ctx, gen.Start, gen.Count())
	})
}

// Entity returns the detail record for name. An empty name is "no result"
// and never reaches the cache or the network.
func (s *PokedexService) Entity(ctx context.Context, name string) (*model.EntityDetail, error) {
	name = pokeapi.NormalizeName(name)
	if name == "" {
		return nil, nil
	}
	return cache.Resolve(ctx, s.cache, cache.EntityKey(name), func(ctx context.Context) (*model.EntityDetail, error) {
		return s.upstream.GetEntity(ctx, name)
	})
}

// Species returns the species record at url; empty url is "no result".
func (s *PokedexService) Species(ctx context.Context, url string) (*model.SpeciesDetail, error) {
	if url == "" {
		return nil, nil
	}
	return cache.Resolve(ctx, s.cache, cache.SpeciesKey(url), func(ctx context.Context) (*model.SpeciesDetail, error) {
		return s.upstream.GetSpecies(ctx, url)
	})
}

// Forms resolves the species of detail and returns the alternate forms that
// can be switched to. A missing species yields no forms.
func (s *PokedexService) Forms(ctx context.Context, detail *model.EntityDetail) ([]model.FormOption, error) {
	species, err := s.Species(ctx, detail.SpeciesURL())
	if pokeapi.IsNotFound(err) {
		s.logger.Debug("species not found", zap.String("pokemon", detail.Name))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return model.AlternateForms(detail, species), nil
}

// Reset clears every cached response; the next read re-fetches.
func (s *PokedexService) Reset() {
	s.logger.Info("clearing pokedex cache", zap.Int("entries", s.cache.Stats().Entries))
	s.cache.Clear()
}

// ResetFailed drops only failed and stale responses, leaving warm entries
// other readers depend on.
func (s *PokedexService) ResetFailed() {
	n := s.cache.ClearFailed()
	s.logger.Debug("cleared failed cache entries", zap.Int("entries", n))
}

// CacheStats reports the cache entry table.
func (s *PokedexService) CacheStats() cache.Stats {
	return s.cache.Stats()
}
