package export

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fleveque/poke-finder/internal/model"
	"github.com/fleveque/poke-finder/internal/pokeapi"
)

// DefaultConcurrency bounds parallel detail fetches.
const DefaultConcurrency = 8

// Source is the cached Pokédex the rows are read from.
type Source interface {
	Range(ctx context.Context, gen model.Generation) ([]model.NamedResource, error)
	Entity(ctx context.Context, name string) (*model.EntityDetail, error)
}

// Collect fetches every Pokémon of gen and returns their rows sorted by id.
// Names the upstream no longer knows are skipped. Any other failure aborts
// the whole collection.
func Collect(ctx context.Context, src Source, gen model.Generation, concurrency int, logger *zap.Logger) ([]Row, error) {
	list, err := src.Range(ctx, gen)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", gen.Key, err)
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	details := make([]*model.EntityDetail, len(list))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, r := range list {
		g.Go(func() error {
			d, err := src.Entity(gctx, r.Name)
			if pokeapi.IsNotFound(err) {
				logger.Warn("skipping missing pokemon", zap.String("name", r.Name))
				return nil
			}
			if err != nil {
				return fmt.Errorf("fetching %s: %w", r.Name, err)
			}
			details[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(details))
	for _, d := range details {
		if d != nil {
			rows = append(rows, NewRow(d))
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}
