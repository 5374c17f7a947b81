package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fleveque/poke-finder/internal/model"
	"github.com/fleveque/poke-finder/internal/provider"
	"github.com/fleveque/poke-finder/internal/storage"
)

// SpriteService serves resized sprites. A sprite is downloaded and processed
// to every size the first time any size is asked for, then served from disk.
type SpriteService struct {
	spriteRepo storage.SpriteRepository
	fs         *storage.FileSystem
	processor  *ImageProcessor
	sprites    *provider.SpriteProvider
	group      singleflight.Group
	logger     *zap.Logger
}

// NewSpriteService wires the sprite pipeline.
func NewSpriteService(
	spriteRepo storage.SpriteRepository,
	fs *storage.FileSystem,
	processor *ImageProcessor,
	sprites *provider.SpriteProvider,
	logger *zap.Logger,
) *SpriteService {
	return &SpriteService{
		spriteRepo: spriteRepo,
		fs:         fs,
		processor:  processor,
		sprites:    sprites,
		logger:     logger,
	}
}

// SpriteStats summarizes the sprite table for the admin API.
type SpriteStats struct {
	Total     int64 `json:"total"`
	Processed int64 `json:"processed"`
	Pending   int64 `json:"pending"`
	Failed    int64 `json:"failed"`
}

// GetSprite returns the PNG bytes for a sprite at the requested size.
func (s *SpriteService) GetSprite(ctx context.Context, pokemonID int, size model.SpriteSize) ([]byte, error) {
	if pokemonID < 1 {
		return nil, fmt.Errorf("invalid pokemon id %d", pokemonID)
	}

	data, err := s.fromCache(ctx, pokemonID, size)
	if err == nil {
		return data, nil
	}

	s.logger.Info("sprite cache miss", zap.Int("pokemon_id", pokemonID))

	// Concurrent misses for one sprite share a single download.
	_, err, _ = s.group.Do(strconv.Itoa(pokemonID), func() (interface{}, error) {
		result, err := s.sprites.GetSprite(context.WithoutCancel(ctx), pokemonID, "")
		if err != nil {
			return nil, fmt.Errorf("acquiring sprite for %d: %w", pokemonID, err)
		}
		if err := s.processAndStore(context.WithoutCancel(ctx), result); err != nil {
			return nil, fmt.Errorf("processing sprite for %d: %w", pokemonID, err)
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	return s.fs.Read(pokemonID, size)
}

// ImportGeneration downloads and processes every sprite of gen that is not
// already stored.
func (s *SpriteService) ImportGeneration(ctx context.Context, gen model.Generation, lister provider.Lister) (*provider.ImportStats, error) {
	return s.sprites.BulkImport(ctx, gen, lister, func(result *provider.SpriteResult) error {
		existing, err := s.spriteRepo.GetByPokemonID(ctx, result.PokemonID)
		if err == nil && existing.Status == model.StatusProcessed {
			return provider.ErrAlreadyExists
		}
		return s.processAndStore(ctx, result)
	})
}

// Stats counts stored sprites by status.
func (s *SpriteService) Stats(ctx context.Context) (*SpriteStats, error) {
	var st SpriteStats
	var err error
	if st.Total, err = s.spriteRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("counting sprites: %w", err)
	}
	counts := map[model.SpriteStatus]*int64{
		model.StatusProcessed: &st.Processed,
		model.StatusPending:   &st.Pending,
		model.StatusFailed:    &st.Failed,
	}
	for status, dst := range counts {
		if *dst, err = s.spriteRepo.CountByStatus(ctx, status); err != nil {
			return nil, fmt.Errorf("counting %s sprites: %w", status, err)
		}
	}
	return &st, nil
}

func (s *SpriteService) fromCache(ctx context.Context, pokemonID int, size model.SpriteSize) ([]byte, error) {
	sprite, err := s.spriteRepo.GetByPokemonID(ctx, pokemonID)
	if err != nil {
		return nil, err
	}

	if sprite.Status != model.StatusProcessed {
		return nil, fmt.Errorf("sprite status is %s", sprite.Status)
	}

	if !sprite.HasSize(size) {
		return nil, fmt.Errorf("size %s not available", size)
	}

	return s.fs.Read(pokemonID, size)
}

// processAndStore creates the record if needed, resizes to every size and
// marks the sprite processed.
func (s *SpriteService) processAndStore(ctx context.Context, result *provider.SpriteResult) error {
	existing, err := s.spriteRepo.GetByPokemonID(ctx, result.PokemonID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		sprite := &model.Sprite{
			PokemonID:   result.PokemonID,
			Name:        result.Name,
			Source:      result.Source,
			OriginalURL: result.OriginalURL,
			Status:      model.StatusPending,
		}
		if err := s.spriteRepo.Create(ctx, sprite); err != nil {
			return fmt.Errorf("creating record: %w", err)
		}
	case err != nil:
		return err
	default:
		existing.Source = result.Source
		existing.OriginalURL = result.OriginalURL
		if result.Name != "" {
			existing.Name = result.Name
		}
		if err := s.spriteRepo.Update(ctx, existing); err != nil {
			return fmt.Errorf("updating record: %w", err)
		}
	}

	sizes, err := s.processor.ProcessAll(result.PokemonID, result.ImageData)
	if err != nil {
		_ = s.spriteRepo.SetStatus(ctx, result.PokemonID, model.StatusFailed, err.Error())
		return fmt.Errorf("processing: %w", err)
	}

	for size, ok := range sizes {
		if !ok {
			continue
		}
		if err := s.spriteRepo.SetSizeAvailable(ctx, result.PokemonID, size); err != nil {
			s.logger.Error("setting size available",
				zap.Int("pokemon_id", result.PokemonID),
				zap.String("size", string(size)),
				zap.Error(err),
			)
		}
	}

	return s.spriteRepo.SetStatus(ctx, result.PokemonID, model.StatusProcessed, "")
}
