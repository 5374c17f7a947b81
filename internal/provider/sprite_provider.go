package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/poke-finder/internal/model"
)

// Lister returns the Pokémon of one generation, in id order.
type Lister interface {
	Range(ctx context.Context, gen model.Generation) ([]model.NamedResource, error)
}

// SpriteProvider downloads sprite images from the sprite CDN. The official
// artwork is preferred; the small front sprite is the fallback.
type SpriteProvider struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewSpriteProvider creates a provider for the sprite CDN rooted at baseURL.
func NewSpriteProvider(baseURL string, timeout time.Duration, logger *zap.Logger) *SpriteProvider {
	if baseURL == "" {
		baseURL = model.DefaultSpriteBaseURL
	}
	return &SpriteProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (p *SpriteProvider) Name() string { return "sprites" }

// GetSprite downloads the best available image for one Pokémon.
func (p *SpriteProvider) GetSprite(ctx context.Context, pokemonID int, name string) (*SpriteResult, error) {
	candidates := []struct {
		source string
		url    string
	}{
		{"artwork", model.ArtworkURL(p.baseURL, pokemonID)},
		{"sprite", model.FallbackSpriteURL(p.baseURL, pokemonID)},
	}

	var lastErr error
	for _, c := range candidates {
		data, err := p.downloadFile(ctx, c.url)
		if err != nil {
			p.logger.Debug("sprite not available",
				zap.Int("pokemon_id", pokemonID),
				zap.String("url", c.url),
				zap.Error(err),
			)
			lastErr = err
			continue
		}

		return &SpriteResult{
			PokemonID:   pokemonID,
			Name:        name,
			ImageData:   data,
			Source:      c.source,
			OriginalURL: c.url,
		}, nil
	}

	return nil, fmt.Errorf("no sprite found for %d: %w", pokemonID, lastErr)
}

// BulkImport downloads the sprite of every Pokémon in gen and hands each to
// callback. A callback returning ErrAlreadyExists counts as skipped.
func (p *SpriteProvider) BulkImport(ctx context.Context, gen model.Generation, lister Lister, callback func(result *SpriteResult) error) (*ImportStats, error) {
	stats := &ImportStats{}

	p.logger.Info("importing sprites", zap.String("generation", gen.Key))

	list, err := lister.Range(ctx, gen)
	if err != nil {
		return stats, fmt.Errorf("listing %s: %w", gen.Label, err)
	}

	for _, r := range list {
		id, ok := r.ID()
		if !ok {
			continue
		}

		stats.Total++

		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		result, err := p.GetSprite(ctx, id, r.Name)
		if err != nil {
			stats.Failed++
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: download failed: %v", r.Name, err))
			continue
		}

		if err := callback(result); err != nil {
			if errors.Is(err, ErrAlreadyExists) {
				stats.Skipped++
			} else {
				stats.Failed++
				stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", r.Name, err))
			}
			continue
		}

		stats.Imported++

		if stats.Imported%50 == 0 {
			p.logger.Info("import progress",
				zap.String("generation", gen.Key),
				zap.Int("imported", stats.Imported),
				zap.Int("total_seen", stats.Total),
			)
		}
	}

	p.logger.Info("sprite import complete",
		zap.String("generation", gen.Key),
		zap.Int("total", stats.Total),
		zap.Int("imported", stats.Imported),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	)

	return stats, nil
}

func (p *SpriteProvider) downloadFile(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "poke-finder/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	// Sprites are small; anything past 10MB is not an image we want.
	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	return data, nil
}
