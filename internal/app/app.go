// Package app wires the shared components from a loaded config. Both the
// HTTP server and the CLI start from here.
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/fleveque/poke-finder/internal/cache"
	"github.com/fleveque/poke-finder/internal/config"
	"github.com/fleveque/poke-finder/internal/llm"
	"github.com/fleveque/poke-finder/internal/pokeapi"
	"github.com/fleveque/poke-finder/internal/provider"
	"github.com/fleveque/poke-finder/internal/service"
	"github.com/fleveque/poke-finder/internal/storage"
)

// App holds the long-lived components.
type App struct {
	Config      *config.Config
	DB          *sqlx.DB
	Pokedex     *service.PokedexService
	Sprites     *service.SpriteService
	Entries     *service.EntryService
	SpriteRepo  storage.SpriteRepository
	EntryRepo   storage.EntryRepository
	LLMCallRepo storage.LLMCallRepository
}

// New opens storage and builds every service. Call Close when done.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := storage.NewDatabase(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	fs, err := storage.NewFileSystem(cfg.Storage.SpriteDir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating filesystem: %w", err)
	}

	pokedex := NewPokedex(cfg, logger)

	spriteRepo := storage.NewSpriteRepository(db)
	entryRepo := storage.NewEntryRepository(db)
	llmCallRepo := storage.NewLLMCallRepository(db)

	sprites := service.NewSpriteService(
		spriteRepo,
		fs,
		service.NewImageProcessor(fs),
		provider.NewSpriteProvider(cfg.Sprites.BaseURL, cfg.PokeAPI.Timeout, logger),
		logger,
	)

	writer := provider.NewEntryProvider(LLMClients(cfg.LLM, logger), cfg.LLM.RatePerMinute, llmCallRepo, logger)
	entries := service.NewEntryService(entryRepo, pokedex, writer, logger)

	return &App{
		Config:      cfg,
		DB:          db,
		Pokedex:     pokedex,
		Sprites:     sprites,
		Entries:     entries,
		SpriteRepo:  spriteRepo,
		EntryRepo:   entryRepo,
		LLMCallRepo: llmCallRepo,
	}, nil
}

// NewPokedex builds the cached upstream client alone, for commands that
// need no storage.
func NewPokedex(cfg *config.Config, logger *zap.Logger) *service.PokedexService {
	client := pokeapi.NewClient(cfg.PokeAPI.BaseURL, cfg.PokeAPI.Timeout, logger,
		pokeapi.WithIndexLimit(cfg.PokeAPI.IndexLimit),
	)
	return service.NewPokedexService(client, cache.New(cfg.Cache.Staleness, logger), logger)
}

// Close releases the database.
func (a *App) Close() error {
	return a.DB.Close()
}

// LLMClients builds the entry writers in provider_order, skipping providers
// without an API key.
func LLMClients(cfg config.LLMConfig, logger *zap.Logger) []llm.Client {
	var clients []llm.Client
	for _, name := range cfg.ProviderOrder {
		switch name {
		case "anthropic":
			if cfg.Anthropic.APIKey != "" {
				clients = append(clients, llm.NewAnthropicClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model))
			}
		case "openai":
			if cfg.OpenAI.APIKey != "" {
				clients = append(clients, llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model))
			}
		default:
			logger.Warn("unknown LLM provider in provider_order", zap.String("provider", name))
		}
	}
	if len(clients) == 0 {
		logger.Info("no LLM provider configured, pokedex entries disabled")
	}
	return clients
}

// NewLogger returns a development logger for debug level, production otherwise.
func NewLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
