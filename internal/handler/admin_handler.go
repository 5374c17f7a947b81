package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/poke-finder/internal/cache"
	"github.com/fleveque/poke-finder/internal/model"
	"github.com/fleveque/poke-finder/internal/provider"
	"github.com/fleveque/poke-finder/internal/service"
	"github.com/fleveque/poke-finder/internal/storage"
)

// PokedexAdmin is the cache-facing side of the Pokédex service.
type PokedexAdmin interface {
	provider.Lister
	CacheStats() cache.Stats
	Reset()
}

// SpriteAdmin is the maintenance side of the sprite service.
type SpriteAdmin interface {
	Stats(ctx context.Context) (*service.SpriteStats, error)
	ImportGeneration(ctx context.Context, gen model.Generation, lister provider.Lister) (*provider.ImportStats, error)
}

// SessionCounter reports how many sessions are open.
type SessionCounter interface {
	Len() int
}

// AdminHandler handles administrative endpoints.
type AdminHandler struct {
	pokedex     PokedexAdmin
	sprites     SpriteAdmin
	entryRepo   storage.EntryRepository
	llmCallRepo storage.LLMCallRepository
	sessions    SessionCounter
	logger      *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	pokedex PokedexAdmin,
	sprites SpriteAdmin,
	entryRepo storage.EntryRepository,
	llmCallRepo storage.LLMCallRepository,
	sessions SessionCounter,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		pokedex:     pokedex,
		sprites:     sprites,
		entryRepo:   entryRepo,
		llmCallRepo: llmCallRepo,
		sessions:    sessions,
		logger:      logger,
	}
}

// Stats reports cache, sprite, entry and session counters.
// Route: GET /api/v1/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	sprites, err := h.sprites.Stats(ctx)
	if err != nil {
		writeError(c, h.logger, "counting sprites", err)
		return
	}

	entries, err := h.entryRepo.Count(ctx)
	if err != nil {
		writeError(c, h.logger, "counting entries", err)
		return
	}

	llmCalls, err := h.llmCallRepo.Count(ctx)
	if err != nil {
		writeError(c, h.logger, "counting llm calls", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cache":     h.pokedex.CacheStats(),
		"sprites":   sprites,
		"entries":   entries,
		"llm_calls": llmCalls,
		"sessions":  h.sessions.Len(),
	})
}

// ResetCache drops every cached upstream response.
// Route: POST /api/v1/admin/cache/reset
func (h *AdminHandler) ResetCache(c *gin.Context) {
	before := h.pokedex.CacheStats()
	h.pokedex.Reset()
	c.JSON(http.StatusOK, gin.H{
		"status":  "cleared",
		"entries": before.Entries,
	})
}

// ImportSprites pre-loads every sprite of a generation. The import runs in
// the background unless wait=true is given.
// Route: POST /api/v1/admin/sprites/import?gen=1&wait=true
func (h *AdminHandler) ImportSprites(c *gin.Context) {
	gen, err := model.LookupGeneration(c.DefaultQuery("gen", model.DefaultGeneration().Key))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if c.Query("wait") == "true" {
		stats, err := h.sprites.ImportGeneration(c.Request.Context(), gen, h.pokedex)
		if err != nil {
			writeError(c, h.logger, "importing sprites", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"generation": gen.Key,
			"stats":      stats,
		})
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	go func() {
		if _, err := h.sprites.ImportGeneration(ctx, gen, h.pokedex); err != nil {
			h.logger.Error("background sprite import failed",
				zap.String("generation", gen.Key),
				zap.Error(err),
			)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"status":     "accepted",
		"generation": gen.Key,
	})
}
