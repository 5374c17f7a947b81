package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/poke-finder/internal/model"
)

// EntrySource returns the Pokédex entry for a Pokémon name.
type EntrySource interface {
	GetEntry(ctx context.Context, name string) (*model.PokedexEntry, error)
}

// EntryHandler serves LLM-written Pokédex entries.
type EntryHandler struct {
	entries EntrySource
	logger  *zap.Logger
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entries EntrySource, logger *zap.Logger) *EntryHandler {
	return &EntryHandler{
		entries: entries,
		logger:  logger,
	}
}

// Get returns the entry, writing it on first request.
// Route: GET /api/v1/pokemon/:name/entry
func (h *EntryHandler) Get(c *gin.Context) {
	entry, err := h.entries.GetEntry(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, h.logger, "getting pokedex entry", err)
		return
	}
	c.JSON(http.StatusOK, entry)
}
