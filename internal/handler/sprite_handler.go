package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/poke-finder/internal/model"
	"github.com/fleveque/poke-finder/internal/service"
)

// SpriteSource returns processed sprite PNGs.
type SpriteSource interface {
	GetSprite(ctx context.Context, pokemonID int, size model.SpriteSize) ([]byte, error)
}

// SpriteHandler serves resized sprite images.
type SpriteHandler struct {
	sprites SpriteSource
	logger  *zap.Logger
}

// NewSpriteHandler creates a new SpriteHandler.
func NewSpriteHandler(sprites SpriteSource, logger *zap.Logger) *SpriteHandler {
	return &SpriteHandler{
		sprites: sprites,
		logger:  logger,
	}
}

// GetSprite serves the sprite of a Pokémon id, acquiring and processing it
// on first request.
// Route: GET /api/v1/sprites/:id?size=m&bg=ffffff
func (h *SpriteHandler) GetSprite(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid id: must be a positive integer",
		})
		return
	}

	sizeStr := c.DefaultQuery("size", "m")
	if !model.ValidSize(sizeStr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid size: must be xs, s, m, l, or xl",
		})
		return
	}

	data, err := h.sprites.GetSprite(c.Request.Context(), id, model.SpriteSize(sizeStr))
	if err != nil {
		h.logger.Warn("sprite not found",
			zap.Int("pokemon_id", id),
			zap.Error(err),
		)
		c.JSON(http.StatusNotFound, gin.H{
			"error": "sprite not found",
		})
		return
	}

	if bg := c.Query("bg"); bg != "" {
		data, err = service.ApplyBackground(data, bg)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "invalid background color: " + err.Error(),
			})
			return
		}
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", data)
}
