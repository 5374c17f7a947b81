package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/poke-finder/internal/model"
	"github.com/fleveque/poke-finder/internal/pokeapi"
	"github.com/fleveque/poke-finder/internal/search"
	"github.com/fleveque/poke-finder/internal/service"
)

// PokemonHandler serves stateless lookups straight from the cached Pokédex.
type PokemonHandler struct {
	pokedex    *service.PokedexService
	spriteBase string
	logger     *zap.Logger
}

// NewPokemonHandler creates a new PokemonHandler.
func NewPokemonHandler(pokedex *service.PokedexService, spriteBase string, logger *zap.Logger) *PokemonHandler {
	if spriteBase == "" {
		spriteBase = model.DefaultSpriteBaseURL
	}
	return &PokemonHandler{
		pokedex:    pokedex,
		spriteBase: spriteBase,
		logger:     logger,
	}
}

// Generations lists the selectable generations.
// Route: GET /api/v1/generations
func (h *PokemonHandler) Generations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"generations": model.Generations})
}

// GenerationList returns the list cards for one generation.
// Route: GET /api/v1/generations/:gen/pokemon
func (h *PokemonHandler) GenerationList(c *gin.Context) {
	gen, err := model.LookupGeneration(c.Param("gen"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	list, err := h.pokedex.Range(c.Request.Context(), gen)
	if err != nil {
		writeError(c, h.logger, "listing generation", err)
		return
	}

	cards := make([]model.ListCard, 0, len(list))
	for _, r := range list {
		cards = append(cards, model.NewListCard(r, h.spriteBase))
	}
	c.JSON(http.StatusOK, gin.H{
		"generation": gen,
		"pokemon":    cards,
	})
}

// Search returns autocomplete suggestions for q.
// Route: GET /api/v1/pokemon?q=pika
func (h *PokemonHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusOK, gin.H{"query": q, "suggestions": []model.NamedResource{}})
		return
	}

	index, err := h.pokedex.Index(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "loading name index", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":       q,
		"suggestions": search.Filter(q, index),
	})
}

// Get returns one Pokémon with its alternate forms.
// Route: GET /api/v1/pokemon/:name
func (h *PokemonHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	name := pokeapi.NormalizeName(c.Param("name"))

	detail, err := h.pokedex.Entity(ctx, name)
	if err != nil {
		writeError(c, h.logger, "fetching pokemon", err)
		return
	}
	if detail == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "pokemon not found"})
		return
	}

	forms, err := h.pokedex.Forms(ctx, detail)
	if err != nil {
		writeError(c, h.logger, "fetching forms", err)
		return
	}
	if forms == nil {
		forms = []model.FormOption{}
	}

	c.JSON(http.StatusOK, gin.H{
		"pokemon":   detail,
		"image_url": detail.ImageURL(),
		"forms":     forms,
	})
}
