// Package server configures the HTTP server and routes.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/poke-finder/internal/config"
	"github.com/fleveque/poke-finder/internal/controller"
	"github.com/fleveque/poke-finder/internal/handler"
	"github.com/fleveque/poke-finder/internal/middleware"
	"github.com/fleveque/poke-finder/internal/service"
	"github.com/fleveque/poke-finder/internal/session"
	"github.com/fleveque/poke-finder/internal/storage"
)

// Deps holds everything the handlers need. Dependencies are passed in
// explicitly; each handler gets only the pieces it uses.
type Deps struct {
	Pokedex     *service.PokedexService
	Sprites     *service.SpriteService
	Entries     handler.EntrySource
	EntryRepo   storage.EntryRepository
	LLMCallRepo storage.LLMCallRepository
	Sessions    session.Store[*controller.Controller]
	SpriteBase  string
}

// NewController builds the controller for a fresh session. The cache is
// shared by every session, so a session's retry only drops failed and stale
// entries; a full reset stays behind the admin key.
func (d Deps) NewController(logger *zap.Logger) func() *controller.Controller {
	return func() *controller.Controller {
		return controller.New(d.Pokedex, d.SpriteBase, logger, controller.WithRetry(d.Pokedex.ResetFailed))
	}
}

// RegisterRoutes sets up all HTTP routes on the Gin engine.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Deps, logger *zap.Logger) {
	healthHandler := handler.NewHealthHandler()
	pokemonHandler := handler.NewPokemonHandler(deps.Pokedex, deps.SpriteBase, logger)
	spriteHandler := handler.NewSpriteHandler(deps.Sprites, logger)
	entryHandler := handler.NewEntryHandler(deps.Entries, logger)
	sessionHandler := handler.NewSessionHandler(deps.Sessions, deps.NewController(logger), logger)
	adminHandler := handler.NewAdminHandler(deps.Pokedex, deps.Sprites, deps.EntryRepo, deps.LLMCallRepo, deps.Sessions, logger)

	// Public endpoints (no auth)
	r.GET("/healthz", healthHandler.Healthz)

	api := r.Group("/api/v1")
	api.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	// Group middleware only runs on matched routes, so preflights need a
	// route of their own. CORS answers them before this handler runs.
	api.OPTIONS("/*path", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	authed := api.Group("")
	authed.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	authed.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	{
		authed.GET("/generations", pokemonHandler.Generations)
		authed.GET("/generations/:gen/pokemon", pokemonHandler.GenerationList)
		authed.GET("/pokemon", pokemonHandler.Search)
		authed.GET("/pokemon/:name", pokemonHandler.Get)
		authed.GET("/pokemon/:name/entry", entryHandler.Get)
		authed.GET("/sprites/:id", spriteHandler.GetSprite)

		authed.POST("/sessions", sessionHandler.Create)
		authed.GET("/sessions/:id", sessionHandler.Get)
		authed.POST("/sessions/:id/actions", sessionHandler.Dispatch)
		authed.DELETE("/sessions/:id", sessionHandler.Delete)
	}

	// Admin endpoints (separate auth with admin keys)
	admin := api.Group("/admin")
	admin.Use(middleware.AdminKeyAuth(cfg.Auth.AdminKeys))
	{
		admin.GET("/stats", adminHandler.Stats)
		admin.POST("/cache/reset", adminHandler.ResetCache)
		admin.POST("/sprites/import", adminHandler.ImportSprites)
	}
}
