package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/poke-finder/internal/controller"
	"github.com/fleveque/poke-finder/internal/model"
	"github.com/fleveque/poke-finder/internal/pokeapi"
	"github.com/fleveque/poke-finder/internal/service"
	"github.com/fleveque/poke-finder/internal/session"
)

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	var netErr *pokeapi.NetworkError
	switch {
	case pokeapi.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, controller.ErrUnknownAction), errors.Is(err, model.ErrUnknownGeneration):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrEntriesDisabled), errors.Is(err, session.ErrFull):
		return http.StatusServiceUnavailable
	case errors.As(err, &netErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and writes the JSON error body. Internal errors are
// not echoed to the client.
func writeError(c *gin.Context, logger *zap.Logger, msg string, err error) {
	status := statusFor(err)
	_ = c.Error(err)

	body := gin.H{"error": err.Error()}
	switch status {
	case http.StatusInternalServerError:
		logger.Error(msg, zap.Error(err))
		body = gin.H{"error": "internal error"}
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		logger.Warn(msg, zap.Error(err))
	}
	c.JSON(status, body)
}
