package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/poke-finder/internal/controller"
	"github.com/fleveque/poke-finder/internal/session"
)

// SessionHandler exposes one controller per session over HTTP. Clients post
// actions and get the re-derived view back.
type SessionHandler struct {
	store         session.Store[*controller.Controller]
	newController func() *controller.Controller
	logger        *zap.Logger
}

// NewSessionHandler creates a new SessionHandler. newController builds the
// controller for each new session.
func NewSessionHandler(store session.Store[*controller.Controller], newController func() *controller.Controller, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		store:         store,
		newController: newController,
		logger:        logger,
	}
}

// Create starts a session in the default state.
// Route: POST /api/v1/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	id := h.store.NewID()
	ctrl := h.newController()

	if err := h.store.Put(ctx, id, ctrl); err != nil {
		writeError(c, h.logger, "storing session", err)
		return
	}

	h.logger.Debug("session created", zap.String("session_id", id))
	c.JSON(http.StatusCreated, gin.H{
		"id":    id,
		"state": ctrl.State(),
	})
}

// Get renders the current view of a session.
// Route: GET /api/v1/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	ctrl, ok := h.lookup(c)
	if !ok {
		return
	}
	h.render(c, ctrl)
}

// Dispatch applies one action and renders the resulting view.
// Route: POST /api/v1/sessions/:id/actions
func (h *SessionHandler) Dispatch(c *gin.Context) {
	ctrl, ok := h.lookup(c)
	if !ok {
		return
	}

	var action controller.Action
	if err := c.ShouldBindJSON(&action); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid action: " + err.Error()})
		return
	}

	if err := ctrl.Dispatch(c.Request.Context(), action); err != nil {
		writeError(c, h.logger, "dispatching "+string(action.Type), err)
		return
	}
	h.render(c, ctrl)
}

// Delete ends a session.
// Route: DELETE /api/v1/sessions/:id
func (h *SessionHandler) Delete(c *gin.Context) {
	deleted, err := h.store.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "deleting session", err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) lookup(c *gin.Context) (*controller.Controller, bool) {
	ctrl, ok, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "loading session", err)
		return nil, false
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	return ctrl, true
}

func (h *SessionHandler) render(c *gin.Context, ctrl *controller.Controller) {
	view, err := ctrl.View(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "rendering session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":   c.Param("id"),
		"view": view,
	})
}
