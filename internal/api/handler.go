package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/latspos/repairflow/internal/lifecycle"
	"github.com/latspos/repairflow/internal/models"
	"github.com/latspos/repairflow/internal/repository"
	"go.uber.org/zap"
)

// Handler exposes the lifecycle engine over HTTP
type Handler struct {
	engine *lifecycle.Engine
	store  *repository.Store
	logger *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(engine *lifecycle.Engine, store *repository.Store, logger *zap.Logger) *Handler {
	return &Handler{
		engine: engine,
		store:  store,
		logger: logger,
	}
}

// transitionRequest is the body for status change endpoints
type transitionRequest struct {
	Status string `json:"status"`
	Remark string `json:"remark"`
}

// remarkRequest is the body for endpoints that only carry a remark
type remarkRequest struct {
	Remark string `json:"remark"`
}

// GetTransitions returns the allowed transitions for the actor, including
// present-but-disabled entries with their reasons
func (h *Handler) GetTransitions(c *gin.Context) {
	deviceID := c.Param("id")
	actor := actorFrom(c)

	transitions, err := h.engine.GetAllowedTransitions(c.Request.Context(), deviceID, actor)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"device_id":   deviceID,
		"transitions": transitions,
	})
}

// RequestTransition applies a requested status change
func (h *Handler) RequestTransition(c *gin.Context) {
	deviceID := c.Param("id")
	actor := actorFrom(c)

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_INPUT", "message": "invalid request body"})
		return
	}

	device, err := h.engine.RequestTransition(c.Request.Context(), deviceID, actor,
		models.DeviceStatus(req.Status), req.Remark)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"device": device})
}

// MarkFailed moves a device into the failed branch
func (h *Handler) MarkFailed(c *gin.Context) {
	deviceID := c.Param("id")
	actor := actorFrom(c)

	var req remarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_INPUT", "message": "invalid request body"})
		return
	}

	device, err := h.engine.MarkFailed(c.Request.Context(), deviceID, actor, req.Remark)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"device": device})
}

// ResolveFailed routes a failed device out of the failure branch
func (h *Handler) ResolveFailed(c *gin.Context) {
	deviceID := c.Param("id")
	actor := actorFrom(c)

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_INPUT", "message": "invalid request body"})
		return
	}

	device, err := h.engine.ResolveFailedDevice(c.Request.Context(), deviceID, actor,
		models.DeviceStatus(req.Status), req.Remark)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"device": device})
}

// GetAutoProgression reports whether the device should advance automatically
func (h *Handler) GetAutoProgression(c *gin.Context) {
	deviceID := c.Param("id")

	progression, err := h.engine.EvaluateAutoProgression(c.Request.Context(), deviceID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, progression)
}

// GetHistory returns the transition audit trail for a device
func (h *Handler) GetHistory(c *gin.Context) {
	deviceID := c.Param("id")

	history, err := h.store.History().ListByDevice(c.Request.Context(), deviceID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"device_id": deviceID,
		"history":   history,
	})
}

// Health is the liveness endpoint
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// renderError maps the engine's error taxonomy onto HTTP statuses. The
// reason string goes out verbatim so the operator sees why a transition was
// rejected.
func (h *Handler) renderError(c *gin.Context, err error) {
	code := lifecycle.CodeOf(err)
	var status int
	switch code {
	case lifecycle.CodeUnauthorized:
		status = http.StatusForbidden
	case lifecycle.CodeGuardNotSatisfied:
		status = http.StatusConflict
	case lifecycle.CodeInvalidInput:
		status = http.StatusBadRequest
	case lifecycle.CodeNotFound:
		status = http.StatusNotFound
	default:
		h.logger.Error("Internal error handling request",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "INTERNAL",
			"message": "internal error",
		})
		return
	}

	message := err.Error()
	var te *lifecycle.TransitionError
	if errors.As(err, &te) {
		message = te.Reason
	}

	c.JSON(status, gin.H{
		"error":   string(code),
		"message": message,
	})
}
