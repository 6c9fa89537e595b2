package api

import (
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin router with all engine routes registered
func NewRouter(handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", handler.Health)

	v1 := router.Group("/api/v1", ActorMiddleware())
	{
		devices := v1.Group("/devices/:id")
		devices.GET("/transitions", handler.GetTransitions)
		devices.POST("/transitions", handler.RequestTransition)
		devices.POST("/fail", handler.MarkFailed)
		devices.POST("/resolve", handler.ResolveFailed)
		devices.GET("/auto-progression", handler.GetAutoProgression)
		devices.GET("/history", handler.GetHistory)
	}

	return router
}
