package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/latspos/repairflow/internal/models"
)

// Header names carrying the already-authenticated actor. Authentication and
// session management live in front of this service.
const (
	headerActorID   = "X-Actor-ID"
	headerActorRole = "X-Actor-Role"
)

const actorContextKey = "actor"

// ActorMiddleware extracts the acting user from the request headers and
// rejects requests without a usable identity
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerActorID)
		role := models.Role(c.GetHeader(headerActorRole))

		if id == "" || !role.IsValid() {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "INVALID_INPUT",
				"message": "X-Actor-ID and a valid X-Actor-Role header are required",
			})
			return
		}

		c.Set(actorContextKey, models.Actor{ID: id, Role: role})
		c.Next()
	}
}

// actorFrom reads the actor the middleware stored on the request
func actorFrom(c *gin.Context) models.Actor {
	actor, _ := c.Get(actorContextKey)
	return actor.(models.Actor)
}
