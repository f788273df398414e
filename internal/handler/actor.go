package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pmes/internal/model"
)

// Context keys set by the auth middleware.
const (
	CtxActorID = "actor_id"
	CtxRole    = "role"
)

// actorFrom reads the authenticated actor from the gin context. The auth
// middleware guarantees both keys on protected routes; a miss means the
// route was wired without it.
func actorFrom(c *gin.Context) (uuid.UUID, model.Role, bool) {
	rawID := c.GetString(CtxActorID)
	rawRole := c.GetString(CtxRole)

	actorID, err := uuid.Parse(rawID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown actor"})
		return uuid.Nil, "", false
	}

	role := model.Role(rawRole)
	if !role.Valid() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown role"})
		return uuid.Nil, "", false
	}

	return actorID, role, true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func parseUUIDField(raw string) (uuid.UUID, error) {
	return uuid.Parse(raw)
}
