package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pmes/internal/repository"
)

// InboxHandler serves the per-user notifications the notifier fans out.
// Both routes are scoped to the authenticated actor; there is no way to
// read or touch another user's inbox.
type InboxHandler struct {
	inbox  *repository.InboxRepository
	logger *zap.Logger
}

func NewInboxHandler(inbox *repository.InboxRepository, logger *zap.Logger) *InboxHandler {
	return &InboxHandler{inbox: inbox, logger: logger}
}

// List handles GET /inbox. An optional limit query parameter caps the page;
// the repository applies its default otherwise.
func (h *InboxHandler) List(c *gin.Context) {
	actorID, _, ok := actorFrom(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	list, err := h.inbox.ListByUser(c.Request.Context(), actorID, limit)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

// MarkRead handles POST /inbox/:id/read.
func (h *InboxHandler) MarkRead(c *gin.Context) {
	actorID, _, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.inbox.MarkRead(c.Request.Context(), id, actorID); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
