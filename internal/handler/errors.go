// Package handler exposes the rule engine over HTTP. Handlers translate the
// core error taxonomy into status codes; services never see HTTP.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pmes/internal/core"
)

// writeError maps a service error to an HTTP response.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
		return
	}

	var gerr *core.GuardViolation
	if errors.As(err, &gerr) {
		c.JSON(http.StatusForbidden, gin.H{"error": gerr.Error()})
		return
	}

	var nferr *core.NotFoundError
	if errors.As(err, &nferr) {
		c.JSON(http.StatusNotFound, gin.H{"error": nferr.Error()})
		return
	}

	var cerr *core.ConcurrencyConflict
	if errors.As(err, &cerr) {
		c.JSON(http.StatusConflict, gin.H{"error": cerr.Error()})
		return
	}

	logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
