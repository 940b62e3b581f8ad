package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/recipe-votes/backend/internal/votes"
)

// respondError maps service errors onto the status codes the client expects.
// Anything unrecognised is logged and reported as a 500 without detail.
func respondError(c *gin.Context, logger *zap.Logger, err error, notFound string) {
	switch {
	case errors.Is(err, votes.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Must be logged in to vote"})
	case errors.Is(err, votes.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	default:
		_ = c.Error(err)
		logger.Error("Request failed",
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// paramID parses a positive integer path parameter.
func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
