package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	votes  VoteService
	logger *zap.Logger
}

func NewUserHandler(svc VoteService, logger *zap.Logger) *UserHandler {
	return &UserHandler{votes: svc, logger: logger}
}

// GetUserProfile returns an author's vote total and recipes
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	author, err := h.votes.Author(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, "User not found")
		return
	}

	c.JSON(http.StatusOK, author)
}
