package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/recipe-votes/backend/internal/middleware"
)

type VoteHandler struct {
	votes  VoteService
	logger *zap.Logger
}

func NewVoteHandler(svc VoteService, logger *zap.Logger) *VoteHandler {
	return &VoteHandler{votes: svc, logger: logger}
}

// GetVoteStatus returns a recipe's vote count and whether the caller, if
// logged in, has voted on it.
func (h *VoteHandler) GetVoteStatus(c *gin.Context) {
	recipeID, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
		return
	}

	userID, _ := middleware.UserID(c)

	status, err := h.votes.Status(c.Request.Context(), recipeID, userID)
	if err != nil {
		respondError(c, h.logger, err, "Recipe not found")
		return
	}

	c.JSON(http.StatusOK, status)
}

// ToggleVote adds the caller's vote on a recipe, or removes it if present
// (PROTECTED - requires authentication)
func (h *VoteHandler) ToggleVote(c *gin.Context) {
	recipeID, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
		return
	}

	// Zero when the middleware did not run; the service rejects it.
	userID, _ := middleware.UserID(c)

	result, err := h.votes.Toggle(c.Request.Context(), recipeID, userID)
	if err != nil {
		respondError(c, h.logger, err, "Recipe not found")
		return
	}

	c.JSON(http.StatusOK, result)
}
