package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/emilythestrangee/recipe-votes/backend/internal/leaderboard"
)

var registerOnce sync.Once

// registerValidators adds the custom binding tags used by query structs.
func registerValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("window", func(fl validator.FieldLevel) bool {
				_, err := leaderboard.ParseWindow(fl.Field().String())
				return err == nil
			})
		}
	})
}

type leaderboardQuery struct {
	Range string `form:"range" binding:"omitempty,window"`
}

type limitQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

type LeaderboardHandler struct {
	ranker Ranker
	logger *zap.Logger
}

func NewLeaderboardHandler(ranker Ranker, logger *zap.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{ranker: ranker, logger: logger}
}

// GetLeaderboard ranks authors by votes on recipes created inside the
// requested range (all, month or week).
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	var q leaderboardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Range must be all, month or week"})
		return
	}

	w, err := leaderboard.ParseWindow(q.Range)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Range must be all, month or week"})
		return
	}

	standings, err := h.ranker.RankAuthors(c.Request.Context(), w)
	if err != nil {
		respondError(c, h.logger, err, "Leaderboard not found")
		return
	}

	c.JSON(http.StatusOK, standings)
}

// GetTopRecipes returns the most voted recipes.
func (h *LeaderboardHandler) GetTopRecipes(c *gin.Context) {
	var q limitQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Limit must be a positive number"})
		return
	}

	items, err := h.ranker.TopItems(c.Request.Context(), q.Limit)
	if err != nil {
		respondError(c, h.logger, err, "Recipes not found")
		return
	}

	c.JSON(http.StatusOK, items)
}

// GetTopChefs returns the all-time top authors with their latest recipe.
func (h *LeaderboardHandler) GetTopChefs(c *gin.Context) {
	var q limitQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Limit must be a positive number"})
		return
	}

	chefs, err := h.ranker.TopAuthors(c.Request.Context(), q.Limit)
	if err != nil {
		respondError(c, h.logger, err, "Chefs not found")
		return
	}

	c.JSON(http.StatusOK, chefs)
}
