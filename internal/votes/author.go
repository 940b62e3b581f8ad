package votes

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/emilythestrangee/recipe-votes/backend/internal/models"
)

// Author is the public view of a recipe author.
type Author struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	Avatar      string `json:"avatar"`
	TotalVotes  int64  `json:"totalVotes"`
	RecipeCount int    `json:"recipeCount"`
	RecipeIDs   []int  `json:"recipeIds"`
}

// Author returns the stored aggregate for authorID along with the recipes it
// owns.
func (s *Service) Author(ctx context.Context, authorID int) (Author, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Select("id", "username", "avatar", "total_votes").
		Where("id = ?", authorID).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Author{}, fmt.Errorf("author %d: %w", authorID, ErrNotFound)
	}
	if err != nil {
		return Author{}, fmt.Errorf("failed to look up author %d: %w", authorID, err)
	}

	ids, err := s.catalog.ItemsOwnedBy(ctx, authorID)
	if err != nil {
		return Author{}, err
	}
	if ids == nil {
		ids = []int{}
	}

	return Author{
		ID:          user.ID,
		Username:    user.Username,
		Avatar:      user.Avatar,
		TotalVotes:  user.TotalVotes,
		RecipeCount: len(ids),
		RecipeIDs:   ids,
	}, nil
}
