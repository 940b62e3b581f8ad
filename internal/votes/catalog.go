package votes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/emilythestrangee/recipe-votes/backend/internal/models"
)

// Catalog answers ownership questions about recipes. Recipes and authors are
// created elsewhere; the vote engine only reads them.
type Catalog interface {
	ItemExists(ctx context.Context, itemID int) (bool, error)
	OwnerOf(ctx context.Context, itemID int) (int, error)
	ItemsOwnedBy(ctx context.Context, authorID int) ([]int, error)
	CreatedAtOf(ctx context.Context, itemID int) (time.Time, error)
}

// RecipeCatalog implements Catalog over the recipes table.
type RecipeCatalog struct {
	db *gorm.DB
}

func NewRecipeCatalog(db *gorm.DB) *RecipeCatalog {
	return &RecipeCatalog{db: db}
}

func (c *RecipeCatalog) ItemExists(ctx context.Context, itemID int) (bool, error) {
	var n int64
	err := c.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Where("id = ?", itemID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up recipe %d: %w", itemID, err)
	}
	return n > 0, nil
}

func (c *RecipeCatalog) OwnerOf(ctx context.Context, itemID int) (int, error) {
	recipe, err := c.find(ctx, itemID)
	if err != nil {
		return 0, err
	}
	return recipe.AuthorID, nil
}

func (c *RecipeCatalog) ItemsOwnedBy(ctx context.Context, authorID int) ([]int, error) {
	var ids []int
	err := c.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Where("author_id = ?", authorID).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes of author %d: %w", authorID, err)
	}
	return ids, nil
}

func (c *RecipeCatalog) CreatedAtOf(ctx context.Context, itemID int) (time.Time, error) {
	recipe, err := c.find(ctx, itemID)
	if err != nil {
		return time.Time{}, err
	}
	return recipe.CreatedAt, nil
}

func (c *RecipeCatalog) find(ctx context.Context, itemID int) (*models.Recipe, error) {
	var recipe models.Recipe
	err := c.db.WithContext(ctx).
		Select("id", "author_id", "created_at").
		Where("id = ?", itemID).
		Take(&recipe).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("recipe %d: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up recipe %d: %w", itemID, err)
	}
	return &recipe, nil
}
