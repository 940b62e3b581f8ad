package votes

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/recipe-votes/backend/internal/models"
)

// Recalculator keeps users.total_votes equal to the number of ledger entries
// on the recipes each user owns. It always recounts from the ledger instead of
// adjusting by one, so concurrent toggles and out-of-band ledger edits cannot
// make the stored value drift.
type Recalculator struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewRecalculator(db *gorm.DB, logger *zap.Logger) *Recalculator {
	return &Recalculator{db: db, logger: logger}
}

// RecomputeAuthorTotal stores and returns the author's ledger-derived total.
// Calling it again without a ledger change writes the same value.
func (r *Recalculator) RecomputeAuthorTotal(ctx context.Context, authorID int) (int64, error) {
	var total int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Count only after the row lock is held, so the last writer has seen
		// every committed ledger change.
		var ids []int
		if err := tx.Model(&models.User{}).
			Clauses(clause.Locking{Strength: "NO KEY UPDATE"}).
			Where("id = ?", authorID).
			Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("failed to lock author %d: %w", authorID, err)
		}
		if len(ids) == 0 {
			r.logger.Error("Recompute requested for missing author", zap.Int("author_id", authorID))
			return fmt.Errorf("author %d: %w", authorID, ErrInconsistent)
		}

		err := tx.Raw(`
			UPDATE users
			SET total_votes = (
				SELECT COUNT(*)
				FROM votes v
				JOIN recipes r ON r.id = v.recipe_id
				WHERE r.author_id = ?
			)
			WHERE id = ?
			RETURNING total_votes
		`, authorID, authorID).Scan(&total).Error
		if err != nil {
			return fmt.Errorf("failed to recompute total for author %d: %w", authorID, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// RecomputeAll rewrites every cached counter, recipe vote counts first and then
// author totals, and returns the number of authors updated.
func (r *Recalculator) RecomputeAll(ctx context.Context) (int64, error) {
	var authors int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`
			UPDATE recipes r
			SET votes = (SELECT COUNT(*) FROM votes v WHERE v.recipe_id = r.id)
		`).Error; err != nil {
			return fmt.Errorf("failed to recompute recipe votes: %w", err)
		}

		res := tx.Exec(`
			UPDATE users u
			SET total_votes = (
				SELECT COUNT(*)
				FROM votes v
				JOIN recipes r ON r.id = v.recipe_id
				WHERE r.author_id = u.id
			)
		`)
		if res.Error != nil {
			return fmt.Errorf("failed to recompute author totals: %w", res.Error)
		}
		authors = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.logger.Info("Recomputed vote aggregates", zap.Int64("authors", authors))
	return authors, nil
}
