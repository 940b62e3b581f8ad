package votes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/recipe-votes/backend/internal/models"
)

// PostgreSQL SQLSTATE codes.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Ledger is the set of (recipe, voter) pairs. The unique index on the votes
// table is what keeps a pair from appearing twice; Ledger never relies on a
// prior read for that.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// withTx returns a ledger bound to an open transaction.
func (l *Ledger) withTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx}
}

// lockItem takes the recipe row lock that serializes toggles on one recipe.
// Statements issued after it see every toggle on the recipe committed before.
func (l *Ledger) lockItem(ctx context.Context, itemID int) error {
	var ids []int
	err := l.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Clauses(clause.Locking{Strength: "NO KEY UPDATE"}).
		Where("id = ?", itemID).
		Pluck("id", &ids).Error
	if err != nil {
		return fmt.Errorf("failed to lock recipe %d: %w", itemID, err)
	}
	if len(ids) == 0 {
		return fmt.Errorf("recipe %d: %w", itemID, ErrNotFound)
	}
	return nil
}

// HasVote reports whether voterID currently has a vote on itemID.
func (l *Ledger) HasVote(ctx context.Context, itemID, voterID int) (bool, error) {
	var n int64
	err := l.db.WithContext(ctx).
		Model(&models.Vote{}).
		Where("recipe_id = ? AND voter_id = ?", itemID, voterID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check vote: %w", err)
	}
	return n > 0, nil
}

// CountVotes returns the number of distinct voters with a vote on itemID.
func (l *Ledger) CountVotes(ctx context.Context, itemID int) (int64, error) {
	var n int64
	err := l.db.WithContext(ctx).
		Model(&models.Vote{}).
		Where("recipe_id = ?", itemID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return n, nil
}

// add records a vote. ErrConflict means another request created the same
// entry first. The recipe row is locked by the caller, so a foreign key
// failure can only come from a voter with no account.
func (l *Ledger) add(ctx context.Context, itemID, voterID int, castAt time.Time) error {
	vote := models.Vote{
		RecipeID:  itemID,
		VoterID:   voterID,
		CreatedAt: castAt,
	}

	res := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "recipe_id"}, {Name: "voter_id"}},
			DoNothing: true,
		}).
		Create(&vote)
	if isDuplicate(res.Error) {
		return ErrConflict
	}
	if isForeignKeyViolation(res.Error) {
		return fmt.Errorf("voter %d has no account: %w", voterID, ErrUnauthorized)
	}
	if res.Error != nil {
		return fmt.Errorf("failed to record vote: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// remove deletes a vote. ErrConflict means it was already gone.
func (l *Ledger) remove(ctx context.Context, itemID, voterID int) error {
	res := l.db.WithContext(ctx).
		Where("recipe_id = ? AND voter_id = ?", itemID, voterID).
		Delete(&models.Vote{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove vote: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// refreshItemVotes rewrites the cached vote count on the recipe row from the
// ledger and returns it.
func (l *Ledger) refreshItemVotes(ctx context.Context, itemID int) (int64, error) {
	var count int64
	res := l.db.WithContext(ctx).Raw(`
		UPDATE recipes
		SET votes = (SELECT COUNT(*) FROM votes WHERE recipe_id = ?)
		WHERE id = ?
		RETURNING votes
	`, itemID, itemID).Scan(&count)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to refresh recipe votes: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("recipe %d: %w", itemID, ErrNotFound)
	}
	return count, nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || hasCode(err, uniqueViolation)
}

func isForeignKeyViolation(err error) bool {
	return errors.Is(err, gorm.ErrForeignKeyViolated) || hasCode(err, foreignKeyViolation)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
