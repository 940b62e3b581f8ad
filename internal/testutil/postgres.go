//go:build integration

// Package testutil starts a throwaway PostgreSQL for integration tests and
// inserts fixtures directly, bypassing the vote engine.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/emilythestrangee/recipe-votes/backend/internal/database"
	"github.com/emilythestrangee/recipe-votes/backend/internal/models"
)

const postgresImage = "postgres:16-alpine"

// NewDB starts a PostgreSQL container, migrates it and returns a GORM handle.
// The test is skipped when no container runtime is available.
func NewDB(t *testing.T) (*gorm.DB, *zap.Logger) {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase("recipes_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable", "TimeZone=UTC")
	require.NoError(t, err)

	gormDB, err := gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	db := database.Wrap(gormDB, logger)
	require.NoError(t, db.Migrate(ctx))

	t.Cleanup(func() {
		_ = db.Close()
	})

	return gormDB, logger
}

var seq atomic.Int64

// CreateUser inserts a user with a unique name.
func CreateUser(t *testing.T, db *gorm.DB) models.User {
	t.Helper()

	user := models.User{
		Username:     fmt.Sprintf("user-%d", seq.Add(1)),
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// CreateRecipe inserts a recipe owned by authorID created at createdAt.
func CreateRecipe(t *testing.T, db *gorm.DB, authorID int, createdAt time.Time) models.Recipe {
	t.Helper()

	recipe := models.Recipe{
		Title:     fmt.Sprintf("recipe-%d", seq.Add(1)),
		AuthorID:  authorID,
		CreatedAt: createdAt.UTC(),
	}
	require.NoError(t, db.Create(&recipe).Error)
	return recipe
}

// InsertVote writes a ledger entry without touching any cached count.
func InsertVote(t *testing.T, db *gorm.DB, recipeID, voterID int) {
	t.Helper()

	require.NoError(t, db.Create(&models.Vote{RecipeID: recipeID, VoterID: voterID}).Error)
}

// StoredTotal reads users.total_votes.
func StoredTotal(t *testing.T, db *gorm.DB, userID int) int64 {
	t.Helper()

	var user models.User
	require.NoError(t, db.Select("total_votes").Where("id = ?", userID).Take(&user).Error)
	return user.TotalVotes
}

// StoredRecipeVotes reads recipes.votes.
func StoredRecipeVotes(t *testing.T, db *gorm.DB, recipeID int) int64 {
	t.Helper()

	var recipe models.Recipe
	require.NoError(t, db.Select("votes").Where("id = ?", recipeID).Take(&recipe).Error)
	return recipe.Votes
}
