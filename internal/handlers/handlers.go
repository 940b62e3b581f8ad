package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/emilythestrangee/recipe-votes/backend/internal/leaderboard"
	"github.com/emilythestrangee/recipe-votes/backend/internal/votes"
)

// VoteService is the part of votes.Service the HTTP layer needs.
type VoteService interface {
	Toggle(ctx context.Context, itemID, voterID int) (votes.ToggleResult, error)
	Status(ctx context.Context, itemID, voterID int) (votes.Status, error)
	Author(ctx context.Context, authorID int) (votes.Author, error)
}

// Ranker is the part of leaderboard.Engine the HTTP layer needs.
type Ranker interface {
	RankAuthors(ctx context.Context, w leaderboard.Window) (leaderboard.Standings, error)
	TopItems(ctx context.Context, limit int) ([]leaderboard.ItemStanding, error)
	TopAuthors(ctx context.Context, limit int) ([]leaderboard.Chef, error)
}

// Handler combines all handler types
type Handler struct {
	Vote        *VoteHandler
	Leaderboard *LeaderboardHandler
	User        *UserHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(svc VoteService, ranker Ranker, logger *zap.Logger) *Handler {
	registerValidators()

	return &Handler{
		Vote:        NewVoteHandler(svc, logger),
		Leaderboard: NewLeaderboardHandler(ranker, logger),
		User:        NewUserHandler(svc, logger),
	}
}
