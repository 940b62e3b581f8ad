package leaderboard

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/emilythestrangee/recipe-votes/backend/internal/config"
	"github.com/emilythestrangee/recipe-votes/backend/internal/metrics"
)

// Engine ranks authors and recipes straight from the vote ledger. Every call
// runs its own query; nothing is cached or shared between callers.
type Engine struct {
	db     *gorm.DB
	cfg    config.RankingConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewEngine(db *gorm.DB, cfg config.RankingConfig, logger *zap.Logger) *Engine {
	return &Engine{
		db:     db,
		cfg:    cfg,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// voteJoin joins ledger entries to recipes aliased r.
func (e *Engine) voteJoin() string {
	join := "LEFT JOIN votes v ON v.recipe_id = r.id"
	if !e.cfg.CountSelfVotes {
		join += " AND v.voter_id <> r.author_id"
	}
	return join
}

// clamp resolves a requested list size against the configured bounds.
func (e *Engine) clamp(limit int) int {
	if limit <= 0 {
		limit = e.cfg.TopItemsLimit
	}
	return min(limit, e.cfg.MaxResults)
}

// RankAuthors returns at most cfg.MaxResults authors with at least one recipe
// created inside w, best first.
func (e *Engine) RankAuthors(ctx context.Context, w Window) (Standings, error) {
	timer := prometheus.NewTimer(metrics.LeaderboardDuration.WithLabelValues(string(w)))
	defer timer.ObserveDuration()

	q := e.db.WithContext(ctx).
		Table("recipes AS r").
		Select(`u.id AS author_id, u.username AS username, u.avatar AS avatar,
			COUNT(DISTINCT r.id) AS item_count, COUNT(v.id) AS total_votes`).
		Joins("JOIN users u ON u.id = r.author_id").
		Joins(e.voteJoin())

	if since, ok := w.Since(e.now()); ok {
		q = q.Where("r.created_at >= ?", since)
	}

	var rows Standings
	err := q.Group("u.id").
		Order("total_votes DESC, item_count DESC, u.id ASC").
		Limit(e.cfg.MaxResults).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank authors for %s: %w", w, err)
	}

	// Pin the tie-break independent of how the database returns equal rows.
	slices.SortStableFunc(rows, Compare)

	e.logger.Debug("Ranked authors",
		zap.String("window", string(w)),
		zap.Int("authors", len(rows)),
	)

	if rows == nil {
		rows = Standings{}
	}
	return rows, nil
}

type chefRow struct {
	Standing
	LatestTitle     *string
	LatestCreatedAt *time.Time
}

// TopAuthors is the all-time author ranking with each author's most recent
// recipe. A non-positive limit selects cfg.TopItemsLimit; limits above
// cfg.MaxResults are clamped.
func (e *Engine) TopAuthors(ctx context.Context, limit int) ([]Chef, error) {
	timer := prometheus.NewTimer(metrics.LeaderboardDuration.WithLabelValues("top_chefs"))
	defer timer.ObserveDuration()

	var rows []chefRow
	err := e.db.WithContext(ctx).
		Table("recipes AS r").
		Select(`u.id AS author_id, u.username AS username, u.avatar AS avatar,
			COUNT(DISTINCT r.id) AS item_count, COUNT(v.id) AS total_votes,
			latest.title AS latest_title, latest.created_at AS latest_created_at`).
		Joins("JOIN users u ON u.id = r.author_id").
		Joins(e.voteJoin()).
		Joins(`LEFT JOIN LATERAL (
			SELECT lr.title, lr.created_at
			FROM recipes lr
			WHERE lr.author_id = u.id
			ORDER BY lr.created_at DESC, lr.id DESC
			LIMIT 1
		) latest ON TRUE`).
		Group("u.id, latest.title, latest.created_at").
		Order("total_votes DESC, item_count DESC, u.id ASC").
		Limit(e.clamp(limit)).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list top chefs: %w", err)
	}

	chefs := make([]Chef, 0, len(rows))
	for _, row := range rows {
		chef := Chef{Standing: row.Standing}
		if row.LatestTitle != nil && row.LatestCreatedAt != nil {
			chef.LatestRecipe = &LatestRecipe{Title: *row.LatestTitle, CreatedAt: *row.LatestCreatedAt}
		}
		chefs = append(chefs, chef)
	}
	slices.SortStableFunc(chefs, func(a, b Chef) int { return Compare(a.Standing, b.Standing) })

	return chefs, nil
}

// TopItems returns recipes ordered by ledger-derived votes, newest first among
// equals. A non-positive limit selects cfg.TopItemsLimit; limits above
// cfg.MaxResults are clamped.
func (e *Engine) TopItems(ctx context.Context, limit int) ([]ItemStanding, error) {
	var rows []ItemStanding
	err := e.db.WithContext(ctx).
		Table("recipes AS r").
		Select("r.id AS item_id, r.author_id AS author_id, COUNT(v.id) AS total_votes, r.created_at AS created_at").
		Joins(e.voteJoin()).
		Group("r.id").
		Order("total_votes DESC, r.created_at DESC, r.id ASC").
		Limit(e.clamp(limit)).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list top recipes: %w", err)
	}

	if rows == nil {
		rows = []ItemStanding{}
	}
	return rows, nil
}
