package votes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/emilythestrangee/recipe-votes/backend/internal/metrics"
)

// recomputeTimeout bounds the author recompute that runs after the ledger
// change has committed.
const recomputeTimeout = 5 * time.Second

// ToggleResult is the state after a toggle, not the delta.
type ToggleResult struct {
	Voted bool  `json:"voted"`
	Votes int64 `json:"totalVotes"`
}

// Status is the vote state of a recipe as seen by an optional caller.
type Status struct {
	Votes         int64 `json:"totalVotes"`
	VotedByCaller bool  `json:"votedByCaller"`
}

// Service flips votes and keeps the author aggregate in step with the ledger.
type Service struct {
	db      *gorm.DB
	ledger  *Ledger
	catalog Catalog
	recalc  *Recalculator
	logger  *zap.Logger
	now     func() time.Time

	// testHookBeforeWrite runs inside the toggle transaction between the
	// ledger read and the write.
	testHookBeforeWrite func(itemID, voterID int)
}

func NewService(db *gorm.DB, catalog Catalog, recalc *Recalculator, logger *zap.Logger) *Service {
	return &Service{
		db:      db,
		ledger:  NewLedger(db),
		catalog: catalog,
		recalc:  recalc,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Ledger exposes the read side of the vote ledger.
func (s *Service) Ledger() *Ledger {
	return s.ledger
}

// Toggle flips voterID's vote on itemID and returns the resulting state. A
// voterID of zero means the caller is not authenticated.
func (s *Service) Toggle(ctx context.Context, itemID, voterID int) (ToggleResult, error) {
	if voterID <= 0 {
		return ToggleResult{}, ErrUnauthorized
	}

	timer := prometheus.NewTimer(metrics.ToggleDuration)
	defer timer.ObserveDuration()

	authorID, err := s.catalog.OwnerOf(ctx, itemID)
	if err != nil {
		return ToggleResult{}, err
	}

	result, err := s.flip(ctx, itemID, voterID)
	if errors.Is(err, ErrConflict) {
		metrics.VoteConflicts.Inc()
		s.logger.Debug("Concurrent toggle on same vote, using current state",
			zap.Int("recipe_id", itemID),
			zap.Int("voter_id", voterID),
		)
		result, err = s.observe(ctx, itemID, voterID)
	}
	if err != nil {
		return ToggleResult{}, err
	}

	// The ledger change is committed; finish the recompute even if the
	// caller has gone away.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recomputeTimeout)
	defer cancel()

	if _, err := s.recalc.RecomputeAuthorTotal(rctx, authorID); err != nil {
		metrics.AggregateErrors.Inc()
		s.logger.Error("Failed to recompute author total",
			zap.Int("author_id", authorID),
			zap.Int("recipe_id", itemID),
			zap.Error(err),
		)
		return ToggleResult{}, err
	}

	if result.Voted {
		metrics.VoteToggles.WithLabelValues("voted").Inc()
	} else {
		metrics.VoteToggles.WithLabelValues("unvoted").Inc()
	}

	return result, nil
}

// flip performs the ledger change and refreshes the recipe's cached count in
// one transaction holding the recipe row lock.
func (s *Service) flip(ctx context.Context, itemID, voterID int) (ToggleResult, error) {
	var result ToggleResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := s.ledger.withTx(tx)

		if err := ledger.lockItem(ctx, itemID); err != nil {
			return err
		}

		voted, err := ledger.HasVote(ctx, itemID, voterID)
		if err != nil {
			return err
		}

		if s.testHookBeforeWrite != nil {
			s.testHookBeforeWrite(itemID, voterID)
		}

		if voted {
			if err := ledger.remove(ctx, itemID, voterID); err != nil {
				return err
			}
		} else {
			if err := ledger.add(ctx, itemID, voterID, s.now()); err != nil {
				return err
			}
		}

		count, err := ledger.refreshItemVotes(ctx, itemID)
		if err != nil {
			return err
		}

		result = ToggleResult{Voted: !voted, Votes: count}
		return nil
	})
	if err != nil {
		return ToggleResult{}, err
	}
	return result, nil
}

// observe reads the committed ledger state for the pair.
func (s *Service) observe(ctx context.Context, itemID, voterID int) (ToggleResult, error) {
	voted, err := s.ledger.HasVote(ctx, itemID, voterID)
	if err != nil {
		return ToggleResult{}, err
	}
	count, err := s.ledger.CountVotes(ctx, itemID)
	if err != nil {
		return ToggleResult{}, err
	}
	return ToggleResult{Voted: voted, Votes: count}, nil
}

// Status returns the ledger-derived vote count for itemID and, when voterID is
// non-zero, whether that voter has voted on it.
func (s *Service) Status(ctx context.Context, itemID, voterID int) (Status, error) {
	exists, err := s.catalog.ItemExists(ctx, itemID)
	if err != nil {
		return Status{}, err
	}
	if !exists {
		return Status{}, fmt.Errorf("recipe %d: %w", itemID, ErrNotFound)
	}

	var status Status
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.ledger.CountVotes(gctx, itemID)
		status.Votes = n
		return err
	})

	if voterID > 0 {
		g.Go(func() error {
			voted, err := s.ledger.HasVote(gctx, itemID, voterID)
			status.VotedByCaller = voted
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return Status{}, err
	}
	return status, nil
}
