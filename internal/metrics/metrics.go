package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VoteToggles counts completed toggles by resulting state ("voted" or "unvoted").
	VoteToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_vote_toggles_total",
			Help: "Total number of completed vote toggles",
		},
		[]string{"result"},
	)

	// VoteConflicts counts toggles that lost a race on the same (recipe, voter)
	// pair and answered from the re-read ledger state.
	VoteConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipe_vote_conflicts_total",
			Help: "Total number of toggles recovered from a concurrent write on the same pair",
		},
	)

	ToggleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recipe_vote_toggle_duration_seconds",
			Help:    "Duration of vote toggles including the author recompute",
			Buckets: prometheus.DefBuckets,
		},
	)

	AggregateErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipe_vote_aggregate_errors_total",
			Help: "Total number of failed author total recomputes",
		},
	)

	LeaderboardDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leaderboard_query_duration_seconds",
			Help:    "Duration of leaderboard queries by window",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"window"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)
)
