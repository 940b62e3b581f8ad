package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emilythestrangee/recipe-votes/backend/internal/auth"
	"github.com/emilythestrangee/recipe-votes/backend/internal/config"
	"github.com/emilythestrangee/recipe-votes/backend/internal/handlers"
	"github.com/emilythestrangee/recipe-votes/backend/internal/leaderboard"
	"github.com/emilythestrangee/recipe-votes/backend/internal/votes"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubHealth map[string]string

func (s stubHealth) Health(context.Context) map[string]string { return s }

type stubVotes struct{}

func (stubVotes) Toggle(_ context.Context, _, voterID int) (votes.ToggleResult, error) {
	if voterID <= 0 {
		return votes.ToggleResult{}, votes.ErrUnauthorized
	}
	return votes.ToggleResult{Voted: true, Votes: 1}, nil
}

func (stubVotes) Status(_ context.Context, _, voterID int) (votes.Status, error) {
	return votes.Status{Votes: 1, VotedByCaller: voterID > 0}, nil
}

func (stubVotes) Author(_ context.Context, authorID int) (votes.Author, error) {
	return votes.Author{ID: authorID}, nil
}

type stubRanker struct{}

func (stubRanker) RankAuthors(context.Context, leaderboard.Window) (leaderboard.Standings, error) {
	return leaderboard.Standings{}, nil
}

func (stubRanker) TopItems(context.Context, int) ([]leaderboard.ItemStanding, error) {
	return []leaderboard.ItemStanding{}, nil
}

func (stubRanker) TopAuthors(context.Context, int) ([]leaderboard.Chef, error) {
	return []leaderboard.Chef{}, nil
}

func newTestServer(t *testing.T, health stubHealth) (*http.Server, *auth.HMACVerifier) {
	t.Helper()

	cfg := config.Default()
	cfg.JWT.Secret = "server-secret"
	verifier := auth.NewHMACVerifier(cfg.JWT.Secret)
	h := handlers.NewHandler(stubVotes{}, stubRanker{}, zap.NewNop())

	return NewServer(cfg, health, h, verifier, zap.NewNop()), verifier
}

func TestRoutes(t *testing.T) {
	srv, verifier := newTestServer(t, stubHealth{"status": "up"})
	token, err := verifier.Issue(4, "cook", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		target string
		token  string
		cookie string
		status int
		body   string
	}{
		{name: "health", method: http.MethodGet, target: "/health", status: http.StatusOK, body: `{"status":"up"}`},
		{name: "leaderboard", method: http.MethodGet, target: "/api/leaderboard?range=week", status: http.StatusOK, body: `[]`},
		{name: "top recipes", method: http.MethodGet, target: "/api/recipes/top", status: http.StatusOK, body: `[]`},
		{name: "top chefs", method: http.MethodGet, target: "/api/top-chefs?limit=4", status: http.StatusOK, body: `[]`},
		{name: "status anonymous", method: http.MethodGet, target: "/api/recipes/1/vote", status: http.StatusOK, body: `{"totalVotes":1,"votedByCaller":false}`},
		{name: "status with cookie", method: http.MethodGet, target: "/api/recipes/1/vote", cookie: token, status: http.StatusOK, body: `{"totalVotes":1,"votedByCaller":true}`},
		{name: "vote anonymous", method: http.MethodPost, target: "/api/recipes/1/vote", status: http.StatusUnauthorized, body: `{"error":"Must be logged in to vote"}`},
		{name: "vote with bearer", method: http.MethodPost, target: "/api/recipes/1/vote", token: token, status: http.StatusOK, body: `{"voted":true,"totalVotes":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "auth-token", Value: tt.cookie})
			}
			w := httptest.NewRecorder()

			srv.Handler.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestHealthDown(t *testing.T) {
	srv, _ := newTestServer(t, stubHealth{"status": "down", "error": "db down"})

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, stubHealth{"status": "up"})

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestServerUsesConfig(t *testing.T) {
	srv, _ := newTestServer(t, stubHealth{"status": "up"})

	assert.Equal(t, "0.0.0.0:8080", srv.Addr)
	assert.Equal(t, 10*time.Second, srv.ReadTimeout)
}
