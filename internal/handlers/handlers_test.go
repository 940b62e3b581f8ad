package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/emilythestrangee/recipe-votes/backend/internal/leaderboard"
	"github.com/emilythestrangee/recipe-votes/backend/internal/middleware"
	"github.com/emilythestrangee/recipe-votes/backend/internal/votes"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVotes struct {
	voted   map[int]bool // recipe -> voted by caller
	missing map[int]bool
	fail    error

	lastVoter int
}

func (f *fakeVotes) Toggle(_ context.Context, itemID, voterID int) (votes.ToggleResult, error) {
	f.lastVoter = voterID
	if voterID <= 0 {
		return votes.ToggleResult{}, votes.ErrUnauthorized
	}
	if f.fail != nil {
		return votes.ToggleResult{}, f.fail
	}
	if f.missing[itemID] {
		return votes.ToggleResult{}, fmt.Errorf("recipe %d: %w", itemID, votes.ErrNotFound)
	}
	f.voted[itemID] = !f.voted[itemID]
	var n int64
	if f.voted[itemID] {
		n = 1
	}
	return votes.ToggleResult{Voted: f.voted[itemID], Votes: n}, nil
}

func (f *fakeVotes) Status(_ context.Context, itemID, voterID int) (votes.Status, error) {
	f.lastVoter = voterID
	if f.missing[itemID] {
		return votes.Status{}, votes.ErrNotFound
	}
	return votes.Status{Votes: 5, VotedByCaller: voterID > 0 && f.voted[itemID]}, nil
}

func (f *fakeVotes) Author(_ context.Context, authorID int) (votes.Author, error) {
	if f.missing[authorID] {
		return votes.Author{}, votes.ErrNotFound
	}
	return votes.Author{ID: authorID, Username: "chef", TotalVotes: 3, RecipeCount: 2, RecipeIDs: []int{1, 2}}, nil
}

type fakeRanker struct {
	window leaderboard.Window
	limit  int
	fail   error
}

func (f *fakeRanker) RankAuthors(_ context.Context, w leaderboard.Window) (leaderboard.Standings, error) {
	f.window = w
	if f.fail != nil {
		return nil, f.fail
	}
	return leaderboard.Standings{
		{AuthorID: 2, Username: "ana", TotalVotes: 4, ItemCount: 1},
		{AuthorID: 1, Username: "bo", Avatar: "bo.png", TotalVotes: 1, ItemCount: 2},
	}, nil
}

func (f *fakeRanker) TopAuthors(_ context.Context, limit int) ([]leaderboard.Chef, error) {
	f.limit = limit
	if f.fail != nil {
		return nil, f.fail
	}
	return []leaderboard.Chef{
		{
			Standing:     leaderboard.Standing{AuthorID: 2, Username: "ana", TotalVotes: 4, ItemCount: 1},
			LatestRecipe: &leaderboard.LatestRecipe{Title: "Shakshuka", CreatedAt: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
		},
		{Standing: leaderboard.Standing{AuthorID: 1, Username: "bo", ItemCount: 1}},
	}, nil
}

func (f *fakeRanker) TopItems(_ context.Context, limit int) ([]leaderboard.ItemStanding, error) {
	f.limit = limit
	return []leaderboard.ItemStanding{
		{ItemID: 10, AuthorID: 2, TotalVotes: 4, CreatedAt: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
	}, nil
}

// withUser stands in for the auth middleware.
func withUser(id int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id > 0 {
			c.Set(middleware.UserIDKey, id)
		}
		c.Next()
	}
}

func setup(userID int) (*gin.Engine, *fakeVotes, *fakeRanker) {
	fv := &fakeVotes{voted: map[int]bool{}, missing: map[int]bool{404: true}}
	fr := &fakeRanker{}
	h := NewHandler(fv, fr, zap.NewNop())

	r := gin.New()
	r.Use(withUser(userID))
	r.GET("/api/recipes/top", h.Leaderboard.GetTopRecipes)
	r.GET("/api/top-chefs", h.Leaderboard.GetTopChefs)
	r.GET("/api/recipes/:id/vote", h.Vote.GetVoteStatus)
	r.POST("/api/recipes/:id/vote", h.Vote.ToggleVote)
	r.GET("/api/leaderboard", h.Leaderboard.GetLeaderboard)
	r.GET("/api/users/:id", h.User.GetUserProfile)
	return r, fv, fr
}

func do(r *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestToggleVote(t *testing.T) {
	r, fv, _ := setup(7)

	w := do(r, http.MethodPost, "/api/recipes/1/vote")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"voted":true,"totalVotes":1}`, w.Body.String())
	assert.Equal(t, 7, fv.lastVoter)

	w = do(r, http.MethodPost, "/api/recipes/1/vote")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"voted":false,"totalVotes":0}`, w.Body.String())
}

func TestToggleVoteErrors(t *testing.T) {
	tests := []struct {
		name   string
		userID int
		target string
		fail   error
		status int
		body   string
	}{
		{
			name:   "anonymous",
			target: "/api/recipes/1/vote",
			status: http.StatusUnauthorized,
			body:   `{"error":"Must be logged in to vote"}`,
		},
		{
			name:   "unknown recipe",
			userID: 7,
			target: "/api/recipes/404/vote",
			status: http.StatusNotFound,
			body:   `{"error":"Recipe not found"}`,
		},
		{
			name:   "non numeric id",
			userID: 7,
			target: "/api/recipes/abc/vote",
			status: http.StatusNotFound,
			body:   `{"error":"Recipe not found"}`,
		},
		{
			name:   "storage failure",
			userID: 7,
			target: "/api/recipes/1/vote",
			fail:   errors.New("connection reset"),
			status: http.StatusInternalServerError,
			body:   `{"error":"Internal server error"}`,
		},
		{
			name:   "inconsistent aggregate",
			userID: 7,
			target: "/api/recipes/1/vote",
			fail:   fmt.Errorf("author 3: %w", votes.ErrInconsistent),
			status: http.StatusInternalServerError,
			body:   `{"error":"Internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, fv, _ := setup(tt.userID)
			fv.fail = tt.fail

			w := do(r, http.MethodPost, tt.target)

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestGetVoteStatus(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		r, fv, _ := setup(0)
		fv.voted[1] = true

		w := do(r, http.MethodGet, "/api/recipes/1/vote")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"totalVotes":5,"votedByCaller":false}`, w.Body.String())
		assert.Equal(t, 0, fv.lastVoter)
	})

	t.Run("logged in", func(t *testing.T) {
		r, fv, _ := setup(7)
		fv.voted[1] = true

		w := do(r, http.MethodGet, "/api/recipes/1/vote")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"totalVotes":5,"votedByCaller":true}`, w.Body.String())
	})

	t.Run("unknown recipe", func(t *testing.T) {
		r, _, _ := setup(0)

		w := do(r, http.MethodGet, "/api/recipes/404/vote")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGetLeaderboard(t *testing.T) {
	tests := []struct {
		query  string
		status int
		window leaderboard.Window
	}{
		{query: "", status: http.StatusOK, window: leaderboard.WindowAll},
		{query: "?range=all", status: http.StatusOK, window: leaderboard.WindowAll},
		{query: "?range=month", status: http.StatusOK, window: leaderboard.WindowMonth},
		{query: "?range=week", status: http.StatusOK, window: leaderboard.WindowWeek},
		{query: "?range=last7days", status: http.StatusOK, window: leaderboard.WindowWeek},
		{query: "?range=year", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run("range"+tt.query, func(t *testing.T) {
			r, _, fr := setup(0)

			w := do(r, http.MethodGet, "/api/leaderboard"+tt.query)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.window, fr.window)
				assert.JSONEq(t,
					`[{"authorId":2,"username":"ana","avatar":"","totalVotes":4,"itemCount":1},{"authorId":1,"username":"bo","avatar":"bo.png","totalVotes":1,"itemCount":2}]`,
					w.Body.String())
			}
		})
	}
}

func TestGetLeaderboardFailure(t *testing.T) {
	r, _, fr := setup(0)
	fr.fail = context.DeadlineExceeded

	w := do(r, http.MethodGet, "/api/leaderboard")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetTopRecipes(t *testing.T) {
	r, _, fr := setup(0)

	w := do(r, http.MethodGet, "/api/recipes/top?limit=3")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, fr.limit)
	assert.JSONEq(t,
		`[{"itemId":10,"authorId":2,"totalVotes":4,"createdAt":"2025-01-02T00:00:00Z"}]`,
		w.Body.String())

	w = do(r, http.MethodGet, "/api/recipes/top")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, fr.limit)

	w = do(r, http.MethodGet, "/api/recipes/top?limit=-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUserProfile(t *testing.T) {
	r, _, _ := setup(0)

	w := do(r, http.MethodGet, "/api/users/5")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"id":5,"username":"chef","avatar":"","totalVotes":3,"recipeCount":2,"recipeIds":[1,2]}`,
		w.Body.String())

	w = do(r, http.MethodGet, "/api/users/404")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"User not found"}`, w.Body.String())
}

func TestGetTopChefs(t *testing.T) {
	r, _, fr := setup(0)

	w := do(r, http.MethodGet, "/api/top-chefs?limit=4")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4, fr.limit)
	assert.JSONEq(t, `[
		{"authorId":2,"username":"ana","avatar":"","totalVotes":4,"itemCount":1,
		 "latestRecipe":{"title":"Shakshuka","createdAt":"2025-01-02T00:00:00Z"}},
		{"authorId":1,"username":"bo","avatar":"","totalVotes":0,"itemCount":1,"latestRecipe":null}
	]`, w.Body.String())

	w = do(r, http.MethodGet, "/api/top-chefs?limit=0")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, fr.limit)

	w = do(r, http.MethodGet, "/api/top-chefs?limit=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	fr.fail = context.DeadlineExceeded
	w = do(r, http.MethodGet, "/api/top-chefs")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}
