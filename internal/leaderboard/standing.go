package leaderboard

import (
	"cmp"
	"iter"
	"time"
)

// Standing is one author's figures inside a window.
type Standing struct {
	AuthorID   int    `json:"authorId"`
	Username   string `json:"username"`
	Avatar     string `json:"avatar"`
	TotalVotes int64  `json:"totalVotes"`
	ItemCount  int64  `json:"itemCount"`
}

// Standings is a ranked leaderboard, best first.
type Standings []Standing

// Compare orders standings by votes descending, then recipe count
// descending, then author id ascending.
func Compare(a, b Standing) int {
	if c := cmp.Compare(b.TotalVotes, a.TotalVotes); c != 0 {
		return c
	}
	if c := cmp.Compare(b.ItemCount, a.ItemCount); c != 0 {
		return c
	}
	return cmp.Compare(a.AuthorID, b.AuthorID)
}

// Ranked yields each standing with its 1-based position.
func (s Standings) Ranked() iter.Seq2[int, Standing] {
	return func(yield func(int, Standing) bool) {
		for i, st := range s {
			if !yield(i+1, st) {
				return
			}
		}
	}
}

// ItemStanding is a recipe's ledger-derived vote count.
type ItemStanding struct {
	ItemID     int       `json:"itemId"`
	AuthorID   int       `json:"authorId"`
	TotalVotes int64     `json:"totalVotes"`
	CreatedAt  time.Time `json:"createdAt"`
}

// LatestRecipe is the most recently created recipe of an author.
type LatestRecipe struct {
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// Chef is an all-time standing with the author's latest recipe.
type Chef struct {
	Standing
	LatestRecipe *LatestRecipe `json:"latestRecipe"`
}
