package votes

import "errors"

var (
	// ErrUnauthorized means no caller identity was supplied for a mutation.
	ErrUnauthorized = errors.New("voter identity required")

	// ErrNotFound means the recipe (or author) does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned by the ledger when a concurrent toggle on the same
	// (recipe, voter) pair won the race. Service recovers from it locally and
	// never returns it to callers.
	ErrConflict = errors.New("concurrent vote on the same recipe")

	// ErrInconsistent means the recalculator was asked to update an author that
	// does not exist. Toggle checks ownership first, so this is a bug.
	ErrInconsistent = errors.New("author total out of sync with ledger")
)
