package leaderboard

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidWindow is returned for an unknown window name.
var ErrInvalidWindow = errors.New("invalid window")

// Window scopes a ranking by recipe creation time.
type Window string

const (
	WindowAll   Window = "all"
	WindowMonth Window = "month"
	WindowWeek  Window = "week"
)

// Windows lists the accepted windows in display order.
var Windows = []Window{WindowAll, WindowMonth, WindowWeek}

// ParseWindow accepts the query names (all, month, week), their long forms
// (last30days, last7days) and the empty string, which means all.
func ParseWindow(s string) (Window, error) {
	switch s {
	case "", "all":
		return WindowAll, nil
	case "month", "last30days":
		return WindowMonth, nil
	case "week", "last7days":
		return WindowWeek, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidWindow, s)
}

// Duration is the window length; zero for all.
func (w Window) Duration() time.Duration {
	switch w {
	case WindowMonth:
		return 30 * 24 * time.Hour
	case WindowWeek:
		return 7 * 24 * time.Hour
	}
	return 0
}

// Since returns the earliest creation time inside the window. ok is false for
// WindowAll, which has no lower bound.
func (w Window) Since(now time.Time) (since time.Time, ok bool) {
	d := w.Duration()
	if d == 0 {
		return time.Time{}, false
	}
	return now.Add(-d), true
}
