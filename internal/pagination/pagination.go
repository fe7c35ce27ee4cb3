// Package pagination turns raw page-size and cursor query values into a bounded query window.
//
// Cursors are the RFC 3339 timestamp of the last item on the previous page. A cursor that does not
// parse is treated as "no cursor": the caller gets the first page instead of an error. This is a
// deliberately forgiving choice; tightening it would change API behavior for existing clients.
package pagination

import (
	"strconv"
	"strings"
	"time"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// Window is a resolved page request. Before is nil for the first page.
type Window struct {
	Limit  int
	Before *time.Time
}

// Resolve clamps the requested limit into [1, MaxLimit], defaulting to DefaultLimit when it is
// absent or not a number, and parses the cursor.
func Resolve(requestedLimit, requestedCursor string) Window {
	limit := DefaultLimit
	if n, err := strconv.Atoi(strings.TrimSpace(requestedLimit)); err == nil {
		limit = Clamp(n, MaxLimit)
	}
	return Window{Limit: limit, Before: ParseCursor(requestedCursor)}
}

// Clamp bounds n into [1, upper].
func Clamp(n, upper int) int {
	if upper < 1 {
		upper = MaxLimit
	}
	if n < 1 {
		return 1
	}
	if n > upper {
		return upper
	}
	return n
}

// ParseCursor returns nil for an empty or unparsable cursor.
func ParseCursor(cursor string) *time.Time {
	cursor = strings.TrimSpace(cursor)
	if cursor == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, cursor)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

func FormatCursor(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
