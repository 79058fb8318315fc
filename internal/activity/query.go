// Package activity stores the per-entity activity log of an editor session:
// every recorded domain event becomes one entry for each node, record or
// legend it touches.
package activity

import (
	"slices"
	"time"
)

// Entry severities, least severe first.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

var severityOrder = []string{SeverityInfo, SeverityWarning, SeverityError}

// AtLeast reports whether severity is min or worse. Unknown severities rank
// as info.
func AtLeast(severity, min string) bool {
	return max(slices.Index(severityOrder, severity), 0) >= max(slices.Index(severityOrder, min), 0)
}

// QueryOptions controls filtering and pagination for entity activity queries.
type QueryOptions struct {
	Since       *time.Time
	Until       *time.Time
	Categories  []string
	MinSeverity string // default: "info"
	Limit       int    // default: 100, max: 500
	Cursor      string // occurred_at of the last entry of the previous page
}

// SearchOptions controls filtering for activity summary search.
type SearchOptions struct {
	EntityType string
	Since      *time.Time
	Categories []string
	Limit      int // default: 20
}

// DefaultQueryOptions returns QueryOptions covering the last 30 days.
func DefaultQueryOptions() QueryOptions {
	monthAgo := time.Now().AddDate(0, 0, -30)
	return QueryOptions{
		Since:       &monthAgo,
		MinSeverity: SeverityInfo,
		Limit:       100,
	}
}

func (o QueryOptions) limit() int {
	if o.Limit <= 0 || o.Limit > 500 {
		return 100
	}
	return o.Limit
}

func (o SearchOptions) limit() int {
	if o.Limit <= 0 {
		return 20
	}
	return o.Limit
}

// cursorTime parses a page cursor. An unparsable cursor is ignored.
func cursorTime(cursor string) (time.Time, bool) {
	if cursor == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, cursor)
	return t, err == nil
}

func nextCursor(t time.Time) string { return t.Format(time.RFC3339Nano) }
