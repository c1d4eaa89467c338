// Package audit produces and reads the append-only trail of who did what,
// to which entity, with what payload, and when. Entries are written after an
// action's primary effect has been applied and are never mutated or deleted.
package audit

import "time"

// Entry is one audit record. EntityID is empty for list/query actions that
// have no single target. Detail is the action's input, stored verbatim as
// JSON; the logger does not interpret it.
type Entry struct {
	ActorID  int64
	Action   string
	Entity   string
	EntityID string
	Detail   map[string]any
	At       time.Time
}

// LogRow is a stored audit record as returned by timeline queries.
type LogRow struct {
	ID       int64
	ActorID  int64
	Action   string
	Entity   string
	EntityID string
	Detail   map[string]any
	At       time.Time
}

// TimelineFilters narrows a timeline query. Zero values mean "no filter".
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	ActorID  int64
	Entity   string
	Action   string
	Page     int
	PageSize int
}

// PagingInfo describes the window a timeline result covers.
type PagingInfo struct {
	Page     int
	PageSize int
	HasNext  bool
	PrevPage int
	NextPage int
}

// Result bundles timeline rows with paging information.
type Result struct {
	Rows   []LogRow
	Paging PagingInfo
}
