package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hyperjump/lookout/internal/geo"
)

// Match is one ranked search hit with its decoded stored fields.
type Match struct {
	Score float64   `json:"score"`
	ID    string    `json:"id"`
	Key   uuid.UUID `json:"key"`
	Type  NodeType  `json:"type"`
	Alias string    `json:"alias,omitempty"`
	Name  string    `json:"name"`
	// Highlight is a marked-up snippet, present only when the query
	// requested one and the text field matched.
	Highlight string `json:"highlight,omitempty"`
	// Text is the full stored text, present only when requested.
	Text string     `json:"text,omitempty"`
	Tags []Tag      `json:"tags,omitempty"`
	Date *time.Time `json:"date,omitempty"`
	// Location and Distance are present only for hits carrying a stored
	// location; Distance additionally requires a location clause in the
	// query and is reported in that clause's unit.
	Location *geo.Location `json:"location,omitempty"`
	Distance *float64      `json:"distance,omitempty"`
	Detached bool          `json:"detached,omitempty"`
}

// Facet is the count of matching documents carrying a tag value, scoped to
// the filtered query.
type Facet struct {
	Tags  []Tag `json:"tags"`
	Count int   `json:"count"`
}

// Result is the outcome of a search: an error, an empty success, or a
// populated success.
type Result struct {
	Matches    []*Match `json:"matches"`
	TotalCount int64    `json:"total_count"`
	Facets     []*Facet `json:"facets,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// ErrorResult builds a terminal error result with a human-readable message.
func ErrorResult(message string) *Result {
	return &Result{Matches: []*Match{}, Error: message}
}

// EmptyResult builds a successful result with zero matches.
func EmptyResult() *Result {
	return &Result{Matches: []*Match{}}
}

// Success reports whether the result is a (possibly empty) success.
func (r *Result) Success() bool {
	return r.Error == ""
}
