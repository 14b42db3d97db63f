package models

import (
	"sync"
	"time"

	"github.com/hyperjump/lookout/internal/geo"
)

// SortOn selects the result ordering for a query.
type SortOn string

const (
	SortOnRelevance      SortOn = "relevance"
	SortOnName           SortOn = "name"
	SortOnDateAscending  SortOn = "date_ascending"
	SortOnDateDescending SortOn = "date_descending"
	SortOnDistance       SortOn = "distance"
)

// TextQuery searches the indexed text field.
type TextQuery struct {
	// SearchText is the text to match. Blank or whitespace-only text
	// contributes no clause (it is not an error).
	SearchText string `json:"search_text"`
	// Fuzziness is the edit-distance tolerance; 0 means exact/analyzed
	// term matching.
	Fuzziness int `json:"fuzziness,omitempty"`
	// GetText requests the full stored text on each match.
	GetText bool `json:"get_text,omitempty"`
	// GetHighlight requests a highlighted snippet on each match.
	GetHighlight bool `json:"get_highlight,omitempty"`
}

// TagQuery constrains matches by their tags.
type TagQuery struct {
	// All tags must be present.
	All []Tag `json:"all,omitempty"`
	// Any requires, for each inner group, at least one of its tags.
	Any [][]Tag `json:"any,omitempty"`
	// None tags must be absent.
	None []Tag `json:"none,omitempty"`
	// FacetOn lists tag groups to compute facet counts for; nil disables
	// faceting. The count for a returned tag is the number of results to
	// expect were that tag added to All.
	FacetOn []string `json:"facet_on,omitempty"`
}

// DateQuery is an inclusive date range; either bound may be open.
type DateQuery struct {
	After  *time.Time `json:"after,omitempty"`
	Before *time.Time `json:"before,omitempty"`
}

// NameQuery constrains matches by the normalized node name.
type NameQuery struct {
	Is         string `json:"is,omitempty"`
	StartsWith string `json:"starts_with,omitempty"`
	Contains   string `json:"contains,omitempty"`
}

// NodeQuery constrains matches by repository node attributes.
type NodeQuery struct {
	// Types are the allowed node types, eg. content, media, member.
	Types []NodeType `json:"types,omitempty"`
	// Aliases are the allowed content/media/member type aliases.
	Aliases []string `json:"aliases,omitempty"`
	// ExcludeIDs removes specific node ids from the results.
	ExcludeIDs []string `json:"exclude_ids,omitempty"`
}

// LocationQuery restricts matches to a radius around a center point.
type LocationQuery struct {
	Location *geo.Location `json:"location"`
	// MaxDistance caps the radius; when nil the service maximum applies.
	MaxDistance *geo.Distance `json:"max_distance,omitempty"`
}

// Query describes search intent declaratively. Build one, hand it to the
// engine, and do not mutate it afterwards: the compiled plan is cached on
// the query instance and mutation after compilation is undefined.
type Query struct {
	// Index names the index to search; empty selects the default index.
	Index string `json:"index,omitempty"`

	Text     *TextQuery     `json:"text,omitempty"`
	Tags     *TagQuery      `json:"tags,omitempty"`
	Date     *DateQuery     `json:"date,omitempty"`
	Name     *NameQuery     `json:"name,omitempty"`
	Node     *NodeQuery     `json:"node,omitempty"`
	Location *LocationQuery `json:"location,omitempty"`

	SortOn SortOn `json:"sort_on,omitempty"`

	mu       sync.Mutex
	compiled any
}

// Plan returns the cached compiled plan, building it with build on first
// use. Compilation happens at most once per query; concurrent callers
// observe either a fully built plan or the build error.
func (q *Query) Plan(build func() (any, error)) (any, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.compiled != nil {
		return q.compiled, nil
	}
	p, err := build()
	if err != nil {
		return nil, err
	}
	q.compiled = p
	return p, nil
}

// Equals reports structural equality of two queries, ignoring any cached
// plan. Used for caching and testing.
func (q *Query) Equals(other *Query) bool {
	if other == nil {
		return false
	}
	return q.Index == other.Index &&
		q.SortOn == other.SortOn &&
		q.Text.equals(other.Text) &&
		q.Tags.equals(other.Tags) &&
		q.Date.equals(other.Date) &&
		q.Name.equals(other.Name) &&
		q.Node.equals(other.Node) &&
		q.Location.equals(other.Location)
}

func (t *TextQuery) equals(other *TextQuery) bool {
	if t == nil || other == nil {
		return t == other
	}
	return *t == *other
}

func (t *TagQuery) equals(other *TagQuery) bool {
	if t == nil || other == nil {
		return t == other
	}
	if !tagsEqual(t.All, other.All) || !tagsEqual(t.None, other.None) {
		return false
	}
	if !stringsEqual(t.FacetOn, other.FacetOn) {
		return false
	}
	return anyGroupsEqual(t.Any, other.Any)
}

// anyGroupsEqual compares Any clauses as unordered sets of tag groups.
func anyGroupsEqual(a, b [][]Tag) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, group := range a {
		found := false
		for i, candidate := range b {
			if !used[i] && tagsEqual(group, candidate) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (d *DateQuery) equals(other *DateQuery) bool {
	if d == nil || other == nil {
		return d == other
	}
	return timesEqual(d.After, other.After) && timesEqual(d.Before, other.Before)
}

func (n *NameQuery) equals(other *NameQuery) bool {
	if n == nil || other == nil {
		return n == other
	}
	return *n == *other
}

func (n *NodeQuery) equals(other *NodeQuery) bool {
	if n == nil || other == nil {
		return n == other
	}
	if len(n.Types) != len(other.Types) {
		return false
	}
	for i := range n.Types {
		if n.Types[i] != other.Types[i] {
			return false
		}
	}
	return stringsEqual(n.Aliases, other.Aliases) && stringsEqual(n.ExcludeIDs, other.ExcludeIDs)
}

func (l *LocationQuery) equals(other *LocationQuery) bool {
	if l == nil || other == nil {
		return l == other
	}
	if (l.Location == nil) != (other.Location == nil) {
		return false
	}
	if l.Location != nil && *l.Location != *other.Location {
		return false
	}
	if (l.MaxDistance == nil) != (other.MaxDistance == nil) {
		return false
	}
	return l.MaxDistance == nil || *l.MaxDistance == *other.MaxDistance
}

func stringsEqual(a, b []string) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
