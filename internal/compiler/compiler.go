// Package compiler translates a query model into an executable search plan:
// an index-native boolean query, an optional non-scoring filter, a sort
// order, and the highlight/distance helpers bound to the query's clauses.
package compiler

import (
	"fmt"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/lookout/internal/geo"
	"github.com/hyperjump/lookout/internal/index"
	"github.com/hyperjump/lookout/internal/models"
)

// ParseError reports a query that could not be compiled. It is returned to
// the caller as an error result, never propagated as a panic.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string {
	return e.Message
}

func parseErrorf(format string, args ...any) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...)}
}

// Options carries the service-wide limits compilation depends on.
type Options struct {
	// MaxDistanceKm caps the radius of any location clause.
	MaxDistanceKm float64
}

// Plan is a compiled query: immutable once built, safe for concurrent use.
type Plan struct {
	// Query is the scored boolean predicate.
	Query query.Query
	// Filter is the non-scoring geospatial restriction; nil when the query
	// has no location clause.
	Filter query.Query
	// Sort is the resolved sort order; nil means descending relevance.
	Sort search.SortOrder
	// Highlighter builds snippets from raw text; nil unless the text
	// clause requested one.
	Highlighter *Highlighter
	// Distance computes per-hit distances; nil unless the query has a
	// location clause.
	Distance *geo.DistanceCalculator
}

// Compile validates and translates a query model. Clauses translate in a
// fixed order and AND together; a query contributing no clauses at all is a
// *ParseError, distinct from a compiled query that happens to match nothing.
func Compile(q *models.Query, opts Options) (*Plan, error) {
	var musts, mustNots []query.Query

	// text
	searchText := ""
	if q.Text != nil {
		searchText = strings.TrimSpace(q.Text.SearchText)
	}
	if searchText != "" {
		if q.Text.Fuzziness < 0 {
			return nil, parseErrorf("fuzziness must not be negative")
		}
		mq := bleve.NewMatchQuery(searchText)
		mq.SetField(index.FieldText)
		if q.Text.Fuzziness > 0 {
			mq.SetFuzziness(q.Text.Fuzziness)
		}
		musts = append(musts, mq)
	}

	// node types and aliases
	if q.Node != nil {
		if tq := termDisjunction(index.FieldType, nodeTypeStrings(q.Node.Types)); tq != nil {
			musts = append(musts, tq)
		}
		if aq := termDisjunction(index.FieldAlias, q.Node.Aliases); aq != nil {
			musts = append(musts, aq)
		}
		// node exclusions: NOT of an OR of the excluded ids
		if ids := distinctNonBlank(q.Node.ExcludeIDs); len(ids) > 0 {
			mustNots = append(mustNots, bleve.NewDocIDQuery(ids))
		}
	}

	// name
	if q.Name != nil {
		nq, err := compileName(q.Name)
		if err != nil {
			return nil, err
		}
		if nq != nil {
			musts = append(musts, nq)
		}
	}

	// date range: contributes only when at least one bound is present;
	// zero times leave that end of the range open
	if q.Date != nil && (q.Date.After != nil || q.Date.Before != nil) {
		var start, end time.Time
		if q.Date.After != nil {
			start = *q.Date.After
		}
		if q.Date.Before != nil {
			end = *q.Date.Before
		}
		inclusive := true
		dq := bleve.NewDateRangeInclusiveQuery(start, end, &inclusive, &inclusive)
		dq.SetField(index.FieldDate)
		musts = append(musts, dq)
	}

	// tags
	if q.Tags != nil {
		tagMusts, tagMustNots, err := compileTags(q.Tags)
		if err != nil {
			return nil, err
		}
		musts = append(musts, tagMusts...)
		mustNots = append(mustNots, tagMustNots...)
	}

	plan := &Plan{}

	// location: a tier filter rather than a scored term, plus the distance
	// calculator the filter, sort, and per-match distances all share
	if q.Location != nil && q.Location.Location != nil {
		if err := compileLocation(q, opts, plan); err != nil {
			return nil, err
		}
	}

	clauses := len(musts) + len(mustNots)
	if plan.Filter != nil {
		clauses++
	}
	if clauses == 0 {
		return nil, &ParseError{Message: "no query clauses supplied"}
	}

	plan.Query = combine(musts, mustNots)

	// sort resolution; a distance sort is already in place when valid, and
	// SortOnDistance without a location clause falls back to relevance
	if plan.Sort == nil {
		switch q.SortOn {
		case models.SortOnName:
			plan.Sort = search.SortOrder{&search.SortField{Field: index.FieldNameSorted}}
		case models.SortOnDateAscending:
			plan.Sort = search.SortOrder{&search.SortField{Field: index.FieldDate}}
		case models.SortOnDateDescending:
			plan.Sort = search.SortOrder{&search.SortField{Field: index.FieldDate, Desc: true}}
		}
	}

	if q.Text != nil && q.Text.GetHighlight && searchText != "" {
		h, err := NewHighlighter(searchText)
		if err != nil {
			return nil, parseErrorf("could not build highlighter: %v", err)
		}
		plan.Highlighter = h
	}

	return plan, nil
}

// combine ANDs the positive clauses and attaches exclusions. A query with
// only exclusions matches everything except the excluded documents.
func combine(musts, mustNots []query.Query) query.Query {
	if len(mustNots) == 0 && len(musts) == 1 {
		return musts[0]
	}
	bq := bleve.NewBooleanQuery()
	if len(musts) == 0 {
		bq.AddMust(bleve.NewMatchAllQuery())
	} else {
		bq.AddMust(musts...)
	}
	if len(mustNots) > 0 {
		bq.AddMustNot(mustNots...)
	}
	return bq
}

func compileName(n *models.NameQuery) (query.Query, error) {
	switch {
	case strings.TrimSpace(n.Is) != "":
		tq := bleve.NewTermQuery(strings.ToLower(strings.TrimSpace(n.Is)))
		tq.SetField(index.FieldNameSorted)
		return tq, nil
	case strings.TrimSpace(n.StartsWith) != "":
		pq := bleve.NewPrefixQuery(strings.ToLower(strings.TrimSpace(n.StartsWith)))
		pq.SetField(index.FieldNameSorted)
		return pq, nil
	case strings.TrimSpace(n.Contains) != "":
		term := strings.ToLower(strings.TrimSpace(n.Contains))
		if strings.ContainsAny(term, "*?") {
			return nil, parseErrorf("name contains clause must not use wildcards")
		}
		wq := bleve.NewWildcardQuery("*" + term + "*")
		wq.SetField(index.FieldNameSorted)
		return wq, nil
	}
	return nil, nil
}

func compileTags(t *models.TagQuery) (musts, mustNots []query.Query, err error) {
	for _, tag := range t.All {
		tq, err := tagTerm(tag)
		if err != nil {
			return nil, nil, err
		}
		musts = append(musts, tq)
	}
	// at least one tag from each inner group: AND of ORs
	for _, group := range t.Any {
		if len(group) == 0 {
			continue
		}
		ors := make([]query.Query, 0, len(group))
		for _, tag := range group {
			tq, err := tagTerm(tag)
			if err != nil {
				return nil, nil, err
			}
			ors = append(ors, tq)
		}
		musts = append(musts, bleve.NewDisjunctionQuery(ors...))
	}
	for _, tag := range t.None {
		tq, err := tagTerm(tag)
		if err != nil {
			return nil, nil, err
		}
		mustNots = append(mustNots, tq)
	}
	return musts, mustNots, nil
}

func tagTerm(tag models.Tag) (query.Query, error) {
	if !models.ValidTagGroup(tag.Group) {
		return nil, parseErrorf("invalid tag group %q", tag.Group)
	}
	tq := bleve.NewTermQuery(tag.Name)
	tq.SetField(index.TagField(tag.Group))
	return tq, nil
}

func compileLocation(q *models.Query, opts Options, plan *Plan) error {
	loc := *q.Location.Location
	if !loc.Valid() {
		return parseErrorf("location %s out of range", loc)
	}

	radiusKm := opts.MaxDistanceKm
	unit := geo.Kilometres
	if md := q.Location.MaxDistance; md != nil {
		if md.Value <= 0 {
			return parseErrorf("max distance must be positive")
		}
		if km := md.Km(); km < radiusKm {
			radiusKm = km
		}
		unit = md.Unit
	}

	gq := bleve.NewGeoDistanceQuery(loc.Lon, loc.Lat, fmt.Sprintf("%.6fkm", radiusKm))
	gq.SetField(index.FieldLocationPoint)
	plan.Filter = gq

	plan.Distance = &geo.DistanceCalculator{Center: loc, Unit: unit}

	if q.SortOn == models.SortOnDistance {
		sort, err := search.NewSortGeoDistance(index.FieldLocationPoint, string(unit), loc.Lon, loc.Lat, false)
		if err != nil {
			return parseErrorf("could not build distance sort: %v", err)
		}
		plan.Sort = search.SortOrder{sort}
	}
	return nil
}

// termDisjunction ORs exact terms on a field, dropping blank values; it
// returns nil when nothing remains.
func termDisjunction(field string, values []string) query.Query {
	kept := distinctNonBlank(values)
	if len(kept) == 0 {
		return nil
	}
	ors := make([]query.Query, 0, len(kept))
	for _, v := range kept {
		tq := bleve.NewTermQuery(v)
		tq.SetField(field)
		ors = append(ors, tq)
	}
	if len(ors) == 1 {
		return ors[0]
	}
	return bleve.NewDisjunctionQuery(ors...)
}

func nodeTypeStrings(types []models.NodeType) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}

func distinctNonBlank(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
