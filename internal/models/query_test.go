package models

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/lookout/internal/geo"
)

func TestQueryPlanBuildsOnce(t *testing.T) {
	q := &Query{Text: &TextQuery{SearchText: "beach"}}
	builds := 0
	build := func() (any, error) {
		builds++
		return "plan", nil
	}
	for i := 0; i < 3; i++ {
		got, err := q.Plan(build)
		if err != nil {
			t.Fatal(err)
		}
		if got != "plan" {
			t.Fatalf("Plan() = %v", got)
		}
	}
	if builds != 1 {
		t.Errorf("build called %d times, want 1", builds)
	}
}

func TestQueryPlanRetriesAfterError(t *testing.T) {
	q := &Query{}
	wantErr := errors.New("boom")
	if _, err := q.Plan(func() (any, error) { return nil, wantErr }); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	// a failed build caches nothing
	got, err := q.Plan(func() (any, error) { return "plan", nil })
	if err != nil || got != "plan" {
		t.Fatalf("second Plan() = %v, %v", got, err)
	}
}

func TestQueryPlanConcurrent(t *testing.T) {
	q := &Query{}
	var builds int
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := q.Plan(func() (any, error) {
				builds++ // under q's lock
				return "plan", nil
			})
			if err != nil || got != "plan" {
				t.Errorf("Plan() = %v, %v", got, err)
			}
		}()
	}
	wg.Wait()
	if builds != 1 {
		t.Errorf("build called %d times, want 1", builds)
	}
}

func TestQueryEquals(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	base := func() *Query {
		return &Query{
			Index: "products",
			Text:  &TextQuery{SearchText: "beach", Fuzziness: 1},
			Tags: &TagQuery{
				All: []Tag{{Group: "color", Name: "red"}},
				Any: [][]Tag{
					{{Group: "size", Name: "s"}},
					{{Group: "size", Name: "l"}, {Group: "size", Name: "xl"}},
				},
				FacetOn: []string{"color"},
			},
			Date:     &DateQuery{After: &date},
			Name:     &NameQuery{StartsWith: "Annual"},
			Node:     &NodeQuery{Types: []NodeType{NodeTypeContent}},
			Location: &LocationQuery{Location: &geo.Location{Lat: 55, Lon: 12}},
			SortOn:   SortOnDistance,
		}
	}

	if !base().Equals(base()) {
		t.Error("identical queries should be equal")
	}

	// Any groups compare as unordered sets.
	reordered := base()
	reordered.Tags.Any[0], reordered.Tags.Any[1] = reordered.Tags.Any[1], reordered.Tags.Any[0]
	if !base().Equals(reordered) {
		t.Error("Any group order should not affect equality")
	}

	mutations := map[string]func(*Query){
		"index":     func(q *Query) { q.Index = "other" },
		"text":      func(q *Query) { q.Text.SearchText = "harbor" },
		"fuzziness": func(q *Query) { q.Text.Fuzziness = 2 },
		"tags all":  func(q *Query) { q.Tags.All[0].Name = "blue" },
		"tags any":  func(q *Query) { q.Tags.Any = q.Tags.Any[:1] },
		"facets":    func(q *Query) { q.Tags.FacetOn = nil },
		"date":      func(q *Query) { q.Date.After = nil },
		"name":      func(q *Query) { q.Name.StartsWith = "Quarterly" },
		"node":      func(q *Query) { q.Node.Types = append(q.Node.Types, NodeTypeMedia) },
		"location":  func(q *Query) { q.Location.Location.Lat = 56 },
		"sort":      func(q *Query) { q.SortOn = SortOnName },
		"nil text":  func(q *Query) { q.Text = nil },
	}
	for name, mutate := range mutations {
		q := base()
		mutate(q)
		if base().Equals(q) {
			t.Errorf("%s: mutated query should not be equal", name)
		}
	}

	if base().Equals(nil) {
		t.Error("query should not equal nil")
	}
}
