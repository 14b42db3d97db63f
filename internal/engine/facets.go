package engine

import (
	"context"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"

	"github.com/hyperjump/lookout/internal/index"
	"github.com/hyperjump/lookout/internal/models"
)

// aggregateFacets counts matching documents per distinct tag value for each
// requested group. The base query already includes the compiled filter, so
// facets respect geospatial restriction. Groups aggregate concurrently;
// each aggregation is read-only and independent.
func (e *Engine) aggregateFacets(ctx context.Context, idx *index.Index, groups []string, base query.Query) []*models.Facet {
	perGroup := make([][]*models.Facet, len(groups))
	var wg sync.WaitGroup
	for i, group := range groups {
		wg.Add(1)
		go func(i int, group string) {
			defer wg.Done()
			perGroup[i] = e.facetGroup(ctx, idx, group, base)
		}(i, group)
	}
	wg.Wait()

	facets := make([]*models.Facet, 0)
	for _, fs := range perGroup {
		facets = append(facets, fs...)
	}
	return facets
}

func (e *Engine) facetGroup(ctx context.Context, idx *index.Index, group string, base query.Query) []*models.Facet {
	req := bleve.NewSearchRequest(base)
	req.Size = 0
	req.AddFacet(group, bleve.NewFacetRequest(index.TagField(group), e.cfg.MaxFacetsPerGroup))

	res, err := idx.Search(ctx, req)
	if err != nil {
		e.logger.Warn("facet aggregation failed",
			zap.String("index", idx.Name()),
			zap.String("group", group),
			zap.Error(err))
		return nil
	}

	result, ok := res.Facets[group]
	if !ok || result.Terms == nil {
		return nil
	}

	facets := make([]*models.Facet, 0, len(result.Terms.Terms()))
	for _, term := range result.Terms.Terms() {
		facets = append(facets, &models.Facet{
			Tags:  []models.Tag{{Group: group, Name: term.Term}},
			Count: term.Count,
		})
	}
	return facets
}
