// Package engine executes compiled query plans against an index and
// assembles typed results.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blevesearch/bleve/v2"
	"go.uber.org/zap"

	"github.com/hyperjump/lookout/internal/compiler"
	"github.com/hyperjump/lookout/internal/config"
	"github.com/hyperjump/lookout/internal/index"
	"github.com/hyperjump/lookout/internal/metrics"
	"github.com/hyperjump/lookout/internal/models"
)

// Engine runs searches. It is stateless and re-entrant per call; the only
// mutation during a search is the query's own compiled-plan cache.
type Engine struct {
	indexes *index.Registry
	cfg     *config.SearchConfig
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewEngine creates an engine over the given index registry. metrics may be
// nil.
func NewEngine(indexes *index.Registry, cfg *config.SearchConfig, logger *zap.Logger, m *metrics.Metrics) *Engine {
	return &Engine{indexes: indexes, cfg: cfg, logger: logger, metrics: m}
}

// Search compiles the query if needed, runs it, and assembles the result.
// Failures come back as error results with a message; they never panic and
// never abort the calling process.
func (e *Engine) Search(ctx context.Context, q *models.Query) *models.Result {
	started := time.Now()
	res := e.search(ctx, q)
	name := ""
	if q != nil {
		name = q.Index
	}
	status := metrics.StatusOK
	if res.Error != "" {
		status = metrics.StatusError
	}
	e.metrics.ObserveSearch(name, status, len(res.Matches), time.Since(started))
	return res
}

func (e *Engine) search(ctx context.Context, q *models.Query) *models.Result {
	if q == nil {
		return models.ErrorResult("query was null")
	}

	idx, err := e.indexes.Get(q.Index)
	if err != nil {
		return models.ErrorResult(err.Error())
	}

	planned, err := q.Plan(func() (any, error) {
		return compiler.Compile(q, compiler.Options{MaxDistanceKm: e.cfg.MaxDistanceKm})
	})
	if err != nil {
		var parseErr *compiler.ParseError
		if errors.As(err, &parseErr) {
			return models.ErrorResult(parseErr.Message)
		}
		return models.ErrorResult(err.Error())
	}
	plan, ok := planned.(*compiler.Plan)
	if !ok {
		return models.ErrorResult("query carries a foreign compiled plan")
	}

	// the filter joins the predicate as a conjunct so the capped search,
	// the total count, and facet aggregation all see the same document set
	effective := plan.Query
	if plan.Filter != nil {
		effective = bleve.NewConjunctionQuery(plan.Query, plan.Filter)
	}

	req := bleve.NewSearchRequest(effective)
	req.Size = e.cfg.MaxResults
	req.Fields = projection(q, plan)
	if plan.Sort != nil {
		req.SortByCustom(plan.Sort)
	}

	res, err := idx.Search(ctx, req)
	if err != nil {
		e.logger.Warn("search execution failed",
			zap.String("index", idx.Name()),
			zap.Error(err))
		return models.ErrorResult(fmt.Sprintf("search failed: %v", err))
	}

	if res.Total == 0 {
		return models.EmptyResult()
	}

	var facets []*models.Facet
	if q.Tags != nil && q.Tags.FacetOn != nil {
		facets = e.aggregateFacets(ctx, idx, q.Tags.FacetOn, effective)
	}

	return &models.Result{
		Matches:    e.assemble(res.Hits, q, plan),
		TotalCount: int64(res.Total),
		Facets:     facets,
	}
}
