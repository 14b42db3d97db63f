package engine

import (
	"time"

	"github.com/blevesearch/bleve/v2/search"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/lookout/internal/compiler"
	"github.com/hyperjump/lookout/internal/geo"
	"github.com/hyperjump/lookout/internal/index"
	"github.com/hyperjump/lookout/internal/models"
)

// projection lists the minimal stored fields needed to build a match. The
// text field loads only when highlighting or full text was requested.
func projection(q *models.Query, plan *compiler.Plan) []string {
	fields := []string{
		index.FieldKey,
		index.FieldType,
		index.FieldAlias,
		index.FieldName,
		index.FieldDate,
		index.FieldAllTags,
		index.FieldLocation,
		index.FieldDetached,
	}
	if plan.Highlighter != nil || (q.Text != nil && q.Text.GetText) {
		fields = append(fields, index.FieldText)
	}
	return fields
}

// assemble builds one match per hit, preserving the resolved order. It
// never re-runs the query: everything comes from the hit list and the
// stored-field projection. Malformed stored fields degrade that one field
// and are logged; they never fail the match or the request.
func (e *Engine) assemble(hits search.DocumentMatchCollection, q *models.Query, plan *compiler.Plan) []*models.Match {
	getText := q.Text != nil && q.Text.GetText
	matches := make([]*models.Match, 0, len(hits))

	for _, hit := range hits {
		m := &models.Match{
			Score:    hit.Score,
			ID:       hit.ID,
			Type:     models.NodeType(fieldString(hit.Fields, index.FieldType)),
			Alias:    fieldString(hit.Fields, index.FieldAlias),
			Name:     fieldString(hit.Fields, index.FieldName),
			Detached: fieldString(hit.Fields, index.FieldDetached) == index.FlagValue,
		}

		if raw := fieldString(hit.Fields, index.FieldKey); raw != "" {
			key, err := uuid.Parse(raw)
			if err != nil {
				e.logger.Debug("skipping malformed node key",
					zap.String("id", hit.ID), zap.String("key", raw))
			} else {
				m.Key = key
			}
		}

		if raw := fieldString(hit.Fields, index.FieldDate); raw != "" {
			date, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				e.logger.Warn("could not parse stored date",
					zap.String("id", hit.ID), zap.String("date", raw))
			} else {
				m.Date = &date
			}
		}

		for _, raw := range fieldStrings(hit.Fields, index.FieldAllTags) {
			tag, err := models.DecodeTag(raw)
			if err != nil {
				e.logger.Debug("skipping malformed stored tag",
					zap.String("id", hit.ID), zap.String("tag", raw))
				continue
			}
			m.Tags = append(m.Tags, tag)
		}

		if raw := fieldString(hit.Fields, index.FieldLocation); raw != "" {
			loc, err := geo.ParseLocation(raw)
			if err != nil {
				e.logger.Warn("could not parse stored location",
					zap.String("id", hit.ID), zap.String("location", raw))
			} else {
				m.Location = &loc
				if plan.Distance != nil {
					distance := plan.Distance.To(loc)
					m.Distance = &distance
				}
			}
		}

		if text := fieldString(hit.Fields, index.FieldText); text != "" {
			if getText {
				m.Text = text
			}
			if plan.Highlighter != nil {
				m.Highlight = plan.Highlighter.Best(text)
			}
		}

		matches = append(matches, m)
	}
	return matches
}

// fieldString extracts a single stored string value; multi-valued fields
// yield their first value.
func fieldString(fields map[string]any, name string) string {
	switch v := fields[name].(type) {
	case string:
		return v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				return s
			}
		}
	}
	return ""
}

// fieldStrings extracts every stored string value of a field.
func fieldStrings(fields map[string]any, name string) []string {
	switch v := fields[name].(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
