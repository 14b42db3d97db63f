package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hyperjump/lookout/internal/models"
)

// Back-office tray icons per node type. Unknown types get no icon.
const (
	iconContent = "icon-selection-traycontent"
	iconMedia   = "icon-selection-traymedia"
	iconMember  = "icon-selection-traymember"
)

const (
	defaultMatchesTake = 20
	maxMatchesTake     = 100
)

// apiMatch is the flattened match shape the back-office lazy loader reads.
type apiMatch struct {
	Score      float64   `json:"score"`
	ID         string    `json:"id"`
	Key        uuid.UUID `json:"key"`
	Name       string    `json:"name"`
	Icon       string    `json:"icon"`
	IsDetached bool      `json:"isDetached"`
}

type matchesResult struct {
	Matches        []apiMatch `json:"matches"`
	TotalItemCount int64      `json:"totalItemCount"`
	MoreItems      bool       `json:"moreItems"`
}

// handleMatches serves the lazy-loading match list for one index. Filters
// come from query parameters; paging is skip/take over the full result.
func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	indexName := chi.URLParam(r, "index")
	params := r.URL.Query()

	query := &models.Query{Index: indexName, SortOn: models.SortOn(params.Get("sort"))}
	if text := strings.TrimSpace(params.Get("text")); text != "" {
		query.Text = &models.TextQuery{SearchText: text}
	}
	if nodeType := params.Get("type"); nodeType != "" {
		query.Node = &models.NodeQuery{Types: []models.NodeType{models.NodeType(nodeType)}}
	}
	if alias := params.Get("alias"); alias != "" {
		if query.Node == nil {
			query.Node = &models.NodeQuery{}
		}
		query.Node.Aliases = []string{alias}
	}
	if rawTags := params.Get("tags"); rawTags != "" {
		all, err := parseTagList(rawTags)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		query.Tags = &models.TagQuery{All: all}
	}

	// No filters means browse: match every node of a known type.
	if query.Text == nil && query.Node == nil && query.Tags == nil {
		query.Node = &models.NodeQuery{Types: models.NodeTypes()}
	}

	skip := intParam(params.Get("skip"), 0)
	take := intParam(params.Get("take"), defaultMatchesTake)
	if skip < 0 {
		skip = 0
	}
	if take <= 0 {
		take = defaultMatchesTake
	}
	if take > maxMatchesTake {
		take = maxMatchesTake
	}

	result := s.engine.Search(r.Context(), query)
	if result.Error != "" {
		s.respondError(w, http.StatusBadRequest, result.Error)
		return
	}

	page := pageMatches(result.Matches, skip, take)
	out := matchesResult{
		Matches:        make([]apiMatch, 0, len(page)),
		TotalItemCount: result.TotalCount,
		MoreItems:      int64(skip+take) < int64(len(result.Matches)),
	}
	for _, m := range page {
		out.Matches = append(out.Matches, apiMatch{
			Score:      m.Score,
			ID:         m.ID,
			Key:        m.Key,
			Name:       m.Name,
			Icon:       nodeIcon(m.Type),
			IsDetached: m.Detached,
		})
	}
	s.respondJSON(w, http.StatusOK, out)
}

func nodeIcon(t models.NodeType) string {
	switch t {
	case models.NodeTypeContent:
		return iconContent
	case models.NodeTypeMedia:
		return iconMedia
	case models.NodeTypeMember:
		return iconMember
	}
	return ""
}

func pageMatches(matches []*models.Match, skip, take int) []*models.Match {
	if skip >= len(matches) {
		return nil
	}
	end := skip + take
	if end > len(matches) {
		end = len(matches)
	}
	return matches[skip:end]
}

func parseTagList(raw string) ([]models.Tag, error) {
	parts := strings.Split(raw, ",")
	tags := make([]models.Tag, 0, len(parts))
	for _, part := range parts {
		tag, err := models.DecodeTag(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
