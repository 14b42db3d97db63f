// Package indexer writes repository nodes into storage and the search
// index using the field scheme the read path depends on.
package indexer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/lookout/internal/extract"
	"github.com/hyperjump/lookout/internal/index"
	"github.com/hyperjump/lookout/internal/metrics"
	"github.com/hyperjump/lookout/internal/models"
	"github.com/hyperjump/lookout/internal/storage"
)

// rebuildPageSize is how many nodes Rebuild loads from storage at a time.
const rebuildPageSize = 500

// Indexer indexes nodes into storage and the search index.
type Indexer struct {
	storage   storage.Storage
	index     *index.Index
	extractor *extract.Extractor
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewIndexer creates an indexer with the given dependencies.
// extractor may be nil; when nil, media files contribute no text.
// metrics may be nil.
func NewIndexer(store storage.Storage, idx *index.Index, extractor *extract.Extractor, logger *zap.Logger, m *metrics.Metrics) *Indexer {
	return &Indexer{storage: store, index: idx, extractor: extractor, logger: logger, metrics: m}
}

// IndexNode stores the node and (re)indexes it. A missing key is assigned.
func (ix *Indexer) IndexNode(ctx context.Context, node *models.Node) error {
	if node.ID == "" {
		return fmt.Errorf("node id is required")
	}
	if node.Key == uuid.Nil {
		node.Key = uuid.New()
	}
	if err := ix.storage.UpsertNode(ctx, node); err != nil {
		return fmt.Errorf("failed to store node: %w", err)
	}
	if err := ix.index.Index(node.ID, ix.buildDocument(node)); err != nil {
		return fmt.Errorf("failed to index node: %w", err)
	}
	ix.metrics.NodeIndexed(ix.index.Name())
	if count, err := ix.index.DocCount(); err == nil {
		ix.metrics.SetIndexDocs(ix.index.Name(), count)
	}
	ix.logger.Debug("node indexed",
		zap.String("id", node.ID),
		zap.String("type", string(node.Type)),
		zap.Int("tags", len(node.Tags)))
	return nil
}

// DeleteNode removes the node from storage and the index.
func (ix *Indexer) DeleteNode(ctx context.Context, id string) error {
	if err := ix.storage.DeleteNode(ctx, id); err != nil {
		return fmt.Errorf("failed to delete node: %w", err)
	}
	if err := ix.index.Delete(id); err != nil {
		return fmt.Errorf("failed to remove node from index: %w", err)
	}
	ix.metrics.NodeRemoved(ix.index.Name())
	return nil
}

// Rebuild reindexes every stored node and returns how many were indexed.
func (ix *Indexer) Rebuild(ctx context.Context) (int, error) {
	total := 0
	for offset := 0; ; offset += rebuildPageSize {
		nodes, err := ix.storage.ListNodes(ctx, offset, rebuildPageSize)
		if err != nil {
			return total, fmt.Errorf("failed to list nodes: %w", err)
		}
		if len(nodes) == 0 {
			return total, nil
		}
		for _, node := range nodes {
			if err := ix.index.Index(node.ID, ix.buildDocument(node)); err != nil {
				return total, fmt.Errorf("failed to reindex node %s: %w", node.ID, err)
			}
			total++
		}
	}
}

// buildDocument maps a node to index fields. Every tag writes its four
// fields together: the group-scoped searchable field, the presence flag,
// the serialized all-tags entry, and the group-existence flag.
func (ix *Indexer) buildDocument(node *models.Node) map[string]any {
	doc := map[string]any{
		index.FieldKey:        node.Key.String(),
		index.FieldType:       string(node.Type),
		index.FieldName:       node.Name,
		index.FieldNameSorted: strings.ToLower(strings.TrimSpace(node.Name)),
	}
	if node.Alias != "" {
		doc[index.FieldAlias] = node.Alias
	}
	if text := ix.nodeText(node); text != "" {
		doc[index.FieldText] = text
	}
	if node.Date != nil {
		doc[index.FieldDate] = node.Date.UTC().Format(time.RFC3339)
	}
	if node.Location != nil && node.Location.Valid() {
		doc[index.FieldLocation] = node.Location.String()
		doc[index.FieldLocationPoint] = map[string]any{
			"lat": node.Location.Lat,
			"lon": node.Location.Lon,
		}
	}
	if node.Detached {
		doc[index.FieldDetached] = index.FlagValue
	}

	allTags := make([]string, 0, len(node.Tags))
	perGroup := make(map[string][]string)
	for _, tag := range node.Tags {
		if !models.ValidTagGroup(tag.Group) {
			ix.logger.Warn("skipping tag with invalid group",
				zap.String("id", node.ID), zap.String("group", tag.Group))
			continue
		}
		allTags = append(allTags, tag.Encode())
		perGroup[tag.Group] = append(perGroup[tag.Group], tag.Name)
	}
	if len(allTags) > 0 {
		doc[index.FieldHasTags] = index.FlagValue
		doc[index.FieldAllTags] = allTags
		for group, names := range perGroup {
			doc[index.TagField(group)] = names
			doc[index.TagGroupField(group)] = index.FlagValue
		}
	}
	return doc
}

// nodeText combines the node's own text with text extracted from its media
// file, when one is referenced and an extractor is available.
func (ix *Indexer) nodeText(node *models.Node) string {
	text := strings.TrimSpace(node.Text)
	if node.MediaPath == "" || ix.extractor == nil {
		return text
	}
	extracted, err := ix.extractor.Extract(node.MediaPath)
	if err != nil {
		ix.logger.Warn("media text extraction failed",
			zap.String("id", node.ID),
			zap.String("media_path", node.MediaPath),
			zap.Error(err))
		return text
	}
	extracted = strings.TrimSpace(extracted)
	if text == "" {
		return extracted
	}
	if extracted == "" {
		return text
	}
	return text + "\n" + extracted
}
