// Package index manages Bleve indexes: mapping, lifecycle, and lookup of
// named indexes (the searching context used by the engine).
package index

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// TextAnalyzer names the analyzer applied to the text field at write time.
// The highlighter must tokenize with the same analyzer at read time.
const TextAnalyzer = standard.Name

// Index wraps a Bleve index opened with the lookout field mapping.
type Index struct {
	name  string
	bleve bleve.Index
}

// buildMapping defines the field mapping. The default analyzer is keyword
// so dynamically named fields (tag_<group>, flags, aliases) index their
// values as single exact terms; only text and name are analyzed.
func buildMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = keyword.Name

	doc := bleve.NewDocumentMapping()

	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	doc.AddFieldMappingsAt(FieldText, text)

	name := bleve.NewTextFieldMapping()
	name.Analyzer = standard.Name
	doc.AddFieldMappingsAt(FieldName, name)

	doc.AddFieldMappingsAt(FieldNameSorted, bleve.NewKeywordFieldMapping())
	doc.AddFieldMappingsAt(FieldKey, bleve.NewKeywordFieldMapping())
	doc.AddFieldMappingsAt(FieldType, bleve.NewKeywordFieldMapping())
	doc.AddFieldMappingsAt(FieldAlias, bleve.NewKeywordFieldMapping())
	doc.AddFieldMappingsAt(FieldLocation, bleve.NewKeywordFieldMapping())
	doc.AddFieldMappingsAt(FieldDetached, bleve.NewKeywordFieldMapping())
	doc.AddFieldMappingsAt(FieldAllTags, bleve.NewKeywordFieldMapping())

	date := bleve.NewDateTimeFieldMapping()
	doc.AddFieldMappingsAt(FieldDate, date)

	point := bleve.NewGeoPointFieldMapping()
	point.Store = false
	doc.AddFieldMappingsAt(FieldLocationPoint, point)

	im.DefaultMapping = doc
	return im
}

// Open opens the index at path, creating it with the lookout mapping when
// absent. Changing the mapping in code requires removing the index
// directory to force a rebuild.
func Open(name, path string) (*Index, error) {
	if _, err := os.Stat(path); err == nil {
		idx, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open index %q: %w", name, openErr)
		}
		return &Index{name: name, bleve: idx}, nil
	}
	idx, err := bleve.New(path, buildMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index %q: %w", name, err)
	}
	return &Index{name: name, bleve: idx}, nil
}

// OpenMemOnly opens a transient in-memory index. Used by tests.
func OpenMemOnly(name string) (*Index, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory index %q: %w", name, err)
	}
	return &Index{name: name, bleve: idx}, nil
}

// Name returns the registry name of the index.
func (i *Index) Name() string {
	return i.name
}

// Index writes a document built by the indexer.
func (i *Index) Index(id string, doc map[string]any) error {
	return i.bleve.Index(id, doc)
}

// Delete removes a document.
func (i *Index) Delete(id string) error {
	return i.bleve.Delete(id)
}

// Search runs a search request against the index.
func (i *Index) Search(ctx context.Context, req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	return i.bleve.SearchInContext(ctx, req)
}

// DocCount returns the number of indexed documents.
func (i *Index) DocCount() (uint64, error) {
	return i.bleve.DocCount()
}

// Close releases the underlying index.
func (i *Index) Close() error {
	return i.bleve.Close()
}
