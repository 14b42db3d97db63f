package compiler

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/registry"

	"github.com/hyperjump/lookout/internal/index"
)

const (
	highlightPreTag   = "<strong>"
	highlightPostTag  = "</strong>"
	highlightEllipsis = "..."
	fragmentSize      = 150
)

type textAnalyzer interface {
	Analyze([]byte) analysis.TokenStream
}

// Highlighter builds a single best-scoring marked-up fragment from raw
// stored text. It tokenizes with the same analyzer used at index time, so a
// snippet highlights exactly what the text clause matched.
type Highlighter struct {
	analyzer textAnalyzer
	terms    map[string]struct{}
}

// NewHighlighter builds a highlighter for the given search text.
func NewHighlighter(searchText string) (*Highlighter, error) {
	cache := registry.NewCache()
	analyzer, err := cache.AnalyzerNamed(index.TextAnalyzer)
	if err != nil {
		return nil, fmt.Errorf("analyzer %q: %w", index.TextAnalyzer, err)
	}
	terms := make(map[string]struct{})
	for _, token := range analyzer.Analyze([]byte(searchText)) {
		terms[string(token.Term)] = struct{}{}
	}
	return &Highlighter{analyzer: analyzer, terms: terms}, nil
}

// Best returns the best fragment of text with every matched term wrapped in
// bold markers, truncated to one fragment with ellipsis continuation. It
// returns "" when nothing matches, and degrades to "" on any internal
// failure rather than panicking.
func (h *Highlighter) Best(text string) (fragment string) {
	defer func() {
		if recover() != nil {
			fragment = ""
		}
	}()
	if text == "" || len(h.terms) == 0 {
		return ""
	}

	var matched []*analysis.Token
	for _, token := range h.analyzer.Analyze([]byte(text)) {
		if _, ok := h.terms[string(token.Term)]; ok {
			matched = append(matched, token)
		}
	}
	if len(matched) == 0 {
		return ""
	}

	start, end := h.bestWindow(matched, text)
	var b strings.Builder
	if start > 0 {
		b.WriteString(highlightEllipsis)
	}
	pos := start
	for _, token := range matched {
		if token.Start < start || token.End > end {
			continue
		}
		b.WriteString(text[pos:token.Start])
		b.WriteString(highlightPreTag)
		b.WriteString(text[token.Start:token.End])
		b.WriteString(highlightPostTag)
		pos = token.End
	}
	b.WriteString(text[pos:end])
	if end < len(text) {
		b.WriteString(highlightEllipsis)
	}
	return b.String()
}

// bestWindow picks the fragment boundaries holding the most matched tokens,
// anchored a little before the first token of the densest cluster. Both
// boundaries land on rune boundaries so the snippet never splits a
// multi-byte character.
func (h *Highlighter) bestWindow(matched []*analysis.Token, text string) (int, int) {
	textLen := len(text)
	if textLen <= fragmentSize {
		return 0, textLen
	}
	bestStart, bestCount := 0, -1
	for _, anchor := range matched {
		start := anchor.Start - fragmentSize/5
		if start < 0 {
			start = 0
		}
		if start+fragmentSize > textLen {
			start = textLen - fragmentSize
		}
		count := 0
		for _, token := range matched {
			if token.Start >= start && token.End <= start+fragmentSize {
				count++
			}
		}
		if count > bestCount {
			bestStart, bestCount = start, count
		}
	}
	start := runeStart(text, bestStart)
	return start, runeStart(text, start+fragmentSize)
}

// runeStart moves i back to the nearest rune boundary at or before it.
func runeStart(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
