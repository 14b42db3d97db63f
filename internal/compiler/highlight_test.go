package compiler

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func newHighlighter(t *testing.T, searchText string) *Highlighter {
	t.Helper()
	h, err := NewHighlighter(searchText)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestHighlighterWrapsMatches(t *testing.T) {
	h := newHighlighter(t, "beach")
	got := h.Best("a sandy beach at dusk")
	want := "a sandy <strong>beach</strong> at dusk"
	if got != want {
		t.Errorf("Best() = %q, want %q", got, want)
	}
}

func TestHighlighterMatchesAnalyzedTerms(t *testing.T) {
	// the standard analyzer lowercases, so case differences still match
	h := newHighlighter(t, "Beach")
	got := h.Best("the BEACH was empty")
	if !strings.Contains(got, "<strong>BEACH</strong>") {
		t.Errorf("Best() = %q, want original casing preserved inside markers", got)
	}
}

func TestHighlighterMultipleTerms(t *testing.T) {
	h := newHighlighter(t, "beach holiday")
	got := h.Best("a beach town for a holiday")
	if strings.Count(got, "<strong>") != 2 {
		t.Errorf("Best() = %q, want both terms wrapped", got)
	}
}

func TestHighlighterNoMatch(t *testing.T) {
	h := newHighlighter(t, "beach")
	if got := h.Best("nothing relevant here"); got != "" {
		t.Errorf("Best() = %q, want empty", got)
	}
	if got := h.Best(""); got != "" {
		t.Errorf("Best(empty) = %q, want empty", got)
	}
}

func TestHighlighterTruncatesLongText(t *testing.T) {
	long := strings.Repeat("lorem ipsum dolor sit amet ", 40) + "beach " + strings.Repeat("consectetur adipiscing elit ", 40)
	h := newHighlighter(t, "beach")
	got := h.Best(long)
	if got == "" {
		t.Fatal("expected a fragment")
	}
	if !strings.Contains(got, "<strong>beach</strong>") {
		t.Errorf("fragment %q does not contain the match", got)
	}
	if !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "...") {
		t.Errorf("mid-text fragment should be ellipsized on both ends: %q", got)
	}
	if len(got) > fragmentSize+2*len("...")+2*len("<strong></strong>") {
		t.Errorf("fragment too long: %d bytes", len(got))
	}
}

func TestHighlighterKeepsRunesIntact(t *testing.T) {
	// multi-byte runes on both sides of the window force the fragment
	// boundaries onto rune starts
	long := strings.Repeat("é", 120) + " beach " + strings.Repeat("ø", 120)
	h := newHighlighter(t, "beach")
	got := h.Best(long)
	if got == "" {
		t.Fatal("expected a fragment")
	}
	if !utf8.ValidString(got) {
		t.Errorf("fragment is not valid UTF-8: %q", got)
	}
	if !strings.Contains(got, "<strong>beach</strong>") {
		t.Errorf("fragment %q does not contain the match", got)
	}
}

func TestHighlighterShortTextNotTruncated(t *testing.T) {
	h := newHighlighter(t, "beach")
	got := h.Best("short beach note")
	if strings.Contains(got, "...") {
		t.Errorf("short text should not be ellipsized: %q", got)
	}
}
