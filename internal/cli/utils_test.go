package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/lookout/internal/models"
)

func TestWriteResultText(t *testing.T) {
	result := &models.Result{
		TotalCount: 2,
		Matches: []*models.Match{
			{ID: "alpha", Type: models.NodeTypeContent, Name: "Alpha", Score: 1.5,
				Tags: models.MakeTags("color:red"), Highlight: "a <strong>beach</strong>"},
			{ID: "beta", Type: models.NodeTypeMedia, Name: "Beta", Score: 0.8,
				Text: "plain body text"},
		},
		Facets: []*models.Facet{
			{Tags: models.MakeTags("color:red"), Count: 1},
		},
	}

	var buf bytes.Buffer
	if err := WriteResult(&buf, result, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Found 2 match(es)",
		"ID: alpha",
		"Name: Alpha",
		"Tags: color:red",
		"a <strong>beach</strong>",
		"plain body text",
		"--- Facets ---",
		"color:red: 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "showing") {
		t.Error("uncapped result should not report a showing count")
	}
}

func TestWriteResultTextCapped(t *testing.T) {
	result := &models.Result{
		TotalCount: 10,
		Matches:    []*models.Match{{ID: "alpha", Type: models.NodeTypeContent, Score: 1}},
	}
	var buf bytes.Buffer
	if err := WriteResult(&buf, result, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Found 10 match(es) (showing 1)") {
		t.Errorf("output: %s", buf.String())
	}
}

func TestWriteResultTextError(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResult(&buf, &models.Result{Error: "no query clauses supplied"}, OutputText); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "Search failed: no query clauses supplied\n" {
		t.Errorf("output = %q", got)
	}
}

func TestWriteResultJSON(t *testing.T) {
	result := &models.Result{
		TotalCount: 1,
		Matches:    []*models.Match{{ID: "alpha", Type: models.NodeTypeContent, Score: 1}},
	}
	var buf bytes.Buffer
	if err := WriteResult(&buf, result, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.Result
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.TotalCount != 1 || len(decoded.Matches) != 1 || decoded.Matches[0].ID != "alpha" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		s      string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this is too long", 7, "this is..."},
		{"anything", 0, "anything"},
		{"", 5, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.s, tt.maxLen); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
		}
	}
}

func TestParseTags(t *testing.T) {
	tags, err := ParseTags("color:red, size:large")
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 2 || tags[0].Group != "color" || tags[0].Name != "red" ||
		tags[1].Group != "size" || tags[1].Name != "large" {
		t.Errorf("tags = %v", tags)
	}

	if tags, err := ParseTags("  "); err != nil || tags != nil {
		t.Errorf("blank input: tags = %v, err = %v", tags, err)
	}

	if _, err := ParseTags("no-delimiter"); err == nil {
		t.Error("expected error for tag without delimiter")
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b ", []string{"a", "b"}},
		{"a,,b", []string{"a", "b"}},
		{"", nil},
		{" , ", nil},
	}
	for _, tt := range tests {
		got := SplitList(tt.raw)
		if len(got) != len(tt.want) {
			t.Errorf("SplitList(%q) = %v, want %v", tt.raw, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("SplitList(%q) = %v, want %v", tt.raw, got, tt.want)
				break
			}
		}
	}
}
