// Package cli provides CLI output helpers for Lookout.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperjump/lookout/internal/models"
)

// OutputFormat is the format for search result output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteResult writes a search result to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteResult(w io.Writer, result *models.Result, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	default:
		writeResultText(w, result)
		return nil
	}
}

func writeResultText(w io.Writer, result *models.Result) {
	if result.Error != "" {
		fmt.Fprintf(w, "Search failed: %s\n", result.Error)
		return
	}
	fmt.Fprintf(w, "\nFound %d match(es)", result.TotalCount)
	if int64(len(result.Matches)) < result.TotalCount {
		fmt.Fprintf(w, " (showing %d)", len(result.Matches))
	}
	fmt.Fprintf(w, "\n\n")
	for _, match := range result.Matches {
		writeOneMatch(w, match)
	}
	if len(result.Facets) > 0 {
		fmt.Fprintln(w, "--- Facets ---")
		for _, facet := range result.Facets {
			fmt.Fprintf(w, "%s: %d\n", encodeTags(facet.Tags), facet.Count)
		}
	}
}

func writeOneMatch(w io.Writer, match *models.Match) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Score: %.4f | ID: %s | Type: %s\n", match.Score, match.ID, match.Type)
	if match.Name != "" {
		fmt.Fprintf(w, "Name: %s\n", match.Name)
	}
	if match.Date != nil {
		fmt.Fprintf(w, "Date: %s\n", match.Date.Format(time.RFC3339))
	}
	if len(match.Tags) > 0 {
		fmt.Fprintf(w, "Tags: %s\n", encodeTags(match.Tags))
	}
	if match.Location != nil {
		fmt.Fprintf(w, "Location: %s", match.Location.String())
		if match.Distance != nil {
			fmt.Fprintf(w, " (distance %.2f)", *match.Distance)
		}
		fmt.Fprintln(w)
	}
	if match.Highlight != "" {
		fmt.Fprintf(w, "\n%s\n", match.Highlight)
	} else if match.Text != "" {
		fmt.Fprintf(w, "\n%s\n", Truncate(match.Text, 200))
	}
	fmt.Fprintln(w)
}

func encodeTags(tags []models.Tag) string {
	parts := make([]string, len(tags))
	for i, tag := range tags {
		parts[i] = tag.Encode()
	}
	return strings.Join(parts, ", ")
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// ParseTags decodes a comma-separated list of group:name tag values.
func ParseTags(raw string) ([]models.Tag, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
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

// SplitList splits a comma-separated flag value, dropping blanks.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
