// Package extract provides text extraction from media files so their
// content becomes searchable alongside a node's own text.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extractor extracts plain text from media files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the media file at path and returns its text content.
// PDF, DOCX, ODT, RTF and XLSX are unpacked from their binary formats;
// everything else is treated as plain text (UTF-8 validated).
func (e *Extractor) Extract(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read file: %w", err)
		}
		return extractPDF(content)
	case ".docx":
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read file: %w", err)
		}
		return extractDOCX(content)
	case ".odt", ".rtf":
		return extractOffice(path)
	case ".xlsx":
		return extractExcel(path)
	default:
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read file: %w", err)
		}
		return extractPlain(content)
	}
}
