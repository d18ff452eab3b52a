// Package extractor reduces downloaded library files to plain text.
// Google Docs arrive as text already; uploaded PDFs and spreadsheets
// need real extraction before the matcher and summarizer can use them.
package extractor

import (
	"fmt"
	"path"
	"strings"
	"unicode/utf8"
)

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Extract dispatches on the filename extension. Unknown extensions are
// treated as plain text when the bytes are valid UTF-8.
func (e *Extractor) Extract(filename string, data []byte) (string, error) {
	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf":
		return extractPDF(data)
	case ".xlsx", ".xlsm":
		return extractSpreadsheet(data)
	default:
		return extractPlaintext(filename, data)
	}
}

func extractPlaintext(filename string, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("unsupported binary format: %s", filename)
	}
	return strings.TrimSpace(string(data)), nil
}
