// Package render turns artifact content into the PDF file that rides
// along with the reply email.
package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/kirillkom/doc-responder/internal/core/domain"
)

// Staging persists a rendered attachment and returns its path. The
// localfs storage satisfies it.
type Staging interface {
	Save(ctx context.Context, key string, data io.Reader) (string, error)
	Remove(ctx context.Context, key string) error
}

type PDFRenderer struct {
	staging Staging
	marker  string
}

func NewPDF(staging Staging, completionMarker string) *PDFRenderer {
	if completionMarker == "" {
		completionMarker = "Done"
	}
	return &PDFRenderer{staging: staging, marker: completionMarker}
}

// Render writes the artifact as a one-document PDF and returns the
// staged file path. The filename is derived from the title with the
// completion marker removed and spaces turned into underscores.
func (r *PDFRenderer) Render(ctx context.Context, content domain.ArtifactContent) (string, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	translate := doc.UnicodeTranslatorFromDescriptor("")
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 16)
	doc.MultiCell(0, 8, translate(content.Title), "", "L", false)
	doc.Ln(4)

	doc.SetFont("Helvetica", "", 11)
	for _, paragraph := range splitParagraphs(content.Content) {
		doc.MultiCell(0, 5, translate(paragraph), "", "L", false)
		doc.Ln(2)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return "", fmt.Errorf("render pdf: %w", err)
	}

	path, err := r.staging.Save(ctx, attachmentFilename(content.Title, r.marker), bytes.NewReader(buf.Bytes()))
	if err != nil {
		return "", fmt.Errorf("stage attachment: %w", err)
	}
	return path, nil
}

// Discard removes a staged attachment after the reply carrying it has
// been sent. Staged files live flat under the staging dir, so the
// filename identifies the key.
func (r *PDFRenderer) Discard(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	return r.staging.Remove(ctx, filepath.Base(path))
}

// attachmentFilename derives "Q3_Report.pdf" from "Q3 Report Done".
func attachmentFilename(title, marker string) string {
	name := strings.TrimSpace(title)
	if lower := strings.ToLower(name); strings.HasSuffix(lower, strings.ToLower(marker)) {
		name = strings.TrimSpace(name[:len(name)-len(marker)])
	}
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.Trim(name, "_")
	if name == "" {
		name = "document"
	}
	return name + ".pdf"
}

func splitParagraphs(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")
	paragraphs := make([]string, 0, len(raw))
	for _, block := range raw {
		block = strings.TrimSpace(block)
		if block != "" {
			paragraphs = append(paragraphs, block)
		}
	}
	if len(paragraphs) == 0 {
		paragraphs = append(paragraphs, "(empty document)")
	}
	return paragraphs
}
