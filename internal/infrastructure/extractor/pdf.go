package extractor

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDF extracts the embedded text layer of a PDF. Scanned PDFs without a
// text layer legitimately yield an empty string.
type PDF struct{}

func NewPDF() *PDF { return &PDF{} }

func (p *PDF) ID() string      { return "pdf" }
func (p *PDF) Available() bool { return true }
func (p *PDF) Priority() int   { return 20 }

func (p *PDF) Extract(ctx context.Context, file, mimeType string) (string, error) {
	if mimeType != "application/pdf" {
		return "", fmt.Errorf("pdf: unsupported mime type %s", mimeType)
	}

	f, reader, err := pdf.Open(file)
	if err != nil {
		return "", fmt.Errorf("pdf: open: %w", err)
	}
	defer f.Close()

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf: read text layer: %w", err)
	}
	var sb strings.Builder
	if _, err := io.Copy(&sb, textReader); err != nil {
		return "", fmt.Errorf("pdf: read text layer: %w", err)
	}
	return strings.TrimSpace(sb.String()), nil
}
