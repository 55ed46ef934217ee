// Package filetype classifies content bytes into a MIME type and preferred
// extension using magic-number sniffing, with the original filename as a
// tiebreaker only.
package filetype

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type Detector struct{}

func NewDetector() *Detector { return &Detector{} }

// Detect sniffs the file content. The detected type wins over whatever the
// original filename claims; the filename extension is only used when
// sniffing yields the generic fallback types.
func (d *Detector) Detect(file, originalFilename string) (string, string, error) {
	mtype, err := mimetype.DetectFile(file)
	if err != nil {
		return "", "", fmt.Errorf("detect file type: %w", err)
	}

	mime := mtype.String()
	if idx := strings.IndexByte(mime, ';'); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	ext := mtype.Extension()

	// sniffing plain text or raw bytes tells us nothing about the format
	// the user actually meant, so trust the filename there
	if mime == "text/plain" || mime == "application/octet-stream" {
		if orig := strings.ToLower(filepath.Ext(originalFilename)); orig != "" {
			ext = orig
		}
	}
	return mime, ext, nil
}
