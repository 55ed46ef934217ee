package extractor

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// Plaintext reads UTF-8 text files verbatim. It is the cheapest provider and
// runs first.
type Plaintext struct {
	maxSize int64
}

func NewPlaintext(maxSize int64) *Plaintext {
	if maxSize <= 0 {
		maxSize = 10 << 20
	}
	return &Plaintext{maxSize: maxSize}
}

func (p *Plaintext) ID() string      { return "plaintext" }
func (p *Plaintext) Available() bool { return true }
func (p *Plaintext) Priority() int   { return 10 }

func (p *Plaintext) Extract(ctx context.Context, file, mimeType string) (string, error) {
	if !strings.HasPrefix(mimeType, "text/") &&
		mimeType != "application/json" && mimeType != "message/rfc822" {
		return "", fmt.Errorf("plaintext: unsupported mime type %s", mimeType)
	}

	info, err := os.Stat(file)
	if err != nil {
		return "", fmt.Errorf("plaintext: stat: %w", err)
	}
	if info.Size() > p.maxSize {
		return "", fmt.Errorf("plaintext: file exceeds %d bytes", p.maxSize)
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("plaintext: read: %w", err)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("plaintext: not valid UTF-8")
	}
	return strings.TrimSpace(string(raw)), nil
}
