// Package extractor holds the pluggable text-extraction providers and the
// chain that runs them with soft fallback.
package extractor

import (
	"context"
	"log/slog"
	"sort"

	"docvault/internal/core/ports"
)

// Chain tries providers in priority order until one answers without an
// error. Extraction never fails the pipeline: an empty string is a valid
// answer and provider errors only trigger the next provider.
type Chain struct {
	providers []ports.ExtractionProvider
	logger    *slog.Logger
}

func NewChain(logger *slog.Logger, providers ...ports.ExtractionProvider) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	sorted := make([]ports.ExtractionProvider, len(providers))
	copy(sorted, providers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	return &Chain{providers: sorted, logger: logger}
}

func (c *Chain) ExtractText(ctx context.Context, file, mimeType string) string {
	for _, provider := range c.providers {
		if !provider.Available() {
			continue
		}
		text, err := provider.Extract(ctx, file, mimeType)
		if err != nil {
			c.logger.Warn("extraction_provider_failed",
				"provider", provider.ID(), "mime_type", mimeType, "error", err)
			continue
		}
		// empty text is success, not a reason to fall through
		return text
	}
	c.logger.Debug("no_extraction_provider_answered", "mime_type", mimeType)
	return ""
}
