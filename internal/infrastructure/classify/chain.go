// Package classify runs the configured classification providers over an
// item's extracted text and merges their output into one prediction.
package classify

import (
	"context"
	"log/slog"
	"sort"

	"docvault/internal/config"
	"docvault/internal/core/domain"
	"docvault/internal/core/ports"
)

// Predictor fans out to enabled providers in preference order. A provider
// failure is logged and isolated; whatever the other providers produced
// still lands in the final prediction.
type Predictor struct {
	providers []ports.ClassificationProvider
	logger    *slog.Logger
}

func NewPredictor(chainCfg config.ChainConfig, logger *slog.Logger, providers ...ports.ClassificationProvider) *Predictor {
	if logger == nil {
		logger = slog.Default()
	}

	enabled := make([]ports.ClassificationProvider, 0, len(providers))
	for _, p := range providers {
		if chainCfg.Provider(p.ID()).Enabled {
			enabled = append(enabled, p)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		return chainCfg.Provider(enabled[i].ID()).Preference < chainCfg.Provider(enabled[j].ID()).Preference
	})
	return &Predictor{providers: enabled, logger: logger}
}

func (p *Predictor) Predict(ctx context.Context, fullText, filename string, candidates domain.Candidates) domain.Prediction {
	var merged domain.Prediction
	for _, provider := range p.providers {
		var scratch domain.Prediction
		if err := provider.Analyze(ctx, fullText, filename, candidates, &scratch); err != nil {
			p.logger.Warn("classification_provider_failed",
				"provider", provider.ID(), "filename", filename, "error", err)
			continue
		}
		mergePrediction(&merged, &scratch)
	}
	return merged
}

// mergePrediction copies fields from later providers only into slots an
// earlier provider left empty.
func mergePrediction(dst, src *domain.Prediction) {
	if dst.ContextID == "" {
		dst.ContextID = src.ContextID
	}
	if dst.CategoryID == "" {
		dst.CategoryID = src.CategoryID
	}
	if dst.Summary == "" {
		dst.Summary = src.Summary
	}
	if dst.DocumentDate == nil {
		dst.DocumentDate = src.DocumentDate
	}
	if dst.Confidence == 0 {
		dst.Confidence = src.Confidence
	}
	for key, value := range src.Attributes {
		if _, taken := dst.Attributes[key]; !taken {
			dst.SetAttribute(key, value)
		}
	}
}
