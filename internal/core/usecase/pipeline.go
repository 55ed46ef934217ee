package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"docvault/internal/core/domain"
	"docvault/internal/core/ports"
	"docvault/internal/observability/metrics"
)

const totalSteps = 4

// PipelineUseCase drives one staged item through type detection, duplicate
// check, extraction and classification, ending in exactly one terminal
// result descriptor. Provider failures inside the extraction and
// classification chains never fail the run; everything outside them does.
type PipelineUseCase struct {
	staging    ports.StagingArea
	detector   ports.TypeDetector
	extractor  ports.TextExtractor
	predictor  ports.MetadataPredictor
	candidates ports.CandidateSource
	index      ports.CommittedIndex
	events     ports.EventSink

	pollInterval time.Duration
	metrics      *metrics.PipelineMetrics
	logger       *slog.Logger
}

type PipelineOptions struct {
	// PollInterval paces AwaitResult; it never goes below 100ms.
	PollInterval time.Duration
	Metrics      *metrics.PipelineMetrics
	Logger       *slog.Logger
}

func NewPipelineUseCase(
	staging ports.StagingArea,
	detector ports.TypeDetector,
	extractor ports.TextExtractor,
	predictor ports.MetadataPredictor,
	candidates ports.CandidateSource,
	index ports.CommittedIndex,
	events ports.EventSink,
	options PipelineOptions,
) *PipelineUseCase {
	pollInterval := options.PollInterval
	if pollInterval < 100*time.Millisecond {
		pollInterval = 250 * time.Millisecond
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PipelineUseCase{
		staging:      staging,
		detector:     detector,
		extractor:    extractor,
		predictor:    predictor,
		candidates:   candidates,
		index:        index,
		events:       events,
		pollInterval: pollInterval,
		metrics:      options.Metrics,
		logger:       logger,
	}
}

// ProcessByHash runs the staged item to a terminal state. It is never
// cancelled mid-stage; the result descriptor is written even when nobody is
// awaiting it, and the item stays in staging on error for inspection.
func (uc *PipelineUseCase) ProcessByHash(ctx context.Context, hash string) error {
	started := time.Now()
	if uc.metrics != nil {
		uc.metrics.StartItem()
	}

	item, err := uc.staging.Get(hash)
	if err != nil {
		uc.finish(started, string(domain.StatusError))
		return fmt.Errorf("load staged item: %w", err)
	}
	if item.Status.Terminal() {
		uc.finish(started, string(item.Status))
		uc.logger.Debug("item_already_terminal", "hash", hash, "status", item.Status)
		return nil
	}

	uc.emit(domain.Event{Type: domain.EventFileDetected, Hash: hash, Filename: item.OriginalFilename})

	result := uc.run(ctx, item)
	result.Hash = hash
	result.OriginalFilename = item.OriginalFilename
	result.CompletedAt = time.Now().UTC()

	if err := uc.staging.WriteResult(hash, result); err != nil {
		uc.finish(started, string(domain.StatusError))
		return fmt.Errorf("write pipeline result: %w", err)
	}
	uc.finish(started, string(result.Status))

	item.Status = result.Status
	item.Result = result
	if result.Status == domain.StatusError {
		uc.emit(domain.Event{Type: domain.EventError, Hash: hash, Reason: result.Reason})
		uc.logger.Error("pipeline_failed", "hash", hash, "reason", result.Reason)
		return nil
	}
	uc.emit(domain.Event{Type: domain.EventStatus, Hash: hash, State: item})
	uc.logger.Info("pipeline_finished", "hash", hash, "status", result.Status)
	return nil
}

// run executes the stage sequence and always returns a terminal result.
func (uc *PipelineUseCase) run(ctx context.Context, item *domain.StagedItem) *domain.PipelineResult {
	hash := item.Hash
	result := &domain.PipelineResult{Status: domain.StatusError}

	contentFile, err := uc.staging.LocateContentFile(hash)
	if err != nil {
		result.Reason = fmt.Sprintf("locate content file: %v", err)
		return result
	}
	result.ArtifactPath = contentFile

	// stage 1: type detection
	mimeType, extension, err := uc.detectType(contentFile, item.OriginalFilename)
	if err != nil {
		result.Reason = fmt.Sprintf("detect file type: %v", err)
		return result
	}
	result.MimeType = mimeType
	result.Extension = extension
	uc.progress(hash, item.OriginalFilename, 1, "File type detected")

	// stage 2: duplicate check against the committed index
	duplicateOf, err := uc.checkDuplicate(ctx, hash)
	if err != nil {
		result.Reason = fmt.Sprintf("duplicate check: %v", err)
		return result
	}
	uc.progress(hash, item.OriginalFilename, 2, "Duplicate check finished")
	if duplicateOf != "" {
		result.Status = domain.StatusDuplicate
		result.DuplicateOf = duplicateOf
		result.Reason = fmt.Sprintf("already committed as %s", duplicateOf)
		return result
	}

	// stage 3: text extraction, soft fallback inside the chain
	text := uc.extractText(ctx, hash, contentFile, mimeType, result)
	uc.progress(hash, item.OriginalFilename, 3, "Text extraction finished")

	// stage 4: classification
	result.Prediction = uc.classify(ctx, text, item.OriginalFilename, result)
	uc.progress(hash, item.OriginalFilename, 4, "Classification finished")

	result.Status = domain.StatusSuccess
	return result
}

func (uc *PipelineUseCase) detectType(contentFile, originalFilename string) (string, string, error) {
	start := time.Now()
	defer uc.stage("detect_type", start)
	return uc.detector.Detect(contentFile, originalFilename)
}

func (uc *PipelineUseCase) checkDuplicate(ctx context.Context, hash string) (string, error) {
	start := time.Now()
	defer uc.stage("duplicate_check", start)

	id, err := uc.index.FindByContentHash(ctx, hash)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return id, nil
}

// extractText runs the chain and persists the text layer next to the
// content file so later stages and the commit read durable state.
func (uc *PipelineUseCase) extractText(ctx context.Context, hash, contentFile, mimeType string, result *domain.PipelineResult) string {
	start := time.Now()
	defer uc.stage("extract_text", start)

	text := uc.extractor.ExtractText(ctx, contentFile, mimeType)
	if text == "" {
		return ""
	}

	textPath := uc.staging.TextLayerPath(hash)
	if err := os.WriteFile(textPath, []byte(text), 0o644); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("persist text layer: %v", err))
		uc.logger.Warn("text_layer_write_failed", "hash", hash, "error", err)
		return text
	}
	result.TextLayerPath = textPath
	return text
}

func (uc *PipelineUseCase) classify(ctx context.Context, text, filename string, result *domain.PipelineResult) domain.Prediction {
	start := time.Now()
	defer uc.stage("classify", start)

	candidates, err := uc.candidates.Candidates(ctx)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("load candidates: %v", err))
		uc.logger.Warn("candidate_load_failed", "filename", filename, "error", err)
		candidates = domain.Candidates{}
	}
	return uc.predictor.Predict(ctx, text, filename, candidates)
}

// AwaitResult polls for the result descriptor. A timeout does not stop the
// background run; it yields a synthetic ERROR result so the caller always
// gets a terminal answer.
func (uc *PipelineUseCase) AwaitResult(ctx context.Context, hash string, timeout time.Duration) (*domain.PipelineResult, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(uc.pollInterval)
	defer ticker.Stop()

	for {
		result, err := uc.staging.ReadResult(hash)
		if err == nil {
			return result, nil
		}
		if !domain.IsKind(err, domain.ErrNotFound) {
			return nil, err
		}
		if time.Now().After(deadline) {
			return &domain.PipelineResult{
				Status:      domain.StatusError,
				Hash:        hash,
				Reason:      "timed out",
				CompletedAt: time.Now().UTC(),
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Cleanup drops the working files left behind by a successful hand-off.
func (uc *PipelineUseCase) Cleanup(hash string) error {
	return uc.staging.RemoveWorkingFiles(hash)
}

// progress is emitted once per completed stage.
func (uc *PipelineUseCase) progress(hash, filename string, step int, message string) {
	uc.emit(domain.Event{
		Type:       domain.EventProgress,
		Hash:       hash,
		Filename:   filename,
		Step:       step,
		TotalSteps: totalSteps,
		Message:    message,
	})
}

func (uc *PipelineUseCase) emit(event domain.Event) {
	if uc.events == nil {
		return
	}
	event.EmittedAt = time.Now().UTC()
	uc.events.Publish(event)
}

func (uc *PipelineUseCase) stage(name string, start time.Time) {
	if uc.metrics != nil {
		uc.metrics.ObserveStage("pipeline", name, time.Since(start))
	}
}

func (uc *PipelineUseCase) finish(start time.Time, status string) {
	if uc.metrics != nil {
		uc.metrics.FinishItem("pipeline", status, time.Since(start))
	}
}
