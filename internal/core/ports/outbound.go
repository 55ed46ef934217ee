package ports

import (
	"context"
	"io"

	"docvault/internal/core/domain"
)

// StagingArea is the content-addressed inbox every producer must go through.
type StagingArea interface {
	// Submit hashes the bytes and creates an entry, or returns the existing
	// hash untouched when an entry for identical bytes already exists.
	Submit(ctx context.Context, data io.Reader, filename string, source domain.ItemSource) (string, error)
	Get(hash string) (*domain.StagedItem, error)
	// List returns staged items, most recently created first.
	List() ([]domain.StagedItem, error)
	// Discard removes the entry recursively. Idempotent.
	Discard(hash string) error
	// LocateContentFile returns the single regular file in the entry that is
	// not a sidecar, result, or temp file.
	LocateContentFile(hash string) (string, error)

	// WriteResult atomically writes the terminal result descriptor.
	WriteResult(hash string, result *domain.PipelineResult) error
	// ReadResult returns the result descriptor, or ErrNotFound while the
	// item is still being processed.
	ReadResult(hash string) (*domain.PipelineResult, error)
	// TextLayerPath is where extracted text is written inside the entry.
	TextLayerPath(hash string) string
	// RemoveWorkingFiles deletes extracted text and temp artifacts after a
	// successful hand-off, leaving the entry itself in place.
	RemoveWorkingFiles(hash string) error
}

// ObjectStore is the sharded, optionally-encrypted, content-addressed
// persistent store for committed artifacts.
type ObjectStore interface {
	Persist(ctx context.Context, artifactPath, textPath, id, originalFilename string) (domain.StoreResult, error)
	LoadStream(ctx context.Context, id string) (*domain.DocumentStream, error)
	LoadTextLayer(ctx context.Context, id string) (string, error)
	MoveToTrash(ctx context.Context, id string) error
	StoreThumbnail(ctx context.Context, id string, data []byte) error
	LoadThumbnail(ctx context.Context, id string) ([]byte, error)
	HasThumbnail(id string) bool
}

// ExtractionProvider is one pluggable text-extraction backend.
type ExtractionProvider interface {
	ID() string
	Available() bool
	// Priority orders the chain; lower is tried first.
	Priority() int
	Extract(ctx context.Context, file, mimeType string) (string, error)
}

// TextExtractor runs the extraction chain with soft fallback: extraction
// never fails the pipeline.
type TextExtractor interface {
	ExtractText(ctx context.Context, file, mimeType string) string
}

// ClassificationProvider mutates the shared prediction with whatever fields
// it can produce. A provider error must not abort the others.
type ClassificationProvider interface {
	ID() string
	Analyze(ctx context.Context, fullText, filename string, candidates domain.Candidates, p *domain.Prediction) error
}

// MetadataPredictor runs the configured classification providers in
// preference order, isolating per-provider failures.
type MetadataPredictor interface {
	Predict(ctx context.Context, fullText, filename string, candidates domain.Candidates) domain.Prediction
}

// CandidateSource supplies the snapshot of classification candidates for a
// run. Owned by the consuming application, not by this core.
type CandidateSource interface {
	Candidates(ctx context.Context) (domain.Candidates, error)
}

// TypeDetector classifies content bytes into a MIME type and a preferred
// file extension.
type TypeDetector interface {
	Detect(file, originalFilename string) (mimeType, extension string, err error)
}

// CommittedIndex records committed documents and answers the pipeline's
// duplicate check before expensive work happens.
type CommittedIndex interface {
	// FindByContentHash returns the identifier of an already-committed
	// document with this original content hash, or ErrNotFound.
	FindByContentHash(ctx context.Context, hash string) (string, error)
	Record(ctx context.Context, doc *domain.CommittedDocument) error
	GetByID(ctx context.Context, id string) (*domain.CommittedDocument, error)
}

// PipelineTrigger schedules asynchronous processing of a staged item.
type PipelineTrigger interface {
	TriggerPipeline(ctx context.Context, hash string) error
}

// EventSink receives pipeline transition events. Implementations must be
// fire-and-forget: delivery failure never propagates.
type EventSink interface {
	Publish(event domain.Event)
}

// SearchIndexer is the hand-off signal to the external full-text index.
type SearchIndexer interface {
	IndexDocument(ctx context.Context, doc *domain.CommittedDocument, text string) error
}

// IdentifierSource issues committed-document identifiers.
type IdentifierSource interface {
	NewID() string
}
