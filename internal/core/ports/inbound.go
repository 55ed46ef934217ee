package ports

import (
	"context"
	"time"

	"docvault/internal/core/domain"
)

// PipelineProcessor is the inbound contract for asynchronous staged-item
// processing.
type PipelineProcessor interface {
	// ProcessByHash runs the staged item to a terminal state. Once started
	// it is never cancelled mid-stage; the terminal result is written even
	// if no caller is awaiting it.
	ProcessByHash(ctx context.Context, hash string) error

	// AwaitResult blocks until a result descriptor exists for hash or the
	// timeout elapses; a timeout yields an ERROR("timed out") result.
	AwaitResult(ctx context.Context, hash string, timeout time.Duration) (*domain.PipelineResult, error)

	// Cleanup removes working files after a successful hand-off. Distinct
	// from StagingArea.Discard, which is the explicit user rejection path.
	Cleanup(hash string) error
}

// DocumentCommitter finalizes a processed staged item into the object store.
type DocumentCommitter interface {
	Commit(ctx context.Context, hash string, timeout time.Duration) (*domain.CommittedDocument, error)
}
