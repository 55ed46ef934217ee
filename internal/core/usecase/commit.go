package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"docvault/internal/core/domain"
	"docvault/internal/core/ports"
	"docvault/internal/hashing"
)

// CommitUseCase finalizes a processed staged item: it waits for the
// pipeline result, persists the artifact into the object store under a new
// identifier, records the hash triad, and only then releases the staging
// entry. A storage failure leaves the staged item untouched for retry.
type CommitUseCase struct {
	staging   ports.StagingArea
	processor ports.PipelineProcessor
	store     ports.ObjectStore
	index     ports.CommittedIndex
	ids       ports.IdentifierSource
	indexer   ports.SearchIndexer
	logger    *slog.Logger
}

func NewCommitUseCase(
	staging ports.StagingArea,
	processor ports.PipelineProcessor,
	store ports.ObjectStore,
	index ports.CommittedIndex,
	ids ports.IdentifierSource,
	indexer ports.SearchIndexer,
	logger *slog.Logger,
) *CommitUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommitUseCase{
		staging:   staging,
		processor: processor,
		store:     store,
		index:     index,
		ids:       ids,
		indexer:   indexer,
		logger:    logger,
	}
}

func (uc *CommitUseCase) Commit(ctx context.Context, hash string, timeout time.Duration) (*domain.CommittedDocument, error) {
	result, err := uc.processor.AwaitResult(ctx, hash, timeout)
	if err != nil {
		return nil, fmt.Errorf("await pipeline result: %w", err)
	}

	switch result.Status {
	case domain.StatusSuccess:
	case domain.StatusDuplicate:
		return nil, domain.WrapError(domain.ErrDuplicate, "commit staged item",
			fmt.Errorf("already committed as %s", result.DuplicateOf))
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "commit staged item",
			fmt.Errorf("pipeline result is %s: %s", result.Status, result.Reason))
	}

	contentFile, err := uc.staging.LocateContentFile(hash)
	if err != nil {
		return nil, fmt.Errorf("locate content file: %w", err)
	}
	info, err := os.Stat(contentFile)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "stat content file", err)
	}

	// the canonical hash differs from the original only when processing
	// rewrote the bytes
	canonicalHash, err := hashing.SHA256File(contentFile)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "hash content file", err)
	}

	item, err := uc.staging.Get(hash)
	if err != nil {
		return nil, fmt.Errorf("load staged item: %w", err)
	}

	id := uc.ids.NewID()
	storeResult, err := uc.store.Persist(ctx, contentFile, result.TextLayerPath, id, result.OriginalFilename)
	if err != nil {
		return nil, fmt.Errorf("persist artifact: %w", err)
	}

	doc := &domain.CommittedDocument{
		ID:               id,
		OriginalFilename: result.OriginalFilename,
		MimeType:         result.MimeType,
		Source:           item.Source,
		HashOriginal:     hash,
		HashCanonical:    canonicalHash,
		HashStored:       storeResult.StoredHash,
		CryptoMode:       storeResult.CryptoMode,
		SizeBytes:        info.Size(),
		TextParsed:       result.TextLayerPath != "",
		CreatedAt:        time.Now().UTC(),
	}
	if err := uc.index.Record(ctx, doc); err != nil {
		return nil, fmt.Errorf("record committed document: %w", err)
	}

	uc.triggerIndexing(ctx, doc, result.TextLayerPath)

	// durable record exists; staging can let go now
	if err := uc.processor.Cleanup(hash); err != nil {
		uc.logger.Warn("cleanup_failed", "hash", hash, "error", err)
	}
	if err := uc.staging.Discard(hash); err != nil {
		uc.logger.Warn("staging_discard_failed", "hash", hash, "error", err)
	}

	uc.logger.Info("document_committed",
		"id", id, "hash", hash, "crypto_mode", doc.CryptoMode, "size_bytes", doc.SizeBytes)
	return doc, nil
}

// triggerIndexing hands the document to the external full-text index. The
// commit already succeeded; indexing failures are only logged.
func (uc *CommitUseCase) triggerIndexing(ctx context.Context, doc *domain.CommittedDocument, textPath string) {
	if uc.indexer == nil {
		return
	}
	text := ""
	if textPath != "" {
		if data, err := os.ReadFile(textPath); err == nil {
			text = string(data)
		}
	}
	if err := uc.indexer.IndexDocument(ctx, doc, text); err != nil {
		uc.logger.Warn("search_indexing_failed", "id", doc.ID, "error", err)
	}
}
