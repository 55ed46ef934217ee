// Package postgres persists the index of committed documents. The index
// answers the pipeline's duplicate check and keeps the hash triad for every
// artifact handed to the object store.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"docvault/internal/core/domain"
)

type CommittedIndex struct {
	db *sql.DB
}

func NewCommittedIndex(db *sql.DB) *CommittedIndex {
	return &CommittedIndex{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *CommittedIndex) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS committed_documents (
	id TEXT PRIMARY KEY,
	original_filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	source TEXT NOT NULL,
	hash_original TEXT NOT NULL,
	hash_canonical TEXT NOT NULL,
	hash_stored TEXT NOT NULL,
	crypto_mode TEXT NOT NULL,
	size_bytes BIGINT NOT NULL DEFAULT 0,
	text_parsed BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_committed_hash_original ON committed_documents(hash_original);
CREATE INDEX IF NOT EXISTS idx_committed_created_at ON committed_documents(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// FindByContentHash returns the committed identifier for an original content
// hash, or ErrNotFound when the bytes were never committed.
func (r *CommittedIndex) FindByContentHash(ctx context.Context, hash string) (string, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id FROM committed_documents WHERE hash_original = $1
`, hash)

	var id string
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.WrapError(domain.ErrNotFound, "committed document", fmt.Errorf("hash %s", hash))
		}
		return "", domain.WrapError(domain.ErrStorage, "query committed document", err)
	}
	return id, nil
}

func (r *CommittedIndex) Record(ctx context.Context, doc *domain.CommittedDocument) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO committed_documents (
	id, original_filename, mime_type, source, hash_original, hash_canonical, hash_stored, crypto_mode, size_bytes, text_parsed, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
		doc.ID, doc.OriginalFilename, doc.MimeType, string(doc.Source),
		doc.HashOriginal, doc.HashCanonical, doc.HashStored, doc.CryptoMode,
		doc.SizeBytes, doc.TextParsed, doc.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.WrapError(domain.ErrDuplicate, "record committed document", err)
		}
		return domain.WrapError(domain.ErrStorage, "record committed document", err)
	}
	return nil
}

func (r *CommittedIndex) GetByID(ctx context.Context, id string) (*domain.CommittedDocument, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, original_filename, mime_type, source, hash_original, hash_canonical, hash_stored, crypto_mode, size_bytes, text_parsed, created_at
FROM committed_documents
WHERE id = $1
`, id)

	var doc domain.CommittedDocument
	var source string
	err := row.Scan(
		&doc.ID, &doc.OriginalFilename, &doc.MimeType, &source,
		&doc.HashOriginal, &doc.HashCanonical, &doc.HashStored, &doc.CryptoMode,
		&doc.SizeBytes, &doc.TextParsed, &doc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "committed document", fmt.Errorf("id %s", id))
		}
		return nil, domain.WrapError(domain.ErrStorage, "scan committed document", err)
	}
	doc.Source = domain.ItemSource(source)
	return &doc, nil
}

// isUniqueViolation matches the Postgres duplicate-key error class without
// depending on driver-specific error types.
func isUniqueViolation(err error) bool {
	type sqlState interface{ SQLState() string }
	var coded sqlState
	if errors.As(err, &coded) {
		return coded.SQLState() == "23505"
	}
	return false
}
