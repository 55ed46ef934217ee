package domain

import (
	"io"
	"time"
)

// Crypto mode labels recorded per stored object.
const (
	CryptoModeNone   = "NONE"
	CryptoModeAESGCM = "AES-GCM-256"
)

// StoreResult reports what the object store actually wrote to disk.
// StoredHash is computed after encryption, so corrupted ciphertext is
// detectable without the key.
type StoreResult struct {
	StoredHash string `json:"stored_hash"`
	CryptoMode string `json:"crypto_mode"`
}

// DocumentStream is a decrypted-on-the-fly read of a stored artifact.
// Length already subtracts the fixed encryption overhead.
type DocumentStream struct {
	Reader   io.ReadCloser
	Length   int64
	Filename string
}

func (s *DocumentStream) Close() error {
	if s == nil || s.Reader == nil {
		return nil
	}
	return s.Reader.Close()
}

// CommittedDocument is the permanent record of a persisted artifact and its
// hash triad: the bytes as received, after pipeline processing, and as
// written to disk.
type CommittedDocument struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	MimeType         string    `json:"mime_type"`
	Source           ItemSource `json:"source"`
	HashOriginal     string    `json:"hash_original"`
	HashCanonical    string    `json:"hash_canonical"`
	HashStored       string    `json:"hash_stored"`
	CryptoMode       string    `json:"crypto_mode"`
	SizeBytes        int64     `json:"size_bytes"`
	TextParsed       bool      `json:"text_parsed"`
	CreatedAt        time.Time `json:"created_at"`
}
