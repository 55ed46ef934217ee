// Package localfs is the sharded, optionally-encrypted object store for
// committed artifacts. Objects live under root/<first-3-chars-of-id>/ and
// removal only ever moves files into a flat trash directory.
package localfs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docvault/internal/core/domain"
	"docvault/internal/hashing"
	"docvault/internal/infrastructure/store/crypto"
)

const (
	encSuffix   = ".enc"
	textSuffix  = ".txt"
	thumbSuffix = ".thumb.jpg"
)

type Store struct {
	root   string
	trash  string
	secret *crypto.Secret // nil when encryption is disabled
	logger *slog.Logger
}

func New(root, trash string, secret *crypto.Secret, logger *slog.Logger) (*Store, error) {
	if root == "" {
		root = "./data/store"
	}
	if trash == "" {
		trash = filepath.Join(root, ".trash")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "create store root", err)
	}
	if err := os.MkdirAll(trash, 0o755); err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "create trash dir", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{root: root, trash: trash, secret: secret, logger: logger}, nil
}

func (s *Store) encrypted() bool { return s.secret != nil }

// CryptoMode is the label recorded on every object this store writes.
func (s *Store) CryptoMode() string {
	if s.encrypted() {
		return domain.CryptoModeAESGCM
	}
	return domain.CryptoModeNone
}

// Persist writes the artifact and its optional text sidecar into the shard
// for the identifier. An identifier that already holds an object is refused;
// replacing means trashing the old object first. The returned hash is of the
// bytes actually on disk, after encryption when enabled.
func (s *Store) Persist(ctx context.Context, artifactPath, textPath, id, originalFilename string) (domain.StoreResult, error) {
	shard, err := s.ensureShard(id)
	if err != nil {
		return domain.StoreResult{}, err
	}
	if existing, err := s.locateArtifact(id); err == nil {
		return domain.StoreResult{}, domain.WrapError(domain.ErrStorage, "persist object",
			fmt.Errorf("id %s already holds %s", id, filepath.Base(existing)))
	}

	target := filepath.Join(shard, id+extensionOf(artifactPath)+s.suffix())
	if err := s.writeObject(artifactPath, target); err != nil {
		return domain.StoreResult{}, err
	}

	if textPath != "" {
		if info, statErr := os.Stat(textPath); statErr == nil && info.Size() > 0 {
			sidecar := filepath.Join(shard, id+textSuffix+s.suffix())
			if err := s.writeObject(textPath, sidecar); err != nil {
				return domain.StoreResult{}, err
			}
		}
	}

	storedHash, err := hashing.SHA256File(target)
	if err != nil {
		return domain.StoreResult{}, domain.WrapError(domain.ErrStorage, "hash stored object", err)
	}

	s.logger.Info("object_persisted", "id", id, "crypto_mode", s.CryptoMode(), "stored_hash", storedHash)
	return domain.StoreResult{StoredHash: storedHash, CryptoMode: s.CryptoMode()}, nil
}

// LoadStream opens the main artifact for the identifier, decrypting on the
// fly when the store is encrypted. Length already subtracts the encryption
// overhead.
func (s *Store) LoadStream(ctx context.Context, id string) (*domain.DocumentStream, error) {
	path, err := s.locateArtifact(id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(path), encSuffix)
	info, err := os.Stat(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "stat stored object", err)
	}

	if s.encrypted() && strings.HasSuffix(path, encSuffix) {
		plain, err := crypto.OpenBytes(s.secret, path)
		if err != nil {
			return nil, domain.WrapError(domain.ErrStorage, "decrypt stored object", err)
		}
		return &domain.DocumentStream{
			Reader:   io.NopCloser(bytes.NewReader(plain)),
			Length:   info.Size() - crypto.Overhead,
			Filename: name,
		}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "open stored object", err)
	}
	return &domain.DocumentStream{Reader: f, Length: info.Size(), Filename: name}, nil
}

// LoadTextLayer returns the decrypted sidecar text, or the empty string when
// no sidecar exists.
func (s *Store) LoadTextLayer(ctx context.Context, id string) (string, error) {
	shard, err := s.shardDir(id)
	if err != nil {
		return "", err
	}
	sidecar := filepath.Join(shard, id+textSuffix+s.suffix())
	if _, err := os.Stat(sidecar); os.IsNotExist(err) {
		return "", nil
	}
	data, err := s.readObject(sidecar)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// MoveToTrash moves every file prefixed by the identifier into the flat
// trash directory with a timestamp prefix. Finding nothing is a warning,
// not an error; nothing is ever deleted here.
func (s *Store) MoveToTrash(ctx context.Context, id string) error {
	shard, err := s.shardDir(id)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(shard)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("trash_nothing_found", "id", id)
			return nil
		}
		return domain.WrapError(domain.ErrStorage, "list shard", err)
	}

	stamp := time.Now().UTC().Format("20060102T150405.000000000")
	moved := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), id) {
			continue
		}
		src := filepath.Join(shard, entry.Name())
		dst := filepath.Join(s.trash, stamp+"_"+entry.Name())
		if err := os.Rename(src, dst); err != nil {
			return domain.WrapError(domain.ErrStorage, "move to trash", err)
		}
		moved++
	}
	if moved == 0 {
		s.logger.Warn("trash_nothing_found", "id", id)
		return nil
	}
	s.logger.Info("object_trashed", "id", id, "files", moved)
	return nil
}

// RestoreLatest moves the most recently trashed files for the identifier
// back into their shard.
func (s *Store) RestoreLatest(ctx context.Context, id string) error {
	entries, err := os.ReadDir(s.trash)
	if err != nil {
		return domain.WrapError(domain.ErrStorage, "list trash", err)
	}

	// trash names sort by timestamp prefix, so the lexicographically
	// greatest stamp is the most recent deletion
	latest := ""
	for _, entry := range entries {
		stamp, name, ok := splitTrashName(entry.Name())
		if !ok || !strings.HasPrefix(name, id) {
			continue
		}
		if stamp > latest {
			latest = stamp
		}
	}
	if latest == "" {
		return domain.WrapError(domain.ErrNotFound, "restore from trash", fmt.Errorf("id %s", id))
	}

	shard, err := s.ensureShard(id)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		stamp, name, ok := splitTrashName(entry.Name())
		if !ok || stamp != latest || !strings.HasPrefix(name, id) {
			continue
		}
		src := filepath.Join(s.trash, entry.Name())
		if err := os.Rename(src, filepath.Join(shard, name)); err != nil {
			return domain.WrapError(domain.ErrStorage, "restore from trash", err)
		}
	}
	s.logger.Info("object_restored", "id", id)
	return nil
}

// PermanentlyDelete removes all trashed files for the identifier. This is
// the only path that actually deletes object bytes.
func (s *Store) PermanentlyDelete(ctx context.Context, id string) error {
	entries, err := os.ReadDir(s.trash)
	if err != nil {
		return domain.WrapError(domain.ErrStorage, "list trash", err)
	}
	for _, entry := range entries {
		_, name, ok := splitTrashName(entry.Name())
		if !ok || !strings.HasPrefix(name, id) {
			continue
		}
		if err := os.Remove(filepath.Join(s.trash, entry.Name())); err != nil && !os.IsNotExist(err) {
			return domain.WrapError(domain.ErrStorage, "delete trashed file", err)
		}
	}
	return nil
}

// EmptyTrash removes everything in the trash directory.
func (s *Store) EmptyTrash(ctx context.Context) error {
	entries, err := os.ReadDir(s.trash)
	if err != nil {
		return domain.WrapError(domain.ErrStorage, "list trash", err)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(s.trash, entry.Name())); err != nil {
			return domain.WrapError(domain.ErrStorage, "empty trash", err)
		}
	}
	return nil
}

func (s *Store) StoreThumbnail(ctx context.Context, id string, data []byte) error {
	shard, err := s.ensureShard(id)
	if err != nil {
		return err
	}
	tempPath := filepath.Join(shard, "."+id+thumbSuffix+".tmp")
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return domain.WrapError(domain.ErrStorage, "write thumbnail", err)
	}
	defer os.Remove(tempPath)

	target := filepath.Join(shard, id+thumbSuffix+s.suffix())
	return s.writeObject(tempPath, target)
}

func (s *Store) LoadThumbnail(ctx context.Context, id string) ([]byte, error) {
	shard, err := s.shardDir(id)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(shard, id+thumbSuffix+s.suffix())
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, domain.WrapError(domain.ErrNotFound, "thumbnail", fmt.Errorf("id %s", id))
	}
	return s.readObject(path)
}

func (s *Store) HasThumbnail(id string) bool {
	shard, err := s.shardDir(id)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(filepath.Join(shard, id+thumbSuffix+s.suffix()))
	return statErr == nil
}

func (s *Store) suffix() string {
	if s.encrypted() {
		return encSuffix
	}
	return ""
}

func (s *Store) shardDir(id string) (string, error) {
	if len(id) < 4 || strings.ContainsAny(id, "/\\.") {
		return "", domain.WrapError(domain.ErrInvalidInput, "object identifier", fmt.Errorf("malformed id %q", id))
	}
	return filepath.Join(s.root, id[:3]), nil
}

func (s *Store) ensureShard(id string) (string, error) {
	shard, err := s.shardDir(id)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(shard, 0o755); err != nil {
		return "", domain.WrapError(domain.ErrStorage, "create shard", err)
	}
	return shard, nil
}

// locateArtifact finds the single main file for the identifier, skipping
// the text and thumbnail sidecars.
func (s *Store) locateArtifact(id string) (string, error) {
	shard, err := s.shardDir(id)
	if err != nil {
		return "", err
	}
	entries, err := os.ReadDir(shard)
	if err != nil {
		return "", domain.WrapError(domain.ErrNotFound, "stored object", fmt.Errorf("id %s", id))
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, id) {
			continue
		}
		if strings.HasPrefix(name, id+textSuffix) || strings.HasPrefix(name, id+thumbSuffix) {
			continue
		}
		return filepath.Join(shard, name), nil
	}
	return "", domain.WrapError(domain.ErrNotFound, "stored object", fmt.Errorf("id %s", id))
}

func (s *Store) writeObject(src, dst string) error {
	if s.encrypted() {
		if err := crypto.SealFile(s.secret, src, dst); err != nil {
			return domain.WrapError(domain.ErrStorage, "seal object", err)
		}
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return domain.WrapError(domain.ErrStorage, "copy object", err)
	}
	return nil
}

func (s *Store) readObject(path string) ([]byte, error) {
	if s.encrypted() && strings.HasSuffix(path, encSuffix) {
		data, err := crypto.OpenBytes(s.secret, path)
		if err != nil {
			return nil, domain.WrapError(domain.ErrStorage, "decrypt object", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "read object", err)
	}
	return data, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tempPath := dst + ".tmp"
	out, err := os.Create(tempPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(tempPath)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tempPath)
		return err
	}
	if err := os.Rename(tempPath, dst); err != nil {
		_ = os.Remove(tempPath)
		return err
	}
	return nil
}

// splitTrashName separates the timestamp prefix from the original filename.
func splitTrashName(name string) (stamp, original string, ok bool) {
	idx := strings.Index(name, "_")
	if idx <= 0 || idx == len(name)-1 {
		return "", "", false
	}
	return name[:idx], name[idx+1:], true
}

func extensionOf(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" || len(ext) > 10 {
		return ""
	}
	return ext
}
