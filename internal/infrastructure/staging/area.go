// Package staging implements the content-addressed inbox. Every producer
// (upload handler, mail receiver, folder watcher) submits raw bytes here;
// one directory exists per content hash.
package staging

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"docvault/internal/core/domain"
	"docvault/internal/core/ports"
)

const (
	sourceInfoFile = "source.info"
	resultFile     = "pipeline.json"
	textLayerFile  = "textlayer.txt"
	tempSuffix     = ".tmp"
)

var hashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// sourceMetadata is the provenance sidecar written next to the content file.
type sourceMetadata struct {
	OriginalFilename string    `json:"original_filename"`
	Source           string    `json:"source"`
	ReceivedAt       time.Time `json:"received_at"`
}

type Area struct {
	root    string
	trigger ports.PipelineTrigger
	logger  *slog.Logger
}

func New(root string, trigger ports.PipelineTrigger, logger *slog.Logger) (*Area, error) {
	if root == "" {
		root = "./data/inbox"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "create staging root", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Area{root: root, trigger: trigger, logger: logger}, nil
}

// Submit writes the bytes to a temp file while hashing, then claims the
// entry directory atomically. Identical bytes submitted twice (even
// concurrently) resolve to the same single entry without reprocessing.
func (a *Area) Submit(ctx context.Context, data io.Reader, filename string, source domain.ItemSource) (string, error) {
	tempPath := filepath.Join(a.root, ".incoming-"+uuid.NewString()+tempSuffix)
	hash, err := a.spoolAndHash(tempPath, data)
	if err != nil {
		return "", err
	}

	entryDir := filepath.Join(a.root, hash)
	if err := os.Mkdir(entryDir, 0o755); err != nil {
		_ = os.Remove(tempPath)
		if os.IsExist(err) {
			a.logger.Debug("staging_entry_exists", "hash", hash, "filename", filename)
			return hash, nil
		}
		return "", domain.WrapError(domain.ErrStorage, "create staging entry", err)
	}

	contentPath := filepath.Join(entryDir, hash+extensionOf(filename))
	if err := os.Rename(tempPath, contentPath); err != nil {
		_ = os.Remove(tempPath)
		return "", domain.WrapError(domain.ErrStorage, "move content into entry", err)
	}

	meta := sourceMetadata{
		OriginalFilename: filename,
		Source:           string(source),
		ReceivedAt:       time.Now().UTC(),
	}
	if err := a.writeJSONAtomic(filepath.Join(entryDir, sourceInfoFile), meta); err != nil {
		return "", err
	}

	a.logger.Info("file_staged", "hash", hash, "filename", filename, "source", source)

	if a.trigger != nil {
		if err := a.trigger.TriggerPipeline(ctx, hash); err != nil {
			// the entry is durable; a later listing or retrigger picks it up
			return hash, domain.WrapError(domain.ErrTemporary, "trigger pipeline", err)
		}
	}
	return hash, nil
}

func (a *Area) Get(hash string) (*domain.StagedItem, error) {
	if err := validateHash(hash); err != nil {
		return nil, err
	}
	entryDir := filepath.Join(a.root, hash)
	if _, err := os.Stat(entryDir); err != nil {
		if os.IsNotExist(err) {
			return nil, domain.WrapError(domain.ErrNotFound, "staged item", fmt.Errorf("hash %s", hash))
		}
		return nil, domain.WrapError(domain.ErrStorage, "stat staging entry", err)
	}
	return a.readEntry(entryDir, hash), nil
}

// List returns staged items most recently created first.
func (a *Area) List() ([]domain.StagedItem, error) {
	entries, err := os.ReadDir(a.root)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "list staging root", err)
	}

	items := make([]domain.StagedItem, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || !hashPattern.MatchString(entry.Name()) {
			continue
		}
		item := a.readEntry(filepath.Join(a.root, entry.Name()), entry.Name())
		if item != nil {
			items = append(items, *item)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		if !items[i].ReceivedAt.Equal(items[j].ReceivedAt) {
			return items[i].ReceivedAt.After(items[j].ReceivedAt)
		}
		return items[i].Hash > items[j].Hash
	})
	return items, nil
}

// Discard removes the entry recursively; already-gone entries are not an
// error.
func (a *Area) Discard(hash string) error {
	if err := validateHash(hash); err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(a.root, hash)); err != nil {
		return domain.WrapError(domain.ErrStorage, "discard staging entry", err)
	}
	return nil
}

// LocateContentFile returns the one regular file in the entry that is not a
// sidecar, result, or temp file.
func (a *Area) LocateContentFile(hash string) (string, error) {
	if err := validateHash(hash); err != nil {
		return "", err
	}
	entryDir := filepath.Join(a.root, hash)
	entries, err := os.ReadDir(entryDir)
	if err != nil {
		return "", domain.WrapError(domain.ErrNotFound, "locate content file", err)
	}

	var found []string
	for _, entry := range entries {
		if entry.IsDir() || isWorkingFile(entry.Name()) {
			continue
		}
		found = append(found, filepath.Join(entryDir, entry.Name()))
	}
	if len(found) != 1 {
		return "", domain.WrapError(domain.ErrNotFound, "locate content file",
			fmt.Errorf("%d candidate files in entry %s", len(found), hash))
	}
	return found[0], nil
}

func (a *Area) WriteResult(hash string, result *domain.PipelineResult) error {
	if err := validateHash(hash); err != nil {
		return err
	}
	return a.writeJSONAtomic(filepath.Join(a.root, hash, resultFile), result)
}

func (a *Area) ReadResult(hash string) (*domain.PipelineResult, error) {
	if err := validateHash(hash); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(a.root, hash, resultFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.WrapError(domain.ErrNotFound, "pipeline result", fmt.Errorf("hash %s", hash))
		}
		return nil, domain.WrapError(domain.ErrStorage, "read pipeline result", err)
	}
	var result domain.PipelineResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "parse pipeline result", err)
	}
	return &result, nil
}

func (a *Area) TextLayerPath(hash string) string {
	return filepath.Join(a.root, hash, textLayerFile)
}

// RemoveWorkingFiles drops extracted text and temp artifacts but keeps the
// content file, provenance and result descriptor in place.
func (a *Area) RemoveWorkingFiles(hash string) error {
	if err := validateHash(hash); err != nil {
		return err
	}
	entryDir := filepath.Join(a.root, hash)
	entries, err := os.ReadDir(entryDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return domain.WrapError(domain.ErrStorage, "list staging entry", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if name == textLayerFile || strings.HasSuffix(name, tempSuffix) {
			if err := os.Remove(filepath.Join(entryDir, name)); err != nil && !os.IsNotExist(err) {
				return domain.WrapError(domain.ErrStorage, "remove working file", err)
			}
		}
	}
	return nil
}

func (a *Area) spoolAndHash(tempPath string, data io.Reader) (string, error) {
	f, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", domain.WrapError(domain.ErrStorage, "create staging temp file", err)
	}

	hasher := sha256.New()
	_, copyErr := io.Copy(io.MultiWriter(f, hasher), data)
	closeErr := f.Close()
	if copyErr != nil {
		_ = os.Remove(tempPath)
		return "", domain.WrapError(domain.ErrStorage, "write staging temp file", copyErr)
	}
	if closeErr != nil {
		_ = os.Remove(tempPath)
		return "", domain.WrapError(domain.ErrStorage, "close staging temp file", closeErr)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func (a *Area) readEntry(entryDir, hash string) *domain.StagedItem {
	item := &domain.StagedItem{
		Hash:             hash,
		OriginalFilename: hash,
		Source:           domain.SourceUpload,
		Status:           domain.StatusProcessing,
		ProgressMessage:  "Processing...",
	}

	sourceTagged := false
	if data, err := os.ReadFile(filepath.Join(entryDir, sourceInfoFile)); err == nil {
		var meta sourceMetadata
		if err := json.Unmarshal(data, &meta); err == nil {
			if meta.OriginalFilename != "" {
				item.OriginalFilename = meta.OriginalFilename
			}
			if meta.Source != "" {
				item.Source = domain.ItemSource(meta.Source)
				sourceTagged = true
			}
			item.ReceivedAt = meta.ReceivedAt
		}
	}
	if item.ReceivedAt.IsZero() {
		if info, err := os.Stat(entryDir); err == nil {
			item.ReceivedAt = info.ModTime().UTC()
		}
	}
	if item.OriginalFilename == hash {
		if path, err := a.LocateContentFile(hash); err == nil {
			item.OriginalFilename = filepath.Base(path)
		}
	}
	// a staged .eml implies inbound mail when the sidecar lacks a source tag
	if !sourceTagged && strings.HasSuffix(strings.ToLower(item.OriginalFilename), ".eml") {
		item.Source = domain.SourceEmail
	}

	if result, err := a.ReadResult(hash); err == nil {
		item.Status = result.Status
		item.ProgressMessage = ""
		item.Result = result
	}
	return item
}

func (a *Area) writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return domain.WrapError(domain.ErrStorage, "marshal descriptor", err)
	}
	tempPath := path + "." + uuid.NewString() + tempSuffix
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return domain.WrapError(domain.ErrStorage, "write descriptor", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return domain.WrapError(domain.ErrStorage, "publish descriptor", err)
	}
	return nil
}

func isWorkingFile(name string) bool {
	return name == sourceInfoFile ||
		name == resultFile ||
		name == textLayerFile ||
		strings.HasSuffix(name, tempSuffix)
}

func validateHash(hash string) error {
	if !hashPattern.MatchString(hash) {
		return domain.WrapError(domain.ErrInvalidInput, "content hash", fmt.Errorf("malformed hash %q", hash))
	}
	return nil
}

func extensionOf(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || len(ext) > 10 {
		return ""
	}
	return ext
}
