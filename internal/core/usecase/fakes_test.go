package usecase

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"docvault/internal/core/domain"
)

// fakeStaging keeps staged items in memory but backs content and text files
// with a real temp directory so file-writing stages work.
type fakeStaging struct {
	mu           sync.Mutex
	dir          string
	items        map[string]*domain.StagedItem
	results      map[string]*domain.PipelineResult
	contentFiles map[string]string
	discarded    []string
	cleanedUp    []string

	writeResultErr error
}

func newFakeStaging(dir string) *fakeStaging {
	return &fakeStaging{
		dir:          dir,
		items:        map[string]*domain.StagedItem{},
		results:      map[string]*domain.PipelineResult{},
		contentFiles: map[string]string{},
	}
}

func (f *fakeStaging) stage(hash, filename, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := filepath.Join(f.dir, hash+filepath.Ext(filename))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		panic(err)
	}
	f.items[hash] = &domain.StagedItem{
		Hash:             hash,
		OriginalFilename: filename,
		Source:           domain.SourceUpload,
		Status:           domain.StatusProcessing,
	}
	f.contentFiles[hash] = path
}

func (f *fakeStaging) Submit(context.Context, io.Reader, string, domain.ItemSource) (string, error) {
	panic("not used")
}

func (f *fakeStaging) Get(hash string) (*domain.StagedItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[hash]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "staged item", fmt.Errorf("hash %s", hash))
	}
	copied := *item
	if result, ok := f.results[hash]; ok {
		copied.Status = result.Status
		copied.Result = result
	}
	return &copied, nil
}

func (f *fakeStaging) List() ([]domain.StagedItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.StagedItem
	for _, item := range f.items {
		out = append(out, *item)
	}
	return out, nil
}

func (f *fakeStaging) Discard(hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, hash)
	delete(f.results, hash)
	f.discarded = append(f.discarded, hash)
	return nil
}

func (f *fakeStaging) LocateContentFile(hash string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path, ok := f.contentFiles[hash]
	if !ok {
		return "", domain.WrapError(domain.ErrNotFound, "content file", fmt.Errorf("hash %s", hash))
	}
	return path, nil
}

func (f *fakeStaging) WriteResult(hash string, result *domain.PipelineResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeResultErr != nil {
		return f.writeResultErr
	}
	f.results[hash] = result
	return nil
}

func (f *fakeStaging) ReadResult(hash string) (*domain.PipelineResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result, ok := f.results[hash]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "pipeline result", fmt.Errorf("hash %s", hash))
	}
	return result, nil
}

func (f *fakeStaging) TextLayerPath(hash string) string {
	return filepath.Join(f.dir, hash+".textlayer.txt")
}

func (f *fakeStaging) RemoveWorkingFiles(hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanedUp = append(f.cleanedUp, hash)
	return nil
}

type fakeDetector struct {
	mimeType string
	ext      string
	err      error
	calls    int
}

func (f *fakeDetector) Detect(string, string) (string, string, error) {
	f.calls++
	return f.mimeType, f.ext, f.err
}

type fakeExtractor struct {
	text  string
	calls int
}

func (f *fakeExtractor) ExtractText(context.Context, string, string) string {
	f.calls++
	return f.text
}

type fakePredictor struct {
	prediction domain.Prediction
	calls      int
	gotText    string
}

func (f *fakePredictor) Predict(_ context.Context, fullText, _ string, _ domain.Candidates) domain.Prediction {
	f.calls++
	f.gotText = fullText
	return f.prediction
}

type fakeCandidateSource struct {
	candidates domain.Candidates
	err        error
}

func (f *fakeCandidateSource) Candidates(context.Context) (domain.Candidates, error) {
	return f.candidates, f.err
}

type fakeIndex struct {
	mu        sync.Mutex
	committed map[string]string // content hash -> id
	recorded  []*domain.CommittedDocument
	recordErr error
	findErr   error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{committed: map[string]string{}}
}

func (f *fakeIndex) FindByContentHash(_ context.Context, hash string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return "", f.findErr
	}
	if id, ok := f.committed[hash]; ok {
		return id, nil
	}
	return "", domain.WrapError(domain.ErrNotFound, "committed document", fmt.Errorf("hash %s", hash))
}

func (f *fakeIndex) Record(_ context.Context, doc *domain.CommittedDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	f.committed[doc.HashOriginal] = doc.ID
	f.recorded = append(f.recorded, doc)
	return nil
}

func (f *fakeIndex) GetByID(_ context.Context, id string) (*domain.CommittedDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, doc := range f.recorded {
		if doc.ID == id {
			return doc, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "committed document", fmt.Errorf("id %s", id))
}

type fakeEvents struct {
	mu     sync.Mutex
	events []domain.Event
}

func (f *fakeEvents) Publish(event domain.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeEvents) byType(eventType domain.EventType) []domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Event
	for _, e := range f.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fakeStore struct {
	result     domain.StoreResult
	err        error
	persisted  []string // ids
	gotText    string
	gotContent string
}

func (f *fakeStore) Persist(_ context.Context, artifactPath, textPath, id, _ string) (domain.StoreResult, error) {
	if f.err != nil {
		return domain.StoreResult{}, f.err
	}
	f.persisted = append(f.persisted, id)
	f.gotContent = artifactPath
	f.gotText = textPath
	return f.result, nil
}

func (f *fakeStore) LoadStream(context.Context, string) (*domain.DocumentStream, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeStore) LoadTextLayer(context.Context, string) (string, error) { return "", nil }
func (f *fakeStore) MoveToTrash(context.Context, string) error            { return nil }
func (f *fakeStore) StoreThumbnail(context.Context, string, []byte) error { return nil }
func (f *fakeStore) LoadThumbnail(context.Context, string) ([]byte, error) {
	return nil, domain.ErrNotFound
}
func (f *fakeStore) HasThumbnail(string) bool { return false }

type fakeIDs struct {
	mu   sync.Mutex
	next int
}

func (f *fakeIDs) NewID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	return fmt.Sprintf("TESTID%04d", f.next)
}

type fakeIndexer struct {
	docs    []*domain.CommittedDocument
	gotText string
	err     error
}

func (f *fakeIndexer) IndexDocument(_ context.Context, doc *domain.CommittedDocument, text string) error {
	if f.err != nil {
		return f.err
	}
	f.docs = append(f.docs, doc)
	f.gotText = text
	return nil
}
