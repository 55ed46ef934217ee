package staging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"docvault/internal/core/domain"
)

const helloDigest = "5891b5b522d5df086d0ff0b110fbd9d21bb4fc7163af34d08286a2e846f6be03"

type recordingTrigger struct {
	mu     sync.Mutex
	hashes []string
}

func (t *recordingTrigger) TriggerPipeline(_ context.Context, hash string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hashes = append(t.hashes, hash)
	return nil
}

func (t *recordingTrigger) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.hashes)
}

func newTestArea(t *testing.T) (*Area, *recordingTrigger) {
	t.Helper()
	trigger := &recordingTrigger{}
	area, err := New(t.TempDir(), trigger, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return area, trigger
}

func TestSubmitCreatesContentAddressedEntry(t *testing.T) {
	area, trigger := newTestArea(t)

	hash, err := area.Submit(context.Background(), bytes.NewReader([]byte("hello\n")), "invoice.pdf", domain.SourceUpload)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if hash != helloDigest {
		t.Fatalf("hash = %s, want %s", hash, helloDigest)
	}
	if trigger.count() != 1 {
		t.Fatalf("trigger count = %d, want 1", trigger.count())
	}

	contentPath, err := area.LocateContentFile(hash)
	if err != nil {
		t.Fatalf("LocateContentFile: %v", err)
	}
	if got := filepath.Base(contentPath); got != hash+".pdf" {
		t.Fatalf("content file = %s, want %s.pdf", got, hash)
	}
	data, err := os.ReadFile(contentPath)
	if err != nil {
		t.Fatalf("read content: %v", err)
	}
	if string(data) != "hello\n" {
		t.Fatalf("content = %q", data)
	}

	item, err := area.Get(hash)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if item.OriginalFilename != "invoice.pdf" {
		t.Errorf("filename = %s", item.OriginalFilename)
	}
	if item.Source != domain.SourceUpload {
		t.Errorf("source = %s", item.Source)
	}
	if item.Status != domain.StatusProcessing {
		t.Errorf("status = %s, want processing before a result exists", item.Status)
	}
}

func TestSubmitSameBytesIsIdempotent(t *testing.T) {
	area, trigger := newTestArea(t)
	ctx := context.Background()

	first, err := area.Submit(ctx, bytes.NewReader([]byte("same payload")), "a.txt", domain.SourceUpload)
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	second, err := area.Submit(ctx, bytes.NewReader([]byte("same payload")), "b.txt", domain.SourceScan)
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if first != second {
		t.Fatalf("hashes differ: %s vs %s", first, second)
	}
	if trigger.count() != 1 {
		t.Fatalf("trigger count = %d, want 1 (duplicate submission must not retrigger)", trigger.count())
	}

	// the first submission's provenance wins
	item, err := area.Get(first)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if item.OriginalFilename != "a.txt" {
		t.Errorf("filename = %s, want a.txt", item.OriginalFilename)
	}
}

func TestSubmitConcurrentSameBytesSingleEntry(t *testing.T) {
	area, _ := newTestArea(t)
	ctx := context.Background()
	payload := []byte("concurrent content")

	const workers = 8
	hashes := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := area.Submit(ctx, bytes.NewReader(payload), "doc.txt", domain.SourceUpload)
			if err != nil {
				t.Errorf("Submit: %v", err)
				return
			}
			hashes[i] = h
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if hashes[i] != hashes[0] {
			t.Fatalf("hash mismatch at %d: %s vs %s", i, hashes[i], hashes[0])
		}
	}

	items, err := area.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("entries = %d, want exactly 1", len(items))
	}
	// no stray temp files may survive the race
	entries, err := os.ReadDir(area.root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			t.Errorf("stray file in staging root: %s", e.Name())
		}
	}
}

func TestListNewestFirst(t *testing.T) {
	area, _ := newTestArea(t)
	ctx := context.Background()

	older, err := area.Submit(ctx, bytes.NewReader([]byte("older")), "old.txt", domain.SourceUpload)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	newer, err := area.Submit(ctx, bytes.NewReader([]byte("newer")), "new.txt", domain.SourceUpload)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	items, err := area.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d", len(items))
	}
	if items[0].Hash != newer || items[1].Hash != older {
		t.Fatalf("order = [%s %s], want newest first", items[0].Hash, items[1].Hash)
	}
}

func TestResultRoundTripAndStatus(t *testing.T) {
	area, _ := newTestArea(t)
	hash, err := area.Submit(context.Background(), bytes.NewReader([]byte("with result")), "r.txt", domain.SourceUpload)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := area.ReadResult(hash); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("ReadResult before write: err = %v, want not-found", err)
	}

	want := &domain.PipelineResult{
		Status:           domain.StatusSuccess,
		Hash:             hash,
		OriginalFilename: "r.txt",
		MimeType:         "text/plain",
		CompletedAt:      time.Now().UTC().Truncate(time.Second),
	}
	if err := area.WriteResult(hash, want); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	got, err := area.ReadResult(hash)
	if err != nil {
		t.Fatalf("ReadResult: %v", err)
	}
	if got.Status != want.Status || got.MimeType != want.MimeType {
		t.Fatalf("result = %+v", got)
	}

	item, err := area.Get(hash)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if item.Status != domain.StatusSuccess {
		t.Errorf("status = %s, want success after result written", item.Status)
	}
	if item.Result == nil {
		t.Error("Result not attached to staged item")
	}
}

func TestDiscardIsIdempotent(t *testing.T) {
	area, _ := newTestArea(t)
	hash, err := area.Submit(context.Background(), bytes.NewReader([]byte("gone")), "g.txt", domain.SourceUpload)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := area.Discard(hash); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if err := area.Discard(hash); err != nil {
		t.Fatalf("second Discard: %v", err)
	}
	if _, err := area.Get(hash); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("Get after discard: err = %v, want not-found", err)
	}
}

func TestRemoveWorkingFilesKeepsContentAndDescriptors(t *testing.T) {
	area, _ := newTestArea(t)
	hash, err := area.Submit(context.Background(), bytes.NewReader([]byte("work")), "w.txt", domain.SourceUpload)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := os.WriteFile(area.TextLayerPath(hash), []byte("extracted"), 0o644); err != nil {
		t.Fatalf("write text layer: %v", err)
	}
	if err := area.WriteResult(hash, &domain.PipelineResult{Status: domain.StatusSuccess, Hash: hash}); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}

	if err := area.RemoveWorkingFiles(hash); err != nil {
		t.Fatalf("RemoveWorkingFiles: %v", err)
	}
	if _, err := os.Stat(area.TextLayerPath(hash)); !os.IsNotExist(err) {
		t.Error("text layer file still present")
	}
	if _, err := area.LocateContentFile(hash); err != nil {
		t.Errorf("content file lost: %v", err)
	}
	if _, err := area.ReadResult(hash); err != nil {
		t.Errorf("result descriptor lost: %v", err)
	}
}

func TestEmailSourceInferredFromExtension(t *testing.T) {
	area, _ := newTestArea(t)
	hash, err := area.Submit(context.Background(), bytes.NewReader([]byte("From: a@b\n\nhi")), "message.eml", domain.SourceUpload)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	// drop the sidecar so the extension heuristic has to decide
	if err := os.Remove(filepath.Join(area.root, hash, sourceInfoFile)); err != nil {
		t.Fatalf("remove sidecar: %v", err)
	}
	item, err := area.Get(hash)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if item.Source != domain.SourceEmail {
		t.Errorf("source = %s, want email", item.Source)
	}
}

func TestRejectsMalformedHash(t *testing.T) {
	area, _ := newTestArea(t)
	for _, bad := range []string{"", "../../etc", "ABCD", "zz91b5b522d5df086d0ff0b110fbd9d21bb4fc7163af34d08286a2e846f6be03"} {
		if _, err := area.Get(bad); !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Errorf("Get(%q): err = %v, want invalid-input", bad, err)
		}
	}
}
