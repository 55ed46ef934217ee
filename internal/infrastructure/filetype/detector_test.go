package filetype

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDetectPDFByMagicBytes(t *testing.T) {
	// content wins even when the filename lies
	path := writeTemp(t, "renamed.txt", []byte("%PDF-1.7\n%fake minimal pdf"))

	d := NewDetector()
	mime, ext, err := d.Detect(path, "renamed.txt")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if mime != "application/pdf" {
		t.Errorf("mime = %s", mime)
	}
	if ext != ".pdf" {
		t.Errorf("ext = %s", ext)
	}
}

func TestDetectPlainTextKeepsFilenameExtension(t *testing.T) {
	path := writeTemp(t, "blob", []byte("Subject: hello\n\nplain mail body\n"))

	d := NewDetector()
	mime, ext, err := d.Detect(path, "message.eml")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if mime != "text/plain" {
		t.Errorf("mime = %s", mime)
	}
	if ext != ".eml" {
		t.Errorf("ext = %s, want filename extension for generic text", ext)
	}
}

func TestDetectMissingFile(t *testing.T) {
	d := NewDetector()
	if _, _, err := d.Detect(filepath.Join(t.TempDir(), "absent"), "absent"); err == nil {
		t.Fatal("Detect on missing file succeeded")
	}
}
