package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSizeLimitedWriterRollsOver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	writer, err := newSizeLimitedWriter(path, 1)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	defer writer.Close()

	chunk := make([]byte, 512*1024)
	for i := 0; i < 3; i++ {
		if _, err := writer.Write(chunk); err != nil {
			t.Fatalf("write chunk %d: %v", i, err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat log: %v", err)
	}
	if info.Size() > 1024*1024 {
		t.Fatalf("expected log <= 1MB, got %d", info.Size())
	}
	prev, err := os.Stat(path + ".1")
	if err != nil {
		t.Fatalf("stat rolled segment: %v", err)
	}
	if prev.Size() != 1024*1024 {
		t.Fatalf("rolled segment size = %d, want %d", prev.Size(), 1024*1024)
	}
}

func TestSizeLimitedWriterResumesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte("previous\n"), 0o644); err != nil {
		t.Fatalf("seed log: %v", err)
	}
	writer, err := newSizeLimitedWriter(path, 1)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	defer writer.Close()
	if _, err := writer.Write([]byte("next\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "previous\nnext\n" {
		t.Fatalf("content = %q", b)
	}
}
