package localfs

import (
	"context"
	"os"
	"strings"
	"testing"
)

func TestSaveAndRemove(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	path, err := s.Save(context.Background(), "upload-1.pdf", strings.NewReader("%PDF"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("staged file missing: %v", err)
	}
	if string(data) != "%PDF" {
		t.Errorf("staged content = %q", data)
	}

	if err := s.Remove(context.Background(), "upload-1.pdf"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file still present after Remove")
	}
}

func TestSaveStripsDirectoryComponents(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	path, err := s.Save(context.Background(), "../../escape.pdf", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(path, dir) {
		t.Errorf("staged path %q escaped base dir %q", path, dir)
	}
}
