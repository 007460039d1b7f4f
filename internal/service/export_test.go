package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExportStoreSave(t *testing.T) {
	dir := t.TempDir()
	store := NewExportStore(dir)

	path, err := store.Save("<html></html>", "My Page: Export")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(path) != "My-Page-Export.html" {
		t.Fatalf("unexpected file name %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "<html></html>" {
		t.Fatalf("roundtrip failed: %v %q", err, data)
	}
}

func TestExportStoreCollision(t *testing.T) {
	dir := t.TempDir()
	store := NewExportStore(dir)

	first, err := store.Save("a", "page")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := store.Save("b", "page")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if first == second {
		t.Fatalf("collision must pick a new name, both %q", first)
	}
	if !strings.HasSuffix(second, "page-2.html") {
		t.Fatalf("expected numbered variant, got %q", second)
	}
}

func TestExportStoreCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	store := NewExportStore(dir)
	if _, err := store.Save("x", "page"); err != nil {
		t.Fatalf("save into missing dir: %v", err)
	}
}

func TestExportStoreThumbnail(t *testing.T) {
	store := NewExportStore(t.TempDir())
	path, err := store.SaveThumbnail([]byte{1, 2, 3}, "page")
	if err != nil {
		t.Fatalf("thumbnail: %v", err)
	}
	if !strings.HasSuffix(path, "page.png") {
		t.Fatalf("unexpected thumbnail name %q", path)
	}
}
