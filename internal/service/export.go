package service

import (
	"fmt"
	"os"
	"path/filepath"

	"pagefreeze/snap"
)

// ExportStore persists finished snapshots under one output directory.
// Failures come back as human-readable reasons suitable for showing to
// whoever triggered the capture.
type ExportStore struct {
	dir string
}

func NewExportStore(dir string) *ExportStore {
	return &ExportStore{dir: dir}
}

// Save writes the document text under a sanitized file name, picking a
// numbered variant when the name is taken. It returns the path written.
func (s *ExportStore) Save(documentText, suggestedFileName string) (string, error) {
	path, err := s.prepare(suggestedFileName, ".html")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(documentText), 0o644); err != nil {
		return "", fmt.Errorf("download failed to start: %v", err)
	}
	return path, nil
}

// SaveThumbnail writes a PNG thumbnail next to the snapshot.
func (s *ExportStore) SaveThumbnail(data []byte, suggestedFileName string) (string, error) {
	path, err := s.prepare(suggestedFileName, ".png")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("thumbnail write failed: %v", err)
	}
	return path, nil
}

func (s *ExportStore) prepare(suggestedFileName, ext string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("download failed to start: %v", err)
	}
	name := snap.SanitizeFileName(suggestedFileName)
	path := filepath.Join(s.dir, name+ext)
	for i := 2; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
		path = filepath.Join(s.dir, fmt.Sprintf("%s-%d%s", name, i, ext))
		if i > 1000 {
			return "", fmt.Errorf("download failed to start: too many files named %s", name)
		}
	}
}
