package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// fileBackend stores the snapshot as a plain file in a local directory,
// published via write-to-temp plus rename so readers never observe a
// partial document.
type fileBackend struct {
	path string
}

func newFileBackend(dir, file string) *fileBackend {
	return &fileBackend{path: filepath.Join(dir, file)}
}

func (f *fileBackend) Name() string { return "file" }

func (f *fileBackend) Fetch(_ context.Context) ([]byte, error) {
	return os.ReadFile(f.path)
}

func (f *fileBackend) Publish(_ context.Context, scratchPath string) error {
	src, err := os.Open(scratchPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("copy snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
