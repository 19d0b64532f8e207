// Package sink implements the Artifact Sink: a place exported/committed
// datasets get written to, returning a locator. Grounded on the teacher's
// atomic write-to-temp-then-rename pattern in internal/share/store.go.
package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalSink writes artifacts under a configured base directory, returning
// a file:// locator. Swapping in an object-store-backed Sink satisfying
// the same interface is a caller concern.
type LocalSink struct {
	baseDir string
}

func NewLocalSink(baseDir string) *LocalSink {
	return &LocalSink{baseDir: baseDir}
}

// Put writes data under key (content_type is accepted for interface parity
// with a remote sink but unused locally — the filesystem has no content-type
// header) and returns a file:// locator.
func (s *LocalSink) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("sink: empty key")
	}
	path := filepath.Join(s.baseDir, filepath.Clean(string(filepath.Separator)+key))

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("sink: mkdir %s: %w", dir, err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o600); err != nil {
		return "", fmt.Errorf("sink: write %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return "", fmt.Errorf("sink: rename %s: %w", tempPath, err)
	}

	return "file://" + path, nil
}
