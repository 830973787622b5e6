package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/utils"
)

// LocalSink writes exports under a directory on the local filesystem.
type LocalSink struct {
	dir string
}

func NewLocalSink(dir string) *LocalSink {
	return &LocalSink{dir: dir}
}

func (s *LocalSink) Save(ctx context.Context, key string, data []byte, contentType string) error {
	const op = "storage.LocalSink.Save"
	cleaned, err := cleanKey(op, key)
	if err != nil {
		return utils.WrapIfNotNil(err)
	}

	path := filepath.Join(s.dir, filepath.FromSlash(cleaned))
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return utils.WrapIfNotNil(storageFailure(op, "mkdir "+dir, err))
	}

	// Atomic write: temp file + rename
	tmp, err := os.CreateTemp(dir, ".export-*.tmp")
	if err != nil {
		return utils.WrapIfNotNil(storageFailure(op, "create temp", err))
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return utils.WrapIfNotNil(storageFailure(op, "write", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return utils.WrapIfNotNil(storageFailure(op, "close", err))
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return utils.WrapIfNotNil(storageFailure(op, "rename", err))
	}
	return nil
}

func (s *LocalSink) URL(ctx context.Context, key string) (string, error) {
	cleaned, err := cleanKey("storage.LocalSink.URL", key)
	if err != nil {
		return "", utils.WrapIfNotNil(err)
	}
	return filepath.Join(s.dir, filepath.FromSlash(cleaned)), nil
}

func (s *LocalSink) Type() string { return "local" }

func (s *LocalSink) Dir() string { return s.dir }
