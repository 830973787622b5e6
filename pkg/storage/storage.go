package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
)

// Sink stores rendered exports. Keys are slash separated, e.g. "{session_id}/bio101_notes.pdf".
type Sink interface {
	Save(ctx context.Context, key string, data []byte, contentType string) error
	// URL returns a link to a saved export. Local sinks return the file path.
	URL(ctx context.Context, key string) (string, error)
	// Type returns "local" or "s3".
	Type() string
}

// cleanKey rejects keys that would escape the sink root.
func cleanKey(op string, key string) (string, error) {
	cleaned := path.Clean(strings.TrimSpace(key))
	if cleaned == "." || cleaned == "" || strings.HasPrefix(cleaned, "/") || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", model.NewError(model.KindInvalidConfig, op, fmt.Sprintf("invalid storage key %q", key), nil)
	}
	return cleaned, nil
}

func storageFailure(op string, message string, err error) error {
	return model.NewError(model.KindStorageFailed, op, message, err)
}
