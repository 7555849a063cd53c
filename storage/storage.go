package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
)

// BlobStore persists binary objects and resolves them to public URLs.
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte) (string, error)
}

// ImageKey builds the object key for an uploaded project image.
func ImageKey(filename string, now time.Time) string {
	return fmt.Sprintf("projects/%d_%s", now.UnixMilli(), sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return strings.ReplaceAll(name, " ", "_")
}
