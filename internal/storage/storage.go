package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// ImageStore is where uploaded photos live.
type ImageStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	PublicURL(ctx context.Context, path string) (string, error)
}

// ObjectPath builds "<userID>/photo-<unix millis>.<ext>". The extension comes
// from the original filename and defaults to jpg.
func ObjectPath(userID, filename string, now time.Time) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("%s/photo-%d.%s", userID, now.UnixMilli(), ext)
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
