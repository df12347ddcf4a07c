package storage

import (
	"fmt"
	"mime"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DownloadPrefix is the route under which artifacts are served.
const DownloadPrefix = "/files/"

// Policy is the upload admission rule shared by every backend.
type Policy struct {
	MaxBytes     int64
	AllowedTypes []string
}

// Check rejects artifacts that exceed the size limit or have a content type
// outside the allow list. An empty allow list admits any type.
func (p Policy) Check(size int64, contentType string) error {
	if p.MaxBytes > 0 && size > p.MaxBytes {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, size)
	}
	if len(p.AllowedTypes) > 0 && !slices.Contains(p.AllowedTypes, baseType(contentType)) {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	return nil
}

func baseType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return contentType
	}
	return mt
}

// newKey builds folder/yyyy/mm/<uuid><ext>.
func newKey(folderHint, contentType string, now time.Time) string {
	folder := sanitizeFolder(folderHint)
	return path.Join(folder, now.UTC().Format("2006/01"), uuid.NewString()+extensionFor(contentType))
}

var preferredExt = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

func extensionFor(contentType string) string {
	mt := baseType(contentType)
	if ext, ok := preferredExt[mt]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mt); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

func sanitizeFolder(hint string) string {
	hint = strings.ToLower(strings.TrimSpace(hint))
	var b strings.Builder
	for _, r := range hint {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "misc"
	}
	return b.String()
}

// validKey rejects keys that would escape the store root.
func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}

func downloadURL(baseURL, key string) string {
	return strings.TrimRight(baseURL, "/") + DownloadPrefix + key
}
