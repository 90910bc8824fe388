package manifest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mwantia/photosync/pkg/db/models"
)

const (
	defaultExtension = "bin"
	partialSuffix    = ".part"
)

var contentTypeExtensions = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/gif":       "gif",
	"image/heic":      "heic",
	"image/webp":      "webp",
	"video/mp4":       "mp4",
	"video/quicktime": "mov",
	"video/x-msvideo": "avi",
}

// ExtensionFor picks the file extension for a record: its own extension,
// else one derived from the content type, else "bin".
func ExtensionFor(record *models.FileRecord) string {
	ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(record.Extension), "."))
	if ext != "" && isSafeExtension(ext) {
		return ext
	}

	if ext, ok := contentTypeExtensions[strings.ToLower(record.ContentType)]; ok {
		return ext
	}
	return defaultExtension
}

// ContentPath returns <root>/<hash[0:2]>/<hash>.<ext>
func ContentPath(root, hash, ext string) (string, error) {
	if len(hash) < 2 || !isHex(hash) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHash, hash)
	}
	return filepath.Join(root, hash[:2], hash+"."+ext), nil
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

func isSafeExtension(ext string) bool {
	if len(ext) > 16 {
		return false
	}
	for _, r := range ext {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
