package attachment

import (
	"encoding/hex"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const (
	sanitizedNameMaxLen = 64
	fallbackName        = "file"
)

// BuildKey derives a globally unique object key: managed prefix, coarse
// timestamp, random component, then a sanitized rendering of the original
// filename. Uniqueness never depends on the filename.
func BuildKey(prefix string, now time.Time, filename string) string {
	id := uuid.New()
	return path.Join(prefix,
		now.UTC().Format("2006/01"),
		hex.EncodeToString(id[:])+"-"+SanitizeFilename(filename))
}

// SanitizeFilename renders a display filename safe for use inside an object
// key: no path separators, no traversal sequences, no control characters.
// The result is never used as a filesystem path.
func SanitizeFilename(name string) string {
	// Keep only the last path element, whatever separator the client used.
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}

	cleaned := strings.Trim(b.String(), ".")
	for strings.Contains(cleaned, "..") {
		cleaned = strings.ReplaceAll(cleaned, "..", ".")
	}
	if cleaned == "" {
		return fallbackName
	}
	if len(cleaned) > sanitizedNameMaxLen {
		cleaned = cleaned[len(cleaned)-sanitizedNameMaxLen:]
		cleaned = strings.TrimLeft(cleaned, ".")
		if cleaned == "" {
			return fallbackName
		}
	}
	return cleaned
}
