package ingest

import (
	"path/filepath"
	"strings"
)

// AllowedExtensions is the closed set of accepted audio suffixes. Membership
// is checked case-insensitively; file content is never inspected.
var AllowedExtensions = []string{".mp3", ".wav", ".ogg"}

// ValidateExtension extracts the suffix of filename, lower-cases it, and
// returns it if allow-listed. Anything else is a bad-request carrying the
// allow-list for diagnostics.
func ValidateExtension(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return ext, nil
		}
	}
	return "", badRequest("file extension %q is not allowed; allowed: %s", ext, strings.Join(AllowedExtensions, ", "))
}
