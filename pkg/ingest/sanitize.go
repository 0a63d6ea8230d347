package ingest

import "strings"

// illegal holds the characters stripped from candidate file names.
const illegal = `\/*?:"<>|`

// SanitizeName removes characters that are unsafe in filesystem paths and
// trims surrounding whitespace. It never fails and may return an empty
// string; sanitizing an already-clean name is a no-op.
func SanitizeName(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(illegal, r) {
			return -1
		}
		return r
	}, raw)
	return strings.TrimSpace(cleaned)
}
