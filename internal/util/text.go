package util

import "strings"

// SanitizeText prepares loaded input for chunking: invalid UTF-8 sequences
// and NUL bytes are removed and line endings are normalized to "\n".
func SanitizeText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	sanitized = strings.ReplaceAll(sanitized, "\x00", "")
	sanitized = strings.ReplaceAll(sanitized, "\r\n", "\n")
	return strings.ReplaceAll(sanitized, "\r", "\n")
}
