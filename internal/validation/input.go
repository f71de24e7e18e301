package validation

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FontExtensions are the font file types the loader accepts.
var FontExtensions = []string{".ttf", ".otf"}

// ValidateFileExtension validates file extensions against an allowlist
func ValidateFileExtension(filename string, allowedExtensions []string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return fmt.Errorf("file must have an extension")
	}

	for _, allowed := range allowedExtensions {
		if ext == strings.ToLower(allowed) {
			return nil
		}
	}

	return fmt.Errorf("file extension %q is not allowed", ext)
}

// SanitizeText removes null bytes and control characters from text that
// will be laid out. Tabs and newlines are kept.
func SanitizeText(input string) string {
	if !strings.ContainsFunc(input, isControl) {
		return input
	}

	var sanitized strings.Builder
	sanitized.Grow(len(input))
	for _, r := range input {
		if !isControl(r) {
			sanitized.WriteRune(r)
		}
	}

	return sanitized.String()
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return r < 32 || r == 0x7f
}
