package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// identRegex matches channel and shape names usable in schedule documents.
var identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// ValidateChannelName validates a channel name declared in a channel table.
//
// Names are referenced from schedule documents, so they follow identifier rules:
//   - No empty names
//   - Maximum length of 64 characters
//   - Letters, digits, '_', '.', '-' only, not starting with a digit
func ValidateChannelName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidChannel, "channel name cannot be empty")
	}
	if len(name) > 64 {
		return New(ErrCodeInvalidChannel, "channel name too long (max 64 characters)")
	}
	if !identRegex.MatchString(name) {
		return New(ErrCodeInvalidChannel, "invalid channel name: %q", name)
	}
	return nil
}

// ValidateShapeName validates a user-defined shape name.
// The names "rect", "hann" and "triangle" are reserved for builtin shapes.
func ValidateShapeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "shape name cannot be empty")
	}
	if !identRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid shape name: %q", name)
	}
	switch strings.ToLower(name) {
	case "rect", "hann", "triangle":
		return New(ErrCodeInvalidInput, "shape name %q is reserved", name)
	}
	return nil
}

// ValidatePath validates a document path passed to the CLI or server.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}
