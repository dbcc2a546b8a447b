package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxIdentifierLength bounds room names and object ids.
const maxIdentifierLength = 256

// ValidateIdentifier validates a room name or object id.
//
// Identifiers end up as actor labels, cache keys and DOT node names, so the
// rules are conservative:
//   - No empty or whitespace-only names
//   - No control characters or null bytes
//   - Maximum length of 256 characters
func ValidateIdentifier(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return New(ErrCodeSchema, "%s cannot be empty", kind)
	}

	if len(id) > maxIdentifierLength {
		return New(ErrCodeSchema, "%s %q too long (max %d characters)", kind, id[:32]+"...", maxIdentifierLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return &Error{
				Code:     ErrCodeSchema,
				Message:  kind + " contains invalid control characters",
				Subjects: []string{id},
			}
		}
	}

	return nil
}

// ValidatePath validates an output path given on the command line or over
// the API. It rejects traversal sequences and null bytes.
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidInput, "path cannot contain path traversal sequences (..)")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// modelNameRegex matches provider model names such as "gpt-4.1" or "gpt-4o-mini".
var modelNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:/-]{0,127}$`)

// ValidateModelName validates a text-understanding model name.
func ValidateModelName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "model name cannot be empty")
	}
	if !modelNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid model name: %q", name)
	}
	return nil
}
