package errors

import (
	"strings"
	"unicode"
)

// MaxIDLength is the longest track or annotation identifier accepted.
const MaxIDLength = 256

// ValidateTrackID validates a track identifier used to build event topics.
//
// Topic names are "<track>.<event>", so a track id must not contain a dot.
// The remaining rules match [ValidateID].
func ValidateTrackID(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if strings.Contains(id, ".") {
		return New(ErrCodeInvalidID, "track id %q must not contain '.'", id)
	}
	return nil
}

// ValidateID validates an annotation or inset identifier.
//
// Rules:
//   - No empty ids
//   - No control characters or null bytes
//   - Maximum length of [MaxIDLength] bytes
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "id cannot be empty")
	}
	if len(id) > MaxIDLength {
		return New(ErrCodeInvalidID, "id too long (max %d characters)", MaxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidID, "id %q contains control characters", id)
		}
	}
	return nil
}
