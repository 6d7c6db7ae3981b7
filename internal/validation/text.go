package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxCommentLength is the longest accepted comment, in characters.
const MaxCommentLength = 2000

// ValidateComment requires 1 to MaxCommentLength characters of non-blank text.
func ValidateComment(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("comment must not be empty")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return fmt.Errorf("comment must not exceed %d characters", MaxCommentLength)
	}
	return nil
}

// ValidateRequired rejects blank values and values longer than max characters.
// max <= 0 disables the length check.
func ValidateRequired(field, value string, max int) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	if max > 0 && utf8.RuneCountInString(value) > max {
		return fmt.Errorf("%s must not exceed %d characters", field, max)
	}
	return nil
}
