package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// ValidateIdentity checks that an approver identity looks like local@domain.
// Internal directory identities such as "alice@x" are accepted.
func ValidateIdentity(identity string) error {
	local, domain, ok := strings.Cut(strings.TrimSpace(identity), "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") || strings.ContainsAny(identity, " \t") {
		return fmt.Errorf("invalid identity format: %q", identity)
	}
	return nil
}

// ValidateText checks that a required free-text field is present and bounded
func ValidateText(field, value string, maxLen int) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	if utf8.RuneCountInString(value) > maxLen {
		return fmt.Errorf("%s exceeds %d characters", field, maxLen)
	}
	return nil
}

// SanitizeString removes control characters and surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}
