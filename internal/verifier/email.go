package verifier

import (
	"regexp"
	"strings"
)

// non-whitespace local part, "@", non-whitespace domain containing a dot
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail trims and lowercases an address. It is idempotent.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail reports whether a normalized address has a basic email shape.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
