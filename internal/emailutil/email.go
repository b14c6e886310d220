package emailutil

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Normalize normalizes an email address for consistent comparison
// by converting to lowercase and trimming whitespace
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ExtractDomain extracts domain from email address
func ExtractDomain(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

// IsValid reports whether the address has the rough shape of an email.
// Intentionally loose, matching the dashboard's client-side check.
func IsValid(email string) bool {
	return emailPattern.MatchString(email)
}

// LocalPart returns the part before the @, used as a default display name.
func LocalPart(email string) string {
	at := strings.IndexByte(email, '@')
	if at < 0 {
		return email
	}
	return email[:at]
}
