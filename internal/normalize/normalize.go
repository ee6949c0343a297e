package normalize

import "strings"

// Username returns the canonical form of a username: surrounding whitespace
// trimmed. Case is preserved; usernames are case-sensitive identifiers.
func Username(u string) string {
	return strings.TrimSpace(u)
}

// Email returns a normalized form of an email address suitable for storage
// and comparisons: trimmed and lower-cased.
func Email(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
