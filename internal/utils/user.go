package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// PlaceholderInitial is shown when a user has no usable name at all.
const PlaceholderInitial = "?"

const AnonymousName = "Anonymous"

// Initials returns first-plus-last initials when both names exist, otherwise the first letter of
// the first non-empty identifier.
func Initials(firstName, lastName string, others ...string) string {
	first := firstLetter(firstName)
	last := firstLetter(lastName)
	if first != "" && last != "" {
		return first + last
	}
	for _, s := range append([]string{firstName, lastName}, others...) {
		if l := firstLetter(s); l != "" {
			return l
		}
	}
	return PlaceholderInitial
}

// DisplayName prefers the full name, then the username.
func DisplayName(firstName, lastName, username string) string {
	full := strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
	if full != "" {
		return full
	}
	if u := strings.TrimSpace(username); u != "" {
		return u
	}
	return AnonymousName
}

func firstLetter(s string) string {
	s = strings.TrimSpace(s)
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return string(unicode.ToUpper(r))
		}
		s = s[size:]
	}
	return ""
}
