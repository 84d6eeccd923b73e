package validation

import (
	"errors"
	"strings"
	"unicode"
)

// ErrQueryTooLong is returned when a location query exceeds the maximum length.
var ErrQueryTooLong = errors.New("location too long")

// ErrQueryInvalidChars is returned when a location query contains disallowed characters.
var ErrQueryInvalidChars = errors.New("location contains invalid characters")

// ErrUserEmpty is returned when a command arrives without a user identity.
var ErrUserEmpty = errors.New("user is required")

// ErrUserInvalid is returned when a user identity contains whitespace or control characters.
var ErrUserInvalid = errors.New("user contains invalid characters")

// DefaultMaxQueryLen bounds location queries passed to geocoding providers.
const DefaultMaxQueryLen = 100

// maxUserLen is generous for chat nicks and matrix-style IDs.
const maxUserLen = 64

// NormalizeQuery trims a location query and checks its length (in runes) and characters:
// letters (Unicode), digits, space and the punctuation found in place names and postal codes.
// A blank query is valid and returns "" (the caller falls back to the saved location).
func NormalizeQuery(input string, maxLen int) (string, error) {
	s := strings.Join(strings.Fields(input), " ")
	if s == "" {
		return "", nil
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxQueryLen
	}
	r := []rune(s)
	if len(r) > maxLen {
		return "", ErrQueryTooLong
	}
	for _, c := range r {
		if !isAllowedQueryRune(c) {
			return "", ErrQueryInvalidChars
		}
	}
	return s, nil
}

func isAllowedQueryRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r) {
		return true
	}
	switch r {
	case ' ', ',', '-', '.', '\'', '#', '(', ')', '/':
		return true
	}
	return false
}

// ValidateUser trims and checks a user identity. Identities are single tokens.
func ValidateUser(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", ErrUserEmpty
	}
	if len([]rune(s)) > maxUserLen {
		return "", ErrUserInvalid
	}
	for _, c := range s {
		if unicode.IsSpace(c) || unicode.IsControl(c) {
			return "", ErrUserInvalid
		}
	}
	return s, nil
}
