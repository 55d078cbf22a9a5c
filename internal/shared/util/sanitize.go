package util

import (
	"errors"
	"strings"
	"unicode"
)

// ErrInvalidFileName is returned for names that are empty or only dots.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName maps path separators to '_' and drops control characters.
// The result is a single path segment, so dots inside a name are kept.
func SanitizeFileName(name string) (string, error) {
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, strings.TrimSpace(name))
	switch s {
	case "", ".", "..":
		return "", ErrInvalidFileName
	}
	return s, nil
}
