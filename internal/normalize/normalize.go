package normalize

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// ErrInvalidLabel indicates the label cannot be written as one log line.
	ErrInvalidLabel = errors.New("invalid sample label")
)

// Label returns the NFC form of s with surrounding whitespace removed.
// Labels are stored one per line, so line breaks are rejected, and an
// empty label is invalid.
func Label(s string) (string, error) {
	s = strings.TrimSpace(norm.NFC.String(s))
	if s == "" {
		return "", ErrInvalidLabel
	}
	if strings.ContainsAny(s, "\r\n") {
		return "", ErrInvalidLabel
	}
	return s, nil
}

// Char normalizes one vocabulary entry as read from a chars file. It keeps
// a lone space, which is a legitimate vocabulary character.
func Char(s string) string {
	s = strings.TrimRight(s, "\r\n")
	if s == " " {
		return s
	}
	return norm.NFC.String(strings.TrimFunc(s, unicode.IsSpace))
}
