// Package transcript turns raw page text into the text sent for synthesis.
package transcript

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxChars is the longest input Google Text-to-Speech accepts per request.
const DefaultMaxChars = 5000

// Sanitizer cleans page text. A MaxChars of zero or less means DefaultMaxChars.
type Sanitizer struct {
	MaxChars int
}

// NewSanitizer returns a Sanitizer capped at maxChars, or DefaultMaxChars
// when maxChars is not positive.
func NewSanitizer(maxChars int) Sanitizer {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return Sanitizer{MaxChars: maxChars}
}

// Sanitize drops the final character of raw (the page terminator), keeps
// newlines and printable ASCII other than vertical tab and form feed, and
// truncates the result to MaxChars characters.
//
// The final character is dropped whether or not it is a terminator, so
// Sanitize is not idempotent: applying it twice loses one more character.
func (s Sanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	_, size := utf8.DecodeLastRuneInString(raw)
	raw = raw[:len(raw)-size]

	limit := s.MaxChars
	if limit <= 0 {
		limit = DefaultMaxChars
	}

	var b strings.Builder
	b.Grow(min(len(raw), limit))
	n := 0
	for _, r := range raw {
		if !speakable(r) {
			continue
		}
		if n == limit {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}

// Sanitize applies a Sanitizer with DefaultMaxChars.
func Sanitize(raw string) string {
	return NewSanitizer(DefaultMaxChars).Sanitize(raw)
}

func speakable(r rune) bool {
	switch r {
	case '\n', '\t', '\r':
		return true
	}
	return r >= 0x20 && r <= 0x7e
}
