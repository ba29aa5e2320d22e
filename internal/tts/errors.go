package tts

import (
	"fmt"
	"unicode/utf8"
)

// InvalidInputError means the service refused the request because of the
// text it was given. It carries the rejected text so callers can report it.
type InvalidInputError struct {
	Provider string
	Text     string
	Err      error
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s rejected input of %d characters: %v", e.Provider, e.Length(), e.Err)
}

func (e *InvalidInputError) Unwrap() error { return e.Err }

// Length is the rejected text length in characters.
func (e *InvalidInputError) Length() int { return utf8.RuneCountInString(e.Text) }
