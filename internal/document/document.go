package document

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nikhilbhutani/pdf2speech/pkg/textextract"
)

// Document is a loaded PDF: its path and the raw text of the requested pages
// in ascending page order.
type Document struct {
	Path  string
	Pages []textextract.Page
}

// Name is the file's base name without its extension. Output for the
// document is stored under a directory with this name.
func (d *Document) Name() string {
	return BaseName(d.Path)
}

func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ExtractionError means the document could not be opened or one of its pages
// could not be decoded.
type ExtractionError struct {
	Path string
	Page int // 0 when the failure is not tied to a page
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("extract %s page %d: %v", e.Path, e.Page, e.Err)
	}
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func newExtractionError(path string, err error) *ExtractionError {
	ee := &ExtractionError{Path: path, Err: err}
	var pe *textextract.PageError
	if errors.As(err, &pe) {
		ee.Page = pe.Number
		ee.Err = pe.Err
	}
	return ee
}
