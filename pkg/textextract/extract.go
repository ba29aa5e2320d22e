package textextract

import (
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// PageTerminator ends every page block returned by ExtractPages.
const PageTerminator = "\f"

// PageRange bounds extraction to an inclusive, 1-based range of pages.
// A zero First or Last leaves that side unbounded.
type PageRange struct {
	First int
	Last  int
}

func (r PageRange) Contains(n int) bool {
	if r.First > 0 && n < r.First {
		return false
	}
	if r.Last > 0 && n > r.Last {
		return false
	}
	return true
}

type Page struct {
	Number int
	Text   string
}

// PageError reports the page a decode failure happened on.
type PageError struct {
	Number int
	Err    error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("decode page %d: %v", e.Number, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// ExtractPages decodes the pages of a PDF that fall inside rng, in document
// order. Pages outside the range are never decoded. Each page's text is
// followed by PageTerminator; a page without content yields only the
// terminator.
func ExtractPages(data io.ReaderAt, size int64, rng PageRange) ([]Page, error) {
	reader, err := pdf.NewReader(data, size)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	numPages := reader.NumPage()
	var pages []Page

	for i := 1; i <= numPages; i++ {
		if !rng.Contains(i) {
			continue
		}
		text, err := pageText(reader, i)
		if err != nil {
			return pages, &PageError{Number: i, Err: err}
		}
		pages = append(pages, Page{Number: i, Text: text + PageTerminator})
	}

	return pages, nil
}

func pageText(reader *pdf.Reader, n int) (text string, err error) {
	// The decoder panics on some malformed objects.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed page: %v", r)
		}
	}()

	page := reader.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
