package document

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/nikhilbhutani/pdf2speech/pkg/textextract"
)

type Loader interface {
	Load(ctx context.Context, path string, rng textextract.PageRange) (*Document, error)
}

type pdfLoader struct{}

func NewPDFLoader() Loader {
	return pdfLoader{}
}

// Load reads the pages of the PDF at path that fall inside rng. The file is
// held open only while pages are decoded. Every failure is returned as an
// *ExtractionError.
func (pdfLoader) Load(ctx context.Context, path string, rng textextract.PageRange) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}

	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}

	pages, err := textextract.ExtractPages(f, info.Size(), rng)
	if err != nil {
		return nil, newExtractionError(path, err)
	}

	slog.Info("processed pdf",
		"path", path,
		"pages", len(pages),
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
	)

	return &Document{Path: path, Pages: pages}, nil
}
