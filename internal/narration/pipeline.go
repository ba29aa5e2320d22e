package narration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/nikhilbhutani/pdf2speech/internal/document"
	"github.com/nikhilbhutani/pdf2speech/internal/output"
	"github.com/nikhilbhutani/pdf2speech/internal/transcript"
	"github.com/nikhilbhutani/pdf2speech/internal/tts"
	"github.com/nikhilbhutani/pdf2speech/pkg/textextract"
)

// Job describes one document to narrate.
type Job struct {
	Path       string
	Range      textextract.PageRange
	NumberFrom int    // when > 0, outputs are numbered NumberFrom, NumberFrom+1, ...
	OutputRoot string // the document's directory is created under it
}

// PageResult is the outcome of one page. Err is set on the page that stopped the run.
type PageResult struct {
	Number         int // output number
	SourcePage     int
	Chars          int
	AudioPath      string
	TranscriptPath string
	Err            error
}

type Summary struct {
	Document  string
	OutputDir string
	Pages     []PageResult
	Elapsed   time.Duration
}

// Written counts the pages whose files were written.
func (s *Summary) Written() int {
	n := 0
	for _, p := range s.Pages {
		if p.Err == nil {
			n++
		}
	}
	return n
}

// PageObserver is called after each page's files are written. A returned
// error stops the run.
type PageObserver func(ctx context.Context, r PageResult) error

// Pipeline narrates a document one page at a time: sanitize, synthesize, write.
type Pipeline struct {
	loader    document.Loader
	synth     tts.Provider
	settings  tts.Settings
	sanitizer transcript.Sanitizer
}

func NewPipeline(loader document.Loader, synth tts.Provider, settings tts.Settings, maxChars int) *Pipeline {
	return &Pipeline{
		loader:    loader,
		synth:     synth,
		settings:  settings,
		sanitizer: transcript.NewSanitizer(maxChars),
	}
}

// Run processes the job's pages in order. It stops at the first failing page
// and returns its error; files of earlier pages stay on disk. The returned
// Summary is non-nil whenever the document was loaded.
func (p *Pipeline) Run(ctx context.Context, job Job, observe PageObserver) (*Summary, error) {
	doc, err := p.loader.Load(ctx, job.Path, job.Range)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(job.OutputRoot, doc.Name())
	w, err := output.NewWriter(dir)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	summary := &Summary{Document: doc.Path, OutputDir: dir}

	for i, page := range doc.Pages {
		number := page.Number
		if job.NumberFrom > 0 {
			number = job.NumberFrom + i
		}

		res := p.processPage(ctx, w, page, number)
		if res.Err == nil && observe != nil {
			if err := observe(ctx, res); err != nil {
				res.Err = fmt.Errorf("observe page: %w", err)
			}
		}
		summary.Pages = append(summary.Pages, res)

		if res.Err != nil {
			summary.Elapsed = time.Since(start)
			return summary, fmt.Errorf("page %d: %w", res.Number, res.Err)
		}
	}

	summary.Elapsed = time.Since(start)
	slog.Info("produced audio",
		"document", doc.Path,
		"pages", len(summary.Pages),
		"elapsed", summary.Elapsed.Round(time.Millisecond).String(),
	)
	return summary, nil
}

func (p *Pipeline) processPage(ctx context.Context, w *output.Writer, page textextract.Page, number int) PageResult {
	res := PageResult{Number: number, SourcePage: page.Number}

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	text := p.sanitizer.Sanitize(page.Text)
	res.Chars = len(text)

	audio, err := p.synth.Synthesize(ctx, p.settings.Request(text))
	if err != nil {
		var invalid *tts.InvalidInputError
		if errors.As(err, &invalid) {
			slog.Error("synthesis rejected page text",
				"page", number,
				"text", fmt.Sprintf("%q", invalid.Text),
				"length", invalid.Length(),
			)
		}
		res.Err = fmt.Errorf("synthesize: %w", err)
		return res
	}

	a, err := w.WritePage(number, audio.Audio, audio.ContentType, text)
	res.AudioPath, res.TranscriptPath = a.AudioPath, a.TranscriptPath
	if err != nil {
		res.Err = err
	}
	return res
}
