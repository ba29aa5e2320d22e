// pdf2speech narrates a PDF page by page.
//
// Usage:
//
//	pdf2speech [file_name [start_page [end_page]]]
//
// One audio file and one transcript per page are written to a directory
// named after the document. Extraction is limited to start_page..end_page
// when both are given; output numbering starts at start_page whenever it is
// given.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/nikhilbhutani/pdf2speech/internal/config"
	"github.com/nikhilbhutani/pdf2speech/internal/document"
	"github.com/nikhilbhutani/pdf2speech/internal/narration"
	"github.com/nikhilbhutani/pdf2speech/internal/tts"
	"github.com/nikhilbhutani/pdf2speech/pkg/textextract"
)

type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		var ue *usageError
		if errors.As(err, &ue) {
			fmt.Fprintf(os.Stderr, "error: %v\n\nusage: pdf2speech [file_name [start_page [end_page]]]\n", err)
			os.Exit(2)
		}
		slog.Error("narration failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	job, err := parseArgs(args, cfg.Output.DefaultFile)
	if err != nil {
		return err
	}
	job.OutputRoot = cfg.Output.Root

	synth, err := tts.New(ctx, cfg.TTS)
	if err != nil {
		return fmt.Errorf("create tts provider: %w", err)
	}

	p := narration.NewPipeline(document.NewPDFLoader(), synth, tts.SettingsFromConfig(cfg.TTS), cfg.TTS.MaxChars)
	summary, err := p.Run(ctx, job, nil)
	if err != nil {
		return err
	}

	slog.Info("narration complete", "output", summary.OutputDir, "pages", summary.Written())
	return nil
}

// parseArgs maps the positional arguments onto a job. The page range is
// applied only when both bounds are present.
func parseArgs(args []string, defaultFile string) (narration.Job, error) {
	if len(args) > 3 {
		return narration.Job{}, &usageError{msg: fmt.Sprintf("too many arguments (%d)", len(args))}
	}

	job := narration.Job{Path: defaultFile}
	if len(args) > 0 && args[0] != "" {
		job.Path = args[0]
	}

	var start, end int
	var err error
	if len(args) > 1 {
		if start, err = parsePage("start_page", args[1]); err != nil {
			return narration.Job{}, err
		}
		job.NumberFrom = start
	}
	if len(args) > 2 {
		if end, err = parsePage("end_page", args[2]); err != nil {
			return narration.Job{}, err
		}
	}

	if start > 0 && end > 0 {
		if start > end {
			return narration.Job{}, &usageError{msg: fmt.Sprintf("start_page %d is after end_page %d", start, end)}
		}
		job.Range = textextract.PageRange{First: start, Last: end}
	}
	return job, nil
}

func parsePage(name, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, &usageError{msg: fmt.Sprintf("%s must be a page number, got %q", name, v)}
	}
	return n, nil
}
