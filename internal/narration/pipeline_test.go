package narration

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/nikhilbhutani/pdf2speech/internal/document"
	"github.com/nikhilbhutani/pdf2speech/internal/pdftest"
	"github.com/nikhilbhutani/pdf2speech/internal/tts"
	"github.com/nikhilbhutani/pdf2speech/pkg/textextract"
)

type fakeSynth struct {
	requests []tts.SynthesisRequest
	failOn   int // 1-based request index that fails; 0 never fails
	failWith error
}

func (f *fakeSynth) Name() string { return "fake" }

func (f *fakeSynth) Synthesize(_ context.Context, req tts.SynthesisRequest) (*tts.SynthesisResult, error) {
	f.requests = append(f.requests, req)
	if f.failOn == len(f.requests) {
		return nil, f.failWith
	}
	return &tts.SynthesisResult{Audio: []byte("audio:" + req.Text), ContentType: "audio/mpeg"}, nil
}

type fakeLoader struct {
	pages []textextract.Page
	err   error
}

func (l fakeLoader) Load(_ context.Context, path string, _ textextract.PageRange) (*document.Document, error) {
	if l.err != nil {
		return nil, l.err
	}
	return &document.Document{Path: path, Pages: l.pages}, nil
}

var settings = tts.Settings{
	Voice: tts.Voice{LanguageCode: "en-US", Name: "en-US-Wavenet-A"},
	Audio: tts.AudioConfig{Encoding: tts.EncodingMP3, SpeakingRate: 1},
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func equal(a, b []string) bool {
	return strings.Join(a, ",") == strings.Join(b, ",")
}

func TestRunThreePageDocument(t *testing.T) {
	tmp := t.TempDir()
	path := pdftest.WriteFile(t, tmp, "sample.pdf", "Page one text", "Page two text", "Page three text")
	synth := &fakeSynth{}
	p := NewPipeline(document.NewPDFLoader(), synth, settings, 0)

	summary, err := p.Run(context.Background(), Job{Path: path, OutputRoot: tmp}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{
		"page1.mp3", "page1_script.txt",
		"page2.mp3", "page2_script.txt",
		"page3.mp3", "page3_script.txt",
	}
	if got := listDir(t, filepath.Join(tmp, "sample")); !equal(got, want) {
		t.Errorf("files = %v, want %v", got, want)
	}
	if summary.Written() != 3 || len(synth.requests) != 3 {
		t.Errorf("written = %d, requests = %d", summary.Written(), len(synth.requests))
	}

	script, _ := os.ReadFile(filepath.Join(tmp, "sample", "page2_script.txt"))
	if !strings.Contains(string(script), "Page two text") {
		t.Errorf("page2 transcript = %q", script)
	}
	for _, req := range synth.requests {
		if req.Voice.Name != "en-US-Wavenet-A" || req.Audio.Encoding != tts.EncodingMP3 {
			t.Errorf("request settings = %+v", req)
		}
	}
}

func TestRunPageRange(t *testing.T) {
	tmp := t.TempDir()
	path := pdftest.WriteFile(t, tmp, "sample.pdf", "one", "two", "three", "four")
	p := NewPipeline(document.NewPDFLoader(), &fakeSynth{}, settings, 0)

	_, err := p.Run(context.Background(), Job{
		Path:       path,
		Range:      textextract.PageRange{First: 2, Last: 3},
		OutputRoot: tmp,
	}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"page2.mp3", "page2_script.txt", "page3.mp3", "page3_script.txt"}
	if got := listDir(t, filepath.Join(tmp, "sample")); !equal(got, want) {
		t.Errorf("files = %v, want %v", got, want)
	}
}

func TestRunNumberFrom(t *testing.T) {
	tmp := t.TempDir()
	loader := fakeLoader{pages: []textextract.Page{
		{Number: 1, Text: "a\f"},
		{Number: 2, Text: "b\f"},
	}}
	p := NewPipeline(loader, &fakeSynth{}, settings, 0)

	summary, err := p.Run(context.Background(), Job{Path: "book.pdf", NumberFrom: 10, OutputRoot: tmp}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Pages[0].Number != 10 || summary.Pages[1].Number != 11 {
		t.Errorf("numbers = %d, %d", summary.Pages[0].Number, summary.Pages[1].Number)
	}
	want := []string{"page10.mp3", "page10_script.txt", "page11.mp3", "page11_script.txt"}
	if got := listDir(t, filepath.Join(tmp, "book")); !equal(got, want) {
		t.Errorf("files = %v, want %v", got, want)
	}
}

func TestRunNonPrintablePageStillSynthesized(t *testing.T) {
	tmp := t.TempDir()
	loader := fakeLoader{pages: []textextract.Page{{Number: 1, Text: "\x01\x02\x0b\x0c\f"}}}
	synth := &fakeSynth{}
	p := NewPipeline(loader, synth, settings, 0)

	summary, err := p.Run(context.Background(), Job{Path: "blank.pdf", OutputRoot: tmp}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(synth.requests) != 1 || synth.requests[0].Text != "" {
		t.Fatalf("requests = %+v, want one empty request", synth.requests)
	}
	if summary.Pages[0].Chars != 0 {
		t.Errorf("Chars = %d", summary.Pages[0].Chars)
	}
	script, err := os.ReadFile(filepath.Join(tmp, "blank", "page1_script.txt"))
	if err != nil || len(script) != 0 {
		t.Errorf("transcript = %q, %v", script, err)
	}
}

func TestRunTruncatesLongPages(t *testing.T) {
	loader := fakeLoader{pages: []textextract.Page{{Number: 1, Text: strings.Repeat("x", 5001) + "\f"}}}
	synth := &fakeSynth{}
	p := NewPipeline(loader, synth, settings, 0)

	if _, err := p.Run(context.Background(), Job{Path: "long.pdf", OutputRoot: t.TempDir()}, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := len(synth.requests[0].Text); got != 5000 {
		t.Errorf("request length = %d, want 5000", got)
	}
}

func TestRunStopsOnInvalidInput(t *testing.T) {
	tmp := t.TempDir()
	loader := fakeLoader{pages: []textextract.Page{
		{Number: 1, Text: "fine\f"},
		{Number: 2, Text: "rejected\f"},
		{Number: 3, Text: "never sent\f"},
	}}
	synth := &fakeSynth{
		failOn:   2,
		failWith: &tts.InvalidInputError{Provider: "fake", Text: "rejected", Err: errors.New("400")},
	}
	p := NewPipeline(loader, synth, settings, 0)

	summary, err := p.Run(context.Background(), Job{Path: "doc.pdf", OutputRoot: tmp}, nil)

	var invalid *tts.InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("error %v is not an InvalidInputError", err)
	}
	if len(synth.requests) != 2 {
		t.Errorf("requests = %d, want 2", len(synth.requests))
	}
	if summary == nil || summary.Written() != 1 || len(summary.Pages) != 2 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.Pages[1].Err == nil {
		t.Error("failing page has no error")
	}
	want := []string{"page1.mp3", "page1_script.txt"}
	if got := listDir(t, filepath.Join(tmp, "doc")); !equal(got, want) {
		t.Errorf("files = %v, want %v", got, want)
	}
}

func TestRunExtractionErrorBeforeSynthesis(t *testing.T) {
	synth := &fakeSynth{}
	p := NewPipeline(document.NewPDFLoader(), synth, settings, 0)

	_, err := p.Run(context.Background(), Job{Path: filepath.Join(t.TempDir(), "missing.pdf")}, nil)

	var ee *document.ExtractionError
	if !errors.As(err, &ee) {
		t.Fatalf("error %v is not an ExtractionError", err)
	}
	if len(synth.requests) != 0 {
		t.Errorf("synthesis was attempted %d times", len(synth.requests))
	}
}

func TestRunObserver(t *testing.T) {
	loader := fakeLoader{pages: []textextract.Page{
		{Number: 1, Text: "a\f"},
		{Number: 2, Text: "b\f"},
		{Number: 3, Text: "c\f"},
	}}
	synth := &fakeSynth{}
	p := NewPipeline(loader, synth, settings, 0)

	var seen []int
	stop := errors.New("upload failed")
	_, err := p.Run(context.Background(), Job{Path: "obs.pdf", OutputRoot: t.TempDir()}, func(_ context.Context, r PageResult) error {
		seen = append(seen, r.Number)
		if r.Number == 2 {
			return stop
		}
		return nil
	})

	if !errors.Is(err, stop) {
		t.Fatalf("err = %v, want %v", err, stop)
	}
	if len(seen) != 2 || len(synth.requests) != 2 {
		t.Errorf("seen = %v, requests = %d", seen, len(synth.requests))
	}
}

func TestRunCanceledBetweenPages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loader := fakeLoader{pages: []textextract.Page{{Number: 1, Text: "a\f"}, {Number: 2, Text: "b\f"}}}
	synth := &fakeSynth{}
	p := NewPipeline(loader, synth, settings, 0)

	_, err := p.Run(ctx, Job{Path: "c.pdf", OutputRoot: t.TempDir()}, func(context.Context, PageResult) error {
		cancel()
		return nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if len(synth.requests) != 1 {
		t.Errorf("requests = %d, want 1", len(synth.requests))
	}
}
