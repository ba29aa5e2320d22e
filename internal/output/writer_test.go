package output

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewWriterCreatesNestedDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "sample")

	if _, err := NewWriter(dir); err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("dir not created: %v", err)
	}

	// Second call on an existing directory succeeds.
	if _, err := NewWriter(dir); err != nil {
		t.Errorf("NewWriter on existing dir: %v", err)
	}
}

func TestWritePage(t *testing.T) {
	w, err := NewWriter(filepath.Join(t.TempDir(), "sample"))
	if err != nil {
		t.Fatal(err)
	}

	a, err := w.WritePage(3, []byte("mp3"), "audio/mpeg", "page three")
	if err != nil {
		t.Fatalf("WritePage: %v", err)
	}

	if filepath.Base(a.AudioPath) != "page3.mp3" {
		t.Errorf("audio path = %s", a.AudioPath)
	}
	if filepath.Base(a.TranscriptPath) != "page3_script.txt" {
		t.Errorf("transcript path = %s", a.TranscriptPath)
	}

	audio, _ := os.ReadFile(a.AudioPath)
	if string(audio) != "mp3" {
		t.Errorf("audio = %q", audio)
	}
	script, _ := os.ReadFile(a.TranscriptPath)
	if string(script) != "page three" {
		t.Errorf("transcript = %q", script)
	}
}

func TestWritePageEmptyTranscript(t *testing.T) {
	w, _ := NewWriter(t.TempDir())

	a, err := w.WritePage(1, nil, "audio/mpeg", "")
	if err != nil {
		t.Fatalf("WritePage: %v", err)
	}
	info, err := os.Stat(a.TranscriptPath)
	if err != nil || info.Size() != 0 {
		t.Errorf("transcript: %v, %v", info, err)
	}
}

func TestWritePageFailsWhenDirRemoved(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gone")
	w, _ := NewWriter(dir)
	os.RemoveAll(dir)

	if _, err := w.WritePage(1, []byte("x"), "audio/mpeg", "x"); err == nil {
		t.Error("expected error writing into a removed directory")
	}
}

func TestExt(t *testing.T) {
	tests := map[string]string{
		"audio/mpeg": ".mp3",
		"audio/wav":  ".wav",
		"audio/ogg":  ".ogg",
		"":           ".mp3",
	}
	for ct, want := range tests {
		if got := Ext(ct); got != want {
			t.Errorf("Ext(%q) = %q, want %q", ct, got, want)
		}
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"out/page1.mp3":        "audio/mpeg",
		"out/page1.wav":        "audio/wav",
		"out/page1.ogg":        "audio/ogg",
		"out/page1_script.txt": "text/plain; charset=utf-8",
	}
	for path, want := range tests {
		if got := ContentType(path); got != want {
			t.Errorf("ContentType(%s) = %s, want %s", path, got, want)
		}
	}
}
