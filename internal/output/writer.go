package output

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Artifact is the pair of files written for one page.
type Artifact struct {
	Number         int
	AudioPath      string
	TranscriptPath string
}

// Writer stores page audio and transcripts in a single directory.
type Writer struct {
	Dir string
}

// NewWriter creates dir (and its parents) if needed. Creating an existing
// directory is not an error.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Writer{Dir: dir}, nil
}

// WritePage writes page<n><ext> with the audio and page<n>_script.txt with
// the transcript. The audio extension follows contentType.
func (w *Writer) WritePage(n int, audio []byte, contentType, transcript string) (Artifact, error) {
	base := fmt.Sprintf("page%d", n)
	a := Artifact{
		Number:         n,
		AudioPath:      filepath.Join(w.Dir, base+Ext(contentType)),
		TranscriptPath: filepath.Join(w.Dir, base+"_script.txt"),
	}

	if err := writeFile(a.AudioPath, audio); err != nil {
		return a, fmt.Errorf("write audio: %w", err)
	}
	slog.Info("audio content written", "file", a.AudioPath, "bytes", len(audio))

	if err := writeFile(a.TranscriptPath, []byte(transcript)); err != nil {
		return a, fmt.Errorf("write transcript: %w", err)
	}
	return a, nil
}

// Ext maps an audio content type to a file extension, ".mp3" when unknown.
func Ext(contentType string) string {
	switch contentType {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/ogg", "audio/opus":
		return ".ogg"
	default:
		return ".mp3"
	}
}

// ContentType is the upload content type for a file written by WritePage.
func ContentType(path string) string {
	switch filepath.Ext(path) {
	case ".wav":
		return "audio/wav"
	case ".ogg":
		return "audio/ogg"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "audio/mpeg"
	}
}

func writeFile(path string, data []byte) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = f.Write(data)
	return err
}
