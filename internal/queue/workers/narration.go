package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/pdf2speech/internal/document"
	"github.com/nikhilbhutani/pdf2speech/internal/models"
	"github.com/nikhilbhutani/pdf2speech/internal/narration"
	"github.com/nikhilbhutani/pdf2speech/internal/output"
	"github.com/nikhilbhutani/pdf2speech/internal/queue"
	"github.com/nikhilbhutani/pdf2speech/internal/storage"
	"github.com/nikhilbhutani/pdf2speech/pkg/textextract"
)

type narrationStore interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Narration, error)
	Download(ctx context.Context, n *models.Narration) (io.ReadCloser, error)
	Complete(ctx context.Context, id uuid.UUID, o narration.Outcome) error
	Fail(ctx context.Context, id uuid.UUID, o narration.Outcome, cause error) error
}

type progressRecorder interface {
	Record(ctx context.Context, id uuid.UUID, p models.Progress) error
}

type runner interface {
	Run(ctx context.Context, job narration.Job, observe narration.PageObserver) (*narration.Summary, error)
}

// NarrationWorker runs narration:run tasks. Each page's files are uploaded
// as soon as they are written, so a failed run keeps its earlier pages.
type NarrationWorker struct {
	narrations narrationStore
	progress   progressRecorder
	pipeline   runner
	storage    storage.Storage
	bucket     string
	workDir    string
}

func NewNarrationWorker(narrations narrationStore, progress progressRecorder, pipeline runner, store storage.Storage, bucket, workDir string) *NarrationWorker {
	return &NarrationWorker{
		narrations: narrations,
		progress:   progress,
		pipeline:   pipeline,
		storage:    store,
		bucket:     bucket,
		workDir:    workDir,
	}
}

func (w *NarrationWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.NarrationRunPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	id, err := uuid.Parse(payload.NarrationID)
	if err != nil {
		return fmt.Errorf("parse narration ID: %v: %w", err, asynq.SkipRetry)
	}

	slog.Info("processing narration", "narration_id", id)

	if err := w.narrations.UpdateStatus(ctx, id, models.StatusProcessing); err != nil {
		return fmt.Errorf("update status to processing: %w", err)
	}

	n, err := w.narrations.GetByID(ctx, id)
	if err != nil {
		w.fail(ctx, id, narration.Outcome{}, err)
		return fmt.Errorf("get narration: %w", err)
	}

	dir := filepath.Join(w.workDir, id.String())
	defer os.RemoveAll(dir)

	src, err := w.fetchSource(ctx, n, filepath.Join(dir, "src"))
	if err != nil {
		w.fail(ctx, id, narration.Outcome{}, err)
		return fmt.Errorf("fetch source: %w", err)
	}

	job := narration.Job{
		Path:       src,
		NumberFrom: n.StartPage,
		OutputRoot: filepath.Join(dir, "out"),
	}
	if n.StartPage > 0 && n.EndPage > 0 {
		job.Range = textextract.PageRange{First: n.StartPage, Last: n.EndPage}
	}

	outcome := narration.Outcome{
		OutputPrefix: path.Join("narrations", id.String(), document.BaseName(n.FileName)),
	}
	observe := func(ctx context.Context, r narration.PageResult) error {
		for _, file := range []string{r.AudioPath, r.TranscriptPath} {
			if err := w.upload(ctx, outcome.OutputPrefix, file); err != nil {
				return err
			}
		}
		outcome.PagesWritten++
		outcome.AudioExt = filepath.Ext(r.AudioPath)

		p := models.Progress{PagesDone: outcome.PagesWritten, LastPage: r.Number}
		if err := w.progress.Record(ctx, id, p); err != nil {
			slog.Warn("failed to record progress", "narration_id", id, "error", err)
		}
		return nil
	}

	if _, err := w.pipeline.Run(ctx, job, observe); err != nil {
		w.fail(ctx, id, outcome, err)
		return fmt.Errorf("narrate %s: %v: %w", id, err, asynq.SkipRetry)
	}

	if err := w.narrations.Complete(ctx, id, outcome); err != nil {
		return fmt.Errorf("complete narration: %w", err)
	}

	slog.Info("narration completed", "narration_id", id, "pages", outcome.PagesWritten)
	return nil
}

func (w *NarrationWorker) fetchSource(ctx context.Context, n *models.Narration, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	rc, err := w.narrations.Download(ctx, n)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	dst := filepath.Join(dir, filepath.Base(n.FileName))
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		return "", fmt.Errorf("copy source: %w", err)
	}
	return dst, f.Close()
}

func (w *NarrationWorker) upload(ctx context.Context, prefix, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	key := path.Join(prefix, filepath.Base(file))
	if err := w.storage.Upload(ctx, w.bucket, key, f, output.ContentType(file)); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

func (w *NarrationWorker) fail(ctx context.Context, id uuid.UUID, o narration.Outcome, cause error) {
	if err := w.narrations.Fail(ctx, id, o, cause); err != nil {
		slog.Error("failed to mark narration failed", "narration_id", id, "error", err)
	}
}
