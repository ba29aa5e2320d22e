package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nikhilbhutani/pdf2speech/internal/auth"
	"github.com/nikhilbhutani/pdf2speech/internal/models"
	"github.com/nikhilbhutani/pdf2speech/internal/narration"
	"github.com/nikhilbhutani/pdf2speech/internal/queue"
)

type NarrationService interface {
	Create(ctx context.Context, req narration.CreateRequest) (*models.Narration, error)
	GetForOwner(ctx context.Context, id uuid.UUID, owner string) (*models.Narration, error)
	List(ctx context.Context, owner string, limit, offset int) ([]models.Narration, error)
	Fail(ctx context.Context, id uuid.UUID, o narration.Outcome, cause error) error
	ArtifactURLs(n *models.Narration) map[string]string
}

type NarrationQueue interface {
	EnqueueNarrationRun(payload queue.NarrationRunPayload) error
}

type ProgressReader interface {
	Get(ctx context.Context, id uuid.UUID) (models.Progress, bool, error)
}

type NarrationHandler struct {
	svc      NarrationService
	queue    NarrationQueue
	progress ProgressReader
}

func NewNarrationHandler(svc NarrationService, q NarrationQueue, progress ProgressReader) *NarrationHandler {
	return &NarrationHandler{svc: svc, queue: q, progress: progress}
}

// Create accepts a multipart upload with a "file" PDF and optional
// start_page and end_page fields, and queues it for narration.
func (h *NarrationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32MB max
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	owner, ok := callerID(w, r)
	if !ok {
		return
	}

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		writeError(w, http.StatusBadRequest, "file must be a PDF")
		return
	}

	start, err := pageParam(r.FormValue("start_page"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_page")
		return
	}
	end, err := pageParam(r.FormValue("end_page"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_page")
		return
	}
	if start > 0 && end > 0 && start > end {
		writeError(w, http.StatusBadRequest, "start_page is after end_page")
		return
	}

	req := narration.CreateRequest{
		FileName:  header.Filename,
		StartPage: start,
		EndPage:   end,
		Data:      file,
		CreatedBy: owner,
	}

	n, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.queue.EnqueueNarrationRun(queue.NarrationRunPayload{NarrationID: n.ID.String()}); err != nil {
		slog.Error("failed to enqueue narration", "narration_id", n.ID, "error", err)
		if ferr := h.svc.Fail(r.Context(), n.ID, narration.Outcome{}, err); ferr != nil {
			slog.Error("failed to mark narration failed", "narration_id", n.ID, "error", ferr)
		}
		writeError(w, http.StatusInternalServerError, "could not queue narration")
		return
	}

	writeJSON(w, http.StatusAccepted, n)
}

func (h *NarrationHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := callerID(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 {
		limit = 20
	}

	items, err := h.svc.List(r.Context(), owner, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"narrations": items, "count": len(items)})
}

type narrationResponse struct {
	*models.Narration
	Progress *models.Progress `json:"progress,omitempty"`
}

func (h *NarrationHandler) Get(w http.ResponseWriter, r *http.Request) {
	n, ok := h.lookup(w, r)
	if !ok {
		return
	}

	resp := narrationResponse{Narration: n}
	if n.Status == models.StatusProcessing {
		p, found, err := h.progress.Get(r.Context(), n.ID)
		if err != nil {
			slog.Warn("failed to read progress", "narration_id", n.ID, "error", err)
		} else if found {
			resp.Progress = &p
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// Artifacts lists the public URLs of the files written so far. A failed
// narration still lists the pages finished before the failure.
func (h *NarrationHandler) Artifacts(w http.ResponseWriter, r *http.Request) {
	n, ok := h.lookup(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":        n.ID,
		"status":    n.Status,
		"artifacts": h.svc.ArtifactURLs(n),
	})
}

// lookup loads the narration named in the URL. Narrations of other callers
// are reported as not found.
func (h *NarrationHandler) lookup(w http.ResponseWriter, r *http.Request) (*models.Narration, bool) {
	owner, ok := callerID(w, r)
	if !ok {
		return nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid narration ID")
		return nil, false
	}

	n, err := h.svc.GetForOwner(r.Context(), id, owner)
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "narration not found")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return n, true
}

func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil || claims.Sub == "" {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return "", false
	}
	return claims.Sub, true
}

// pageParam parses an optional 1-based page number. Empty means unset.
func pageParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, errors.New("page numbers start at 1")
	}
	return n, nil
}
