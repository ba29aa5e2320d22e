package narration

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikhilbhutani/pdf2speech/internal/models"
	"github.com/nikhilbhutani/pdf2speech/internal/storage"
)

const narrationColumns = `id, file_name, file_path, start_page, end_page, status, pages_written, output_prefix, audio_ext, error, created_by, created_at, updated_at`

// Service keeps narration job records in Postgres and their source PDFs in
// object storage.
type Service struct {
	db      *pgxpool.Pool
	storage storage.Storage
	bucket  string
}

func NewService(db *pgxpool.Pool, store storage.Storage, bucket string) *Service {
	return &Service{db: db, storage: store, bucket: bucket}
}

type CreateRequest struct {
	FileName  string
	StartPage int
	EndPage   int
	Data      io.Reader
	CreatedBy string
}

// Create uploads the PDF and records a pending narration for it.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Narration, error) {
	id := uuid.New()
	filePath := path.Join("uploads", id.String(), path.Base(req.FileName))

	if err := s.storage.Upload(ctx, s.bucket, filePath, req.Data, "application/pdf"); err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	row := s.db.QueryRow(ctx,
		`INSERT INTO narrations (id, file_name, file_path, start_page, end_page, status, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+narrationColumns,
		id, path.Base(req.FileName), filePath, req.StartPage, req.EndPage, models.StatusPending, req.CreatedBy,
	)
	n, err := scanNarration(row)
	if err != nil {
		return nil, fmt.Errorf("insert narration: %w", err)
	}
	return n, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Narration, error) {
	row := s.db.QueryRow(ctx, `SELECT `+narrationColumns+` FROM narrations WHERE id = $1`, id)
	n, err := scanNarration(row)
	if err != nil {
		return nil, fmt.Errorf("get narration: %w", err)
	}
	return n, nil
}

// GetForOwner returns the narration only if owner created it. Other owners'
// narrations are reported as pgx.ErrNoRows.
func (s *Service) GetForOwner(ctx context.Context, id uuid.UUID, owner string) (*models.Narration, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+narrationColumns+` FROM narrations WHERE id = $1 AND created_by = $2`,
		id, owner,
	)
	n, err := scanNarration(row)
	if err != nil {
		return nil, fmt.Errorf("get narration: %w", err)
	}
	return n, nil
}

// List returns owner's narrations, newest first.
func (s *Service) List(ctx context.Context, owner string, limit, offset int) ([]models.Narration, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+narrationColumns+` FROM narrations WHERE created_by = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		owner, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list narrations: %w", err)
	}
	defer rows.Close()

	var out []models.Narration
	for rows.Next() {
		n, err := scanNarration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan narration: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := s.db.Exec(ctx, "UPDATE narrations SET status = $1, updated_at = now() WHERE id = $2", status, id)
	return err
}

// Outcome is what a finished run left in storage.
type Outcome struct {
	PagesWritten int
	OutputPrefix string
	AudioExt     string
}

// Complete marks the narration done and records where its files were stored.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, o Outcome) error {
	return s.finish(ctx, id, models.StatusCompleted, o, "")
}

// Fail marks the narration failed. Pages uploaded before the failure are kept.
func (s *Service) Fail(ctx context.Context, id uuid.UUID, o Outcome, cause error) error {
	return s.finish(ctx, id, models.StatusFailed, o, cause.Error())
}

func (s *Service) finish(ctx context.Context, id uuid.UUID, status string, o Outcome, msg string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE narrations
		 SET status = $1, pages_written = $2, output_prefix = $3, audio_ext = $4, error = $5, updated_at = now()
		 WHERE id = $6`,
		status, o.PagesWritten, o.OutputPrefix, o.AudioExt, msg, id,
	)
	return err
}

// Download opens the narration's source PDF from storage.
func (s *Service) Download(ctx context.Context, n *models.Narration) (io.ReadCloser, error) {
	return s.storage.Download(ctx, s.bucket, n.FilePath)
}

// ArtifactURLs maps each stored output file of n to its public URL.
func (s *Service) ArtifactURLs(n *models.Narration) map[string]string {
	urls := make(map[string]string)
	for _, name := range ArtifactNames(n) {
		urls[name] = s.storage.GetPublicURL(s.bucket, path.Join(n.OutputPrefix, name))
	}
	return urls
}

// ArtifactNames lists the files written for n, in page order. Numbering
// starts at the requested start page, or 1 without one.
func ArtifactNames(n *models.Narration) []string {
	first := max(n.StartPage, 1)
	ext := n.AudioExt
	if ext == "" {
		ext = ".mp3"
	}
	names := make([]string, 0, 2*n.PagesWritten)
	for i := 0; i < n.PagesWritten; i++ {
		base := fmt.Sprintf("page%d", first+i)
		names = append(names, base+ext, base+"_script.txt")
	}
	return names
}

func scanNarration(row pgx.Row) (*models.Narration, error) {
	var n models.Narration
	err := row.Scan(&n.ID, &n.FileName, &n.FilePath, &n.StartPage, &n.EndPage, &n.Status,
		&n.PagesWritten, &n.OutputPrefix, &n.AudioExt, &n.Error, &n.CreatedBy, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
