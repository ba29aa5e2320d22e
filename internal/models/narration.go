package models

import (
	"time"

	"github.com/google/uuid"
)

type Narration struct {
	ID           uuid.UUID `json:"id" db:"id"`
	FileName     string    `json:"file_name" db:"file_name"`
	FilePath     string    `json:"file_path,omitempty" db:"file_path"`
	StartPage    int       `json:"start_page,omitempty" db:"start_page"`
	EndPage      int       `json:"end_page,omitempty" db:"end_page"`
	Status       string    `json:"status" db:"status"`
	PagesWritten int       `json:"pages_written" db:"pages_written"`
	OutputPrefix string    `json:"output_prefix,omitempty" db:"output_prefix"`
	AudioExt     string    `json:"audio_ext,omitempty" db:"audio_ext"`
	Error        string    `json:"error,omitempty" db:"error"`
	CreatedBy    string    `json:"created_by,omitempty" db:"created_by"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Progress is the live state of a running narration.
type Progress struct {
	PagesDone int `json:"pages_done"`
	LastPage  int `json:"last_page"`
}

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)
