package domain

import (
	"time"

	"github.com/google/uuid"
)

// ImportLogEntry captures row level failures that occur during an import run.
type ImportLogEntry struct {
	ID           uuid.UUID `json:"id"`
	RunID        uuid.UUID `json:"run_id"`
	ProjectKey   string    `json:"project_key"`
	FileName     string    `json:"file_name"`
	RowNumber    *int      `json:"row_number,omitempty"`
	ErrorMessage string    `json:"error_message"`
	CreatedAt    time.Time `json:"created_at"`
}
