package entity

import (
	"time"

	"github.com/google/uuid"
)

// ExtractJob records one extraction attempt for a source file.
type ExtractJob struct {
	ID           uuid.UUID
	FileID       uuid.UUID
	Format       string
	Method       string
	Status       string
	Language     string
	Pages        int
	Confidence   float64
	TextBytes    int
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   time.Time
	DurationMS   int64
}
