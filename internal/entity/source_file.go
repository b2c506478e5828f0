package entity

import (
	"time"

	"github.com/google/uuid"
)

// SourceFile is a document registered for extraction, deduplicated by content hash.
type SourceFile struct {
	ID          uuid.UUID
	SourcePath  string
	Filename    string
	FileExt     string
	FileSize    int64
	ContentHash string // sha256, hex
	CreatedAt   time.Time
}
