// Package store persists source files and extraction jobs in sqlite (the
// default) or postgres behind the same repositories.
package store

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"

	"github.com/easytextract/easytextract/internal/entity"
)

// Store bundles the repositories behind a single handle.
type Store struct {
	DB    *sql.DB
	Files SourceFileRepository
	Jobs  ExtractJobRepository
}

func New(db *sql.DB, driver string, logger *slog.Logger) *Store {
	return &Store{
		DB:    db,
		Files: NewSourceFileRepository(db, driver, logger),
		Jobs:  NewExtractJobRepository(db, driver, logger),
	}
}

// UpsertFile and RecordJob adapt the repositories to the batch processor.

func (s *Store) UpsertFile(ctx context.Context, f *entity.SourceFile) (uuid.UUID, bool, error) {
	return s.Files.UpsertByHash(ctx, f)
}

func (s *Store) RecordJob(ctx context.Context, j *entity.ExtractJob) error {
	return s.Jobs.Insert(ctx, j)
}

func (s *Store) Close() error { return s.DB.Close() }
