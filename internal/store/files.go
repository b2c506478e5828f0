package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/easytextract/easytextract/internal/entity"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

type SourceFileRepository interface {
	UpsertByHash(ctx context.Context, f *entity.SourceFile) (id uuid.UUID, existed bool, err error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.SourceFile, error)
}

type sourceFileRepo struct {
	db     *sql.DB
	driver string
	log    *slog.Logger
}

func NewSourceFileRepository(db *sql.DB, driver string, log *slog.Logger) SourceFileRepository {
	if log == nil {
		log = slog.Default()
	}
	return &sourceFileRepo{db: db, driver: driver, log: log}
}

// UpsertByHash returns the existing row id when the content hash is already
// known; otherwise it inserts a new row.
func (r *sourceFileRepo) UpsertByHash(ctx context.Context, f *entity.SourceFile) (uuid.UUID, bool, error) {
	var idStr string
	q := rebind(r.driver, `SELECT id FROM source_file WHERE content_hash = ?`)
	err := r.db.QueryRowContext(ctx, q, f.ContentHash).Scan(&idStr)
	switch {
	case err == nil:
		id, perr := uuid.Parse(idStr)
		if perr != nil {
			return uuid.Nil, false, perr
		}
		f.ID = id
		return id, true, nil
	case errors.Is(err, sql.ErrNoRows):
		// fall through to insert
	default:
		r.log.Error("source_file lookup failed", "hash", f.ContentHash, "err", err)
		return uuid.Nil, false, err
	}

	id := uuid.New()
	createdAt := f.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	q = rebind(r.driver, `INSERT INTO source_file
		(id, source_path, filename, file_ext, file_size, content_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err = r.db.ExecContext(ctx, q,
		id.String(), f.SourcePath, f.Filename, f.FileExt, f.FileSize,
		f.ContentHash, createdAt.Format(tsLayout))
	if err != nil {
		r.log.Error("source_file insert failed", "path", f.SourcePath, "err", err)
		return uuid.Nil, false, err
	}
	f.ID = id
	f.CreatedAt = createdAt
	r.log.Info("source_file registered", "file_id", id, "path", f.SourcePath)
	return id, false, nil
}

func (r *sourceFileRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.SourceFile, error) {
	q := rebind(r.driver, `SELECT id, source_path, filename, file_ext, file_size, content_hash, created_at
		FROM source_file WHERE id = ?`)
	var (
		f       entity.SourceFile
		idStr   string
		created string
	)
	err := r.db.QueryRowContext(ctx, q, id.String()).Scan(
		&idStr, &f.SourcePath, &f.Filename, &f.FileExt, &f.FileSize, &f.ContentHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if f.ID, err = uuid.Parse(idStr); err != nil {
		return nil, err
	}
	if f.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, err
	}
	return &f, nil
}
