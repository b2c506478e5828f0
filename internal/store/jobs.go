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

type ExtractJobRepository interface {
	Insert(ctx context.Context, j *entity.ExtractJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ExtractJob, error)
	List(ctx context.Context, limit int) ([]entity.ExtractJob, error)
}

type extractJobRepo struct {
	db     *sql.DB
	driver string
	log    *slog.Logger
}

func NewExtractJobRepository(db *sql.DB, driver string, log *slog.Logger) ExtractJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractJobRepo{db: db, driver: driver, log: log}
}

func (r *extractJobRepo) Insert(ctx context.Context, j *entity.ExtractJob) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	q := rebind(r.driver, `INSERT INTO extract_job
		(id, file_id, format, method, status, language, pages, confidence,
		 text_bytes, error_message, started_at, finished_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, q,
		j.ID.String(), j.FileID.String(), j.Format, j.Method, j.Status,
		j.Language, j.Pages, j.Confidence, j.TextBytes, j.ErrorMessage,
		j.StartedAt.Format(tsLayout), j.FinishedAt.Format(tsLayout),
		j.DurationMS)
	if err != nil {
		r.log.Error("extract_job insert failed", "file_id", j.FileID, "err", err)
		return err
	}
	r.log.Info("extract_job recorded", "job_id", j.ID, "file_id", j.FileID, "status", j.Status)
	return nil
}

const jobColumns = `id, file_id, format, method, status, language, pages, confidence,
	text_bytes, error_message, started_at, finished_at, duration_ms`

func (r *extractJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.ExtractJob, error) {
	q := rebind(r.driver, `SELECT `+jobColumns+` FROM extract_job WHERE id = ?`)
	row := r.db.QueryRowContext(ctx, q, id.String())
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (r *extractJobRepo) List(ctx context.Context, limit int) ([]entity.ExtractJob, error) {
	if limit <= 0 {
		limit = 100
	}
	q := rebind(r.driver, `SELECT `+jobColumns+` FROM extract_job ORDER BY started_at DESC LIMIT ?`)
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []entity.ExtractJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*entity.ExtractJob, error) {
	var (
		j                  entity.ExtractJob
		idStr, fileIDStr   string
		started, finished  string
	)
	err := row.Scan(&idStr, &fileIDStr, &j.Format, &j.Method, &j.Status,
		&j.Language, &j.Pages, &j.Confidence, &j.TextBytes, &j.ErrorMessage,
		&started, &finished, &j.DurationMS)
	if err != nil {
		return nil, err
	}
	if j.ID, err = uuid.Parse(idStr); err != nil {
		return nil, err
	}
	if j.FileID, err = uuid.Parse(fileIDStr); err != nil {
		return nil, err
	}
	if j.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, err
	}
	if j.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return nil, err
	}
	return &j, nil
}
