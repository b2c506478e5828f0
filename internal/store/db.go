package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// DetectDriver maps a DSN onto a database/sql driver name. Anything that is
// not a postgres URL is treated as a sqlite path.
func DetectDriver(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// Open connects to the database behind dsn and pings it. An empty dsn opens
// an in-memory sqlite database.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*sql.DB, string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}
	driver := DetectDriver(dsn)
	logger.Info("connecting to database", "driver", driver)

	db, err := sql.Open(driver, dsn)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return nil, "", err
	}
	if driver == DriverSQLite {
		// modernc sqlite serializes writes; a single connection avoids
		// SQLITE_BUSY under the batch worker pool.
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		_ = db.Close()
		return nil, "", err
	}
	logger.Info("successfully connected to database")
	return db, driver, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS source_file (
	id           TEXT PRIMARY KEY,
	source_path  TEXT NOT NULL,
	filename     TEXT NOT NULL,
	file_ext     TEXT NOT NULL,
	file_size    INTEGER NOT NULL DEFAULT 0,
	content_hash TEXT NOT NULL UNIQUE,
	created_at   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS extract_job (
	id            TEXT PRIMARY KEY,
	file_id       TEXT NOT NULL REFERENCES source_file(id),
	format        TEXT NOT NULL DEFAULT '',
	method        TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	language      TEXT NOT NULL DEFAULT '',
	pages         INTEGER NOT NULL DEFAULT 0,
	confidence    REAL NOT NULL DEFAULT 0,
	text_bytes    INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	started_at    TEXT NOT NULL,
	finished_at   TEXT NOT NULL,
	duration_ms   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_extract_job_file ON extract_job (file_id);
`

// EnsureSchema creates the tables when they do not exist. The DDL sticks to
// types both sqlite and postgres accept.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(schemaDDL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// tsLayout stores timestamps with fixed-width fractional seconds so the TEXT
// columns sort chronologically. RFC3339Nano trims trailing zeros, which makes
// "…00Z" sort after "…00.5Z".
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// rebind converts "?" placeholders to "$n" for postgres. Queries are written
// once in sqlite style.
func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
