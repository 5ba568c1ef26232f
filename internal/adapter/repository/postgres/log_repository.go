package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	_ "github.com/lib/pq" // Register postgres driver

	"github.com/V4T54L/server-logs/internal/domain"
	"github.com/V4T54L/server-logs/internal/pkg/timestamp"
)

// timestamp stays TEXT so range comparison matches the sqlite store.
const schema = `
CREATE TABLE IF NOT EXISTS logs (
	id        BIGSERIAL PRIMARY KEY,
	server    TEXT NOT NULL,
	message   TEXT NOT NULL,
	timestamp TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_logs_server_ts ON logs(server, timestamp);
`

const insertQuery = `INSERT INTO logs (server, message, timestamp) VALUES ($1, $2, $3) RETURNING id`

const findQuery = `
SELECT id, server, message, timestamp
FROM logs
WHERE server = $1 AND timestamp BETWEEN $2 AND $3
ORDER BY timestamp ASC, id ASC`

// LogRepository implements domain.LogRepository for PostgreSQL.
type LogRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens a PostgreSQL connection pool and checks it is reachable.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, &domain.StorageError{Op: "open", Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &domain.StorageError{Op: "ping", Err: err}
	}
	return db, nil
}

// NewLogRepository creates a new PostgreSQL log repository.
func NewLogRepository(db *sql.DB, logger *slog.Logger) *LogRepository {
	return &LogRepository{db: db, logger: logger}
}

func (r *LogRepository) InitSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return &domain.StorageError{Op: "init schema", Err: err}
	}
	return nil
}

func (r *LogRepository) Insert(ctx context.Context, entry *domain.LogEntry) error {
	err := r.db.QueryRowContext(ctx, insertQuery, entry.Server, entry.Message, timestamp.Format(entry.Timestamp)).Scan(&entry.ID)
	if err != nil {
		return &domain.StorageError{Op: "insert", Err: err}
	}
	return nil
}

// InsertBatch writes all entries in one transaction; either every row is
// committed or none is.
func (r *LogRepository) InsertBatch(ctx context.Context, entries []domain.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StorageError{Op: "begin batch", Err: err}
	}
	defer txn.Rollback() // Rollback is a no-op if Commit() is called

	for _, entry := range entries {
		var id int64
		err := txn.QueryRowContext(ctx, insertQuery, entry.Server, entry.Message, timestamp.Format(entry.Timestamp)).Scan(&id)
		if err != nil {
			return &domain.StorageError{Op: "insert batch", Err: err}
		}
	}

	if err := txn.Commit(); err != nil {
		return &domain.StorageError{Op: "commit batch", Err: err}
	}
	return nil
}

func (r *LogRepository) Find(ctx context.Context, q domain.LogQuery) ([]domain.LogEntry, error) {
	query := findQuery
	args := []any{q.Server, timestamp.Format(q.Since), timestamp.Format(q.Until)}
	if q.Limit > 0 {
		query += " LIMIT $4"
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &domain.StorageError{Op: "find", Err: err}
	}
	defer rows.Close()

	entries := make([]domain.LogEntry, 0)
	for rows.Next() {
		var (
			entry domain.LogEntry
			ts    string
		)
		if err := rows.Scan(&entry.ID, &entry.Server, &entry.Message, &ts); err != nil {
			return nil, &domain.StorageError{Op: "scan", Err: err}
		}
		if entry.Timestamp, err = timestamp.Parse(ts); err != nil {
			r.logger.Warn("stored timestamp is not ISO-8601", "id", entry.ID, "timestamp", ts)
			return nil, &domain.StorageError{Op: "scan", Err: err}
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, &domain.StorageError{Op: "find", Err: err}
	}
	return entries, nil
}

func (r *LogRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM logs`).Scan(&n); err != nil {
		return 0, &domain.StorageError{Op: "count", Err: err}
	}
	return n, nil
}
