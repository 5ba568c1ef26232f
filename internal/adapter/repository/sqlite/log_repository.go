package sqlite

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/V4T54L/server-logs/internal/domain"
	"github.com/V4T54L/server-logs/internal/pkg/timestamp"
)

const schema = `
CREATE TABLE IF NOT EXISTS logs (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	server    TEXT NOT NULL,
	message   TEXT NOT NULL,
	timestamp TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_logs_server_ts ON logs(server, timestamp);
`

const insertQuery = `INSERT INTO logs (server, message, timestamp) VALUES (?, ?, ?)`

const findQuery = `
SELECT id, server, message, timestamp
FROM logs
WHERE server = ? AND timestamp BETWEEN ? AND ?
ORDER BY timestamp ASC, id ASC`

// LogRepository implements domain.LogRepository on top of SQLite.
// Timestamps are stored as canonical strings, so BETWEEN compares them
// lexicographically.
type LogRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewLogRepository creates a new SQLite log repository.
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
	res, err := r.db.ExecContext(ctx, insertQuery, entry.Server, entry.Message, timestamp.Format(entry.Timestamp))
	if err != nil {
		return &domain.StorageError{Op: "insert", Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return &domain.StorageError{Op: "insert", Err: err}
	}
	entry.ID = id
	return nil
}

func (r *LogRepository) InsertBatch(ctx context.Context, entries []domain.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StorageError{Op: "begin batch", Err: err}
	}
	defer txn.Rollback() // Rollback is a no-op if Commit() is called

	stmt, err := txn.PrepareContext(ctx, insertQuery)
	if err != nil {
		return &domain.StorageError{Op: "prepare batch", Err: err}
	}
	defer stmt.Close()

	for _, entry := range entries {
		if _, err := stmt.ExecContext(ctx, entry.Server, entry.Message, timestamp.Format(entry.Timestamp)); err != nil {
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
		query += " LIMIT ?"
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
		parsed, err := timestamp.Parse(ts)
		if err != nil {
			r.logger.Warn("stored timestamp is not ISO-8601", "id", entry.ID, "timestamp", ts)
			return nil, &domain.StorageError{Op: "scan", Err: err}
		}
		entry.Timestamp = parsed
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
