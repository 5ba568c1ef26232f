package domain

import "context"

// LogRepository defines the interface for the durable log store.
// Entries are append-only: there is no update or delete.
type LogRepository interface {
	// InitSchema creates the logs table and its (server, timestamp) index if absent.
	InitSchema(ctx context.Context) error

	// Insert appends a single entry and sets its ID to the one assigned by the store.
	Insert(ctx context.Context, entry *LogEntry) error

	// InsertBatch appends all entries in a single transaction.
	InsertBatch(ctx context.Context, entries []LogEntry) error

	// Find returns the entries matching q, ordered by timestamp ascending.
	Find(ctx context.Context, q LogQuery) ([]LogEntry, error)

	// Count returns the total number of stored entries.
	Count(ctx context.Context) (int64, error)
}
