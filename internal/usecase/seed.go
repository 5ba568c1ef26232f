package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/V4T54L/server-logs/internal/domain"
)

// SampleEntries returns the demonstration rows written into an empty store.
func SampleEntries() []domain.LogEntry {
	at := func(hour, minute int) time.Time {
		return time.Date(2025, 7, 19, hour, minute, 0, 0, time.UTC)
	}
	return []domain.LogEntry{
		{Server: "server1", Message: "Started process A", Timestamp: at(11, 0)},
		{Server: "server1", Message: "Process A completed", Timestamp: at(11, 5)},
		{Server: "server1", Message: "Health check OK", Timestamp: at(11, 10)},
		{Server: "server1", Message: "Error: disk space low", Timestamp: at(11, 20)},
		{Server: "server2", Message: "User login", Timestamp: at(10, 50)},
		{Server: "server2", Message: "User logout", Timestamp: at(10, 55)},
		{Server: "server2", Message: "DB backup started", Timestamp: at(11, 15)},
		{Server: "server3", Message: "Service restarted", Timestamp: at(10, 30)},
		{Server: "server3", Message: "Service running", Timestamp: at(10, 35)},
		{Server: "server3", Message: "Service health OK", Timestamp: at(10, 40)},
	}
}

// PrepareStore creates the schema and, when seed is set, writes the sample
// rows into an empty store. It reports whether rows were seeded.
func PrepareStore(ctx context.Context, repo domain.LogRepository, seed bool, logger *slog.Logger) (bool, error) {
	if err := repo.InitSchema(ctx); err != nil {
		return false, err
	}
	if !seed {
		return false, nil
	}

	n, err := repo.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		logger.Debug("store already populated, skipping seed", "count", n)
		return false, nil
	}

	samples := SampleEntries()
	if err := repo.InsertBatch(ctx, samples); err != nil {
		return false, err
	}
	logger.Info("seeded sample log entries", "count", len(samples))
	return true, nil
}
