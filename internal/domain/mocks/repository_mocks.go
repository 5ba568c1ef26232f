package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/V4T54L/server-logs/internal/domain"
)

// MockLogRepository is an in-memory implementation of domain.LogRepository for testing.
type MockLogRepository struct {
	mu          sync.Mutex
	Entries     []domain.LogEntry
	Queries     []domain.LogQuery
	SchemaCalls int
	nextID      int64
	SchemaErr   error
	InsertErr   error
	FindErr     error
	CountErr    error
}

func (m *MockLogRepository) InitSchema(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SchemaCalls++
	return m.SchemaErr
}

func (m *MockLogRepository) Insert(ctx context.Context, entry *domain.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.nextID++
	entry.ID = m.nextID
	m.Entries = append(m.Entries, *entry)
	return nil
}

func (m *MockLogRepository) InsertBatch(ctx context.Context, entries []domain.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertErr != nil {
		return m.InsertErr
	}
	for _, entry := range entries {
		m.nextID++
		entry.ID = m.nextID
		m.Entries = append(m.Entries, entry)
	}
	return nil
}

func (m *MockLogRepository) Find(ctx context.Context, q domain.LogQuery) ([]domain.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, q)
	if m.FindErr != nil {
		return nil, m.FindErr
	}

	var out []domain.LogEntry
	for _, e := range m.Entries {
		if e.Server != q.Server || e.Timestamp.Before(q.Since) || e.Timestamp.After(q.Until) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *MockLogRepository) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	return int64(len(m.Entries)), nil
}
