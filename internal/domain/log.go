package domain

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/V4T54L/server-logs/internal/pkg/timestamp"
)

// LogEntry is a single log line reported by a source server.
type LogEntry struct {
	ID        int64     `json:"id"`
	Server    string    `json:"server"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// MarshalJSON renders Timestamp in the canonical storage form so clients see
// exactly what range queries compare against.
func (e LogEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        int64  `json:"id"`
		Server    string `json:"server"`
		Message   string `json:"message"`
		Timestamp string `json:"timestamp"`
	}{
		ID:        e.ID,
		Server:    e.Server,
		Message:   e.Message,
		Timestamp: timestamp.Format(e.Timestamp),
	})
}

// LogQuery selects the entries of one server inside an inclusive time window.
// A Limit of zero or less returns every matching entry.
type LogQuery struct {
	Server string
	Since  time.Time
	Until  time.Time
	Limit  int
}
