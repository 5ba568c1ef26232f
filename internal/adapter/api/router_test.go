package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/V4T54L/server-logs/internal/adapter/api/handler"
	"github.com/V4T54L/server-logs/internal/adapter/metrics"
	"github.com/V4T54L/server-logs/internal/adapter/repository/sqlite"
	"github.com/V4T54L/server-logs/internal/domain"
	"github.com/V4T54L/server-logs/internal/pkg/timestamp"
	"github.com/V4T54L/server-logs/internal/usecase"
)

type entryJSON struct {
	ID        int64  `json:"id"`
	Server    string `json:"server"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type testServer struct {
	*httptest.Server
	repo    *sqlite.LogRepository
	metrics *metrics.Metrics
}

// newTestServer wires the real sqlite store, use cases and router, with the
// sample rows seeded.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "logs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := sqlite.NewLogRepository(db, logger)
	_, err = usecase.PrepareStore(ctx, repo, true, logger)
	require.NoError(t, err)

	m := metrics.New()
	logsHandler := handler.NewLogsHandler(
		usecase.NewQueryLogsUseCase(repo, logger),
		usecase.NewIngestLogUseCase(repo, logger),
		logger, m, 1<<20,
	)
	srv := httptest.NewServer(NewRouter(logger, logsHandler, m))
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, repo: repo, metrics: m}
}

func (s *testServer) getLogs(t *testing.T, params url.Values) (int, []entryJSON, string) {
	t.Helper()
	resp, err := http.Get(s.URL + BasePath + "?" + params.Encode())
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var entries []entryJSON
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.Unmarshal(body, &entries))
	}
	return resp.StatusCode, entries, string(body)
}

func (s *testServer) postLog(t *testing.T, body string) (int, entryJSON, string) {
	t.Helper()
	resp, err := http.Post(s.URL+BasePath, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var entry entryJSON
	if resp.StatusCode == http.StatusCreated {
		require.NoError(t, json.Unmarshal(raw, &entry))
	}
	return resp.StatusCode, entry, string(raw)
}

func TestRouter_SeededWindow(t *testing.T) {
	srv := newTestServer(t)

	status, entries, _ := srv.getLogs(t, url.Values{
		"server": {"server1"},
		"since":  {"2025-07-19T11:00:00Z"},
		"until":  {"2025-07-19T11:10:00Z"},
	})

	require.Equal(t, http.StatusOK, status)
	require.Len(t, entries, 3)
	assert.Equal(t, "2025-07-19T11:00:00.000000+00:00", entries[0].Timestamp)
	assert.Equal(t, "2025-07-19T11:05:00.000000+00:00", entries[1].Timestamp)
	assert.Equal(t, "2025-07-19T11:10:00.000000+00:00", entries[2].Timestamp)
	assert.Equal(t, "Started process A", entries[0].Message)
}

func TestRouter_Limit(t *testing.T) {
	srv := newTestServer(t)
	window := url.Values{
		"server": {"server1"},
		"since":  {"2025-07-19T00:00:00Z"},
		"until":  {"2025-07-20T00:00:00Z"},
	}

	t.Run("Earliest k rows", func(t *testing.T) {
		params := url.Values{"limit": {"2"}}
		for k, v := range window {
			params[k] = v
		}
		_, entries, _ := srv.getLogs(t, params)
		require.Len(t, entries, 2)
		assert.Equal(t, "Started process A", entries[0].Message)
		assert.Equal(t, "Process A completed", entries[1].Message)
	})

	t.Run("Zero means no limit", func(t *testing.T) {
		params := url.Values{"limit": {"0"}}
		for k, v := range window {
			params[k] = v
		}
		_, entries, _ := srv.getLogs(t, params)
		assert.Len(t, entries, 4)
	})
}

func TestRouter_InvertedWindow(t *testing.T) {
	srv := newTestServer(t)

	status, entries, body := srv.getLogs(t, url.Values{
		"server": {"server1"},
		"since":  {"2025-07-19T12:00:00Z"},
		"until":  {"2025-07-19T10:00:00Z"},
	})

	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, entries)
	assert.JSONEq(t, "[]", body)
}

func TestRouter_ValidationErrors(t *testing.T) {
	srv := newTestServer(t)

	t.Run("GET", func(t *testing.T) {
		cases := []struct {
			params url.Values
			reason string
		}{
			{params: url.Values{}, reason: "server is required"},
			{params: url.Values{"server": {""}}, reason: "server is required"},
			{params: url.Values{"server": {"server1"}, "since": {"nope"}}, reason: "invalid since"},
			{params: url.Values{"server": {"server1"}, "until": {"nope"}}, reason: "invalid until"},
			{params: url.Values{"server": {"server1"}, "since": {"2025-07-19T1:00:00Z"}}, reason: "invalid since"},
			{params: url.Values{"server": {"server1"}, "until": {"9999-12-31T23:00:00-05:00"}}, reason: "invalid until"},
		}
		for _, c := range cases {
			status, _, body := srv.getLogs(t, c.params)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, c.reason+"\n", body)
		}
	})

	t.Run("POST", func(t *testing.T) {
		cases := []struct {
			body   string
			reason string
		}{
			{body: "", reason: "body required"},
			{body: `{"message":"m"}`, reason: "server and message required"},
			{body: `{"server":"s"}`, reason: "server and message required"},
			{body: `{"server":"","message":"m"}`, reason: "server and message required"},
			{body: `{"server":"s","message":"m","timestamp":"later"}`, reason: "invalid timestamp"},
			{body: `{"server":"s","message":"m","timestamp":"2025-07-19T1:00:00Z"}`, reason: "invalid timestamp"},
			{body: `{"server":"s","message":"m","timestamp":" 2025-07-19T11:00:00Z"}`, reason: "invalid timestamp"},
		}
		for _, c := range cases {
			status, _, body := srv.postLog(t, c.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, c.reason+"\n", body)
		}
	})

	n, err := srv.repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
}

func TestRouter_TimestampPastYear9999(t *testing.T) {
	srv := newTestServer(t)

	status, _, body := srv.postLog(t, `{"server":"server1","message":"m","timestamp":"9999-12-31T23:00:00-05:00"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid timestamp\n", body)

	// Nothing was stored, so a window reaching the end of the range still works.
	status, entries, _ := srv.getLogs(t, url.Values{
		"server": {"server1"},
		"since":  {"0001-01-01"},
		"until":  {"9999-12-31T23:59:59.999999Z"},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, entries, 4)

	n, err := srv.repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
}

func TestRouter_UnsupportedContentType(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+BasePath, "text/plain", bytes.NewBufferString(`{"server":"server1","message":"m"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	assert.Equal(t, "Unsupported Content-Type\n", string(raw))

	n, err := srv.repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
}

func TestRouter_IngestThenQuery(t *testing.T) {
	srv := newTestServer(t)
	before := time.Now().UTC()

	status, created, _ := srv.postLog(t, `{"server":"server9","message":"hello"}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "server9", created.Server)
	assert.Equal(t, "hello", created.Message)
	assert.Greater(t, created.ID, int64(10))

	ts, err := timestamp.Parse(created.Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, before, ts, 5*time.Second)

	// Default window is the last fifteen minutes, which contains the new entry.
	status, entries, _ := srv.getLogs(t, url.Values{"server": {"server9"}})
	require.Equal(t, http.StatusOK, status)
	require.Len(t, entries, 1)
	assert.Equal(t, created, entries[0])
}

func TestRouter_IngestWithOffsetIsNormalized(t *testing.T) {
	srv := newTestServer(t)

	status, created, _ := srv.postLog(t, `{"server":"server1","message":"late","timestamp":"2025-07-19T13:07:00+02:00"}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "2025-07-19T11:07:00.000000+00:00", created.Timestamp)

	_, entries, _ := srv.getLogs(t, url.Values{
		"server": {"server1"},
		"since":  {"2025-07-19T11:00:00Z"},
		"until":  {"2025-07-19T11:10:00Z"},
	})
	require.Len(t, entries, 4)
	assert.Equal(t, "late", entries[2].Message)
}

func TestRouter_UnboundedQuery(t *testing.T) {
	srv := newTestServer(t)
	base := time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC)

	const rows = 300
	batch := make([]domain.LogEntry, 0, rows)
	// Reverse insertion order so ordering comes from the query.
	for i := rows - 1; i >= 0; i-- {
		batch = append(batch, domain.LogEntry{
			Server:    "bulk",
			Message:   fmt.Sprintf("entry %03d", i),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
	}
	require.NoError(t, srv.repo.InsertBatch(context.Background(), batch))

	status, entries, _ := srv.getLogs(t, url.Values{
		"server": {"bulk"},
		"since":  {"2025-07-20T00:00:00Z"},
		"until":  {"2025-07-21T00:00:00Z"},
	})

	require.Equal(t, http.StatusOK, status)
	require.Len(t, entries, rows)
	for i := 1; i < len(entries); i++ {
		assert.LessOrEqual(t, entries[i-1].Timestamp, entries[i].Timestamp)
	}
	assert.Equal(t, "entry 000", entries[0].Message)
	assert.Equal(t, "entry 299", entries[rows-1].Message)
}

func TestRouter_CORS(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+BasePath, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, _, _ = srv.postLog(t, `{"server":"server1","message":"counted"}`)

	admin := httptest.NewServer(NewAdminRouter(srv.metrics))
	defer admin.Close()

	resp, err = http.Get(admin.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "server_logs_logs_ingested_total 1")
	assert.Contains(t, string(body), `server_logs_http_requests_total{method="POST",route="/api/logs",status="201"} 1`)
}
