package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/V4T54L/server-logs/internal/adapter/metrics"
	"github.com/V4T54L/server-logs/internal/domain"
	"github.com/V4T54L/server-logs/internal/usecase"
)

// LogQuerier is the read path the handler depends on.
type LogQuerier interface {
	Query(ctx context.Context, p usecase.QueryParams) ([]domain.LogEntry, error)
}

// LogIngester is the write path the handler depends on.
type LogIngester interface {
	Ingest(ctx context.Context, req *usecase.IngestRequest) (*domain.LogEntry, error)
}

// LogsHandler serves GET and POST on the logs collection.
type LogsHandler struct {
	querier      LogQuerier
	ingester     LogIngester
	logger       *slog.Logger
	metrics      *metrics.Metrics
	maxBodyBytes int64
}

// NewLogsHandler creates a new LogsHandler.
func NewLogsHandler(q LogQuerier, i LogIngester, logger *slog.Logger, m *metrics.Metrics, maxBodyBytes int64) *LogsHandler {
	return &LogsHandler{
		querier:      q,
		ingester:     i,
		logger:       logger,
		metrics:      m,
		maxBodyBytes: maxBodyBytes,
	}
}

// List handles GET /api/logs?server=&since=&until=&limit=
func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := usecase.QueryParams{
		Server: query.Get("server"),
		Since:  query.Get("since"),
		Until:  query.Get("until"),
		Limit:  parseLimit(query.Get("limit")),
	}

	entries, err := h.querier.Query(r.Context(), params)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	if entries == nil {
		entries = []domain.LogEntry{}
	}
	if h.metrics != nil {
		h.metrics.EntriesReturned.Observe(float64(len(entries)))
	}
	h.respondWithJSON(w, http.StatusOK, entries)
}

// Create handles POST /api/logs with a JSON body {server, message, timestamp?}.
func (h *LogsHandler) Create(w http.ResponseWriter, r *http.Request) {
	// Enforce max body size
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			http.Error(w, "Payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.logger.Warn("failed to read request body", "error", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	if len(bytes.TrimSpace(raw)) > 0 && !isJSONContentType(r.Header.Get("Content-Type")) {
		http.Error(w, "Unsupported Content-Type", http.StatusUnsupportedMediaType)
		return
	}

	req, err := decodeIngestRequest(raw)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	entry, err := h.ingester.Ingest(r.Context(), req)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.EntriesIngested.Inc()
	}
	h.respondWithJSON(w, http.StatusCreated, entry)
}

// decodeIngestRequest returns nil for an empty body, null or {}.
func decodeIngestRequest(raw []byte) (*usecase.IngestRequest, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, domain.NewValidationError("invalid JSON body")
	}
	if len(fields) == 0 {
		return nil, nil
	}

	var req usecase.IngestRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, domain.NewValidationError("invalid JSON body")
	}
	return &req, nil
}

// isJSONContentType accepts application/json and +json types, with or
// without parameters such as charset.
func isJSONContentType(v string) bool {
	mediaType, _, err := mime.ParseMediaType(v)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// parseLimit treats anything that is not an integer as "no limit".
func parseLimit(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func (h *LogsHandler) respondWithError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		h.logger.Debug("rejected request", "reason", vErr.Reason)
		if h.metrics != nil {
			h.metrics.ValidationFailures.WithLabelValues(vErr.Reason).Inc()
		}
		http.Error(w, vErr.Reason, http.StatusBadRequest)
		return
	}

	h.logger.Error("request failed", "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func (h *LogsHandler) respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
