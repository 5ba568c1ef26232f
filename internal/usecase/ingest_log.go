package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/V4T54L/server-logs/internal/domain"
	"github.com/V4T54L/server-logs/internal/pkg/timestamp"
)

// IngestRequest is the write-path body. An empty Timestamp means ingest time.
type IngestRequest struct {
	Server    string `json:"server" validate:"required"`
	Message   string `json:"message" validate:"required"`
	Timestamp string `json:"timestamp,omitempty"`
}

// IngestLogUseCase handles the business logic for appending a log entry.
type IngestLogUseCase struct {
	repo     domain.LogRepository
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewIngestLogUseCase creates a new IngestLogUseCase.
func NewIngestLogUseCase(repo domain.LogRepository, logger *slog.Logger) *IngestLogUseCase {
	return &IngestLogUseCase{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		now:      timestamp.Now,
	}
}

// Ingest validates req and appends exactly one entry. A nil req means the
// client sent no body.
func (uc *IngestLogUseCase) Ingest(ctx context.Context, req *IngestRequest) (*domain.LogEntry, error) {
	if req == nil {
		return nil, domain.NewValidationError("body required")
	}

	if err := uc.validate.StructCtx(ctx, req); err != nil {
		return nil, domain.NewValidationError("server and message required")
	}

	ts := uc.now()
	if req.Timestamp != "" {
		t, err := timestamp.Parse(req.Timestamp)
		if err != nil {
			return nil, domain.NewValidationError("invalid timestamp")
		}
		ts = t
	}

	entry := &domain.LogEntry{
		Server:    req.Server,
		Message:   req.Message,
		Timestamp: ts,
	}
	if err := uc.repo.Insert(ctx, entry); err != nil {
		uc.logger.Error("failed to store log entry", "error", err, "server", req.Server)
		return nil, err
	}

	uc.logger.Debug("ingested log entry", "id", entry.ID, "server", entry.Server)
	return entry, nil
}
