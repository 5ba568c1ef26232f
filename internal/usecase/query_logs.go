package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/V4T54L/server-logs/internal/domain"
	"github.com/V4T54L/server-logs/internal/pkg/timestamp"
)

// DefaultWindow is how far back a query looks when since is omitted.
const DefaultWindow = 15 * time.Minute

// QueryParams are the raw read-path inputs. Empty strings mean "not given".
type QueryParams struct {
	Server string
	Since  string
	Until  string
	Limit  int // <= 0 means no limit
}

// QueryLogsUseCase handles the business logic for reading log entries.
type QueryLogsUseCase struct {
	repo   domain.LogRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewQueryLogsUseCase creates a new QueryLogsUseCase.
func NewQueryLogsUseCase(repo domain.LogRepository, logger *slog.Logger) *QueryLogsUseCase {
	return &QueryLogsUseCase{
		repo:   repo,
		logger: logger,
		now:    timestamp.Now,
	}
}

// Query returns the entries of one server inside [since, until], oldest first.
// An inverted window yields an empty result, not an error.
func (uc *QueryLogsUseCase) Query(ctx context.Context, p QueryParams) ([]domain.LogEntry, error) {
	if p.Server == "" {
		return nil, domain.NewValidationError("server is required")
	}

	now := uc.now()

	since := now.Add(-DefaultWindow)
	if p.Since != "" {
		t, err := timestamp.Parse(p.Since)
		if err != nil {
			return nil, domain.NewValidationError("invalid since")
		}
		since = t
	}

	until := now
	if p.Until != "" {
		t, err := timestamp.Parse(p.Until)
		if err != nil {
			return nil, domain.NewValidationError("invalid until")
		}
		until = t
	}

	q := domain.LogQuery{Server: p.Server, Since: since, Until: until, Limit: p.Limit}
	entries, err := uc.repo.Find(ctx, q)
	if err != nil {
		uc.logger.Error("failed to query logs", "error", err, "server", p.Server)
		return nil, err
	}

	uc.logger.Debug("queried logs", "server", p.Server, "since", since, "until", until, "limit", p.Limit, "count", len(entries))
	return entries, nil
}
