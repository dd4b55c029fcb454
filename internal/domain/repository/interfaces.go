package repository

import (
	"context"

	"MoneyLoop/internal/domain/models"
)

// SignalSource searches one external provider for demand signals
// matching a keyword. Implementations normalize raw hits into Signals.
type SignalSource interface {
	Name() string
	Search(ctx context.Context, keyword string, limit int) ([]models.Signal, error)
}

// ReportPublisher emits completed run reports to a downstream topic.
// Best-effort: callers record failures as warnings.
type ReportPublisher interface {
	PublishReport(ctx context.Context, report *models.RunReport) error
	Close() error
}

// RunArchive stores run summaries and their signals for later analysis.
// Best-effort: callers record failures as warnings.
type RunArchive interface {
	Init(ctx context.Context) error
	StoreRun(ctx context.Context, report *models.RunReport) error
	Health(ctx context.Context) error
	Close() error
}

// Metrics records pipeline observability counters.
type Metrics interface {
	RecordRun(mode string, seconds float64)
	RecordRunError(mode string)
	RecordSignals(source string, count int)
	RecordRateLimited(scope string)
}
