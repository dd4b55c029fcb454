package service

import (
	"context"

	"MoneyLoop/internal/domain/models"
)

// SynthesisResult is what a Synthesizer proposes for one run.
type SynthesisResult struct {
	Opportunities     []models.Opportunity
	AdDrafts          []models.AdDraft
	MonetizationNotes string
}

// Synthesizer turns collected signals into opportunity candidates.
// The loop orchestrator is written against this interface only; the
// heuristic path and the LLM-backed path both implement it.
type Synthesizer interface {
	Synthesize(ctx context.Context, input models.LoopInput, signals []models.Signal) (*SynthesisResult, error)
}

// AnalyticsSource returns keyword hints derived from real traffic
// dimensions (top page paths over a trailing window).
type AnalyticsSource interface {
	KeywordHints(ctx context.Context, days int) ([]string, error)
}

// PublishResult is returned by a successful non-dry-run page publish.
type PublishResult struct {
	Path      string
	CommitSHA string
	HTMLURL   string
}

// PagePublisher writes an offer page to a source-control content API.
// Create vs update semantics are decided by an existing-file lookup.
type PagePublisher interface {
	PublishPage(ctx context.Context, path, html, message string) (*PublishResult, error)
}

// PageDeployer posts the offer page as a single-file static deployment.
type PageDeployer interface {
	DeployPage(ctx context.Context, name, html string) (url string, err error)
}

// PromotionDispatcher sends promotion tasks in one webhook call.
type PromotionDispatcher interface {
	Dispatch(ctx context.Context, runID string, tasks []models.PromotionTask) error
}
