package models

import "time"

// LoopInput is the normalized request for one money-loop run.
// Construction happens at the HTTP/autopilot boundary; core code only
// ever sees the canonical shape.
type LoopInput struct {
	RunID    string   `json:"runId,omitempty"`
	Market   string   `json:"market"`
	Keywords []string `json:"keywords"`
	Channels []string `json:"channels"`
	Budget   float64  `json:"budget"`
	Limit    int      `json:"limit"`
}

// Monetization is a crude linear revenue estimate, not a prediction.
type Monetization struct {
	WeeklyBudget float64 `json:"weeklyBudget"`
	LowMonthly   int     `json:"lowMonthly"`
	HighMonthly  int     `json:"highMonthly"`
	Note         string  `json:"note"`
}

// RunReport is the loop orchestrator's output, immutable once produced.
type RunReport struct {
	RunID              string        `json:"runId"`
	GeneratedAt        time.Time     `json:"generatedAt"`
	Input              LoopInput     `json:"input"`
	UsedOpenAI         bool          `json:"usedOpenAi"`
	Signals            []Signal      `json:"signals"`
	Opportunities      []Opportunity `json:"opportunities"`
	TopOpportunity     *Opportunity  `json:"topOpportunity"`
	AdDrafts           []AdDraft     `json:"adDrafts"`
	ExecutionChecklist []string      `json:"executionChecklist"`
	Monetization       *Monetization `json:"monetization,omitempty"`
	Warnings           []string      `json:"warnings"`
}

// StageStatus tags the outcome of a side-effecting autopilot stage.
// Transport failures during an attempted stage propagate as errors
// instead of landing in the report, so there is no failed tag.
type StageStatus string

const (
	StageNotAttempted StageStatus = "not_attempted"
	StageDryRun       StageStatus = "dry_run"
	StageSucceeded    StageStatus = "succeeded"
)

// StageOutcome is the common part of every stage result.
type StageOutcome struct {
	Status StageStatus `json:"status"`
	Reason string      `json:"reason,omitempty"`
}

// Attempted reports whether the stage got past its configuration gate.
func (o StageOutcome) Attempted() bool { return o.Status != StageNotAttempted }

// PublishOutcome records the GitHub publish stage.
type PublishOutcome struct {
	StageOutcome
	Path      string `json:"path,omitempty"`
	CommitSHA string `json:"commitSha,omitempty"`
	HTMLURL   string `json:"htmlUrl,omitempty"`
}

// DeployOutcome records the static-hosting deploy stage.
type DeployOutcome struct {
	StageOutcome
	URL string `json:"url,omitempty"`
}

// PromotionTask is one per-draft dispatch unit sent to the promotion webhook.
type PromotionTask struct {
	Channel     string `json:"channel"`
	Headline    string `json:"headline"`
	Body        string `json:"body"`
	CTA         string `json:"cta"`
	Destination string `json:"destination"`
	DailyBudget int    `json:"dailyBudget"`
}

// PromotionOutcome records the promotion dispatch stage.
type PromotionOutcome struct {
	StageOutcome
	Tasks []PromotionTask `json:"tasks,omitempty"`
}

// AutopilotReport extends a RunReport with discovery and side-effect state.
type AutopilotReport struct {
	*RunReport

	Discovery         *MarketCandidate `json:"discovery,omitempty"`
	AnalyticsKeywords []string         `json:"analyticsKeywords,omitempty"`
	OfferHTML         string           `json:"offerHtml"`
	Publish           PublishOutcome   `json:"publish"`
	Deploy            DeployOutcome    `json:"deploy"`
	Promotion         PromotionOutcome `json:"promotion"`
	DestinationURL    string           `json:"destinationUrl"`
}

// RunSummary is the compact view broadcast to feed subscribers and
// published to the report topic key.
type RunSummary struct {
	RunID          string    `json:"runId"`
	GeneratedAt    time.Time `json:"generatedAt"`
	Market         string    `json:"market"`
	SignalCount    int       `json:"signalCount"`
	TopOpportunity string    `json:"topOpportunity,omitempty"`
	TopScore       float64   `json:"topScore,omitempty"`
	UsedOpenAI     bool      `json:"usedOpenAi"`
	Warnings       int       `json:"warnings"`
}

// Summary derives the compact view of a report.
func (r *RunReport) Summary() RunSummary {
	s := RunSummary{
		RunID:       r.RunID,
		GeneratedAt: r.GeneratedAt,
		Market:      r.Input.Market,
		SignalCount: len(r.Signals),
		UsedOpenAI:  r.UsedOpenAI,
		Warnings:    len(r.Warnings),
	}
	if r.TopOpportunity != nil {
		s.TopOpportunity = r.TopOpportunity.Title
		s.TopScore = r.TopOpportunity.Score
	}
	return s
}
