package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"MoneyLoop/internal/domain/models"
	drepo "MoneyLoop/internal/domain/repository"
	domsvc "MoneyLoop/internal/domain/service"
	applogger "MoneyLoop/pkg/logger"
)

const (
	analyticsWindowDays  = 30
	discoverySignalLimit = 40
	defaultPublishPrefix = "offers"
	defaultDeployProject = "money-loop-offer"
)

// AutopilotSettings are the configured cycle defaults. The DI layer
// maps them from the autopilot config section.
type AutopilotSettings struct {
	Market           string
	Keywords         []string
	Channels         []string
	Budget           float64
	MaxBudget        float64
	AutoDiscover     bool
	DryRun           bool
	DestinationURL   string
	PublishEnabled   bool
	PublishPrefix    string
	DeployEnabled    bool
	DeployProject    string
	PromotionEnabled bool
}

// AutopilotOptions are per-invocation overrides. Nil means "keep the
// configured default".
type AutopilotOptions struct {
	Budget       *float64
	DryRun       *bool
	AutoDiscover *bool
	Publish      *bool
	Deploy       *bool
	Promotion    *bool
}

// AutopilotConfig is one cycle's effective configuration.
type AutopilotConfig struct {
	Market           string
	Keywords         []string
	Channels         []string
	Budget           float64
	DryRun           bool
	AutoDiscover     bool
	PublishEnabled   bool
	DeployEnabled    bool
	PromotionEnabled bool
}

// ResolveAutopilotConfig merges request overrides over the configured
// defaults. The budget is capped at the configured maximum, never the
// other way around.
func ResolveAutopilotConfig(s AutopilotSettings, opts AutopilotOptions) AutopilotConfig {
	cfg := AutopilotConfig{
		Market:           s.Market,
		Keywords:         append([]string{}, s.Keywords...),
		Channels:         append([]string{}, s.Channels...),
		Budget:           s.Budget,
		DryRun:           s.DryRun,
		AutoDiscover:     s.AutoDiscover,
		PublishEnabled:   s.PublishEnabled,
		DeployEnabled:    s.DeployEnabled,
		PromotionEnabled: s.PromotionEnabled,
	}
	if cfg.Market == "" {
		cfg.Market = DefaultMarket
	}
	if opts.Budget != nil && *opts.Budget > 0 {
		cfg.Budget = *opts.Budget
	}
	if cfg.Budget <= 0 {
		cfg.Budget = DefaultWeeklyBudget
	}
	if s.MaxBudget > 0 && cfg.Budget > s.MaxBudget {
		cfg.Budget = s.MaxBudget
	}
	if opts.DryRun != nil {
		cfg.DryRun = *opts.DryRun
	}
	if opts.AutoDiscover != nil {
		cfg.AutoDiscover = *opts.AutoDiscover
	}
	if opts.Publish != nil {
		cfg.PublishEnabled = *opts.Publish
	}
	if opts.Deploy != nil {
		cfg.DeployEnabled = *opts.Deploy
	}
	if opts.Promotion != nil {
		cfg.PromotionEnabled = *opts.Promotion
	}
	return cfg
}

// Autopilot chains discovery, the loop, and the action stages into one
// hands-off cycle. Action-stage transport errors abort the cycle;
// everything upstream of them degrades into warnings.
type Autopilot struct {
	loop      *Loop
	collector *Collector
	settings  AutopilotSettings
	analytics domsvc.AnalyticsSource
	publisher domsvc.PagePublisher
	deployer  domsvc.PageDeployer
	promoter  domsvc.PromotionDispatcher
	metrics   drepo.Metrics
	now       func() time.Time
	l         *applogger.Logger
}

func NewAutopilot(loop *Loop, collector *Collector, settings AutopilotSettings, metrics drepo.Metrics, l *applogger.Logger) *Autopilot {
	if settings.PublishPrefix == "" {
		settings.PublishPrefix = defaultPublishPrefix
	}
	if settings.DeployProject == "" {
		settings.DeployProject = defaultDeployProject
	}
	return &Autopilot{
		loop:      loop,
		collector: collector,
		settings:  settings,
		metrics:   metrics,
		now:       time.Now,
		l:         l,
	}
}

// SetServices attaches the optional external integrations. Any of them
// may be nil, which turns the corresponding stage into not_attempted.
func (a *Autopilot) SetServices(analytics domsvc.AnalyticsSource, publisher domsvc.PagePublisher, deployer domsvc.PageDeployer, promoter domsvc.PromotionDispatcher) {
	a.analytics = analytics
	a.publisher = publisher
	a.deployer = deployer
	a.promoter = promoter
}

// SetClock replaces the time source for deterministic tests.
func (a *Autopilot) SetClock(now func() time.Time) { a.now = now }

// RunCycle executes one autopilot cycle.
func (a *Autopilot) RunCycle(ctx context.Context, opts AutopilotOptions) (*models.AutopilotReport, error) {
	start := a.now()
	cfg := ResolveAutopilotConfig(a.settings, opts)

	var warnings []string
	var hints []string
	if a.analytics != nil {
		var err error
		hints, err = a.analytics.KeywordHints(ctx, analyticsWindowDays)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("analytics lookup failed: %v", err))
			hints = nil
		}
	}

	var discovery *models.MarketCandidate
	if cfg.AutoDiscover {
		seedRun := a.collector.Collect(ctx, CollectInput{
			Keywords: DiscoverySeedKeywords,
			Limit:    discoverySignalLimit,
		})
		warnings = append(warnings, seedRun.Warnings...)

		candidates := DeriveMarketCandidates(seedRun.Signals, DiscoverySeedKeywords, hints)
		if len(candidates) > 0 && candidates[0].Score > 0 {
			top := candidates[0]
			discovery = &top
			cfg.Market = top.Market
			cfg.Keywords = top.Keywords
		} else if len(hints) > 0 {
			cfg.Keywords = append(cfg.Keywords, hints...)
		}
	}

	budget := cfg.Budget
	report, err := a.loop.Run(ctx, models.LoopRequest{
		Market:   cfg.Market,
		Keywords: models.StringList(cfg.Keywords),
		Channels: models.StringList(cfg.Channels),
		Budget:   &budget,
	})
	if err != nil {
		a.recordError()
		return nil, err
	}
	report.Warnings = append(warnings, report.Warnings...)

	out := &models.AutopilotReport{
		RunReport:         report,
		Discovery:         discovery,
		AnalyticsKeywords: hints,
		Publish:           models.PublishOutcome{StageOutcome: notAttempted("publishing disabled")},
		Deploy:            models.DeployOutcome{StageOutcome: notAttempted("deploy disabled")},
		Promotion:         models.PromotionOutcome{StageOutcome: notAttempted("promotion disabled")},
	}

	html, err := RenderOfferPage(report)
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("offer page rendering failed: %v", err))
	}
	out.OfferHTML = html

	if err := a.runPublish(ctx, cfg, out); err != nil {
		a.recordError()
		return nil, fmt.Errorf("publish stage: %w", err)
	}
	if err := a.runDeploy(ctx, cfg, out); err != nil {
		a.recordError()
		return nil, fmt.Errorf("deploy stage: %w", err)
	}
	out.DestinationURL = resolveDestination(out, a.settings.DestinationURL)
	if err := a.runPromotion(ctx, cfg, out); err != nil {
		a.recordError()
		return nil, fmt.Errorf("promotion stage: %w", err)
	}

	if a.metrics != nil {
		a.metrics.RecordRun("autopilot", a.now().Sub(start).Seconds())
	}
	if a.l != nil {
		a.l.Info("autopilot cycle complete",
			applogger.String("runId", report.RunID),
			applogger.String("market", cfg.Market),
			applogger.Bool("dryRun", cfg.DryRun),
			applogger.String("destination", out.DestinationURL),
		)
	}
	return out, nil
}

func (a *Autopilot) runPublish(ctx context.Context, cfg AutopilotConfig, out *models.AutopilotReport) error {
	switch {
	case !cfg.PublishEnabled:
		return nil
	case a.publisher == nil:
		out.Publish.Reason = "publisher not configured"
		return nil
	case out.OfferHTML == "":
		out.Publish.Reason = "no offer page to publish"
		return nil
	case cfg.DryRun:
		out.Publish.StageOutcome = dryRun()
		return nil
	}

	path := fmt.Sprintf("%s/%s.html", a.settings.PublishPrefix, out.RunID)
	res, err := a.publisher.PublishPage(ctx, path, out.OfferHTML, "Add offer page "+out.RunID)
	if err != nil {
		return err
	}
	out.Publish = models.PublishOutcome{
		StageOutcome: succeeded(),
		Path:         res.Path,
		CommitSHA:    res.CommitSHA,
		HTMLURL:      res.HTMLURL,
	}
	return nil
}

func (a *Autopilot) runDeploy(ctx context.Context, cfg AutopilotConfig, out *models.AutopilotReport) error {
	switch {
	case !cfg.DeployEnabled:
		return nil
	case a.deployer == nil:
		out.Deploy.Reason = "deployer not configured"
		return nil
	case out.OfferHTML == "":
		out.Deploy.Reason = "no offer page to deploy"
		return nil
	case cfg.DryRun:
		out.Deploy.StageOutcome = dryRun()
		return nil
	}

	url, err := a.deployer.DeployPage(ctx, a.settings.DeployProject, out.OfferHTML)
	if err != nil {
		return err
	}
	out.Deploy = models.DeployOutcome{StageOutcome: succeeded(), URL: url}
	return nil
}

func (a *Autopilot) runPromotion(ctx context.Context, cfg AutopilotConfig, out *models.AutopilotReport) error {
	if !cfg.PromotionEnabled {
		return nil
	}
	if a.promoter == nil {
		out.Promotion.Reason = "promotion webhook not configured"
		return nil
	}
	if out.DestinationURL == "" {
		out.Promotion.Reason = "no destination url"
		return nil
	}

	tasks := BuildPromotionTasks(out.AdDrafts, out.DestinationURL, cfg.Budget)
	if len(tasks) == 0 {
		out.Promotion.Reason = "no ad drafts to promote"
		return nil
	}
	if cfg.DryRun {
		out.Promotion = models.PromotionOutcome{StageOutcome: dryRun(), Tasks: tasks}
		return nil
	}

	if err := a.promoter.Dispatch(ctx, out.RunID, tasks); err != nil {
		return err
	}
	out.Promotion = models.PromotionOutcome{StageOutcome: succeeded(), Tasks: tasks}
	return nil
}

func (a *Autopilot) recordError() {
	if a.metrics != nil {
		a.metrics.RecordRunError("autopilot")
	}
}

// BuildPromotionTasks splits the weekly budget evenly across drafts at
// a daily granularity, never below one dollar per draft per day.
func BuildPromotionTasks(drafts []models.AdDraft, destination string, weeklyBudget float64) []models.PromotionTask {
	if len(drafts) == 0 {
		return nil
	}
	daily := int(math.Round(weeklyBudget / 7 / float64(len(drafts))))
	if daily < 1 {
		daily = 1
	}

	tasks := make([]models.PromotionTask, 0, len(drafts))
	for _, draft := range drafts {
		tasks = append(tasks, models.PromotionTask{
			Channel:     draft.Channel,
			Headline:    draft.Headline,
			Body:        draft.Body,
			CTA:         draft.CTA,
			Destination: destination,
			DailyBudget: daily,
		})
	}
	return tasks
}

// resolveDestination picks where promotion traffic should land:
// freshly deployed first, then the published page, then the configured
// fallback.
func resolveDestination(out *models.AutopilotReport, configured string) string {
	if out.Deploy.URL != "" {
		return out.Deploy.URL
	}
	if out.Publish.HTMLURL != "" {
		return out.Publish.HTMLURL
	}
	return configured
}

func notAttempted(reason string) models.StageOutcome {
	return models.StageOutcome{Status: models.StageNotAttempted, Reason: reason}
}

func dryRun() models.StageOutcome {
	return models.StageOutcome{Status: models.StageDryRun}
}

func succeeded() models.StageOutcome {
	return models.StageOutcome{Status: models.StageSucceeded}
}
