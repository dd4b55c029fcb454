package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"MoneyLoop/internal/domain/models"
	domsvc "MoneyLoop/internal/domain/service"
	applogger "MoneyLoop/pkg/logger"
)

type stubAnalytics struct {
	hints []string
	err   error
}

func (s *stubAnalytics) KeywordHints(context.Context, int) ([]string, error) {
	return s.hints, s.err
}

type stubPagePublisher struct {
	res     *domsvc.PublishResult
	err     error
	path    string
	message string
}

func (s *stubPagePublisher) PublishPage(_ context.Context, path, _, message string) (*domsvc.PublishResult, error) {
	s.path = path
	s.message = message
	return s.res, s.err
}

type stubDeployer struct {
	url string
	err error
}

func (s *stubDeployer) DeployPage(context.Context, string, string) (string, error) {
	return s.url, s.err
}

type stubPromoter struct {
	err   error
	runID string
	tasks []models.PromotionTask
}

func (s *stubPromoter) Dispatch(_ context.Context, runID string, tasks []models.PromotionTask) error {
	s.runID = runID
	s.tasks = tasks
	return s.err
}

func newTestAutopilot(settings AutopilotSettings, src *stubSource) *Autopilot {
	collector := newTestCollector(src)
	loop := NewLoop(collector, nil, nil, applogger.Nop())
	loop.SetClock(fixedClock)
	a := NewAutopilot(loop, collector, settings, nil, applogger.Nop())
	a.SetClock(fixedClock)
	return a
}

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

func TestResolveAutopilotConfigBudget(t *testing.T) {
	settings := AutopilotSettings{Budget: 150, MaxBudget: 500}

	cfg := ResolveAutopilotConfig(settings, AutopilotOptions{})
	require.InDelta(t, 150, cfg.Budget, 0.001)

	cfg = ResolveAutopilotConfig(settings, AutopilotOptions{Budget: floatPtr(300)})
	require.InDelta(t, 300, cfg.Budget, 0.001)

	cfg = ResolveAutopilotConfig(settings, AutopilotOptions{Budget: floatPtr(900)})
	require.InDelta(t, 500, cfg.Budget, 0.001)

	cfg = ResolveAutopilotConfig(settings, AutopilotOptions{Budget: floatPtr(-5)})
	require.InDelta(t, 150, cfg.Budget, 0.001)

	cfg = ResolveAutopilotConfig(AutopilotSettings{}, AutopilotOptions{})
	require.InDelta(t, DefaultWeeklyBudget, cfg.Budget, 0.001)
}

func TestResolveAutopilotConfigOverrides(t *testing.T) {
	settings := AutopilotSettings{
		Market:         "freelancers",
		DryRun:         true,
		AutoDiscover:   true,
		PublishEnabled: false,
	}

	cfg := ResolveAutopilotConfig(settings, AutopilotOptions{})
	require.True(t, cfg.DryRun)
	require.True(t, cfg.AutoDiscover)
	require.False(t, cfg.PublishEnabled)

	cfg = ResolveAutopilotConfig(settings, AutopilotOptions{
		DryRun:       boolPtr(false),
		AutoDiscover: boolPtr(false),
		Publish:      boolPtr(true),
		Deploy:       boolPtr(true),
		Promotion:    boolPtr(true),
	})
	require.False(t, cfg.DryRun)
	require.False(t, cfg.AutoDiscover)
	require.True(t, cfg.PublishEnabled)
	require.True(t, cfg.DeployEnabled)
	require.True(t, cfg.PromotionEnabled)

	require.Equal(t, DefaultMarket, ResolveAutopilotConfig(AutopilotSettings{}, AutopilotOptions{}).Market)
}

func TestRunCycleStagesDisabled(t *testing.T) {
	a := newTestAutopilot(AutopilotSettings{Market: "freelancers"}, &stubSource{name: "hackernews"})

	out, err := a.RunCycle(context.Background(), AutopilotOptions{})

	require.NoError(t, err)
	require.Equal(t, models.StageNotAttempted, out.Publish.Status)
	require.Equal(t, "publishing disabled", out.Publish.Reason)
	require.Equal(t, models.StageNotAttempted, out.Deploy.Status)
	require.Equal(t, "deploy disabled", out.Deploy.Reason)
	require.Equal(t, models.StageNotAttempted, out.Promotion.Status)
	require.Equal(t, "promotion disabled", out.Promotion.Reason)
	require.NotEmpty(t, out.OfferHTML)
}

func TestRunCycleStagesEnabledButUnconfigured(t *testing.T) {
	a := newTestAutopilot(AutopilotSettings{
		Market:           "freelancers",
		PublishEnabled:   true,
		DeployEnabled:    true,
		PromotionEnabled: true,
	}, &stubSource{name: "hackernews"})

	out, err := a.RunCycle(context.Background(), AutopilotOptions{})

	require.NoError(t, err)
	require.Equal(t, models.StageNotAttempted, out.Publish.Status)
	require.Equal(t, "publisher not configured", out.Publish.Reason)
	require.Equal(t, "deployer not configured", out.Deploy.Reason)
	require.Equal(t, "promotion webhook not configured", out.Promotion.Reason)
}

func TestRunCycleDryRun(t *testing.T) {
	a := newTestAutopilot(AutopilotSettings{
		Market:           "freelancers",
		DryRun:           true,
		DestinationURL:   "https://fallback.example.com",
		PublishEnabled:   true,
		DeployEnabled:    true,
		PromotionEnabled: true,
	}, &stubSource{name: "hackernews"})
	a.SetServices(nil, &stubPagePublisher{}, &stubDeployer{}, &stubPromoter{})

	out, err := a.RunCycle(context.Background(), AutopilotOptions{})

	require.NoError(t, err)
	require.Equal(t, models.StageDryRun, out.Publish.Status)
	require.Equal(t, models.StageDryRun, out.Deploy.Status)
	require.Equal(t, models.StageDryRun, out.Promotion.Status)
	require.NotEmpty(t, out.Promotion.Tasks)
	require.Equal(t, "https://fallback.example.com", out.DestinationURL)
}

func TestRunCycleLiveStages(t *testing.T) {
	publisher := &stubPagePublisher{res: &domsvc.PublishResult{
		Path:      "offers/run.html",
		CommitSHA: "abc123",
		HTMLURL:   "https://github.example.com/offers/run.html",
	}}
	deployer := &stubDeployer{url: "https://offer.example.com"}
	promoter := &stubPromoter{}
	a := newTestAutopilot(AutopilotSettings{
		Market:           "freelancers",
		Budget:           150,
		PublishEnabled:   true,
		DeployEnabled:    true,
		PromotionEnabled: true,
	}, &stubSource{name: "hackernews"})
	a.SetServices(nil, publisher, deployer, promoter)

	out, err := a.RunCycle(context.Background(), AutopilotOptions{})

	require.NoError(t, err)
	require.Equal(t, models.StageSucceeded, out.Publish.Status)
	require.Equal(t, "abc123", out.Publish.CommitSHA)
	require.Equal(t, fmt.Sprintf("offers/%s.html", out.RunID), publisher.path)
	require.Equal(t, "Add offer page "+out.RunID, publisher.message)
	require.Equal(t, models.StageSucceeded, out.Deploy.Status)
	require.Equal(t, "https://offer.example.com", out.Deploy.URL)
	require.Equal(t, "https://offer.example.com", out.DestinationURL)
	require.Equal(t, models.StageSucceeded, out.Promotion.Status)
	require.Equal(t, out.RunID, promoter.runID)
	require.NotEmpty(t, promoter.tasks)
	for _, task := range promoter.tasks {
		require.Equal(t, "https://offer.example.com", task.Destination)
	}
}

func TestRunCycleDestinationFallsBackToPublishedPage(t *testing.T) {
	publisher := &stubPagePublisher{res: &domsvc.PublishResult{
		HTMLURL: "https://github.example.com/offers/run.html",
	}}
	a := newTestAutopilot(AutopilotSettings{
		Market:         "freelancers",
		PublishEnabled: true,
	}, &stubSource{name: "hackernews"})
	a.SetServices(nil, publisher, nil, nil)

	out, err := a.RunCycle(context.Background(), AutopilotOptions{})

	require.NoError(t, err)
	require.Equal(t, "https://github.example.com/offers/run.html", out.DestinationURL)
}

func TestRunCyclePromotionRequiresDestination(t *testing.T) {
	promoter := &stubPromoter{}
	a := newTestAutopilot(AutopilotSettings{
		Market:           "freelancers",
		PromotionEnabled: true,
	}, &stubSource{name: "hackernews"})
	a.SetServices(nil, nil, nil, promoter)

	out, err := a.RunCycle(context.Background(), AutopilotOptions{})

	require.NoError(t, err)
	require.Empty(t, out.DestinationURL)
	require.Equal(t, models.StageNotAttempted, out.Promotion.Status)
	require.Equal(t, "no destination url", out.Promotion.Reason)
	require.Empty(t, promoter.tasks)
}

func TestRunCyclePublishErrorAborts(t *testing.T) {
	publisher := &stubPagePublisher{err: errors.New("422 from content API")}
	a := newTestAutopilot(AutopilotSettings{
		Market:         "freelancers",
		PublishEnabled: true,
	}, &stubSource{name: "hackernews"})
	a.SetServices(nil, publisher, nil, nil)

	out, err := a.RunCycle(context.Background(), AutopilotOptions{})

	require.Error(t, err)
	require.Nil(t, out)
	require.Contains(t, err.Error(), "publish stage:")
}

func TestRunCycleAnalyticsFailureBecomesWarning(t *testing.T) {
	a := newTestAutopilot(AutopilotSettings{Market: "freelancers"}, &stubSource{name: "hackernews"})
	a.SetServices(&stubAnalytics{err: errors.New("api unreachable")}, nil, nil, nil)

	out, err := a.RunCycle(context.Background(), AutopilotOptions{})

	require.NoError(t, err)
	require.NotEmpty(t, out.Warnings)
	require.Contains(t, out.Warnings[0], "analytics lookup failed")
	require.Empty(t, out.AnalyticsKeywords)
}

func TestRunCycleAutoDiscoverOverridesMarket(t *testing.T) {
	src := &stubSource{name: "hackernews", byKw: map[string][]models.Signal{
		"struggling to find clients": {
			{ID: "d1", Title: "Struggling to find clients as a freelance designer", URL: "https://x/d1", Popularity: 120, Comments: 40},
		},
		"automate invoices": {
			{ID: "d2", Title: "How do you automate invoices for retainer clients", URL: "https://x/d2", Popularity: 60, Comments: 15},
		},
	}}
	a := newTestAutopilot(AutopilotSettings{Market: "ecommerce sellers", AutoDiscover: true}, src)

	out, err := a.RunCycle(context.Background(), AutopilotOptions{})

	require.NoError(t, err)
	require.NotNil(t, out.Discovery)
	require.Equal(t, "freelancers", out.Discovery.Market)
	require.Equal(t, "freelancers", out.Input.Market)
}

func TestBuildPromotionTasks(t *testing.T) {
	drafts := []models.AdDraft{
		{Channel: "reddit", Headline: "h1", Body: "b1", CTA: "c1"},
		{Channel: "x", Headline: "h2", Body: "b2", CTA: "c2"},
		{Channel: "linkedin", Headline: "h3", Body: "b3", CTA: "c3"},
	}

	tasks := BuildPromotionTasks(drafts, "https://offer.example.com", 150)

	require.Len(t, tasks, 3)
	for _, task := range tasks {
		require.Equal(t, 7, task.DailyBudget)
		require.Equal(t, "https://offer.example.com", task.Destination)
	}

	tasks = BuildPromotionTasks(drafts, "", 10)
	require.Equal(t, 1, tasks[0].DailyBudget)

	require.Nil(t, BuildPromotionTasks(nil, "", 150))
}
