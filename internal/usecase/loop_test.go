package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"MoneyLoop/internal/domain/models"
	domsvc "MoneyLoop/internal/domain/service"
	applogger "MoneyLoop/pkg/logger"
)

type stubSynth struct {
	res    *domsvc.SynthesisResult
	err    error
	called bool
}

func (s *stubSynth) Synthesize(context.Context, models.LoopInput, []models.Signal) (*domsvc.SynthesisResult, error) {
	s.called = true
	return s.res, s.err
}

type recordingSink struct {
	published []*models.RunReport
	summaries []models.RunSummary
}

func (r *recordingSink) PublishReport(_ context.Context, report *models.RunReport) error {
	r.published = append(r.published, report)
	return nil
}
func (r *recordingSink) Close() error                          { return nil }
func (r *recordingSink) Broadcast(summary models.RunSummary)   { r.summaries = append(r.summaries, summary) }

func newTestLoop(src *stubSource, synth *stubSynth) *Loop {
	collector := newTestCollector(src)
	factory := func(apiKey, model string) domsvc.Synthesizer { return synth }
	loop := NewLoop(collector, factory, nil, applogger.Nop())
	loop.SetClock(fixedClock)
	return loop
}

func matchingSource() *stubSource {
	return &stubSource{name: "hackernews", byKw: map[string][]models.Signal{
		"invoice chasing": {
			{ID: "s1", Title: "Invoice chasing eats my week", URL: "https://x/1", Popularity: 80, Comments: 20},
			{ID: "s2", Title: "Automating invoice chasing", URL: "https://x/2", Popularity: 40, Comments: 5},
		},
	}}
}

func TestNormalizeLoopInputDefaults(t *testing.T) {
	in := NormalizeLoopInput(models.LoopRequest{})

	require.Equal(t, DefaultMarket, in.Market)
	require.InDelta(t, DefaultWeeklyBudget, in.Budget, 0.001)
	require.Equal(t, 24, in.Limit)
	require.Empty(t, in.Channels)
}

func TestNormalizeLoopInputBudget(t *testing.T) {
	neg := -10.0
	in := NormalizeLoopInput(models.LoopRequest{Budget: &neg})
	require.InDelta(t, DefaultWeeklyBudget, in.Budget, 0.001)

	zero := 0.0
	in = NormalizeLoopInput(models.LoopRequest{Budget: &zero})
	require.Zero(t, in.Budget)

	set := 300.0
	in = NormalizeLoopInput(models.LoopRequest{Budget: &set})
	require.InDelta(t, 300, in.Budget, 0.001)
}

func TestNormalizeLoopInputChannels(t *testing.T) {
	in := NormalizeLoopInput(models.LoopRequest{
		Channels: models.StringList{"Reddit", "reddit", " X ", "linkedin", "tiktok", "youtube", "facebook"},
	})

	require.Equal(t, []string{"reddit", "x", "linkedin", "tiktok", "youtube"}, in.Channels)
}

func TestNewRunID(t *testing.T) {
	id := NewRunID(fixedClock())

	require.True(t, strings.HasPrefix(id, "money-20260801120000-"))
	require.Len(t, id, len("money-20260801120000-")+6)
}

func TestLoopRunHeuristic(t *testing.T) {
	loop := newTestLoop(matchingSource(), nil)
	loop.newAI = nil

	report, err := loop.Run(context.Background(), models.LoopRequest{
		Market:   "freelancers",
		Keywords: models.StringList{"invoice chasing"},
	})

	require.NoError(t, err)
	require.True(t, strings.HasPrefix(report.RunID, "money-"))
	require.False(t, report.UsedOpenAI)
	require.Len(t, report.Signals, 2)
	require.NotEmpty(t, report.Opportunities)
	require.NotNil(t, report.TopOpportunity)
	require.NotEmpty(t, report.AdDrafts)
	require.Len(t, report.ExecutionChecklist, 5)
	require.NotNil(t, report.Monetization)
	require.Equal(t, 270, report.Monetization.LowMonthly)
	require.Equal(t, 675, report.Monetization.HighMonthly)
}

func TestLoopRunWithAI(t *testing.T) {
	synth := &stubSynth{res: &domsvc.SynthesisResult{
		Opportunities: []models.Opportunity{
			{Title: "AI pick", Problem: "ai problem", Solution: "ai solution", PainScore: 90, WillingnessToPay: 80, SpeedToBuild: 70, CompetitionGap: 60},
		},
		AdDrafts: []models.AdDraft{{ID: "ai-ad", Channel: "reddit", Headline: "h", Body: "b"}},
	}}
	loop := newTestLoop(matchingSource(), synth)

	report, err := loop.Run(context.Background(), models.LoopRequest{
		Market:       "freelancers",
		Keywords:     models.StringList{"invoice chasing"},
		OpenAIAPIKey: "test-key",
	})

	require.NoError(t, err)
	require.True(t, synth.called)
	require.True(t, report.UsedOpenAI)
	require.Equal(t, "AI pick", report.TopOpportunity.Title)
	require.Len(t, report.AdDrafts, 1)
	require.Equal(t, "ai-ad", report.AdDrafts[0].ID)
}

func TestLoopRunAIFailureFallsBack(t *testing.T) {
	synth := &stubSynth{err: errors.New("model overloaded")}
	loop := newTestLoop(matchingSource(), synth)

	report, err := loop.Run(context.Background(), models.LoopRequest{
		Market:       "freelancers",
		Keywords:     models.StringList{"invoice chasing"},
		OpenAIAPIKey: "test-key",
	})

	require.NoError(t, err)
	require.False(t, report.UsedOpenAI)
	require.NotEmpty(t, report.Opportunities)
	require.Len(t, report.Warnings, 1)
	require.Contains(t, report.Warnings[0], "OpenAI synthesis failed")
}

func TestLoopRunNoSignalsStaticFallback(t *testing.T) {
	empty := &stubSource{name: "hackernews"}
	loop := newTestLoop(empty, nil)
	loop.newAI = nil

	report, err := loop.Run(context.Background(), models.LoopRequest{
		Market:   "freelancers",
		Keywords: models.StringList{"anything"},
	})

	require.NoError(t, err)
	require.Len(t, report.Opportunities, 1)
	require.Equal(t, "Starter offer for freelancers", report.Opportunities[0].Title)
	require.NotEmpty(t, report.AdDrafts)
	require.Len(t, report.ExecutionChecklist, 5)
}

func TestLoopRunKeepsSuppliedRunID(t *testing.T) {
	loop := newTestLoop(matchingSource(), nil)
	loop.newAI = nil

	report, err := loop.Run(context.Background(), models.LoopRequest{
		RunID:    "money-custom-run",
		Keywords: models.StringList{"invoice chasing"},
	})

	require.NoError(t, err)
	require.Equal(t, "money-custom-run", report.RunID)
}

func TestLoopRunDispatchesSinks(t *testing.T) {
	sink := &recordingSink{}
	loop := newTestLoop(matchingSource(), nil)
	loop.newAI = nil
	loop.SetSinks(sink, nil, sink)

	report, err := loop.Run(context.Background(), models.LoopRequest{
		Market:   "freelancers",
		Keywords: models.StringList{"invoice chasing"},
	})

	require.NoError(t, err)
	require.Len(t, sink.published, 1)
	require.Len(t, sink.summaries, 1)
	require.Equal(t, report.RunID, sink.summaries[0].RunID)
	require.Equal(t, 2, sink.summaries[0].SignalCount)
}
