package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"MoneyLoop/internal/domain/models"
	drepo "MoneyLoop/internal/domain/repository"
	domsvc "MoneyLoop/internal/domain/service"
	applogger "MoneyLoop/pkg/logger"
)

const (
	// DefaultMarket is used when a request names no target market.
	DefaultMarket = "solo founders"
	// DefaultWeeklyBudget is the assumed weekly ad spend in USD.
	DefaultWeeklyBudget = 150.0

	maxChannels      = 5
	lowMonthlyFactor = 1.8
	maxMonthlyFactor = 4.5
)

// SynthesizerFactory builds a request-scoped LLM synthesizer. Returning
// nil routes the run through the heuristic path.
type SynthesizerFactory func(apiKey, model string) domsvc.Synthesizer

// SummaryBroadcaster pushes compact run summaries to live subscribers.
type SummaryBroadcaster interface {
	Broadcast(summary models.RunSummary)
}

// Loop is the signal-to-report orchestrator. A run always produces a
// report; external failures degrade into report warnings.
type Loop struct {
	collector    *Collector
	newAI        SynthesizerFactory
	defaultKey   string
	defaultModel string
	metrics      drepo.Metrics
	publisher    drepo.ReportPublisher
	archive      drepo.RunArchive
	feed         SummaryBroadcaster
	now          func() time.Time
	l            *applogger.Logger
}

func NewLoop(collector *Collector, newAI SynthesizerFactory, metrics drepo.Metrics, l *applogger.Logger) *Loop {
	return &Loop{
		collector: collector,
		newAI:     newAI,
		metrics:   metrics,
		now:       time.Now,
		l:         l,
	}
}

// SetDefaultAI sets the fallback OpenAI credentials used when a request
// carries none.
func (lp *Loop) SetDefaultAI(apiKey, model string) {
	lp.defaultKey = apiKey
	lp.defaultModel = model
}

// SetSinks attaches the optional best-effort report sinks. Any of them
// may be nil.
func (lp *Loop) SetSinks(publisher drepo.ReportPublisher, archive drepo.RunArchive, feed SummaryBroadcaster) {
	lp.publisher = publisher
	lp.archive = archive
	lp.feed = feed
}

// SetClock replaces the time source for deterministic tests.
func (lp *Loop) SetClock(now func() time.Time) { lp.now = now }

// NormalizeLoopInput converts a raw request into the canonical input.
// Core code downstream never re-validates these fields.
func NormalizeLoopInput(req models.LoopRequest) models.LoopInput {
	market := strings.TrimSpace(req.Market)
	if market == "" {
		market = DefaultMarket
	}

	budget := DefaultWeeklyBudget
	if req.Budget != nil && *req.Budget >= 0 {
		budget = *req.Budget
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultSignalLimit
	}
	if limit > 100 {
		limit = 100
	}

	var channels []string
	seen := make(map[string]bool)
	for _, ch := range req.Channels {
		ch = strings.ToLower(strings.TrimSpace(ch))
		if ch == "" || seen[ch] || len(channels) >= maxChannels {
			continue
		}
		seen[ch] = true
		channels = append(channels, ch)
	}

	return models.LoopInput{
		RunID:    strings.TrimSpace(req.RunID),
		Market:   market,
		Keywords: req.Keywords,
		Channels: channels,
		Budget:   budget,
		Limit:    limit,
	}
}

// NewRunID mints a run identifier, second-resolution timestamp plus a
// short random suffix.
func NewRunID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("money-%s-%s", now.UTC().Format("20060102150405"), suffix)
}

// Run executes one full loop cycle. The returned report always carries
// at least one opportunity and one ad draft; the only fatal outcome is
// context cancellation.
func (lp *Loop) Run(ctx context.Context, req models.LoopRequest) (*models.RunReport, error) {
	start := lp.now()
	in := NormalizeLoopInput(req)

	runID := in.RunID
	if runID == "" {
		runID = NewRunID(start)
	}
	in.RunID = runID

	collected := lp.collector.Collect(ctx, CollectInput{
		Market:   in.Market,
		Keywords: in.Keywords,
		Limit:    in.Limit,
	})
	if err := ctx.Err(); err != nil {
		if lp.metrics != nil {
			lp.metrics.RecordRunError("loop")
		}
		return nil, fmt.Errorf("run %s aborted: %w", runID, err)
	}

	warnings := append([]string{}, collected.Warnings...)
	in.Keywords = collected.Keywords

	var aiResult *domsvc.SynthesisResult
	usedOpenAI := false
	if ai := lp.resolveAI(req); ai != nil {
		res, err := ai.Synthesize(ctx, in, collected.Signals)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("OpenAI synthesis failed: %v; using heuristic drafting instead.", err))
			if lp.l != nil {
				lp.l.Warn("ai synthesis failed", applogger.String("runId", runID), applogger.Error(err))
			}
		} else {
			aiResult = res
			usedOpenAI = true
		}
	}

	heuristic, _ := HeuristicSynthesizer{}.Synthesize(ctx, in, collected.Signals)
	opps := heuristic.Opportunities
	drafts := heuristic.AdDrafts
	monetizationNote := ""
	if aiResult != nil {
		if len(aiResult.Opportunities) > 0 {
			opps = DedupeOpportunities(RankOpportunities(aiResult.Opportunities, nil))
			drafts = aiResult.AdDrafts
			if len(drafts) == 0 {
				drafts = BuildAdDrafts(opps, in.Channels)
			}
		}
		monetizationNote = aiResult.MonetizationNotes
	}
	if len(drafts) == 0 {
		drafts = heuristic.AdDrafts
	}

	report := &models.RunReport{
		RunID:         runID,
		GeneratedAt:   lp.now().UTC(),
		Input:         in,
		UsedOpenAI:    usedOpenAI,
		Signals:       collected.Signals,
		Opportunities: opps,
		AdDrafts:      drafts,
		Warnings:      warnings,
	}
	if len(opps) > 0 {
		top := opps[0]
		report.TopOpportunity = &top
		report.ExecutionChecklist = BuildExecutionChecklist(top, in)
		report.Monetization = buildMonetization(in.Budget, monetizationNote)
	}

	if lp.metrics != nil {
		lp.metrics.RecordRun("loop", lp.now().Sub(start).Seconds())
	}
	lp.dispatch(ctx, report)

	if lp.l != nil {
		lp.l.Info("loop run complete",
			applogger.String("runId", runID),
			applogger.String("market", in.Market),
			applogger.Int("signals", len(report.Signals)),
			applogger.Int("opportunities", len(report.Opportunities)),
			applogger.Bool("usedOpenAi", usedOpenAI),
		)
	}
	return report, nil
}

func (lp *Loop) resolveAI(req models.LoopRequest) domsvc.Synthesizer {
	if lp.newAI == nil {
		return nil
	}
	key := strings.TrimSpace(req.OpenAIAPIKey)
	if key == "" {
		key = lp.defaultKey
	}
	if key == "" {
		return nil
	}
	model := strings.TrimSpace(req.OpenAIModel)
	if model == "" {
		model = lp.defaultModel
	}
	return lp.newAI(key, model)
}

// dispatch fans the finished report out to the configured sinks. Sink
// failures are logged and never affect the report.
func (lp *Loop) dispatch(ctx context.Context, report *models.RunReport) {
	if lp.publisher != nil {
		if err := lp.publisher.PublishReport(ctx, report); err != nil && lp.l != nil {
			lp.l.Warn("report publish failed", applogger.String("runId", report.RunID), applogger.Error(err))
		}
	}
	if lp.archive != nil {
		if err := lp.archive.StoreRun(ctx, report); err != nil && lp.l != nil {
			lp.l.Warn("run archive failed", applogger.String("runId", report.RunID), applogger.Error(err))
		}
	}
	if lp.feed != nil {
		lp.feed.Broadcast(report.Summary())
	}
}

// BuildExecutionChecklist renders the five-step launch plan for the
// winning opportunity.
func BuildExecutionChecklist(top models.Opportunity, in models.LoopInput) []string {
	channels := in.Channels
	if len(channels) == 0 {
		channels = DefaultChannels
	}
	price := top.SuggestedPrice
	if price == "" {
		price = "$29/mo"
	}
	return []string{
		fmt.Sprintf("Day 1: publish a one-page offer for %q aimed at %s.", top.Title, in.Market),
		fmt.Sprintf("Day 2: post the problem story to %s and reply to every comment.", strings.Join(channels, ", ")),
		fmt.Sprintf("Day 3: DM the ten most engaged commenters with the %s pilot offer.", price),
		fmt.Sprintf("Day 4: put $%.0f of the weekly budget behind the best-performing channel.", in.Budget),
		"Day 5: close three pilot customers or move to the next opportunity on the list.",
	}
}

func buildMonetization(budget float64, note string) *models.Monetization {
	if note == "" {
		note = "Linear estimate from weekly ad spend at typical cold-traffic conversion. Not a prediction."
	}
	return &models.Monetization{
		WeeklyBudget: budget,
		LowMonthly:   int(math.Round(budget * lowMonthlyFactor)),
		HighMonthly:  int(math.Round(budget * maxMonthlyFactor)),
		Note:         note,
	}
}
