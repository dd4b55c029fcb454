package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"MoneyLoop/internal/domain/models"
	drepo "MoneyLoop/internal/domain/repository"
	applogger "MoneyLoop/pkg/logger"
	"MoneyLoop/pkg/util"
)

const (
	defaultSignalLimit   = 24
	maxKeywords          = 6
	relevanceThreshold   = 35.0
	defaultSourceLimit   = 20
	freshnessDecayPerDay = 3.0
)

// NoKeywordsWarning is returned when no keywords could be resolved.
const NoKeywordsWarning = "No keywords provided for demand research."

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "from": true, "your": true, "you": true, "are": true,
	"was": true, "have": true, "has": true, "how": true, "what": true,
	"when": true, "why": true, "can": true, "our": true, "their": true,
	"they": true, "them": true, "its": true, "will": true, "would": true,
	"should": true, "could": true, "about": true, "into": true, "not": true,
}

// Collector fetches demand signals from every configured source, then
// filters, dedupes, and ranks them.
type Collector struct {
	sources        []drepo.SignalSource
	metrics        drepo.Metrics
	perSourceLimit int
	now            func() time.Time
	l              *applogger.Logger
}

// NewCollector creates a collector over the given sources.
func NewCollector(sources []drepo.SignalSource, metrics drepo.Metrics, perSourceLimit int, l *applogger.Logger) *Collector {
	if perSourceLimit <= 0 {
		perSourceLimit = defaultSourceLimit
	}
	return &Collector{
		sources:        sources,
		metrics:        metrics,
		perSourceLimit: perSourceLimit,
		now:            time.Now,
		l:              l,
	}
}

// SetClock replaces the time source. Tests use this for deterministic
// freshness scoring.
func (c *Collector) SetClock(now func() time.Time) { c.now = now }

type CollectInput struct {
	Market   string
	Keywords []string
	Limit    int
}

type CollectResult struct {
	Keywords []string        `json:"keywords"`
	Signals  []models.Signal `json:"signals"`
	Warnings []string        `json:"warnings"`
}

// Collect never fails: source errors degrade to warnings and an empty
// keyword list short-circuits before any network call.
func (c *Collector) Collect(ctx context.Context, in CollectInput) CollectResult {
	keywords := BuildKeywordList(in.Market, in.Keywords)
	if len(keywords) == 0 {
		return CollectResult{Warnings: []string{NoKeywordsWarning}}
	}

	limit := in.Limit
	if limit <= 0 {
		limit = defaultSignalLimit
	}

	// One fetch per keyword per source. Results are kept in request
	// iteration order so the first-seen-wins dedupe below stays
	// deterministic regardless of completion order.
	type fetchJob struct {
		keyword string
		source  drepo.SignalSource
	}
	var jobs []fetchJob
	for _, kw := range keywords {
		for _, src := range c.sources {
			jobs = append(jobs, fetchJob{keyword: kw, source: src})
		}
	}

	results := make([][]models.Signal, len(jobs))
	errs := make([]error, len(jobs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			// allSettled semantics: a failed source never aborts siblings.
			sigs, err := job.source.Search(gctx, job.keyword, c.perSourceLimit)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = sigs
			return nil
		})
	}
	_ = g.Wait()

	var warnings []string
	var raw []models.Signal
	for i, job := range jobs {
		if errs[i] != nil {
			warnings = append(warnings, fmt.Sprintf("%s search for %q failed: %v", job.source.Name(), job.keyword, errs[i]))
			continue
		}
		if c.metrics != nil {
			c.metrics.RecordSignals(job.source.Name(), len(results[i]))
		}
		raw = append(raw, results[i]...)
	}

	signals := c.rankSignals(raw, limit)
	if c.l != nil {
		c.l.Debug("collect done",
			applogger.Strings("keywords", keywords),
			applogger.Int("raw", len(raw)),
			applogger.Int("kept", len(signals)),
		)
	}
	return CollectResult{Keywords: keywords, Signals: signals, Warnings: warnings}
}

// rankSignals applies the relevance filter, first-seen-wins dedupe, and
// the weighted ranking score, returning the top entries.
func (c *Collector) rankSignals(raw []models.Signal, limit int) []models.Signal {
	now := c.now()
	seen := make(map[string]bool)
	kept := make([]models.Signal, 0, len(raw))

	for _, sig := range raw {
		if sig.Title == "" && sig.URL == "" {
			continue
		}
		rel := keywordRelevance(sig.Keyword, sig.Text())
		if rel < relevanceThreshold {
			continue
		}
		key := sig.DedupeKey()
		if seen[key] {
			continue
		}
		seen[key] = true

		sig.Relevance = rel
		sig.Rank = 0.5*rel +
			0.25*float64(sig.Popularity) +
			0.15*float64(sig.Comments) +
			0.1*freshness(sig.CreatedAt, now)
		kept = append(kept, sig)
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Rank > kept[j].Rank })
	if len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

// BuildKeywordList merges explicit keywords with market-name fragments
// (comma/plus split), deduplicated and capped at six.
func BuildKeywordList(market string, keywords []string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] || len(out) >= maxKeywords {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	for _, kw := range keywords {
		add(kw)
	}
	for _, part := range strings.FieldsFunc(market, func(r rune) bool { return r == ',' || r == '+' }) {
		add(part)
	}
	return out
}

// keywordTokens strips short and stopword tokens from a keyword phrase.
func keywordTokens(keyword string) []string {
	var tokens []string
	for _, w := range util.Words(keyword) {
		if len(w) < 3 || stopwords[w] {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// keywordRelevance is the percentage of keyword tokens present in the
// signal text. Single-token phrases pass on any match; a keyword whose
// tokens are all stopwords matches nothing.
func keywordRelevance(keyword, text string) float64 {
	tokens := keywordTokens(keyword)
	if len(tokens) == 0 {
		return 0
	}
	matched := 0
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			matched++
		}
	}
	return float64(matched) / float64(len(tokens)) * 100
}

// freshness decays from 100 by three points per day of age; unparseable
// or future timestamps contribute zero.
func freshness(createdAt string, now time.Time) float64 {
	age := util.AgeInDays(createdAt, now)
	if age < 0 {
		return 0
	}
	f := 100 - float64(age)*freshnessDecayPerDay
	if f < 0 {
		return 0
	}
	return f
}
