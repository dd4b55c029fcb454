package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"MoneyLoop/internal/domain/models"
	domsvc "MoneyLoop/internal/domain/service"
	"MoneyLoop/pkg/util"
)

const (
	defaultPainScore   = 55
	defaultWTPScore    = 52
	defaultSpeedScore  = 60
	defaultCompScore   = 48
	maxOpportunities   = 6
	maxDraftedOpps     = 3
	adHeadlineMaxRunes = 90
	adCTAMaxRunes      = 60
)

// DefaultChannels is used when a run specifies none.
var DefaultChannels = []string{"reddit", "x", "linkedin"}

// RankOpportunities fills missing sub-scores (zero or negative, see
// models.Opportunity) with their defaults, caps the rest at 100,
// computes the weighted score rounded to one decimal, and sorts
// descending with painScore breaking ties.
func RankOpportunities(list []models.Opportunity, weights *models.ScoreWeights) []models.Opportunity {
	w := models.DefaultScoreWeights
	if weights != nil {
		w = *weights
	}

	out := make([]models.Opportunity, len(list))
	for i, opp := range list {
		opp.PainScore = clampScore(opp.PainScore, defaultPainScore)
		opp.WillingnessToPay = clampScore(opp.WillingnessToPay, defaultWTPScore)
		opp.SpeedToBuild = clampScore(opp.SpeedToBuild, defaultSpeedScore)
		opp.CompetitionGap = clampScore(opp.CompetitionGap, defaultCompScore)

		raw := w.Pain*float64(opp.PainScore) +
			w.WTP*float64(opp.WillingnessToPay) +
			w.Speed*float64(opp.SpeedToBuild) +
			w.Competition*float64(opp.CompetitionGap)
		opp.Score = math.Round(raw*10) / 10
		out[i] = opp
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].PainScore > out[j].PainScore
	})
	return out
}

// clampScore treats non-positive values as missing and bounds the rest.
func clampScore(v, def int) int {
	if v <= 0 {
		return def
	}
	if v > 100 {
		return 100
	}
	return v
}

// DedupeOpportunities drops repeats keyed by (title, problem), first
// occurrence wins, capping the list at six.
func DedupeOpportunities(list []models.Opportunity) []models.Opportunity {
	seen := make(map[string]bool)
	out := make([]models.Opportunity, 0, len(list))
	for _, opp := range list {
		key := strings.ToLower(opp.Title) + "|" + strings.ToLower(opp.Problem)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, opp)
		if len(out) == maxOpportunities {
			break
		}
	}
	return out
}

// DeriveOpportunityFromSignal is the no-AI fallback path: a deterministic
// templated transform from one demand signal into a draft opportunity.
func DeriveOpportunityFromSignal(sig models.Signal, index int, market string) models.Opportunity {
	urgency := sig.Popularity + sig.Comments
	title := fmt.Sprintf("%s fix for %s", capitalize(sig.Keyword), market)

	evidence := make([]string, 0, 3)
	evidence = append(evidence, "source: "+sig.Source)
	if sig.URL != "" {
		evidence = append(evidence, sig.URL)
	}
	if sig.Summary != "" {
		evidence = append(evidence, util.Truncate(sig.Summary, 160))
	}

	return models.Opportunity{
		ID:               fmt.Sprintf("%s-%d", util.Slugify(title), index+1),
		Title:            title,
		Problem:          fmt.Sprintf("%s keep raising %q without finding a working answer.", capitalize(market), util.Truncate(sig.Title, 100)),
		Audience:         market,
		Solution:         fmt.Sprintf("A focused done-for-you service that resolves %s in under a week.", sig.Keyword),
		MVP:              fmt.Sprintf("Landing page plus a manual concierge pilot for the first ten %s customers.", market),
		SuggestedPrice:   priceForUrgency(urgency),
		PainScore:        boundedScore(52 + urgency/4),
		WillingnessToPay: boundedScore(50 + sig.Popularity/5),
		SpeedToBuild:     boundedScore(68 - index*4),
		CompetitionGap:   boundedScore(44 + sig.Comments/6),
		Evidence:         evidence,
	}
}

// FallbackOpportunity guarantees at least one renderable opportunity
// when both the synthesizer and the signal feed come back empty.
func FallbackOpportunity(market string) models.Opportunity {
	return models.Opportunity{
		ID:               util.Slugify("starter offer " + market),
		Title:            fmt.Sprintf("Starter offer for %s", market),
		Problem:          fmt.Sprintf("%s lose hours every week to repetitive manual work.", capitalize(market)),
		Audience:         market,
		Solution:         "A productized weekly service that takes the busywork off their plate.",
		MVP:              "One-page offer with a booking link and a three-customer pilot.",
		SuggestedPrice:   "$29/mo",
		PainScore:        defaultPainScore,
		WillingnessToPay: defaultWTPScore,
		SpeedToBuild:     defaultSpeedScore,
		CompetitionGap:   defaultCompScore,
		Evidence:         []string{"no external signals collected; seeded from the market profile"},
	}
}

// BuildAdDrafts emits one draft per channel for each of the top three
// opportunities. Deterministic, no randomness; empty copy is discarded.
func BuildAdDrafts(opps []models.Opportunity, channels []string) []models.AdDraft {
	if len(channels) == 0 {
		channels = DefaultChannels
	}
	top := opps
	if len(top) > maxDraftedOpps {
		top = top[:maxDraftedOpps]
	}

	var drafts []models.AdDraft
	for _, opp := range top {
		headline := util.Truncate(opp.Problem, adHeadlineMaxRunes)
		body := opp.Solution
		if opp.SuggestedPrice != "" {
			body = strings.TrimSpace(body) + " Starting at " + opp.SuggestedPrice + "."
		}
		if headline == "" || strings.TrimSpace(body) == "" {
			continue
		}
		for _, ch := range channels {
			ch = strings.ToLower(strings.TrimSpace(ch))
			if ch == "" {
				continue
			}
			drafts = append(drafts, models.AdDraft{
				ID:                  fmt.Sprintf("ad-%s-%s", opp.ID, ch),
				Channel:             ch,
				Headline:            headline,
				Body:                body,
				CTA:                 util.Truncate(opp.Title, adCTAMaxRunes),
				LinkedOpportunityID: opp.ID,
			})
		}
	}
	return drafts
}

func priceForUrgency(urgency int) string {
	switch {
	case urgency >= 150:
		return "$79/mo"
	case urgency >= 50:
		return "$49/mo"
	default:
		return "$29/mo"
	}
}

func boundedScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// HeuristicSynthesizer is the local Synthesizer: it derives opportunities
// straight from collected signals with no external calls.
type HeuristicSynthesizer struct{}

func (HeuristicSynthesizer) Synthesize(_ context.Context, input models.LoopInput, signals []models.Signal) (*domsvc.SynthesisResult, error) {
	var opps []models.Opportunity
	for i, sig := range signals {
		if i == maxOpportunities {
			break
		}
		opps = append(opps, DeriveOpportunityFromSignal(sig, i, input.Market))
	}
	if len(opps) == 0 {
		opps = append(opps, FallbackOpportunity(input.Market))
	}
	opps = DedupeOpportunities(RankOpportunities(opps, nil))
	return &domsvc.SynthesisResult{
		Opportunities: opps,
		AdDrafts:      BuildAdDrafts(opps, input.Channels),
	}, nil
}

var _ domsvc.Synthesizer = HeuristicSynthesizer{}
