package usecase

import (
	"math"
	"sort"
	"strings"

	"MoneyLoop/internal/domain/models"
	"MoneyLoop/pkg/util"
)

const (
	maxMarketCandidates   = 5
	maxCandidateKeywords  = 8
	maxCandidateEvidence  = 4
	keywordPoolSize       = 24
	analyticsMatchBoost   = 12.0
	signalBaseScoreOffset = 8.0
)

// marketProfile is one cluster target in the fixed discovery catalog.
type marketProfile struct {
	market string
	tokens []string
}

var marketProfiles = []marketProfile{
	{"freelancers", []string{"freelance", "freelancer", "agency", "client", "proposal", "invoice", "retainer", "upwork"}},
	{"indie saas founders", []string{"saas", "founder", "startup", "launch", "mvp", "bootstrap", "churn", "pricing"}},
	{"ecommerce sellers", []string{"shopify", "ecommerce", "store", "dropshipping", "listing", "inventory", "checkout", "amazon"}},
	{"content creators", []string{"newsletter", "youtube", "podcast", "audience", "subscriber", "creator", "sponsorship", "course"}},
	{"local service businesses", []string{"booking", "appointment", "scheduling", "reviews", "quotes", "dispatch", "contractor", "salon"}},
}

// DiscoverySeedKeywords is the broad query list autopilot collects
// against before clustering, intentionally wider than any one market.
var DiscoverySeedKeywords = []string{
	"struggling to find clients",
	"automate invoices",
	"no time for marketing",
	"client onboarding",
	"lead follow up",
	"losing customers",
}

// DeriveMarketCandidates clusters collected signals against the profile
// catalog and returns up to five candidates sorted by descending score.
// Zero-score profiles are dropped.
func DeriveMarketCandidates(signals []models.Signal, seedKeywords, analyticsKeywords []string) []models.MarketCandidate {
	pool := buildKeywordPool(signals)

	type profileState struct {
		score    float64
		matched  []string
		seen     map[string]bool
		evidence []string
	}
	states := make([]profileState, len(marketProfiles))
	for i := range states {
		states[i].seen = make(map[string]bool)
	}

	for _, sig := range signals {
		text := sig.Text() + " " + strings.ToLower(sig.Keyword)
		base := keywordScoreFromSignal(sig)
		for pi, profile := range marketProfiles {
			matches := 0
			for _, token := range profile.tokens {
				if strings.Contains(text, token) {
					matches++
					if !states[pi].seen[token] {
						states[pi].seen[token] = true
						states[pi].matched = append(states[pi].matched, token)
					}
				}
			}
			if matches == 0 {
				continue
			}
			density := 0.6 + float64(matches)/float64(len(profile.tokens))
			states[pi].score += base * density
			if sig.Title != "" && len(states[pi].evidence) < maxCandidateEvidence {
				states[pi].evidence = append(states[pi].evidence, sig.Title)
			}
		}
	}

	for _, hint := range analyticsKeywords {
		lower := strings.ToLower(strings.TrimSpace(hint))
		if lower == "" {
			continue
		}
		for pi, profile := range marketProfiles {
			for _, token := range profile.tokens {
				if strings.Contains(lower, token) {
					states[pi].score += analyticsMatchBoost
					if !states[pi].seen[token] {
						states[pi].seen[token] = true
						states[pi].matched = append(states[pi].matched, token)
					}
					break
				}
			}
		}
	}

	var out []models.MarketCandidate
	for pi, profile := range marketProfiles {
		st := states[pi]
		if st.score <= 0 {
			continue
		}

		merged := make([]string, 0, len(st.matched)+len(analyticsKeywords)+len(seedKeywords)+len(pool))
		merged = append(merged, st.matched...)
		merged = append(merged, analyticsKeywords...)
		merged = append(merged, seedKeywords...)
		merged = append(merged, pool...)

		allowed := append([]string{}, profile.tokens...)
		for _, seed := range seedKeywords {
			allowed = append(allowed, util.Words(seed)...)
		}
		keywords := SanitizeDiscoveredKeywords(merged, allowed)
		if len(keywords) > maxCandidateKeywords {
			keywords = keywords[:maxCandidateKeywords]
		}

		out = append(out, models.MarketCandidate{
			Market:   profile.market,
			Score:    math.Round(st.score*10) / 10,
			Keywords: keywords,
			Evidence: st.evidence,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > maxMarketCandidates {
		out = out[:maxMarketCandidates]
	}
	return out
}

// keywordScoreFromSignal is the per-signal weight shared by profile
// scoring and the global token pool.
func keywordScoreFromSignal(sig models.Signal) float64 {
	return float64(sig.Popularity)*0.45 + float64(sig.Comments)*0.35 + signalBaseScoreOffset
}

// buildKeywordPool ranks tokens across all signals by accumulated
// weight and keeps the top 24. Ties break lexicographically so the
// pool is stable run to run.
func buildKeywordPool(signals []models.Signal) []string {
	weights := make(map[string]float64)
	for _, sig := range signals {
		base := keywordScoreFromSignal(sig)
		for _, token := range poolTokens(sig.Text()) {
			weights[token] += base
		}
	}

	tokens := make([]string, 0, len(weights))
	for token := range weights {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if weights[tokens[i]] != weights[tokens[j]] {
			return weights[tokens[i]] > weights[tokens[j]]
		}
		return tokens[i] < tokens[j]
	})
	if len(tokens) > keywordPoolSize {
		tokens = tokens[:keywordPoolSize]
	}
	return tokens
}

func poolTokens(text string) []string {
	var out []string
	for _, word := range util.Words(text) {
		if len(word) < 3 || stopwords[word] || isNumeric(word) {
			continue
		}
		out = append(out, word)
	}
	return out
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// SanitizeDiscoveredKeywords filters a merged keyword list. Multi-word
// phrases pass through; single words survive only when they appear in
// the allowed token set or inside a retained phrase. Order is
// preserved and duplicates collapse to the first occurrence.
func SanitizeDiscoveredKeywords(keywords, allowedSingles []string) []string {
	allowed := make(map[string]bool, len(allowedSingles))
	for _, tok := range allowedSingles {
		allowed[strings.ToLower(strings.TrimSpace(tok))] = true
	}

	var phrases []string
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if strings.Contains(kw, " ") {
			phrases = append(phrases, kw)
		}
	}

	seen := make(map[string]bool)
	var out []string
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		if !strings.Contains(kw, " ") && !allowed[kw] && !phraseContainsWord(phrases, kw) {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}

func phraseContainsWord(phrases []string, word string) bool {
	for _, phrase := range phrases {
		for _, w := range strings.Fields(phrase) {
			if w == word {
				return true
			}
		}
	}
	return false
}
