package usecase

import (
	"testing"

	"github.com/stretchr/testify/require"

	"MoneyLoop/internal/domain/models"
)

func TestSanitizeDiscoveredKeywords(t *testing.T) {
	got := SanitizeDiscoveredKeywords(
		[]string{"agency", "client onboarding", "lead follow up"},
		[]string{"freelance", "invoice"},
	)

	require.Equal(t, []string{"client onboarding", "lead follow up"}, got)
}

func TestSanitizeDiscoveredKeywordsAllowedSingle(t *testing.T) {
	got := SanitizeDiscoveredKeywords(
		[]string{"invoice", "weird"},
		[]string{"invoice"},
	)

	require.Equal(t, []string{"invoice"}, got)
}

func TestSanitizeDiscoveredKeywordsPhraseMember(t *testing.T) {
	// "client" survives because "client onboarding" is retained
	got := SanitizeDiscoveredKeywords(
		[]string{"client", "client onboarding"},
		nil,
	)

	require.Equal(t, []string{"client", "client onboarding"}, got)
}

func TestSanitizeDiscoveredKeywordsDedupes(t *testing.T) {
	got := SanitizeDiscoveredKeywords(
		[]string{"Client Onboarding", "client onboarding"},
		nil,
	)

	require.Equal(t, []string{"client onboarding"}, got)
}

func TestDeriveMarketCandidatesClusters(t *testing.T) {
	signals := []models.Signal{
		{Title: "Freelance proposal tools are terrible", Summary: "every client asks for a proposal", Keyword: "struggling to find clients", Popularity: 100, Comments: 40},
		{Title: "How do you handle invoice retainers", Summary: "freelancer here", Keyword: "automate invoices", Popularity: 50, Comments: 10},
		{Title: "Unrelated gardening thread", Summary: "tomatoes", Keyword: "losing customers", Popularity: 500, Comments: 300},
	}

	candidates := DeriveMarketCandidates(signals, DiscoverySeedKeywords, nil)

	require.NotEmpty(t, candidates)
	require.Equal(t, "freelancers", candidates[0].Market)
	require.Greater(t, candidates[0].Score, 0.0)
	require.LessOrEqual(t, len(candidates), 5)
	require.LessOrEqual(t, len(candidates[0].Keywords), 8)
	require.LessOrEqual(t, len(candidates[0].Evidence), 4)
	require.Contains(t, candidates[0].Evidence, "Freelance proposal tools are terrible")
}

func TestDeriveMarketCandidatesAnalyticsBoost(t *testing.T) {
	// identical signal sets; only the analytics hints differ
	signals := []models.Signal{
		{Title: "saas churn is killing us", Keyword: "losing customers", Popularity: 10, Comments: 5},
	}

	plain := DeriveMarketCandidates(signals, nil, nil)
	boosted := DeriveMarketCandidates(signals, nil, []string{"churn playbook", "pricing page"})

	require.NotEmpty(t, plain)
	require.NotEmpty(t, boosted)
	require.Equal(t, "indie saas founders", plain[0].Market)
	require.InDelta(t, plain[0].Score+24, boosted[0].Score, 0.11)
}

func TestDeriveMarketCandidatesEmptySignals(t *testing.T) {
	require.Empty(t, DeriveMarketCandidates(nil, DiscoverySeedKeywords, nil))
}
