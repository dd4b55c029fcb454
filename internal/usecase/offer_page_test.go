package usecase

import (
	"testing"

	"github.com/stretchr/testify/require"

	"MoneyLoop/internal/domain/models"
)

func TestRenderOfferPage(t *testing.T) {
	report := &models.RunReport{
		RunID: "money-test-run",
		Input: models.LoopInput{Market: "freelancers", Budget: 150},
		TopOpportunity: &models.Opportunity{
			Title:          "Invoice chasing fix for freelancers",
			Problem:        "Chasing late invoices eats hours every week.",
			Solution:       "Automated reminders with escalation.",
			SuggestedPrice: "$49/mo",
		},
	}

	html, err := RenderOfferPage(report)

	require.NoError(t, err)
	require.Contains(t, html, "Invoice chasing fix for freelancers")
	require.Contains(t, html, "$49/mo")
	require.Contains(t, html, "<html")
}

func TestRenderOfferPageRequiresTopOpportunity(t *testing.T) {
	_, err := RenderOfferPage(&models.RunReport{RunID: "money-test-run"})
	require.Error(t, err)
}
