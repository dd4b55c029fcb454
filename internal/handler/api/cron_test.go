package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"MoneyLoop/internal/domain/models"
	drepo "MoneyLoop/internal/domain/repository"
	"MoneyLoop/internal/usecase"
	applogger "MoneyLoop/pkg/logger"
)

type emptySource struct{}

func (emptySource) Name() string { return "hackernews" }
func (emptySource) Search(context.Context, string, int) ([]models.Signal, error) {
	return nil, nil
}

var _ drepo.SignalSource = emptySource{}

func newTestAutopilot() *usecase.Autopilot {
	collector := usecase.NewCollector([]drepo.SignalSource{emptySource{}}, nil, 20, applogger.Nop())
	loop := usecase.NewLoop(collector, nil, nil, applogger.Nop())
	return usecase.NewAutopilot(loop, collector, usecase.AutopilotSettings{Market: "freelancers"}, nil, applogger.Nop())
}

func cronRequest(method, target, token string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestCronRejectsNonGet(t *testing.T) {
	h := NewCronHandler(applogger.Nop(), nil, true, "s3cret")
	c, rec := cronRequest(http.MethodPost, "/money/autopilot-cron", "s3cret")

	require.NoError(t, h.Run(c))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCronRejectsWhenDisabled(t *testing.T) {
	h := NewCronHandler(applogger.Nop(), nil, false, "s3cret")
	c, rec := cronRequest(http.MethodGet, "/money/autopilot-cron", "s3cret")

	require.NoError(t, h.Run(c))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCronRejectsBadSecret(t *testing.T) {
	h := NewCronHandler(applogger.Nop(), nil, true, "s3cret")

	c, rec := cronRequest(http.MethodGet, "/money/autopilot-cron", "wrong")
	require.NoError(t, h.Run(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// An empty configured secret can never authorize.
	h = NewCronHandler(applogger.Nop(), nil, true, "")
	c, rec = cronRequest(http.MethodGet, "/money/autopilot-cron", "")
	require.NoError(t, h.Run(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCronRunsCycle(t *testing.T) {
	h := NewCronHandler(applogger.Nop(), newTestAutopilot(), true, "s3cret")
	c, rec := cronRequest(http.MethodGet, "/money/autopilot-cron?dryRun=1", "s3cret")

	require.NoError(t, h.Run(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "not_attempted")
}

func TestCronAcceptsTokenHeader(t *testing.T) {
	h := NewCronHandler(applogger.Nop(), newTestAutopilot(), true, "s3cret")
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/money/autopilot-cron", nil)
	req.Header.Set("X-Money-Token", "s3cret")
	rec := httptest.NewRecorder()

	require.NoError(t, h.Run(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestParseBoolFlag(t *testing.T) {
	for _, s := range []string{"1", "true", "YES", " on "} {
		v := ParseBoolFlag(s)
		require.NotNil(t, v, "flag %q", s)
		require.True(t, *v, "flag %q", s)
	}
	for _, s := range []string{"0", "false", "No", "off"} {
		v := ParseBoolFlag(s)
		require.NotNil(t, v, "flag %q", s)
		require.False(t, *v, "flag %q", s)
	}
	for _, s := range []string{"", "maybe", "2"} {
		require.Nil(t, ParseBoolFlag(s), "flag %q", s)
	}
}
