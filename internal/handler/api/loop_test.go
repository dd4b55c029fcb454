package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	drepo "MoneyLoop/internal/domain/repository"
	"MoneyLoop/internal/service/auth"
	"MoneyLoop/internal/service/ratelimit"
	"MoneyLoop/internal/usecase"
	applogger "MoneyLoop/pkg/logger"
)

func fixedClock() time.Time {
	return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}

func newTestLoopHandler(authCfg AuthSettings) *LoopHandler {
	collector := usecase.NewCollector([]drepo.SignalSource{emptySource{}}, nil, 20, applogger.Nop())
	loop := usecase.NewLoop(collector, nil, nil, applogger.Nop())
	auto := usecase.NewAutopilot(loop, collector, usecase.AutopilotSettings{Market: "freelancers"}, nil, applogger.Nop())
	h := NewLoopHandler(applogger.Nop(), loop, auto, ratelimit.New(), nil, authCfg)
	h.SetClock(fixedClock)
	return h
}

func jsonRequest(method, target, body string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return req, httptest.NewRecorder()
}

func TestRunLoopSuccess(t *testing.T) {
	h := newTestLoopHandler(AuthSettings{Secret: "s3cret"})
	e := echo.New()
	req, rec := jsonRequest(http.MethodPost, "/money/loop", `{"market":"freelancers"}`)

	require.NoError(t, h.RunLoop(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "runId")
	require.Contains(t, rec.Body.String(), "createdAt")
}

func TestRunAutopilotRequiresToken(t *testing.T) {
	h := newTestLoopHandler(AuthSettings{Secret: "s3cret", AdminToken: "admin-token"})
	e := echo.New()
	req, rec := jsonRequest(http.MethodGet, "/money/loop", "")

	require.NoError(t, h.RunAutopilot(e.NewContext(req, rec)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRunAutopilotAdminBypassesLimiter(t *testing.T) {
	h := newTestLoopHandler(AuthSettings{
		Secret:     "s3cret",
		AdminToken: "admin-token",
		PlanLimits: map[string]ratelimit.Limit{"free": {Minute: 1, Day: 1}},
	})
	e := echo.New()

	for i := 0; i < 3; i++ {
		req, rec := jsonRequest(http.MethodGet, "/money/loop", "")
		req.Header.Set(echo.HeaderAuthorization, "Bearer admin-token")
		require.NoError(t, h.RunAutopilot(e.NewContext(req, rec)))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRunAutopilotUserRateLimited(t *testing.T) {
	h := newTestLoopHandler(AuthSettings{
		Secret:     "s3cret",
		PlanLimits: map[string]ratelimit.Limit{"free": {Minute: 1, Day: 10}},
	})
	token, err := auth.IssueUserToken(auth.IssueInput{
		Email:  "a@b.com",
		Plan:   "free",
		Secret: "s3cret",
		Now:    fixedClock(),
	})
	require.NoError(t, err)
	e := echo.New()

	req, rec := jsonRequest(http.MethodGet, "/money/loop", "")
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	require.NoError(t, h.RunAutopilot(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	req, rec = jsonRequest(http.MethodGet, "/money/loop", "")
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	require.NoError(t, h.RunAutopilot(e.NewContext(req, rec)))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Contains(t, rec.Body.String(), `"scope":"minute"`)
}

func TestRunAutopilotRejectsUnknownMode(t *testing.T) {
	h := newTestLoopHandler(AuthSettings{Secret: "s3cret", AdminToken: "admin-token"})
	e := echo.New()
	req, rec := jsonRequest(http.MethodGet, "/money/loop?mode=turbo", "")
	req.Header.Set(echo.HeaderAuthorization, "Bearer admin-token")

	require.NoError(t, h.RunAutopilot(e.NewContext(req, rec)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunAutopilotRejectsExpiredToken(t *testing.T) {
	h := newTestLoopHandler(AuthSettings{Secret: "s3cret"})
	token, err := auth.IssueUserToken(auth.IssueInput{
		Email:      "a@b.com",
		Plan:       "free",
		Secret:     "s3cret",
		TTLSeconds: 60,
		Now:        fixedClock().Add(-2 * time.Minute),
	})
	require.NoError(t, err)
	e := echo.New()
	req, rec := jsonRequest(http.MethodGet, "/money/loop", "")
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)

	require.NoError(t, h.RunAutopilot(e.NewContext(req, rec)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "token expired")
}

func TestIssueTokenAdminGate(t *testing.T) {
	h := newTestLoopHandler(AuthSettings{Secret: "s3cret", AdminToken: "admin-token"})
	e := echo.New()
	req, rec := jsonRequest(http.MethodPost, "/money/token", `{"email":"a@b.com"}`)

	require.NoError(t, h.IssueToken(e.NewContext(req, rec)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIssueTokenSuccess(t *testing.T) {
	h := newTestLoopHandler(AuthSettings{
		Secret:     "s3cret",
		AdminToken: "admin-token",
		TokenTTL:   time.Hour,
	})
	e := echo.New()
	req, rec := jsonRequest(http.MethodPost, "/money/token", `{"email":"Jamie@Example.com","plan":"starter"}`)
	req.Header.Set(echo.HeaderAuthorization, "Bearer admin-token")

	require.NoError(t, h.IssueToken(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			Token string `json:"token"`
			Plan  string `json:"plan"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, "starter", envelope.Data.Plan)

	res := auth.VerifyUserToken(envelope.Data.Token, "s3cret", fixedClock())
	require.True(t, res.Valid)
	require.Equal(t, "jamie@example.com", res.Payload.Email)
	require.Equal(t, fixedClock().Unix()+3600, res.Payload.Exp)
}

func TestIssueTokenRejectsBadPlan(t *testing.T) {
	h := newTestLoopHandler(AuthSettings{Secret: "s3cret", AdminToken: "admin-token"})
	e := echo.New()
	req, rec := jsonRequest(http.MethodPost, "/money/token", `{"email":"a@b.com","plan":"platinum"}`)
	req.Header.Set(echo.HeaderAuthorization, "Bearer admin-token")

	require.NoError(t, h.IssueToken(e.NewContext(req, rec)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
