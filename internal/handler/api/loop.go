package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"MoneyLoop/internal/domain/models"
	domrepo "MoneyLoop/internal/domain/repository"
	"MoneyLoop/internal/service/auth"
	"MoneyLoop/internal/service/ratelimit"
	"MoneyLoop/internal/usecase"
	xhttp "MoneyLoop/pkg/http"
	xlogger "MoneyLoop/pkg/logger"
	"MoneyLoop/pkg/util"
)

// AuthSettings carries the access-control configuration the handlers
// need. The DI layer maps it from the auth config section.
type AuthSettings struct {
	Secret     string
	AdminToken string
	TokenTTL   time.Duration
	PlanLimits map[string]ratelimit.Limit
}

// LoopHandler exposes the money-loop pipeline over HTTP.
type LoopHandler struct {
	logger  *xlogger.Logger
	loop    *usecase.Loop
	auto    *usecase.Autopilot
	limiter *ratelimit.Limiter
	metrics domrepo.Metrics
	auth    AuthSettings
	now     func() time.Time
}

func NewLoopHandler(logger *xlogger.Logger, loop *usecase.Loop, auto *usecase.Autopilot, limiter *ratelimit.Limiter, metrics domrepo.Metrics, authCfg AuthSettings) *LoopHandler {
	return &LoopHandler{
		logger:  logger,
		loop:    loop,
		auto:    auto,
		limiter: limiter,
		metrics: metrics,
		auth:    authCfg,
		now:     time.Now,
	}
}

// SetClock replaces the time source for deterministic tests.
func (h *LoopHandler) SetClock(now func() time.Time) { h.now = now }

func (h *LoopHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/money/loop", h.RunLoop)
	e.GET("/money/loop", h.RunAutopilot)
	e.POST("/money/token", h.IssueToken)
}

type loopResponse struct {
	*models.RunReport
	CreatedAt time.Time `json:"createdAt"`
}

// RunLoop executes one on-demand loop run from a JSON body.
func (h *LoopHandler) RunLoop(c echo.Context) error {
	req := &models.LoopRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	report, err := h.loop.Run(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("loop run error", xlogger.Error(err))
		return xhttp.DataResponse(c, http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return xhttp.SuccessResponse(c, loopResponse{RunReport: report, CreatedAt: h.now().UTC()})
}

// RunAutopilot triggers a full autopilot cycle. Callers authenticate
// with the admin secret or a signed user token; non-admin calls count
// against the plan's rate limit.
func (h *LoopHandler) RunAutopilot(c echo.Context) error {
	subject, plan, verr := h.authenticate(c)
	if verr != "" {
		return xhttp.UnauthorizedResponse(c, verr)
	}

	if plan != "admin" {
		rl := h.limiter.Consume(ratelimit.ConsumeInput{
			Subject: subject,
			Plan:    plan,
			Limits:  h.auth.PlanLimits,
			Now:     h.now(),
		})
		if !rl.Allowed {
			if h.metrics != nil {
				h.metrics.RecordRateLimited(rl.Scope)
			}
			return xhttp.TooManyRequestsResponse(c, echo.Map{
				"scope":   rl.Scope,
				"limit":   rl.Limit,
				"resetAt": rl.ResetAt,
			})
		}
	}

	req := &models.AutopilotRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.Mode != "" && req.Mode != "autopilot" {
		return xhttp.BadRequestResponse(c, "unsupported mode: "+req.Mode)
	}

	report, err := h.auto.RunCycle(c.Request().Context(), autopilotOptions(req))
	if err != nil {
		h.logger.Error("autopilot cycle error", xlogger.Error(err))
		return xhttp.DataResponse(c, http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return xhttp.SuccessResponse(c, report)
}

// IssueToken mints a signed user token. Admin only.
func (h *LoopHandler) IssueToken(c echo.Context) error {
	if h.auth.AdminToken == "" || !secretEqual(bearerToken(c), h.auth.AdminToken) {
		return xhttp.UnauthorizedResponse(c, "admin token required")
	}

	req := &models.TokenRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ttl := req.TTLSeconds
	if ttl <= 0 {
		ttl = int(h.auth.TokenTTL.Seconds())
	}
	now := h.now()
	token, err := auth.IssueUserToken(auth.IssueInput{
		Email:      req.Email,
		Plan:       req.Plan,
		Secret:     h.auth.Secret,
		TTLSeconds: int64(ttl),
		Now:        now,
	})
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}
	return xhttp.SuccessResponse(c, echo.Map{
		"token":     token,
		"plan":      req.Plan,
		"expiresAt": now.UTC().Add(time.Duration(ttl) * time.Second),
	})
}

// authenticate resolves the caller's subject and plan. An empty error
// string means the caller is authorized.
func (h *LoopHandler) authenticate(c echo.Context) (subject, plan, errReason string) {
	token := bearerToken(c)
	if token == "" {
		return "", "", "missing bearer token"
	}
	if h.auth.AdminToken != "" && secretEqual(token, h.auth.AdminToken) {
		return "admin", "admin", ""
	}
	res := auth.VerifyUserToken(token, h.auth.Secret, h.now())
	if !res.Valid {
		return "", "", res.Reason
	}
	return res.Payload.Sub, res.Payload.Plan, ""
}

// secretEqual compares shared secrets in constant time.
func secretEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.Request().Header.Get("X-Money-Token")
}

func autopilotOptions(req *models.AutopilotRequest) usecase.AutopilotOptions {
	opts := usecase.AutopilotOptions{
		DryRun:       ParseBoolFlag(req.DryRun),
		AutoDiscover: ParseBoolFlag(req.AutoDiscover),
		Publish:      ParseBoolFlag(req.Publish),
		Deploy:       ParseBoolFlag(req.VercelDeploy),
		Promotion:    ParseBoolFlag(req.Promotion),
	}
	if b := util.ParseFloatDefault(req.Budget, 0); b > 0 {
		opts.Budget = &b
	}
	return opts
}

// ParseBoolFlag maps a query flag to an optional boolean override.
// 1/true/yes/on enable, 0/false/no/off disable, anything else keeps
// the configured default.
func ParseBoolFlag(s string) *bool {
	t, f := true, false
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return &t
	case "0", "false", "no", "off":
		return &f
	default:
		return nil
	}
}
