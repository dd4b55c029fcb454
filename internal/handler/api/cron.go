package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"MoneyLoop/internal/domain/models"
	"MoneyLoop/internal/usecase"
	xhttp "MoneyLoop/pkg/http"
	xlogger "MoneyLoop/pkg/logger"
)

// CronHandler is the scheduler-facing autopilot trigger. It bypasses
// user tokens entirely and trusts only the dedicated cron secret.
type CronHandler struct {
	logger  *xlogger.Logger
	auto    *usecase.Autopilot
	enabled bool
	secret  string
}

func NewCronHandler(logger *xlogger.Logger, auto *usecase.Autopilot, enabled bool, secret string) *CronHandler {
	return &CronHandler{logger: logger, auto: auto, enabled: enabled, secret: secret}
}

func (h *CronHandler) RegisterRoutes(e *echo.Echo) {
	e.Any("/money/autopilot-cron", h.Run)
}

// Run handles the cron trigger. Check order: method, enable flag,
// secret. The scheduler only ever issues GETs.
func (h *CronHandler) Run(c echo.Context) error {
	if c.Request().Method != http.MethodGet {
		return xhttp.MethodNotAllowedResponse(c, "cron endpoint only accepts GET")
	}
	if !h.enabled {
		return xhttp.ForbiddenResponse(c, "autopilot cron is disabled")
	}
	if h.secret == "" || !secretEqual(bearerToken(c), h.secret) {
		return xhttp.UnauthorizedResponse(c, "cron secret mismatch")
	}

	req := &models.AutopilotRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	report, err := h.auto.RunCycle(c.Request().Context(), autopilotOptions(req))
	if err != nil {
		h.logger.Error("cron autopilot cycle error", xlogger.Error(err))
		return xhttp.DataResponse(c, http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return xhttp.SuccessResponse(c, report)
}
