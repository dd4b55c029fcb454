package api

import (
	"github.com/labstack/echo/v4"

	"MoneyLoop/internal/service/stream"
	xhttp "MoneyLoop/pkg/http"
	xlogger "MoneyLoop/pkg/logger"
)

// EventsHandler upgrades subscribers onto the live run-summary feed.
// Same credentials as the autopilot trigger, but subscribing does not
// consume rate-limit quota.
type EventsHandler struct {
	logger *xlogger.Logger
	hub    *stream.Hub
	loop   *LoopHandler
}

func NewEventsHandler(logger *xlogger.Logger, hub *stream.Hub, loop *LoopHandler) *EventsHandler {
	return &EventsHandler{logger: logger, hub: hub, loop: loop}
}

func (h *EventsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/money/loop/events", h.Subscribe)
}

func (h *EventsHandler) Subscribe(c echo.Context) error {
	if _, _, verr := h.loop.authenticate(c); verr != "" {
		return xhttp.UnauthorizedResponse(c, verr)
	}
	if err := h.hub.Subscribe(c.Response(), c.Request()); err != nil {
		h.logger.Error("events subscribe error", xlogger.Error(err))
		return err
	}
	return nil
}
