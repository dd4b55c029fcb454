package api

import (
	"time"

	"github.com/labstack/echo/v4"

	domrepo "MoneyLoop/internal/domain/repository"
	xhttp "MoneyLoop/pkg/http"
)

// HealthHandler reports process liveness plus optional archive
// connectivity.
type HealthHandler struct {
	archive domrepo.RunArchive
}

func NewHealthHandler(archive domrepo.RunArchive) *HealthHandler {
	return &HealthHandler{archive: archive}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)
}

func (h *HealthHandler) Healthz(c echo.Context) error {
	out := echo.Map{"status": "ok", "time": time.Now().UTC()}
	if h.archive != nil {
		if err := h.archive.Health(c.Request().Context()); err != nil {
			out["archive"] = "unreachable"
		} else {
			out["archive"] = "ok"
		}
	}
	return xhttp.SuccessResponse(c, out)
}
