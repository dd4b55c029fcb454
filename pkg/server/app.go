package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	domrepo "MoneyLoop/internal/domain/repository"
	"MoneyLoop/internal/service/stream"
	"MoneyLoop/pkg/config"
	xhttp "MoneyLoop/pkg/http"
	applogger "MoneyLoop/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	handler    xhttp.Handler
	hub        *stream.Hub
	publisher  domrepo.ReportPublisher
	archive    domrepo.RunArchive
	l          *applogger.Logger
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	handler xhttp.Handler,
	hub *stream.Hub,
	publisher domrepo.ReportPublisher,
	archive domrepo.RunArchive,
	l *applogger.Logger,
) *App {
	return &App{
		cfg:       cfg,
		handler:   handler,
		hub:       hub,
		publisher: publisher,
		archive:   archive,
		l:         l,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithRequestMetrics(a.cfg.Metrics.Enabled, 0),
		xhttp.WithLogger(a.l),
	)

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("money loop listening",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("env", a.cfg.Environment),
		applogger.Bool("kafka", a.publisher != nil),
		applogger.Bool("clickhouse", a.archive != nil),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.hub != nil {
		a.hub.Close()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.l.Warn("report publisher close error", applogger.Error(err))
		}
	}
	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			a.l.Warn("run archive close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
