//go:build wireinject
// +build wireinject

package di

import (
	"MoneyLoop/pkg/config"
	"MoneyLoop/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideBytesCache,
		ProvideReportPublisher,
		ProvideRunArchive,
		ProvideHub,

		// Signal sources
		ProvideSources,

		// Use cases
		ProvideCollector,
		ProvideLoop,
		ProvideAutopilot,

		// Access control
		ProvideLimiter,
		ProvideAuthSettings,

		// HTTP surface
		ProvideHandlers,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
