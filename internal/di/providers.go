package di

import (
	"context"
	"fmt"
	"time"

	domrepo "MoneyLoop/internal/domain/repository"
	domsvc "MoneyLoop/internal/domain/service"
	"MoneyLoop/internal/handler/api"
	internalrepo "MoneyLoop/internal/repository"
	"MoneyLoop/internal/service/analytics"
	icache "MoneyLoop/internal/service/cache"
	"MoneyLoop/internal/service/metrics"
	"MoneyLoop/internal/service/openai"
	"MoneyLoop/internal/service/publish"
	"MoneyLoop/internal/service/ratelimit"
	"MoneyLoop/internal/service/sources"
	"MoneyLoop/internal/service/stream"
	"MoneyLoop/internal/usecase"
	pkgch "MoneyLoop/pkg/clickhouse"
	"MoneyLoop/pkg/config"
	xhttp "MoneyLoop/pkg/http"
	pkgkafka "MoneyLoop/pkg/kafka"
	applogger "MoneyLoop/pkg/logger"
	"MoneyLoop/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics registers and returns the Prometheus recorder.
func ProvideMetrics() domrepo.Metrics {
	metrics.Register()
	return metrics.NewRecorder()
}

// ProvideBytesCache picks the search-response cache backend: Redis when
// configured, in-process TTL map otherwise.
func ProvideBytesCache(cfg *config.Config) icache.BytesCache {
	if cfg.Redis.Enabled {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideSources creates the configured signal sources.
func ProvideSources(cfg *config.Config, cache icache.BytesCache) []domrepo.SignalSource {
	hn := sources.NewHackerNews(cfg.Sources.HackerNewsURL, cfg.Sources.Timeout)
	rd := sources.NewReddit(cfg.Sources.RedditURL, cfg.Sources.Subreddits, cfg.Sources.UserAgent, cfg.Sources.Timeout)
	if cache != nil && cfg.Sources.CacheTTL > 0 {
		hn.SetCache(cache, cfg.Sources.CacheTTL)
		rd.SetCache(cache, cfg.Sources.CacheTTL)
	}
	return []domrepo.SignalSource{hn, rd}
}

// ProvideCollector creates the signal collector use case.
func ProvideCollector(cfg *config.Config, srcs []domrepo.SignalSource, m domrepo.Metrics, l *applogger.Logger) *usecase.Collector {
	return usecase.NewCollector(srcs, m, cfg.Sources.PerSourceLimit, l)
}

// ProvideReportPublisher creates the optional Kafka report sink.
func ProvideReportPublisher(cfg *config.Config, l *applogger.Logger) (domrepo.ReportPublisher, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := internalrepo.NewKafkaReportPublisher(producer, cfg.Kafka.Topic)
	pub.SetLogger(l)
	return pub, nil
}

// ProvideRunArchive creates the optional ClickHouse archive.
func ProvideRunArchive(cfg *config.Config, l *applogger.Logger) (domrepo.RunArchive, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	archive := internalrepo.NewCHRunArchive(client)
	archive.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := archive.Init(ctx); err != nil {
		_ = archive.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return archive, nil
}

// ProvideHub creates the run-events websocket hub.
func ProvideHub(l *applogger.Logger) *stream.Hub {
	return stream.NewHub(l)
}

// ProvideLoop creates the loop orchestrator with its sinks attached.
func ProvideLoop(
	cfg *config.Config,
	collector *usecase.Collector,
	m domrepo.Metrics,
	publisher domrepo.ReportPublisher,
	archive domrepo.RunArchive,
	hub *stream.Hub,
	l *applogger.Logger,
) *usecase.Loop {
	newAI := func(apiKey, model string) domsvc.Synthesizer {
		return openai.New(apiKey, model, cfg.OpenAI.BaseURL, cfg.OpenAI.Timeout)
	}
	loop := usecase.NewLoop(collector, newAI, m, l)
	loop.SetDefaultAI(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	loop.SetSinks(publisher, archive, hub)
	return loop
}

// ProvideAutopilot creates the autopilot orchestrator with whichever
// integrations the config enables.
func ProvideAutopilot(
	cfg *config.Config,
	loop *usecase.Loop,
	collector *usecase.Collector,
	m domrepo.Metrics,
	l *applogger.Logger,
) (*usecase.Autopilot, error) {
	ap := cfg.Autopilot
	auto := usecase.NewAutopilot(loop, collector, usecase.AutopilotSettings{
		Market:           ap.Market,
		Keywords:         ap.Keywords,
		Channels:         ap.Channels,
		Budget:           ap.Budget,
		MaxBudget:        ap.MaxBudget,
		AutoDiscover:     ap.AutoDiscover,
		DryRun:           ap.DryRun,
		DestinationURL:   ap.DestinationURL,
		PublishEnabled:   ap.Publish.Enabled,
		PublishPrefix:    ap.Publish.Prefix,
		DeployEnabled:    ap.Deploy.Enabled,
		DeployProject:    ap.Deploy.Project,
		PromotionEnabled: ap.Promotion.Enabled,
	}, m, l)

	var analyticsSrc domsvc.AnalyticsSource
	if c := analytics.New(cfg.Analytics.BaseURL, cfg.Analytics.SiteID, cfg.Analytics.Token, cfg.Analytics.Timeout); c != nil {
		analyticsSrc = c
	}

	var pagePublisher domsvc.PagePublisher
	if ap.Publish.Enabled && ap.Publish.Token != "" {
		gh, err := publish.NewGitHubPublisher(ap.Publish.APIURL, ap.Publish.Token, ap.Publish.Repo, ap.Publish.Branch, 30*time.Second)
		if err != nil {
			return nil, fmt.Errorf("github publisher: %w", err)
		}
		pagePublisher = gh
	}

	var pageDeployer domsvc.PageDeployer
	if ap.Deploy.Enabled && ap.Deploy.Token != "" {
		vc, err := publish.NewVercelDeployer(ap.Deploy.APIURL, ap.Deploy.Token, ap.Deploy.Project, 60*time.Second)
		if err != nil {
			return nil, fmt.Errorf("vercel deployer: %w", err)
		}
		pageDeployer = vc
	}

	var promoter domsvc.PromotionDispatcher
	if ap.Promotion.Enabled && ap.Promotion.WebhookURL != "" {
		promoter = publish.NewWebhookDispatcher(ap.Promotion.WebhookURL, 30*time.Second)
	}

	auto.SetServices(analyticsSrc, pagePublisher, pageDeployer, promoter)
	return auto, nil
}

// ProvideLimiter creates the in-memory rate limiter.
func ProvideLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideAuthSettings maps the auth config section into handler form.
func ProvideAuthSettings(cfg *config.Config) api.AuthSettings {
	limits := make(map[string]ratelimit.Limit, len(cfg.Auth.PlanLimits))
	for plan, pl := range cfg.Auth.PlanLimits {
		limits[plan] = ratelimit.Limit{Minute: pl.Minute, Day: pl.Day}
	}
	return api.AuthSettings{
		Secret:     cfg.Auth.Secret,
		AdminToken: cfg.Auth.AdminToken,
		TokenTTL:   cfg.Auth.TokenTTL,
		PlanLimits: limits,
	}
}

// ProvideHandlers bundles every HTTP handler into one registration.
func ProvideHandlers(
	cfg *config.Config,
	loop *usecase.Loop,
	auto *usecase.Autopilot,
	limiter *ratelimit.Limiter,
	m domrepo.Metrics,
	authCfg api.AuthSettings,
	hub *stream.Hub,
	archive domrepo.RunArchive,
	l *applogger.Logger,
) xhttp.Handler {
	loopHandler := api.NewLoopHandler(l, loop, auto, limiter, m, authCfg)
	return xhttp.Handlers{
		loopHandler,
		api.NewCronHandler(l, auto, cfg.Cron.Enabled, cfg.Cron.Secret),
		api.NewEventsHandler(l, hub, loopHandler),
		api.NewHealthHandler(archive),
	}
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	handler xhttp.Handler,
	hub *stream.Hub,
	publisher domrepo.ReportPublisher,
	archive domrepo.RunArchive,
	l *applogger.Logger,
) *server.App {
	return server.New(cfg, handler, hub, publisher, archive, l)
}
