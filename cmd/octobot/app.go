package main

import (
	"context"

	"github.com/septivank/octobot/internal/bot"
	"github.com/septivank/octobot/internal/config"
	"github.com/septivank/octobot/internal/consumption"
	"github.com/septivank/octobot/internal/db"
	"github.com/septivank/octobot/internal/mq"
	"github.com/septivank/octobot/internal/octopus"
	"github.com/septivank/octobot/internal/report"
	"github.com/septivank/octobot/internal/repository"
	"github.com/septivank/octobot/internal/tariff"
	"github.com/septivank/octobot/internal/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// reportModule provides everything needed to build a status report
var reportModule = fx.Options(
	fx.Provide(
		config.Load,
		newLogger,
		ProvideOctopusClient,
		ProvideTariffResolver,
		ProvideTelemetryFetcher,
		ProvideConsumptionAggregator,
		ProvideSinks,
		ProvideReportBuilder,
	),
)

// botModule serves reports over Telegram
var botModule = fx.Options(
	fx.Provide(
		ProvideTelegram,
		ProvideDispatcher,
	),
	fx.Invoke(startBot),
)

func startBot(
	lc fx.Lifecycle,
	tg *bot.Telegram,
	dispatcher *bot.Dispatcher,
	cfg *config.Config,
	logger *zap.Logger,
) *bot.Listener {
	// Create context for handlers that will be cancelled on shutdown
	ctx, cancel := context.WithCancel(context.Background())

	listener := bot.NewListener(tg, dispatcher, cfg.Telegram.PollTimeout, logger)

	// Register lifecycle hooks
	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			logger.Info("starting telegram listener",
				zap.Int("allowed_chats", len(cfg.Telegram.AllowedChatIDs)),
				zap.Int("poll_timeout", cfg.Telegram.PollTimeout))
			return listener.Start(ctx)
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			if err := listener.Close(); err != nil {
				logger.Error("failed to close listener", zap.Error(err))
				return err
			}
			logger.Info("bot stopped gracefully")
			return nil
		},
	})

	return listener
}

// ProvideOctopusClient creates the provider API client
func ProvideOctopusClient(cfg *config.Config, logger *zap.Logger) *octopus.Client {
	return octopus.NewClient(cfg.Octopus, logger)
}

// ProvideTariffResolver creates a new tariff resolver instance
func ProvideTariffResolver(client *octopus.Client, cfg *config.Config, logger *zap.Logger) *tariff.Resolver {
	return tariff.NewResolver(client, cfg.Octopus, logger)
}

// ProvideTelemetryFetcher creates a new telemetry fetcher instance
func ProvideTelemetryFetcher(client *octopus.Client, logger *zap.Logger) *telemetry.Fetcher {
	return telemetry.NewFetcher(client, logger)
}

// ProvideConsumptionAggregator creates a new consumption aggregator instance
func ProvideConsumptionAggregator(client *octopus.Client, resolver *tariff.Resolver, logger *zap.Logger) *consumption.Aggregator {
	return consumption.NewAggregator(client, resolver, logger)
}

// ProvideSinks opens the optional report log and report event publisher.
// Each is enabled only when its URL is configured.
func ProvideSinks(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) ([]report.Sink, error) {
	var sinks []report.Sink

	if cfg.Database.URL != "" {
		pool, err := db.NewPool(lc, logger, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		repo := repository.NewRepository(pool)
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return repo.EnsureSchema(ctx)
			},
		})
		sinks = append(sinks, repo)
	}

	if cfg.RabbitMQ.URL != "" {
		conn, err := mq.NewConnection(lc, logger, cfg.RabbitMQ.URL)
		if err != nil {
			return nil, err
		}
		publisher, err := mq.NewPublisher(conn, cfg.RabbitMQ.ReportExchange, cfg.RabbitMQ.ReportRoutingKey, logger)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return publisher.Close()
			},
		})
		sinks = append(sinks, publisher)
	}

	logger.Info("report sinks configured", zap.Int("count", len(sinks)))
	return sinks, nil
}

// ProvideReportBuilder creates a new report builder instance
func ProvideReportBuilder(
	fetcher *telemetry.Fetcher,
	aggregator *consumption.Aggregator,
	resolver *tariff.Resolver,
	sinks []report.Sink,
	logger *zap.Logger,
) *report.Builder {
	return report.NewBuilder(fetcher, aggregator, resolver, logger, report.WithSinks(sinks...))
}

// ProvideTelegram connects to the Telegram Bot API
func ProvideTelegram(cfg *config.Config, logger *zap.Logger) (*bot.Telegram, error) {
	if err := cfg.RequireTelegram(); err != nil {
		return nil, err
	}
	return bot.NewTelegram(cfg.Telegram.Token, logger)
}

// ProvideDispatcher creates a new command dispatcher instance
func ProvideDispatcher(builder *report.Builder, tg *bot.Telegram, cfg *config.Config, logger *zap.Logger) *bot.Dispatcher {
	return bot.NewDispatcher(builder, tg, cfg.Telegram.AllowedChatIDs, logger)
}
