// Package report assembles the status report shown to bot users.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/septivank/octobot/internal/domain"
	"github.com/septivank/octobot/internal/logging"
	"go.uber.org/zap"
)

// ErrorMessage replaces the report whenever it cannot be built
const ErrorMessage = "❌ Error fetching data. Please try again later."

// LiveUsage reads instantaneous demand. It never fails.
type LiveUsage interface {
	LiveUsageWatts(ctx context.Context) int64
}

// Windows computes the consumption windows shown in the report
type Windows interface {
	Yesterday(ctx context.Context, now time.Time) (domain.ConsumptionWindow, error)
	LastThirtyDays(ctx context.Context, now time.Time) (domain.ConsumptionWindow, error)
}

// RateResolver resolves the current tariff
type RateResolver interface {
	Resolve(ctx context.Context) (domain.TariffRate, error)
}

// Sink records a successfully built report
type Sink interface {
	Record(ctx context.Context, report domain.StatusReport) error
}

// Option configures a Builder
type Option func(*Builder)

// WithClock overrides the time source used for windows and the timestamp
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// WithSinks adds sinks that receive every built report
func WithSinks(sinks ...Sink) Option {
	return func(b *Builder) {
		b.sinks = append(b.sinks, sinks...)
	}
}

// Builder runs the report pipeline
type Builder struct {
	live     LiveUsage
	windows  Windows
	resolver RateResolver
	sinks    []Sink
	now      func() time.Time
	logger   *zap.Logger
}

// NewBuilder creates a new report builder
func NewBuilder(live LiveUsage, windows Windows, resolver RateResolver, logger *zap.Logger, opts ...Option) *Builder {
	b := &Builder{
		live:     live,
		windows:  windows,
		resolver: resolver,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build runs telemetry, yesterday, last thirty days and tariff resolution in
// that order, stopping at the first error.
func (b *Builder) Build(ctx context.Context) (domain.StatusReport, error) {
	now := b.now().UTC()

	watts := b.live.LiveUsageWatts(ctx)

	yesterday, err := b.windows.Yesterday(ctx, now)
	if err != nil {
		return domain.StatusReport{}, fmt.Errorf("failed to compute yesterday's usage: %w", err)
	}

	lastMonth, err := b.windows.LastThirtyDays(ctx, now)
	if err != nil {
		return domain.StatusReport{}, fmt.Errorf("failed to compute last 30 days usage: %w", err)
	}

	rate, err := b.resolver.Resolve(ctx)
	if err != nil {
		return domain.StatusReport{}, fmt.Errorf("failed to resolve tariff: %w", err)
	}

	return domain.StatusReport{
		LiveWatts:   watts,
		Yesterday:   yesterday,
		LastMonth:   lastMonth,
		Tariff:      rate,
		GeneratedAt: b.now().UTC(),
	}, nil
}

// BuildStatusReport returns the formatted report, or ErrorMessage when any
// step fails. The cause is logged, never returned.
func (b *Builder) BuildStatusReport(ctx context.Context) string {
	logger := logging.FromContext(ctx, b.logger)

	report, err := b.Build(ctx)
	if err != nil {
		logger.Error("failed to build status report", zap.Error(err))
		return ErrorMessage
	}

	for _, sink := range b.sinks {
		if err := sink.Record(ctx, report); err != nil {
			// Log error but don't fail the report
			logger.Error("failed to record status report",
				zap.String("sink", fmt.Sprintf("%T", sink)),
				zap.Error(err),
			)
		}
	}

	logger.Info("status report built",
		zap.Int64("live_watts", report.LiveWatts),
		zap.String("tariff", report.Tariff.Name),
	)
	return Format(report)
}
