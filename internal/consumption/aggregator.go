// Package consumption totals interval usage over a date range and prices it.
package consumption

import (
	"context"
	"time"

	"github.com/septivank/octobot/internal/domain"
	"github.com/septivank/octobot/internal/units"
	"github.com/septivank/octobot/tools/timeparser"
	"go.uber.org/zap"
)

// Source fetches interval readings for an inclusive day range
type Source interface {
	Consumption(ctx context.Context, from, to time.Time) ([]domain.ConsumptionInterval, error)
}

// RateResolver resolves the current tariff
type RateResolver interface {
	Resolve(ctx context.Context) (domain.TariffRate, error)
}

// Aggregator computes usage and cost windows. Errors from the source or the
// resolver are returned to the caller.
type Aggregator struct {
	source   Source
	resolver RateResolver
	logger   *zap.Logger
}

// NewAggregator creates a new consumption aggregator
func NewAggregator(source Source, resolver RateResolver, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		source:   source,
		resolver: resolver,
		logger:   logger.With(zap.String("component", "consumption")),
	}
}

// UsageAndCost sums consumption over [from 00:00:00Z, to 23:59:59Z] and
// prices it at the current unit rate.
func (a *Aggregator) UsageAndCost(ctx context.Context, from, to time.Time) (domain.ConsumptionWindow, error) {
	intervals, err := a.source.Consumption(ctx, from, to)
	if err != nil {
		return domain.ConsumptionWindow{}, err
	}

	values := make([]float64, 0, len(intervals))
	for _, interval := range intervals {
		values = append(values, interval.Consumption)
	}
	usage := units.SumConsumption(values)

	rate, err := a.resolver.Resolve(ctx)
	if err != nil {
		return domain.ConsumptionWindow{}, err
	}

	window := domain.ConsumptionWindow{
		From:  timeparser.StartOfDay(from),
		To:    timeparser.StartOfDay(to),
		Usage: usage.Round(units.UsagePlaces),
		Cost:  units.Cost(usage, rate.UnitRate),
	}

	a.logger.Debug("consumption window computed",
		zap.Time("from", window.From),
		zap.Time("to", window.To),
		zap.Int("intervals", len(intervals)),
		zap.String("usage_kwh", window.Usage.String()),
		zap.String("cost", window.Cost.String()),
	)
	return window, nil
}

// Yesterday aggregates the UTC day before now
func (a *Aggregator) Yesterday(ctx context.Context, now time.Time) (domain.ConsumptionWindow, error) {
	from, to := timeparser.Yesterday(now)
	return a.UsageAndCost(ctx, from, to)
}

// LastThirtyDays aggregates the rolling thirty day window ending today
func (a *Aggregator) LastThirtyDays(ctx context.Context, now time.Time) (domain.ConsumptionWindow, error) {
	from, to := timeparser.LastThirtyDays(now)
	return a.UsageAndCost(ctx, from, to)
}
