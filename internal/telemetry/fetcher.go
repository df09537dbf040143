// Package telemetry reads the smart meter's instantaneous demand.
package telemetry

import (
	"context"
	"fmt"

	"github.com/septivank/octobot/internal/domain"
	"github.com/septivank/octobot/internal/logging"
	"github.com/septivank/octobot/internal/units"
	"go.uber.org/zap"
)

// Source is the provider surface needed for a live reading
type Source interface {
	ObtainToken(ctx context.Context) (domain.AuthToken, error)
	SmartDevice(ctx context.Context, token domain.AuthToken) (domain.MeterDevice, error)
	Telemetry(ctx context.Context, token domain.AuthToken, device domain.MeterDevice) ([]domain.TelemetryReading, error)
}

// Fetcher obtains live usage on a best-effort basis: failures are logged and
// reported as zero watts, never returned.
type Fetcher struct {
	source Source
	logger *zap.Logger
}

// NewFetcher creates a new telemetry fetcher
func NewFetcher(source Source, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		source: source,
		logger: logger,
	}
}

// LiveUsageWatts returns current demand in whole watts, or 0 when it cannot
// be read.
func (f *Fetcher) LiveUsageWatts(ctx context.Context) int64 {
	logger := logging.FromContext(ctx, f.logger).With(zap.String("component", "telemetry"))

	watts, err := f.liveUsage(ctx, logger)
	if err != nil {
		logger.Warn("live usage unavailable, reporting 0W", zap.Error(err))
		return 0
	}
	return watts
}

func (f *Fetcher) liveUsage(ctx context.Context, logger *zap.Logger) (int64, error) {
	token, err := f.source.ObtainToken(ctx)
	if err != nil {
		return 0, fmt.Errorf("authenticate: %w", err)
	}

	device, err := f.source.SmartDevice(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("find smart device: %w", err)
	}

	readings, err := f.source.Telemetry(ctx, token, device)
	if err != nil {
		return 0, fmt.Errorf("read telemetry: %w", err)
	}
	if len(readings) == 0 {
		return 0, fmt.Errorf("read telemetry: %w: no readings for device %s", domain.ErrNotFound, device.DeviceID)
	}

	reading := readings[0]
	if reading.Demand == nil {
		logger.Warn("telemetry reading has no demand, reporting 0W",
			zap.String("device_id", device.DeviceID),
			zap.Time("read_at", reading.ReadAt),
		)
		return 0, nil
	}

	return units.Watts(*reading.Demand), nil
}
