package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/septivank/octobot/internal/db"
	"github.com/septivank/octobot/internal/domain"
)

// Schema creates the report log table when it is missing
const Schema = `
	CREATE TABLE IF NOT EXISTS report_log (
		id                  UUID PRIMARY KEY,
		generated_at        TIMESTAMPTZ NOT NULL,
		live_watts          BIGINT NOT NULL,
		yesterday_usage_kwh NUMERIC(12, 2) NOT NULL,
		yesterday_cost      NUMERIC(12, 2) NOT NULL,
		month_usage_kwh     NUMERIC(12, 2) NOT NULL,
		month_cost          NUMERIC(12, 2) NOT NULL,
		tariff_name         TEXT NOT NULL,
		unit_rate           NUMERIC(10, 4) NOT NULL,
		standing_charge     NUMERIC(10, 4) NOT NULL
	)
`

// Execer runs statements. *pgxpool.Pool and pgx.Tx satisfy it.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Repository writes the report log
type Repository struct {
	pool Execer
}

// NewRepository creates a new repository
func NewRepository(pool Execer) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the report log table
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create report_log table: %w", err)
	}
	return nil
}

// NewReportRecord converts a report into a row with a fresh ID
func NewReportRecord(report domain.StatusReport) db.ReportRecord {
	return db.ReportRecord{
		ID:                uuid.New(),
		GeneratedAt:       report.GeneratedAt.UTC(),
		LiveWatts:         report.LiveWatts,
		YesterdayUsageKWh: report.Yesterday.Usage.StringFixed(2),
		YesterdayCost:     report.Yesterday.Cost.StringFixed(2),
		MonthUsageKWh:     report.LastMonth.Usage.StringFixed(2),
		MonthCost:         report.LastMonth.Cost.StringFixed(2),
		TariffName:        report.Tariff.Name,
		UnitRate:          report.Tariff.UnitRate.StringFixed(4),
		StandingCharge:    report.Tariff.StandingCharge.StringFixed(4),
	}
}

// InsertReport inserts a report log row
func (r *Repository) InsertReport(ctx context.Context, record db.ReportRecord) error {
	query := `
		INSERT INTO report_log (
			id, generated_at, live_watts,
			yesterday_usage_kwh, yesterday_cost, month_usage_kwh, month_cost,
			tariff_name, unit_rate, standing_charge
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.GeneratedAt,
		record.LiveWatts,
		record.YesterdayUsageKWh,
		record.YesterdayCost,
		record.MonthUsageKWh,
		record.MonthCost,
		record.TariffName,
		record.UnitRate,
		record.StandingCharge,
	)

	if err != nil {
		return fmt.Errorf("failed to insert report log: %w", err)
	}

	return nil
}

// Record stores report in the report log
func (r *Repository) Record(ctx context.Context, report domain.StatusReport) error {
	return r.InsertReport(ctx, NewReportRecord(report))
}
