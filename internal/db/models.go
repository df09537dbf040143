package db

import (
	"time"

	"github.com/google/uuid"
)

// ReportRecord is one row of the report log. Amounts are stored at display
// precision.
type ReportRecord struct {
	ID                uuid.UUID
	GeneratedAt       time.Time
	LiveWatts         int64
	YesterdayUsageKWh string
	YesterdayCost     string
	MonthUsageKWh     string
	MonthCost         string
	TariffName        string
	UnitRate          string
	StandingCharge    string
}
