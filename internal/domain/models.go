package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuthToken is a short-lived Kraken token for the provider's GraphQL API
type AuthToken struct {
	Token            string
	RefreshToken     string
	RefreshExpiresIn time.Duration
}

// MeterDevice identifies a smart meter endpoint
type MeterDevice struct {
	DeviceID string
}

// TelemetryReading is one instantaneous smart meter measurement.
// Demand is nil when the meter reports no current demand.
type TelemetryReading struct {
	ReadAt      time.Time
	Demand      *float64
	Consumption *float64
}

// TariffAgreement is one dated tariff contract on a meter point.
// A nil ValidTo means the agreement is open-ended.
type TariffAgreement struct {
	TariffCode string
	ValidFrom  time.Time
	ValidTo    *time.Time
}

// TariffCode is a tariff code split into its product and region parts
type TariffCode struct {
	Raw         string
	ProductCode string
	Region      string
}

// TariffRate is the resolved pricing for a product, region and payment method
type TariffRate struct {
	Name           string
	UnitRate       decimal.Decimal // pounds per kWh
	StandingCharge decimal.Decimal // pounds per day
}

// ConsumptionInterval is one interval reading from the consumption endpoint
type ConsumptionInterval struct {
	Consumption   float64
	IntervalStart time.Time
	IntervalEnd   time.Time
}

// ConsumptionWindow is usage and cost aggregated over a date range
type ConsumptionWindow struct {
	From  time.Time
	To    time.Time
	Usage decimal.Decimal // kWh
	Cost  decimal.Decimal // pounds
}

// StatusReport is everything shown in one status message
type StatusReport struct {
	LiveWatts   int64
	Yesterday   ConsumptionWindow
	LastMonth   ConsumptionWindow
	Tariff      TariffRate
	GeneratedAt time.Time
}
