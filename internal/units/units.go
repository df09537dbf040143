// Package units converts provider units into display units.
package units

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Display precision for each report field
const (
	UnitRatePlaces       int32 = 4
	StandingChargePlaces int32 = 4
	CostPlaces           int32 = 2
	UsagePlaces          int32 = 2
)

var hundred = decimal.NewFromInt(100)

// PenceToPounds divides by 100 and rounds half away from zero to places.
func PenceToPounds(pence float64, places int32) decimal.Decimal {
	return decimal.NewFromFloat(pence).Div(hundred).Round(places)
}

// FormatFixed renders d with exactly places decimals.
func FormatFixed(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}

// SumConsumption adds interval consumption figures in kWh. An empty input sums to zero.
func SumConsumption(values []float64) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total
}

// Cost multiplies usage at display precision by the unit rate at display
// precision and rounds the result to pence.
func Cost(usage, unitRate decimal.Decimal) decimal.Decimal {
	return usage.Round(UsagePlaces).Mul(unitRate.Round(UnitRatePlaces)).Round(CostPlaces)
}

// Watts rounds an instantaneous demand reading to whole watts.
func Watts(demand float64) int64 {
	return decimal.NewFromFloat(demand).Round(0).IntPart()
}

// FormatUsageCost renders one consumption window line, e.g.
// "Usage: 8.20 kWh / Cost: £2.22".
func FormatUsageCost(usage, cost decimal.Decimal) string {
	return fmt.Sprintf("Usage: %s kWh / Cost: £%s",
		usage.StringFixed(UsagePlaces),
		cost.StringFixed(CostPlaces),
	)
}
