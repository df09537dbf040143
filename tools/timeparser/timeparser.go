package timeparser

import (
	"fmt"
	"time"
)

// ReportLayout is the layout of the "Last Updated" line
const ReportLayout = "2006-01-02 15:04:05"

// ParseProviderTimestamp attempts to parse a provider timestamp with multiple formats
func ParseProviderTimestamp(dateStr string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,      // 2024-01-01T00:00:00.000000+00:00
		time.RFC3339,          // 2024-01-01T00:00:00Z
		"2006-01-02T15:04:05", // naive, treated as UTC
	}

	var lastErr error
	for _, format := range formats {
		t, err := time.Parse(format, dateStr)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}

	return time.Time{}, fmt.Errorf("failed to parse timestamp '%s': %w", dateStr, lastErr)
}

// StartOfDay returns midnight UTC of t's UTC calendar day
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns 23:59:59 UTC of t's UTC calendar day
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(24*time.Hour - time.Second)
}

// PeriodBounds formats the inclusive [from 00:00:00Z, to 23:59:59Z] range
// as ISO8601 UTC strings.
func PeriodBounds(from, to time.Time) (string, string) {
	return StartOfDay(from).Format(time.RFC3339), EndOfDay(to).Format(time.RFC3339)
}

// Yesterday returns the single-day window for the day before now
func Yesterday(now time.Time) (time.Time, time.Time) {
	day := StartOfDay(now).AddDate(0, 0, -1)
	return day, day
}

// LastThirtyDays returns the rolling window from thirty days ago up to today
func LastThirtyDays(now time.Time) (time.Time, time.Time) {
	today := StartOfDay(now)
	return today.AddDate(0, 0, -30), today
}

// FormatReportTime renders t as "YYYY-MM-DD HH:mm:ss UTC"
func FormatReportTime(t time.Time) string {
	return t.UTC().Format(ReportLayout) + " UTC"
}
