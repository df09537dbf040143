package report

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/septivank/octobot/internal/domain"
	"github.com/septivank/octobot/internal/units"
	"github.com/septivank/octobot/tools/timeparser"
)

// Format renders r as a Telegram Markdown message with provider text escaped.
// Sections always appear in the order live, yesterday, last 30 days, tariff,
// timestamp.
func Format(r domain.StatusReport) string {
	var sb strings.Builder

	sb.WriteString("⚡ *Octopus Energy Status*\n\n")

	sb.WriteString("🔌 *Live*\n")
	fmt.Fprintf(&sb, "Current Usage: %dW\n\n", r.LiveWatts)

	sb.WriteString("📅 *Yesterday*\n")
	sb.WriteString(units.FormatUsageCost(r.Yesterday.Usage, r.Yesterday.Cost))
	sb.WriteString("\n\n")

	sb.WriteString("📆 *Last 30 Days*\n")
	sb.WriteString(units.FormatUsageCost(r.LastMonth.Usage, r.LastMonth.Cost))
	sb.WriteString("\n\n")

	sb.WriteString("💷 *Tariff*\n")
	fmt.Fprintf(&sb, "Name: %s\n", tgbotapi.EscapeText(tgbotapi.ModeMarkdown, r.Tariff.Name))
	fmt.Fprintf(&sb, "Unit Rate: £%s/kWh\n", units.FormatFixed(r.Tariff.UnitRate, units.UnitRatePlaces))
	fmt.Fprintf(&sb, "Standing Charge: £%s/day\n\n", units.FormatFixed(r.Tariff.StandingCharge, units.StandingChargePlaces))

	fmt.Fprintf(&sb, "🕒 Last Updated: %s", timeparser.FormatReportTime(r.GeneratedAt))

	return sb.String()
}
