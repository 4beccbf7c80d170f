package advisor

import (
	"fmt"
	"time"

	"github.com/yanqian/circulabot/internal/domain/circulation"
)

var monthNames = map[time.Month]string{
	time.January: "enero", time.February: "febrero", time.March: "marzo",
	time.April: "abril", time.May: "mayo", time.June: "junio",
	time.July: "julio", time.August: "agosto", time.September: "septiembre",
	time.October: "octubre", time.November: "noviembre", time.December: "diciembre",
}

var dayNames = map[time.Weekday]string{
	time.Monday: "lunes", time.Tuesday: "martes", time.Wednesday: "miércoles",
	time.Thursday: "jueves", time.Friday: "viernes", time.Saturday: "sábado",
	time.Sunday: "domingo",
}

// FormatDate renders a date the way the bot speaks:
// "miércoles 26 de febrero de 2026".
func FormatDate(date time.Time) string {
	return fmt.Sprintf("%s %d de %s de %d",
		dayNames[date.Weekday()], date.Day(), monthNames[date.Month()], date.Year())
}

// BuildMessage composes the chat message in the bot's standard layout:
// date, contingency status, verdict, reason. Markdown works on both the
// Telegram and WhatsApp channels.
func BuildMessage(dateStr string, report ContingencyReport, result circulation.Result) string {
	contingency := "No"
	if report.Active && report.Phase != "" {
		contingency = fmt.Sprintf("Sí (%s)", report.Phase)
	}
	verdict := "✅ Circula"
	if !result.MayDrive {
		verdict = "🚫 No circula"
	}
	return fmt.Sprintf(
		"📅 *%s*\n🌫 *Contingencia:* %s\n🚗 *Tu auto:* %s\n📌 *Motivo:* %s",
		dateStr, contingency, verdict, result.Reason)
}
