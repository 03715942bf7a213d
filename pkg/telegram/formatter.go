package telegram

import (
	"fmt"
	"strings"
	"time"
)

// FormatPositionOpened renders a notification for a newly opened position.
func FormatPositionOpened(ticker, direction string, size, entryPrice, stop, target float64, rationale string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 *Second-order %s: %s*\n", direction, ticker))
	b.WriteString(fmt.Sprintf("Size: %.2f%% | Entry: %.2f\n", size*100, entryPrice))
	b.WriteString(fmt.Sprintf("Stop: %.2f | Target: %.2f\n", stop, target))
	if rationale != "" {
		b.WriteString(fmt.Sprintf("Reason: %s", rationale))
	}
	return b.String()
}

// FormatPositionClosed renders a notification for a closed position.
func FormatPositionClosed(ticker, direction, exitReason string, entryTime, exitTime time.Time) string {
	held := exitTime.Sub(entryTime).Round(time.Hour)
	return fmt.Sprintf("🔔 *Closed %s %s* (%s)\nHeld: %s", direction, ticker, exitReason, held)
}
