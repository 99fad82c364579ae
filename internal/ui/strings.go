package ui

import (
	"fmt"
	"strings"
	"time"
)

// Display limits.
const (
	// LogBufferLimit is the maximum number of log lines read into the Logs view.
	LogBufferLimit = 2000

	// DefaultUIInterval is how often the UI re-reads the shared snapshot.
	DefaultUIInterval = time.Second

	// LayoutCompactWidth is the threshold below which the header drops labels.
	LayoutCompactWidth = 100
)

// truncate shortens a string to the given limit, adding ellipsis if needed.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// truncateMiddle keeps the start and the end of a path.
func truncateMiddle(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 || value == "" {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 5 {
		return string(runes[:limit])
	}
	// Keep more of the end (file name) than the start
	endLen := (limit - 3) * 2 / 3
	startLen := limit - 3 - endLen
	return string(runes[:startLen]) + "..." + string(runes[len(runes)-endLen:])
}

func humanizeDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return "now"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// formatPrice shows a course price as sent by the API.
func formatPrice(price string) string {
	price = strings.TrimSpace(price)
	if price == "" || strings.EqualFold(price, "free") {
		return "Free"
	}
	return price
}

// formatAmount renders a cart total in whole units.
func formatAmount(n int) string {
	return fmt.Sprintf("$%d", n)
}
