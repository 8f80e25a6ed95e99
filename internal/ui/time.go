package ui

import (
	"fmt"
	"time"
)

// FormatTimeAgo returns a compact age string like "2m ago", or "-" for a
// zero time.
func FormatTimeAgo(then time.Time, now time.Time) string {
	if then.IsZero() {
		return "-"
	}
	return FormatDurationShort(now.Sub(then)) + " ago"
}

// FormatOptionalTimeAgo is FormatTimeAgo for optional timestamps.
func FormatOptionalTimeAgo(then *time.Time, now time.Time) string {
	if then == nil {
		return "-"
	}
	return FormatTimeAgo(*then, now)
}

// FormatDurationShort formats a duration using short units (s/m/h/d).
// Negative durations count as zero.
func FormatDurationShort(duration time.Duration) string {
	seconds := int64(max(duration, 0) / time.Second)
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 60*60:
		return fmt.Sprintf("%dm", seconds/60)
	case seconds < 24*60*60:
		return fmt.Sprintf("%dh", seconds/(60*60))
	}
	return fmt.Sprintf("%dd", seconds/(24*60*60))
}
