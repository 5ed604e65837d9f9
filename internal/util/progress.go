package util

import (
	"fmt"
	"math"
)

// FormatRemaining renders an estimate in seconds as "12s" or "1m 5s".
func FormatRemaining(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	s := int64(seconds)
	if s < 60 {
		return fmt.Sprintf("%ds", s)
	}
	return fmt.Sprintf("%dm %ds", s/60, s%60)
}

// ProgressPercentage returns current/total as a whole percentage in 0..100.
func ProgressPercentage(current, total int) int32 {
	if total <= 0 || current <= 0 {
		return 0
	}
	if current >= total {
		return 100
	}
	return int32(int64(current) * 100 / int64(total))
}

// ProgressLine formats a progress message with its optional estimate as
// shown to users, e.g. "Processing chunk 2/3... (Est. 1m 5s remaining)".
func ProgressLine(message string, remaining *float64) string {
	if remaining == nil || *remaining <= 0 {
		return message
	}
	return fmt.Sprintf("%s (Est. %s remaining)", message, FormatRemaining(*remaining))
}
