package geospatial

import (
	"fmt"
	"time"
)

// ElapsedSeconds returns the whole seconds between createdAt (epoch ms) and now.
func ElapsedSeconds(createdAt int64, now time.Time) int64 {
	return floorDiv(now.UnixMilli()-createdAt, 1000)
}

// RemainingSeconds returns the whole seconds left until expiresAt (epoch ms),
// clamped at zero.
func RemainingSeconds(expiresAt int64, now time.Time) int64 {
	left := expiresAt - now.UnixMilli()
	if left <= 0 {
		return 0
	}
	return left / 1000
}

// FormatDuration renders seconds as "mm:ss" with both fields zero-padded.
// Minutes are not wrapped into hours. Negative input renders as "00:00".
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
