package render

import (
	"fmt"
	"time"
)

// RelativeAge formats the age of a post as whole hours ("3h") or, under an
// hour, whole minutes ("0m".."59m"). Deltas are floored. Posts dated in the
// future (clock skew) read as "0m".
func RelativeAge(createdAt, now time.Time) string {
	seconds := int64(now.Sub(createdAt) / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	minutes := seconds / 60
	hours := minutes / 60
	if hours > 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dm", minutes)
}
