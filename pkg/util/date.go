package util

import (
	"strconv"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// AgeInDays returns full days between ts and now, or -1 when ts does not
// parse or lies in the future.
func AgeInDays(ts string, now time.Time) int {
	t, ok := ParseTime(ts)
	if !ok {
		return -1
	}
	d := now.Sub(t)
	if d < 0 {
		return -1
	}
	return int(d.Hours() / 24)
}
