// Package decode holds the field decoders used while shaping raw sheet and
// machine-file values into warehouse rows. Decoders are pure: malformed input
// yields an absent value or an empty list, never an error, so one bad cell
// cannot abort a batch. Callers count the misses.
package decode

import (
	"strconv"
	"strings"
	"time"
)

// PriceDateLayout is the MM-DD-YYYY pattern used by material price points.
const PriceDateLayout = "01-02-2006"

// ParseDate parses s with layout and returns the calendar date (UTC midnight).
// ok is false when s does not match the layout.
func ParseDate(s, layout string) (time.Time, bool) {
	if layout == "" {
		layout = PriceDateLayout
	}
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return DateOf(t), true
}

// StringToIntList decodes a list literal such as "['1','2']", "[1, 2]" or
// "\"[3]\"" into its integers. Any malformed element makes the whole list
// empty.
func StringToIntList(s string) []int {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"`)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return []int{}
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return []int{}
	}
	parts := strings.Split(inner, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `'"`)
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return []int{}
		}
		out = append(out, n)
	}
	return out
}

// TimestampToDate converts epoch milliseconds into a UTC instant.
func TimestampToDate(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// DateOf truncates t to its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TimeID renders the YYYYMMDD surrogate key of t's calendar date.
func TimeID(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// Intn is the random source used by RandomDate. *rand.Rand satisfies it.
type Intn interface {
	Intn(n int) int
}

// RandomDate draws a calendar day uniformly from year using rng.
func RandomDate(year int, rng Intn) time.Time {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	days := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay()
	return start.AddDate(0, 0, rng.Intn(days))
}
