package decode

import "time"

// TimestampLayout is the lastUpdate stamp format.
const TimestampLayout = "2006-01-02 15:04:05"

// Clock supplies the wall-clock instant stamped into lastUpdate columns.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the local wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant; used by tests and replays.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// CurrentTimestamp captures c once and formats it as a lastUpdate stamp.
func CurrentTimestamp(c Clock) string {
	if c == nil {
		c = SystemClock{}
	}
	return c.Now().Format(TimestampLayout)
}
