package star

import (
	"fmt"
	"time"

	"github.com/obenchekro/namkin-data-migration/internal/decode"
)

var (
	// DefaultTimeStart is the first day of dim_time.
	DefaultTimeStart = time.Date(1920, time.January, 1, 0, 0, 0, 0, time.UTC)
	// DefaultTimeEnd is the exclusive upper bound of dim_time.
	DefaultTimeEnd = time.Date(2099, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// BuildTime generates one dim_time row per calendar day in [start, end).
// Results are memoized per span; callers must not mutate the returned slice.
func (b *Builder) BuildTime(start, end time.Time) ([]TimeRow, error) {
	start, end = decode.DateOf(start), decode.DateOf(end)
	if !end.After(start) {
		return nil, fmt.Errorf("dim_time [%s, %s): %w",
			start.Format(time.DateOnly), end.Format(time.DateOnly), ErrInvalidSpan)
	}

	span := timeSpan{start: start, end: end}
	b.timeMu.Lock()
	defer b.timeMu.Unlock()
	if rows, ok := b.timeCache[span]; ok {
		return rows, nil
	}

	days := int(end.Sub(start).Hours()/24) + 1
	rows := make([]TimeRow, 0, days)
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		rows = append(rows, timeRow(d))
	}
	b.timeCache[span] = rows
	b.log.Infof("dim_time: days=%d first=%d last=%d", len(rows), rows[0].TimeID, rows[len(rows)-1].TimeID)
	return rows, nil
}

func timeRow(d time.Time) TimeRow {
	month := int(d.Month())
	quarter := (month-1)/3 + 1
	semester := 1
	if quarter > 2 {
		semester = 2
	}
	return TimeRow{
		TimeID:   decode.TimeID(d),
		Date:     d,
		Year:     d.Year(),
		Month:    month,
		Day:      d.Day(),
		Semester: semester,
		Quarter:  quarter,
	}
}
