package domain

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// DateRange is an inclusive pair of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s - %s", r.Start.Format(DateLayout), r.End.Format(DateLayout))
}

// Days counts the calendar days covered by the range, both ends included.
func (r DateRange) Days() int {
	return int(civilDate(r.End).Sub(civilDate(r.Start)).Hours()/24) + 1
}

// civilDate drops the zone so DST transitions do not shorten a day.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Period couples a resolved date range with the month-year labels it retains.
// AsOf is the reference date the range was resolved from.
type Period struct {
	Cadence Cadence
	AsOf    time.Time
	Range   DateRange
	Labels  []string
}
