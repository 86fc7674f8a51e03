package models

import "time"

// DateLayout is the on-disk format of MeetingHeader.Date.
const DateLayout = "2006-01-02"

// NextDate advances base by one recurrence step of the track.
//
// monthly moves max(1, interval) calendar months and clamps the day to the
// last day of the target month; weekly moves interval weeks; biweekly moves
// interval*2 weeks; any other mode moves exactly one week.
func (t *Track) NextDate(base time.Time) time.Time {
	switch t.RecurrenceMode {
	case RecurrenceMonthly:
		return AddMonths(base, max(1, t.RecurrenceInterval))
	case RecurrenceWeekly:
		return base.AddDate(0, 0, 7*t.RecurrenceInterval)
	case RecurrenceBiweekly:
		return base.AddDate(0, 0, 14*t.RecurrenceInterval)
	default:
		return base.AddDate(0, 0, 7)
	}
}

// AddMonths adds n calendar months to d without overflowing into the following
// month: Jan 31 + 1 month is the last day of February.
func AddMonths(d time.Time, n int) time.Time {
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location()).AddDate(0, n, 0)
	last := first.AddDate(0, 1, -1).Day()
	return time.Date(first.Year(), first.Month(), min(d.Day(), last), 0, 0, 0, 0, d.Location())
}

// ParseDate parses a YYYY-MM-DD header date.
func ParseDate(s string) (time.Time, bool) {
	d, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
