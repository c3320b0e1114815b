package generic

import (
	"time"
)

// =============================================================================
// CALENDAR ARITHMETIC
// =============================================================================

// AddCalendar returns t advanced by value units.
//
// Minutes and hours are absolute durations. Days and weeks move the calendar
// date and keep the wall-clock time. Months and years move the month field
// and clamp the day to the end of the target month (Jan 31 + 1 month is
// Feb 28/29). Unknown units are treated as minutes.
func AddCalendar(t time.Time, value int64, unit Unit) time.Time {
	switch unit {
	case UnitMinutes:
		return t.Add(time.Duration(value) * time.Minute)
	case UnitHours:
		return t.Add(time.Duration(value) * time.Hour)
	case UnitDays:
		return t.AddDate(0, 0, int(value))
	case UnitWeeks:
		return t.AddDate(0, 0, int(value)*7)
	case UnitMonths:
		return AddMonths(t, int(value))
	case UnitYears:
		return AddMonths(t, int(value)*12)
	default:
		return t.Add(time.Duration(value) * time.Minute)
	}
}

// AddMonths adds n calendar months, clamping the day of month.
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := DaysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	hour, minute, sec := t.Clock()
	return time.Date(first.Year(), first.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

// DaysIn returns the number of days in month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// OnOrAfter reports t >= ref.
func OnOrAfter(t, ref time.Time) bool { return !t.Before(ref) }
