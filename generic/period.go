package generic

import (
	"time"
)

// =============================================================================
// INTERVAL - One billing period
// =============================================================================

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Contains returns true if t is within [Start, End).
func (i Interval) Contains(t time.Time) bool {
	return OnOrAfter(t, i.Start) && t.Before(i.End)
}

// HasStarted reports whether the interval's start instant has been reached.
func (i Interval) HasStarted(now time.Time) bool {
	return OnOrAfter(now, i.Start)
}

func (i Interval) Duration() time.Duration { return i.End.Sub(i.Start) }

func (i Interval) String() string {
	return "[" + i.Start.Format(time.RFC3339) + ", " + i.End.Format(time.RFC3339) + ")"
}

// =============================================================================
// SCHEDULE - N contiguous intervals
// =============================================================================

// Schedule describes Frequency back-to-back periods of Period length
// starting at Start.
//
// Every boundary is computed from Start (boundary i = Start + i*Period), so
// month-end clamping never drifts: a schedule anchored on Jan 31 yields
// Feb 29, Mar 31, Apr 30.
type Schedule struct {
	Start     time.Time
	Period    Duration
	Frequency int
}

// ScheduleFromMinutes builds a schedule from a charge period stored as
// minutes, converting it to its largest exact unit first.
func ScheduleFromMinutes(start time.Time, periodMinutes int64, frequency int) Schedule {
	return Schedule{Start: start, Period: FromMinutes(periodMinutes), Frequency: frequency}
}

// Validate checks the inputs without generating anything.
func (s Schedule) Validate() error {
	switch {
	case s.Start.IsZero():
		return &IntervalError{Field: "start", Err: ErrInvalidStart}
	case s.Period.Value <= 0:
		return &IntervalError{Field: "period", Err: ErrInvalidPeriod}
	case s.Frequency <= 0:
		return &IntervalError{Field: "frequency", Err: ErrInvalidFrequency}
	}
	return nil
}

// Boundary returns Start advanced by n periods.
func (s Schedule) Boundary(n int) time.Time {
	return AddCalendar(s.Start, s.Period.Value*int64(n), s.Period.Unit)
}

// Intervals returns exactly Frequency contiguous intervals where
// interval[i].End == interval[i+1].Start and interval[0].Start == Start.
// Invalid input returns nil and an error; nothing is generated partially.
func (s Schedule) Intervals() ([]Interval, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	intervals := make([]Interval, s.Frequency)
	start := s.Start
	for i := 0; i < s.Frequency; i++ {
		end := s.Boundary(i + 1)
		intervals[i] = Interval{Start: start, End: end}
		start = end
	}
	return intervals, nil
}

// End returns the end of the last interval.
func (s Schedule) End() (time.Time, error) {
	if err := s.Validate(); err != nil {
		return time.Time{}, err
	}
	return s.Boundary(s.Frequency), nil
}

// GenerateIntervals is shorthand for Schedule{...}.Intervals().
func GenerateIntervals(start time.Time, value int64, unit Unit, frequency int) ([]Interval, error) {
	return Schedule{Start: start, Period: Duration{Value: value, Unit: unit}, Frequency: frequency}.Intervals()
}

// CountStarted returns how many intervals have started at now. Intervals
// are ordered, so this is also the 1-based number of the current period.
func CountStarted(intervals []Interval, now time.Time) int {
	n := 0
	for _, iv := range intervals {
		if !iv.HasStarted(now) {
			break
		}
		n++
	}
	return n
}
