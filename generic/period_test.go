package generic_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/lease-engine/generic"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// INTERVAL GENERATION
// =============================================================================

func TestGenerateIntervals_Monthly_Contiguous(t *testing.T) {
	// GIVEN: A schedule of 3 one-month periods starting Jan 1
	// WHEN: Generating intervals
	// THEN: Exactly 3 back-to-back intervals ending Apr 1

	intervals, err := generic.GenerateIntervals(date(2024, time.January, 1), 1, generic.UnitMonths, 3)
	require.NoError(t, err)
	require.Len(t, intervals, 3)

	assert.Equal(t, date(2024, time.January, 1), intervals[0].Start)
	assert.Equal(t, date(2024, time.February, 1), intervals[0].End)
	assert.Equal(t, date(2024, time.April, 1), intervals[2].End)
	for i := 0; i < len(intervals)-1; i++ {
		assert.Equal(t, intervals[i].End, intervals[i+1].Start, "interval %d must end where %d starts", i, i+1)
	}
}

func TestGenerateIntervals_MonthEndAnchor_DoesNotDrift(t *testing.T) {
	// GIVEN: Monthly schedule anchored on Jan 31 (leap year)
	// WHEN: Generating 4 intervals
	// THEN: Boundaries clamp per month but return to the 31st when possible

	intervals, err := generic.GenerateIntervals(date(2024, time.January, 31), 1, generic.UnitMonths, 4)
	require.NoError(t, err)

	assert.Equal(t, date(2024, time.February, 29), intervals[0].End)
	assert.Equal(t, date(2024, time.March, 31), intervals[1].End)
	assert.Equal(t, date(2024, time.April, 30), intervals[2].End)
	assert.Equal(t, date(2024, time.May, 31), intervals[3].End)
}

func TestGenerateIntervals_Weeks(t *testing.T) {
	intervals, err := generic.GenerateIntervals(date(2024, time.March, 4), 2, generic.UnitWeeks, 2)
	require.NoError(t, err)

	assert.Equal(t, date(2024, time.March, 18), intervals[0].End)
	assert.Equal(t, date(2024, time.April, 1), intervals[1].End)
}

func TestGenerateIntervals_DegenerateInput(t *testing.T) {
	// GIVEN: Zero start, zero period or zero frequency
	// WHEN: Generating intervals
	// THEN: Nil result and the matching sentinel error

	tests := []struct {
		name      string
		start     time.Time
		value     int64
		frequency int
		want      error
	}{
		{"zero start", time.Time{}, 1, 3, generic.ErrInvalidStart},
		{"zero period", date(2024, 1, 1), 0, 3, generic.ErrInvalidPeriod},
		{"negative period", date(2024, 1, 1), -1, 3, generic.ErrInvalidPeriod},
		{"zero frequency", date(2024, 1, 1), 1, 0, generic.ErrInvalidFrequency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intervals, err := generic.GenerateIntervals(tt.start, tt.value, generic.UnitMonths, tt.frequency)
			assert.Nil(t, intervals)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, generic.IsScheduleError(err))

			var ie *generic.IntervalError
			assert.True(t, errors.As(err, &ie))
		})
	}
}

func TestSchedule_End(t *testing.T) {
	s := generic.Schedule{
		Start:     date(2024, time.January, 15),
		Period:    generic.Duration{Value: 3, Unit: generic.UnitMonths},
		Frequency: 4,
	}

	end, err := s.End()
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.January, 15), end)
	assert.Equal(t, date(2024, time.July, 15), s.Boundary(2))
}

func TestScheduleFromMinutes_UsesCalendarMonths(t *testing.T) {
	// GIVEN: A one-month charge period stored as minutes
	// WHEN: Building the schedule
	// THEN: Boundaries follow calendar months, not 30.44-day steps

	s := generic.ScheduleFromMinutes(date(2024, time.February, 1), generic.ToMinutes(1, generic.UnitMonths), 2)

	assert.Equal(t, generic.Duration{Value: 1, Unit: generic.UnitMonths}, s.Period)
	assert.Equal(t, date(2024, time.March, 1), s.Boundary(1))
	assert.Equal(t, date(2024, time.April, 1), s.Boundary(2))
}

func TestScheduleFromMinutes_MonthResidualBelowOneMinute(t *testing.T) {
	// GIVEN: 43833 minutes, 0.6 below the exact 30.44-day month
	// WHEN: Building a twelve-period schedule from 2024-01-01
	// THEN: It still steps in calendar months and ends on 2025-01-01

	s := generic.ScheduleFromMinutes(date(2024, time.January, 1), 43833, 12)

	assert.Equal(t, generic.Duration{Value: 1, Unit: generic.UnitMonths}, s.Period)
	end, err := s.End()
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.January, 1), end)
}

func TestCountStarted(t *testing.T) {
	intervals, err := generic.GenerateIntervals(date(2024, time.January, 1), 1, generic.UnitMonths, 3)
	require.NoError(t, err)

	assert.Equal(t, 0, generic.CountStarted(intervals, date(2023, time.December, 31)))
	assert.Equal(t, 1, generic.CountStarted(intervals, date(2024, time.January, 1)))
	assert.Equal(t, 2, generic.CountStarted(intervals, date(2024, time.February, 15)))
	assert.Equal(t, 3, generic.CountStarted(intervals, date(2030, time.January, 1)))
}

func TestInterval_Contains_HalfOpen(t *testing.T) {
	iv := generic.Interval{Start: date(2024, 1, 1), End: date(2024, 2, 1)}

	assert.True(t, iv.Contains(date(2024, 1, 1)))
	assert.True(t, iv.Contains(date(2024, 1, 31)))
	assert.False(t, iv.Contains(date(2024, 2, 1)))
}
