package generic

import (
	"fmt"
	"math"
)

// =============================================================================
// UNITS
// =============================================================================

type Unit string

const (
	UnitMinutes Unit = "minutes"
	UnitHours   Unit = "hours"
	UnitDays    Unit = "days"
	UnitWeeks   Unit = "weeks"
	UnitMonths  Unit = "months"
	UnitYears   Unit = "years"
)

// Units lists every known unit, largest first.
var Units = []Unit{UnitYears, UnitMonths, UnitWeeks, UnitDays, UnitHours, UnitMinutes}

const (
	MinutesPerHour = 60
	MinutesPerDay  = 1440
	MinutesPerWeek = 10080

	// Months and years have no fixed length. Duration conversion uses the
	// averages below; interval boundaries walk the calendar instead.
	AverageDaysPerMonth = 30.44
	AverageDaysPerYear  = 365.25
)

const (
	minutesPerMonth = MinutesPerDay * AverageDaysPerMonth
	minutesPerYear  = MinutesPerDay * AverageDaysPerYear
)

// Valid reports whether u is a known unit.
func (u Unit) Valid() bool {
	for _, known := range Units {
		if u == known {
			return true
		}
	}
	return false
}

// Duration is a count of calendar units, e.g. 3 months.
type Duration struct {
	Value int64 `json:"value"`
	Unit  Unit  `json:"unit"`
}

func (d Duration) Minutes() int64 { return ToMinutes(float64(d.Value), d.Unit) }

func (d Duration) String() string {
	unit := string(d.Unit)
	if d.Value == 1 && len(unit) > 1 {
		unit = unit[:len(unit)-1]
	}
	return fmt.Sprintf("%d %s", d.Value, unit)
}

// =============================================================================
// CONVERSION
// =============================================================================

// ToMinutes converts value in unit to whole minutes. Months and years use
// the average lengths and are rounded to the nearest minute.
//
// An unknown unit returns value unchanged (treated as minutes). Callers that
// need strict validation check Unit.Valid first.
func ToMinutes(value float64, unit Unit) int64 {
	switch unit {
	case UnitMinutes:
		return int64(math.Round(value))
	case UnitHours:
		return int64(math.Round(value * MinutesPerHour))
	case UnitDays:
		return int64(math.Round(value * MinutesPerDay))
	case UnitWeeks:
		return int64(math.Round(value * MinutesPerWeek))
	case UnitMonths:
		return int64(math.Round(value * minutesPerMonth))
	case UnitYears:
		return int64(math.Round(value * minutesPerYear))
	default:
		return int64(math.Round(value))
	}
}

// FromMinutes picks the largest unit that represents minutes exactly.
//
// Years, weeks, days and hours need exact integer division. Months are
// accepted when minutes lies within one minute of a whole month count, on
// either side (43833 and 43834 are both one month). Anything else stays in
// minutes.
func FromMinutes(minutes int64) Duration {
	if minutes <= 0 {
		return Duration{Value: minutes, Unit: UnitMinutes}
	}

	yearMinutes := ToMinutes(1, UnitYears)
	if minutes%yearMinutes == 0 {
		return Duration{Value: minutes / yearMinutes, Unit: UnitYears}
	}

	if months := int64(math.Round(float64(minutes) / minutesPerMonth)); months >= 1 {
		residual := math.Abs(float64(minutes) - float64(months)*minutesPerMonth)
		if residual < 1 {
			return Duration{Value: months, Unit: UnitMonths}
		}
	}

	for _, u := range []struct {
		unit Unit
		size int64
	}{
		{UnitWeeks, MinutesPerWeek},
		{UnitDays, MinutesPerDay},
		{UnitHours, MinutesPerHour},
	} {
		if minutes%u.size == 0 {
			return Duration{Value: minutes / u.size, Unit: u.unit}
		}
	}

	return Duration{Value: minutes, Unit: UnitMinutes}
}

// FormatDuration renders minutes in its largest exact unit ("3 months").
func FormatDuration(minutes int64) string {
	return FromMinutes(minutes).String()
}
