package temporal

import (
	"bikedest/domain/entities/features"
	"bikedest/utils"
)

// Period part of the day in which a trip begins
type Period int

const (
	PeriodNight Period = iota
	PeriodMorning
	PeriodAfternoon
	PeriodEvening
)

var (
	weekendDays = []int{5, 6}
	peakHours   = []int{7, 8, 9, 17, 18, 19}
)

// Features temporal features of a trip
type Features struct {
	Period    Period
	IsWeekend bool
	IsPeak    bool
}

func (f Features) Set() features.Set {
	return features.Set{
		features.DayPeriod:  float64(f.Period),
		features.IsWeekend:  boolToFloat(f.IsWeekend),
		features.IsPeakHour: boolToFloat(f.IsPeak),
	}
}

// Bucket returns the temporal features of a departure hour and a weekday (0 is Monday).
// Values are not clamped: an hour out of [0, 24) lands in the night period
func Bucket(hour int, weekday int) Features {
	return Features{
		Period:    GetPeriod(hour),
		IsWeekend: utils.ContainsInt(weekday, weekendDays),
		IsPeak:    utils.ContainsInt(hour, peakHours),
	}
}

// GetPeriod returns the period of the day of the given hour. Intervals are half-open
func GetPeriod(hour int) Period {
	if 6 <= hour && hour < 12 {
		return PeriodMorning
	}

	if 12 <= hour && hour < 18 {
		return PeriodAfternoon
	}

	if 18 <= hour && hour < 24 {
		return PeriodEvening
	}
	return PeriodNight
}

func boolToFloat(value bool) float64 {
	if value {
		return 1
	}
	return 0
}
