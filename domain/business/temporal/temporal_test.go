package temporal

import (
	"testing"

	"bikedest/domain/entities/features"
)

func TestBucket(t *testing.T) {
	tests := []struct {
		hour, weekday int
		expected      Features
	}{
		{8, 2, Features{Period: PeriodMorning, IsWeekend: false, IsPeak: true}},
		{0, 0, Features{Period: PeriodNight}},
		{5, 5, Features{Period: PeriodNight, IsWeekend: true}},
		{6, 6, Features{Period: PeriodMorning, IsWeekend: true}},
		{11, 4, Features{Period: PeriodMorning}},
		{12, 3, Features{Period: PeriodAfternoon}},
		{17, 1, Features{Period: PeriodAfternoon, IsPeak: true}},
		{18, 0, Features{Period: PeriodEvening, IsPeak: true}},
		{19, 6, Features{Period: PeriodEvening, IsWeekend: true, IsPeak: true}},
		{23, 4, Features{Period: PeriodEvening}},
	}

	for _, tt := range tests {
		if got := Bucket(tt.hour, tt.weekday); got != tt.expected {
			t.Errorf("Bucket(%d, %d): expected %+v, got %+v", tt.hour, tt.weekday, tt.expected, got)
		}
	}
}

func TestBucketAllValidInputs(t *testing.T) {
	peak := map[int]bool{7: true, 8: true, 9: true, 17: true, 18: true, 19: true}
	for hour := 0; hour < 24; hour++ {
		for weekday := 0; weekday < 7; weekday++ {
			got := Bucket(hour, weekday)
			if got.Period < PeriodNight || got.Period > PeriodEvening {
				t.Fatalf("Bucket(%d, %d): invalid period %d", hour, weekday, got.Period)
			}
			if got.Period != Period(hour/6) {
				t.Errorf("Bucket(%d, %d): expected period %d, got %d", hour, weekday, hour/6, got.Period)
			}
			if got.IsWeekend != (weekday >= 5) {
				t.Errorf("Bucket(%d, %d): unexpected weekend flag %v", hour, weekday, got.IsWeekend)
			}
			if got.IsPeak != peak[hour] {
				t.Errorf("Bucket(%d, %d): unexpected peak flag %v", hour, weekday, got.IsPeak)
			}
		}
	}
}

func TestBucketOutOfRangeIsNotClamped(t *testing.T) {
	if got := Bucket(24, 7); got.Period != PeriodNight || got.IsWeekend || got.IsPeak {
		t.Errorf("Unexpected features for (24, 7): %+v", got)
	}
	if got := Bucket(-1, -1); got.Period != PeriodNight || got.IsWeekend {
		t.Errorf("Unexpected features for (-1, -1): %+v", got)
	}
}

func TestFeaturesSet(t *testing.T) {
	set := Bucket(8, 6).Set()
	if set[features.DayPeriod] != 1 || set[features.IsWeekend] != 1 || set[features.IsPeakHour] != 1 {
		t.Errorf("Unexpected feature set %v", set)
	}
}
