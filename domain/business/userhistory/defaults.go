package userhistory

// DefaultsVersion version of the population averages computed from the training dataset
const DefaultsVersion = "2024-training-averages"

// Defaults population averages used when a rider's history does not have a value
type Defaults struct {
	Version            string  `yaml:"version" json:"version"`
	TotalTrips         int     `yaml:"total_trips" json:"total_trips" validate:"gte=0"`
	ActiveWeeks        int     `yaml:"active_weeks" json:"active_weeks" validate:"gte=1"`
	TripsPerWeek       float64 `yaml:"trips_per_week" json:"trips_per_week" validate:"gte=0"`
	AvgDurationMin     float64 `yaml:"avg_duration_min" json:"avg_duration_min" validate:"gte=0"`
	DestinationVariety int     `yaml:"destination_variety" json:"destination_variety" validate:"gte=0"`
	OriginVariety      int     `yaml:"origin_variety" json:"origin_variety" validate:"gte=0"`
	TimeConsistency    float64 `yaml:"time_consistency" json:"time_consistency" validate:"gte=0"`
	AvgDistance        float64 `yaml:"avg_distance" json:"avg_distance" validate:"gte=0"`
	FavoriteWeekday    int     `yaml:"favorite_weekday" json:"favorite_weekday" validate:"gte=0,lte=6"`
	// WeekdayFrequency trips per weekday, Monday first
	WeekdayFrequency []int `yaml:"weekday_frequency" json:"weekday_frequency" validate:"len=7,dive,gte=0"`
}

func DefaultDefaults() Defaults {
	return Defaults{
		Version:            DefaultsVersion,
		TotalTrips:         25,
		ActiveWeeks:        10,
		TripsPerWeek:       2.5,
		AvgDurationMin:     20.0,
		DestinationVariety: 8,
		OriginVariety:      5,
		TimeConsistency:    3.0,
		AvgDistance:        0.025,
		FavoriteWeekday:    0,
		WeekdayFrequency:   []int{5, 4, 4, 4, 5, 3, 2},
	}
}

// weekdayFrequency returns the default of the given weekday, zero if the table is short
func (d Defaults) weekdayFrequency(weekday int) int {
	if weekday < len(d.WeekdayFrequency) {
		return d.WeekdayFrequency[weekday]
	}
	return 0
}
