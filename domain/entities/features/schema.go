package features

import (
	"errors"
	"fmt"
)

var ErrUnknownVariant = errors.New("unknown feature schema variant")

// Variant identifies how the favorite destination is encoded in the feature vector.
// The classifier was trained three times with three different schemas, so the three are supported
type Variant string

const (
	VariantNone            Variant = "none"
	VariantCategoricalCode Variant = "categorical-code"
	VariantRawCoordinates  Variant = "raw-coordinates"
)

// ParseVariant returns the Variant that matches value
func ParseVariant(value string) (Variant, error) {
	switch Variant(value) {
	case VariantNone, VariantCategoricalCode, VariantRawCoordinates:
		return Variant(value), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVariant, value)
}

// Feature names
const (
	OriginLat               = "origin_lat"
	OriginLon               = "origin_lon"
	DepartureHour           = "departure_hour"
	Weekday                 = "weekday"
	Month                   = "month"
	TotalTrips              = "total_trips"
	ActiveWeeks             = "active_weeks"
	TripsPerWeek            = "trips_per_week"
	AvgDurationMin          = "avg_duration_min"
	DayPeriod               = "day_period"
	IsWeekend               = "is_weekend"
	IsPeakHour              = "is_peak_hour"
	OriginZone              = "origin_zone"
	OriginCapacity          = "origin_capacity"
	OriginNearbyStations    = "origin_nearby_stations"
	DestinationVariety      = "destination_variety"
	OriginVariety           = "origin_variety"
	TimeConsistency         = "time_consistency"
	AvgUserDistance         = "avg_user_distance"
	FavoriteWeekday         = "favorite_weekday"
	FrequencyMonday         = "frequency_monday"
	FrequencyTuesday        = "frequency_tuesday"
	FrequencyWednesday      = "frequency_wednesday"
	FrequencyThursday       = "frequency_thursday"
	FrequencyFriday         = "frequency_friday"
	FrequencySaturday       = "frequency_saturday"
	FrequencySunday         = "frequency_sunday"
	FavoriteDestinationCode = "favorite_destination_code"
	FavoriteDestinationLat  = "favorite_destination_lat"
	FavoriteDestinationLon  = "favorite_destination_lon"
)

// WeekdayFrequencyNames frequency feature of each weekday, Monday first
var WeekdayFrequencyNames = [7]string{
	FrequencyMonday,
	FrequencyTuesday,
	FrequencyWednesday,
	FrequencyThursday,
	FrequencyFriday,
	FrequencySaturday,
	FrequencySunday,
}

// baseSchema the 27 columns shared by every variant, in training order
var baseSchema = []string{
	OriginLat, OriginLon,
	DepartureHour, Weekday, Month,
	TotalTrips, ActiveWeeks, TripsPerWeek, AvgDurationMin,
	DayPeriod, IsWeekend, IsPeakHour, OriginZone,
	OriginCapacity, OriginNearbyStations, DestinationVariety, OriginVariety,
	TimeConsistency, AvgUserDistance, FavoriteWeekday,
	FrequencyMonday, FrequencyTuesday, FrequencyWednesday,
	FrequencyThursday, FrequencyFriday, FrequencySaturday, FrequencySunday,
}

// DefaultSchema returns a copy of the canonical column list of the given variant
func DefaultSchema(variant Variant) ([]string, error) {
	schema := make([]string, len(baseSchema), len(baseSchema)+2)
	copy(schema, baseSchema)

	switch variant {
	case VariantNone:
		return schema, nil
	case VariantCategoricalCode:
		return append(schema, FavoriteDestinationCode), nil
	case VariantRawCoordinates:
		return append(schema, FavoriteDestinationLat, FavoriteDestinationLon), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, variant)
}
