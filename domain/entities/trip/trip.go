package trip

// TripRequest struct that contains the raw data of a trip whose destination we want to predict
// + OriginLat, OriginLon: coordinates of the origin station
// + Hour: departure hour (0-23)
// + Weekday: day of the week, 0 is Monday and 6 is Sunday
// + Month: month of the trip (1-12)
// + RiderID: optional key of a known rider profile
// + History: optional aggregates of the rider's previous trips
type TripRequest struct {
	OriginLat float64      `json:"origin_lat"`
	OriginLon float64      `json:"origin_lon"`
	Hour      int          `json:"hour"`
	Weekday   int          `json:"weekday"`
	Month     int          `json:"month"`
	RiderID   string       `json:"rider_id,omitempty"`
	History   *UserHistory `json:"history,omitempty"`
}

// UserHistory aggregates of the rider's previous trips. Every field is optional, a nil field means
// the value is unknown
type UserHistory struct {
	TotalTrips          *int                 `json:"total_trips,omitempty"`
	ActiveWeeks         *int                 `json:"active_weeks,omitempty"`
	TripsPerWeek        *float64             `json:"trips_per_week,omitempty"`
	AvgDurationMin      *float64             `json:"avg_duration_min,omitempty"`
	DestinationVariety  *int                 `json:"destination_variety,omitempty"`
	OriginVariety       *int                 `json:"origin_variety,omitempty"`
	TimeConsistency     *float64             `json:"time_consistency,omitempty"`
	AvgDistance         *float64             `json:"avg_distance,omitempty"`
	FavoriteWeekday     *int                 `json:"favorite_weekday,omitempty"`
	WeekdayFrequency    [7]*int              `json:"weekday_frequency"`
	FavoriteDestination *FavoriteDestination `json:"favorite_destination,omitempty"`
}

// FavoriteDestination identity of the rider's most visited station. It can be expressed with the
// station name or with its coordinates
type FavoriteDestination struct {
	Name      string   `json:"name,omitempty"`
	Latitude  *float64 `json:"lat,omitempty"`
	Longitude *float64 `json:"lon,omitempty"`
}

// HasName returns true if the destination was given by name
func (fd *FavoriteDestination) HasName() bool {
	return fd != nil && fd.Name != ""
}

// HasCoordinates returns true if the destination was given by a complete coordinate pair
func (fd *FavoriteDestination) HasCoordinates() bool {
	return fd != nil && fd.Latitude != nil && fd.Longitude != nil
}

// GetFavoriteDestination returns the favorite destination, nil if the history is missing
func (uh *UserHistory) GetFavoriteDestination() *FavoriteDestination {
	if uh == nil {
		return nil
	}
	return uh.FavoriteDestination
}

func Int(value int) *int {
	return &value
}

func Float(value float64) *float64 {
	return &value
}
