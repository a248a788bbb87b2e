package riders

import (
	"math"
	"sort"
	"time"

	"bikedest/domain/entities/trip"
)

// CompletedTrip trip of the historical log used to build the rider profiles
type CompletedTrip struct {
	RiderID        string    `json:"rider_id"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	DestinationLat float64   `json:"destination_lat"`
	DestinationLon float64   `json:"destination_lon"`
	StartTime      time.Time `json:"start_time"`
	DurationMin    float64   `json:"duration_min"`
	Distance       float64   `json:"distance"`
}

type weekKey struct {
	year int
	week int
}

// Accumulator struct that collects the trips of a given rider
// + RiderID: key of the rider. Once set, it cannot change
// + Counter: amount of trips collected
// + TotalDistance, TotalDuration: sums used for the averages
type Accumulator struct {
	RiderID       string
	Counter       int
	TotalDistance float64
	TotalDuration float64
	hours         []int
	weekdays      [7]int
	weeks         map[weekKey]struct{}
	origins       map[string]int
	destinations  map[string]int
	coordinates   map[string][2]float64
}

func NewAccumulator(riderID string) *Accumulator {
	return &Accumulator{
		RiderID:      riderID,
		weeks:        make(map[weekKey]struct{}),
		origins:      make(map[string]int),
		destinations: make(map[string]int),
		coordinates:  make(map[string][2]float64),
	}
}

// Update adds a trip of the rider
func (a *Accumulator) Update(completed CompletedTrip) {
	a.Counter += 1
	a.TotalDistance += completed.Distance
	a.TotalDuration += completed.DurationMin
	a.hours = append(a.hours, completed.StartTime.Hour())
	a.weekdays[mondayFirst(completed.StartTime.Weekday())] += 1

	year, week := completed.StartTime.ISOWeek()
	a.weeks[weekKey{year: year, week: week}] = struct{}{}

	if completed.Origin != "" {
		a.origins[completed.Origin] += 1
	}
	if completed.Destination != "" {
		a.destinations[completed.Destination] += 1
		if _, exists := a.coordinates[completed.Destination]; !exists {
			a.coordinates[completed.Destination] = [2]float64{completed.DestinationLat, completed.DestinationLon}
		}
	}
}

// Merge returns a new accumulator with the trips of both
func (a *Accumulator) Merge(other *Accumulator) *Accumulator {
	if a.RiderID != other.RiderID {
		panic("[Accumulator] cannot merge two Accumulators of different riders")
	}

	merged := NewAccumulator(a.RiderID)
	merged.Counter = a.Counter + other.Counter
	merged.TotalDistance = a.TotalDistance + other.TotalDistance
	merged.TotalDuration = a.TotalDuration + other.TotalDuration
	merged.hours = append(append(merged.hours, a.hours...), other.hours...)

	for weekday := range merged.weekdays {
		merged.weekdays[weekday] = a.weekdays[weekday] + other.weekdays[weekday]
	}
	for _, acc := range []*Accumulator{a, other} {
		for key := range acc.weeks {
			merged.weeks[key] = struct{}{}
		}
		for name, count := range acc.origins {
			merged.origins[name] += count
		}
		for name, count := range acc.destinations {
			merged.destinations[name] += count
		}
		for name, coordinates := range acc.coordinates {
			if _, exists := merged.coordinates[name]; !exists {
				merged.coordinates[name] = coordinates
			}
		}
	}
	return merged
}

func (a *Accumulator) GetAverageDistance() float64 {
	if a.Counter == 0 {
		return 0
	}
	return a.TotalDistance / float64(a.Counter)
}

func (a *Accumulator) GetAverageDuration() float64 {
	if a.Counter == 0 {
		return 0
	}
	return a.TotalDuration / float64(a.Counter)
}

// GetTimeConsistency standard deviation of the departure hours. Lower values are more regular riders
func (a *Accumulator) GetTimeConsistency() float64 {
	if len(a.hours) == 0 {
		return 0
	}

	mean := 0.0
	for _, hour := range a.hours {
		mean += float64(hour)
	}
	mean /= float64(len(a.hours))

	variance := 0.0
	for _, hour := range a.hours {
		variance += (float64(hour) - mean) * (float64(hour) - mean)
	}
	return math.Sqrt(variance / float64(len(a.hours)))
}

// GetHistory returns the aggregates of the collected trips. Only called with at least one trip
func (a *Accumulator) GetHistory() trip.UserHistory {
	activeWeeks := len(a.weeks)
	if activeWeeks < 1 {
		activeWeeks = 1
	}

	favoriteWeekday := 0
	for weekday, count := range a.weekdays {
		if count > a.weekdays[favoriteWeekday] {
			favoriteWeekday = weekday
		}
	}

	history := trip.UserHistory{
		TotalTrips:         trip.Int(a.Counter),
		ActiveWeeks:        trip.Int(activeWeeks),
		TripsPerWeek:       trip.Float(float64(a.Counter) / float64(activeWeeks)),
		AvgDurationMin:     trip.Float(a.GetAverageDuration()),
		DestinationVariety: trip.Int(len(a.destinations)),
		OriginVariety:      trip.Int(len(a.origins)),
		TimeConsistency:    trip.Float(a.GetTimeConsistency()),
		AvgDistance:        trip.Float(a.GetAverageDistance()),
		FavoriteWeekday:    trip.Int(favoriteWeekday),
	}
	for weekday, count := range a.weekdays {
		history.WeekdayFrequency[weekday] = trip.Int(count)
	}

	if name, ok := a.favoriteDestination(); ok {
		coordinates := a.coordinates[name]
		history.FavoriteDestination = &trip.FavoriteDestination{
			Name:      name,
			Latitude:  trip.Float(coordinates[0]),
			Longitude: trip.Float(coordinates[1]),
		}
	}
	return history
}

// favoriteDestination most visited destination, ties by name
func (a *Accumulator) favoriteDestination() (string, bool) {
	names := make([]string, 0, len(a.destinations))
	for name := range a.destinations {
		names = append(names, name)
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)

	favorite := names[0]
	for _, name := range names[1:] {
		if a.destinations[name] > a.destinations[favorite] {
			favorite = name
		}
	}
	return favorite, true
}

// Aggregate builds the profiles of the riders of the log and keeps the limit most active ones.
// A limit lower than 1 keeps every rider
func Aggregate(trips []CompletedTrip, limit int) *Catalogue {
	accumulators := make(map[string]*Accumulator)
	for _, completed := range trips {
		if completed.RiderID == "" {
			continue
		}
		acc, exists := accumulators[completed.RiderID]
		if !exists {
			acc = NewAccumulator(completed.RiderID)
			accumulators[completed.RiderID] = acc
		}
		acc.Update(completed)
	}

	profiles := make([]Profile, 0, len(accumulators))
	for riderID, acc := range accumulators {
		profiles = append(profiles, NewProfile(riderID, acc.GetHistory()))
	}

	catalogue := NewCatalogue(profiles)
	if limit < 1 || limit >= catalogue.Len() {
		return catalogue
	}
	return NewCatalogue(catalogue.Top(limit))
}

func mondayFirst(weekday time.Weekday) int {
	return (int(weekday) + 6) % 7
}
