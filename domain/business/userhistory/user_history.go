package userhistory

import (
	log "github.com/sirupsen/logrus"

	"bikedest/domain/business/directory"
	"bikedest/domain/entities/features"
	"bikedest/domain/entities/trip"
)

// DefaultDestinationRadius radius, in degrees, used to match a favorite destination given by coordinates
const DefaultDestinationRadius = 0.01

// Features rider features after filling the missing history with the defaults
type Features struct {
	TotalTrips         int
	ActiveWeeks        int
	TripsPerWeek       float64
	AvgDurationMin     float64
	DestinationVariety int
	OriginVariety      int
	TimeConsistency    float64
	AvgDistance        float64
	FavoriteWeekday    int
	WeekdayFrequency   [7]int
	Destination        Destination
}

// Destination favorite destination in the representation required by the variant
// + Variant: representation used
// + Code: categorical code, only for VariantCategoricalCode
// + Latitude, Longitude: coordinates, only for VariantRawCoordinates
// + Resolved: false when the fallback value was used
type Destination struct {
	Variant   features.Variant
	Code      int
	Latitude  float64
	Longitude float64
	Resolved  bool
}

func (f Features) Set() features.Set {
	set := features.Set{
		features.TotalTrips:         float64(f.TotalTrips),
		features.ActiveWeeks:        float64(f.ActiveWeeks),
		features.TripsPerWeek:       f.TripsPerWeek,
		features.AvgDurationMin:     f.AvgDurationMin,
		features.DestinationVariety: float64(f.DestinationVariety),
		features.OriginVariety:      float64(f.OriginVariety),
		features.TimeConsistency:    f.TimeConsistency,
		features.AvgUserDistance:    f.AvgDistance,
		features.FavoriteWeekday:    float64(f.FavoriteWeekday),
	}
	for weekday, name := range features.WeekdayFrequencyNames {
		set[name] = float64(f.WeekdayFrequency[weekday])
	}

	switch f.Destination.Variant {
	case features.VariantCategoricalCode:
		set[features.FavoriteDestinationCode] = float64(f.Destination.Code)
	case features.VariantRawCoordinates:
		set[features.FavoriteDestinationLat] = f.Destination.Latitude
		set[features.FavoriteDestinationLon] = f.Destination.Longitude
	}
	return set
}

// Resolver fills a rider history with the defaults and resolves the favorite destination
type Resolver struct {
	defaults          Defaults
	variant           features.Variant
	directory         *directory.Directory
	encoder           Encoder
	destinationRadius float64
}

func NewResolver(defaults Defaults, variant features.Variant, dir *directory.Directory, encoder Encoder) *Resolver {
	if dir == nil {
		dir = directory.Empty()
	}
	return &Resolver{
		defaults:          defaults,
		variant:           variant,
		directory:         dir,
		encoder:           encoder,
		destinationRadius: DefaultDestinationRadius,
	}
}

// WithDestinationRadius returns a copy of the resolver that matches coordinates with the given radius
func (r *Resolver) WithDestinationRadius(radius float64) *Resolver {
	resolver := *r
	resolver.destinationRadius = radius
	return &resolver
}

// Resolve returns the rider features. A nil history means that every value is unknown
func (r *Resolver) Resolve(history *trip.UserHistory) Features {
	if history == nil {
		history = &trip.UserHistory{}
	}

	resolved := Features{
		TotalTrips:         intOrDefault(history.TotalTrips, r.defaults.TotalTrips),
		ActiveWeeks:        intOrDefault(history.ActiveWeeks, r.defaults.ActiveWeeks),
		TripsPerWeek:       floatOrDefault(history.TripsPerWeek, r.defaults.TripsPerWeek),
		AvgDurationMin:     floatOrDefault(history.AvgDurationMin, r.defaults.AvgDurationMin),
		DestinationVariety: intOrDefault(history.DestinationVariety, r.defaults.DestinationVariety),
		OriginVariety:      intOrDefault(history.OriginVariety, r.defaults.OriginVariety),
		TimeConsistency:    floatOrDefault(history.TimeConsistency, r.defaults.TimeConsistency),
		AvgDistance:        floatOrDefault(history.AvgDistance, r.defaults.AvgDistance),
		FavoriteWeekday:    intOrDefault(history.FavoriteWeekday, r.defaults.FavoriteWeekday),
		Destination:        r.resolveDestination(history.GetFavoriteDestination()),
	}

	for weekday := range resolved.WeekdayFrequency {
		resolved.WeekdayFrequency[weekday] = intOrDefault(history.WeekdayFrequency[weekday], r.defaults.weekdayFrequency(weekday))
	}

	// per-week rates divide by this value
	if resolved.ActiveWeeks < 1 {
		resolved.ActiveWeeks = 1
	}

	if history.TripsPerWeek == nil && (history.TotalTrips != nil || history.ActiveWeeks != nil) {
		resolved.TripsPerWeek = float64(resolved.TotalTrips) / float64(resolved.ActiveWeeks)
	}

	return resolved
}

func (r *Resolver) resolveDestination(favorite *trip.FavoriteDestination) Destination {
	switch r.variant {
	case features.VariantCategoricalCode:
		return r.encodeDestination(favorite)
	case features.VariantRawCoordinates:
		return r.locateDestination(favorite)
	}
	return Destination{Variant: features.VariantNone}
}

// encodeDestination resolves the destination name and returns its code. Unknown destinations get code 0
func (r *Resolver) encodeDestination(favorite *trip.FavoriteDestination) Destination {
	destination := Destination{Variant: features.VariantCategoricalCode}

	name := ""
	if favorite.HasName() {
		name = favorite.Name
	} else if favorite.HasCoordinates() {
		name = r.stationNameAt(*favorite.Latitude, *favorite.Longitude)
	}

	if name == "" || r.encoder == nil {
		return destination
	}

	code, known := r.encoder.Lookup(name)
	if !known {
		log.Debugf("[userhistory][method: encodeDestination] favorite destination %q has no code", name)
		return destination
	}
	destination.Code, destination.Resolved = code, true
	return destination
}

// locateDestination returns the stored coordinates of the destination station. Coordinates are matched
// with a station first. Destinations outside the directory are (0, 0)
func (r *Resolver) locateDestination(favorite *trip.FavoriteDestination) Destination {
	destination := Destination{Variant: features.VariantRawCoordinates}

	name := ""
	if favorite.HasName() {
		name = favorite.Name
	} else if favorite.HasCoordinates() {
		name = r.stationNameAt(*favorite.Latitude, *favorite.Longitude)
	}
	if name == "" {
		return destination
	}

	lat, lon, ok := r.directory.LookupByName(name)
	if !ok {
		log.Debugf("[userhistory][method: locateDestination] favorite destination %q not found", name)
		return destination
	}
	destination.Latitude, destination.Longitude, destination.Resolved = lat, lon, true
	return destination
}

// stationNameAt returns the name of the station at the point: exact key first, then the nearest one
// inside the destination radius
func (r *Resolver) stationNameAt(lat float64, lon float64) string {
	if s, ok := r.directory.LookupByCoordinate(lat, lon); ok {
		return s.Name
	}

	s, km, ok := r.directory.Nearest(lat, lon, r.destinationRadius)
	if !ok {
		log.Debugf("[userhistory][method: stationNameAt] no station near (%v, %v)", lat, lon)
		return ""
	}
	log.Debugf("[userhistory][method: stationNameAt] favorite destination matched with %s at %.3f km", s.Name, km)
	return s.Name
}

func intOrDefault(value *int, defaultValue int) int {
	if value == nil {
		return defaultValue
	}
	return *value
}

func floatOrDefault(value *float64, defaultValue float64) float64 {
	if value == nil {
		return defaultValue
	}
	return *value
}
