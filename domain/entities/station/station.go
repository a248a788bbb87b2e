package station

import (
	"fmt"
	"math"
)

const coordinatePrecision = 1e5

// Station struct that contains the data of a physical bike station
// + Name: display name, unique inside a directory
// + Latitude: latitude of the station
// + Longitude: longitude of the station
// + Capacity: amount of docks of the station
type Station struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Capacity  int     `json:"capacity"`
}

func NewStation(name string, latitude float64, longitude float64, capacity int) Station {
	return Station{
		Name:      name,
		Latitude:  latitude,
		Longitude: longitude,
		Capacity:  capacity,
	}
}

// GetCoordinates returns latitude and longitude of the station
func (s Station) GetCoordinates() (float64, float64) {
	return s.Latitude, s.Longitude
}

// GetKey returns the coordinate key of the station
func (s Station) GetKey() CoordinateKey {
	return NewCoordinateKey(s.Latitude, s.Longitude)
}

// CoordinateKey a coordinate rounded to 5 decimal places. It is the key used to find a station from a point
type CoordinateKey struct {
	Lat float64
	Lon float64
}

func NewCoordinateKey(latitude float64, longitude float64) CoordinateKey {
	return CoordinateKey{
		Lat: roundCoordinate(latitude),
		Lon: roundCoordinate(longitude),
	}
}

func (ck CoordinateKey) String() string {
	return fmt.Sprintf("%.5f,%.5f", ck.Lat, ck.Lon)
}

// roundCoordinate rounds half to even, the same rule the training data used
func roundCoordinate(value float64) float64 {
	return math.RoundToEven(value*coordinatePrecision) / coordinatePrecision
}
