package directory

import (
	"fmt"
	"math"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/umahmood/haversine"

	"bikedest/domain/entities/station"
	"bikedest/utils"
)

const (
	DefaultTolerance       = 0.001
	DefaultStationCapacity = 15
)

// DefaultExcludedNames test and maintenance hubs that never appear as real stations
var DefaultExcludedNames = []string{"Hub-prueba", "TALLER BICITRAN"}

// Config contains the parameters used to build a Directory
// + Tolerance: two records with the same name are the same station if both coordinates differ less than this value
// + DefaultCapacity: capacity used when a record does not have one
// + ExcludedNames: names that are always dropped
type Config struct {
	Tolerance       float64
	DefaultCapacity int
	ExcludedNames   []string
}

func DefaultConfig() Config {
	excluded := make([]string, len(DefaultExcludedNames))
	copy(excluded, DefaultExcludedNames)
	return Config{
		Tolerance:       DefaultTolerance,
		DefaultCapacity: DefaultStationCapacity,
		ExcludedNames:   excluded,
	}
}

// Record raw station row as it comes from the source. Nil fields are missing values
type Record struct {
	Name      string
	Latitude  *float64
	Longitude *float64
	Capacity  *int
}

// Directory deduplicated set of known stations. It is built once and never modified,
// so it can be shared between goroutines without locking
type Directory struct {
	config   Config
	stations []station.Station
	byName   map[string]int
	byKey    map[station.CoordinateKey]int
}

// Build creates a Directory from records. Records are processed in order, so the result is
// deterministic for a given input order
func Build(records []Record, cfg Config) *Directory {
	d := &Directory{
		config: cfg,
		byName: make(map[string]int),
		byKey:  make(map[station.CoordinateKey]int),
	}

	for idx := range records {
		candidate, ok := d.toStation(records[idx])
		if !ok {
			continue
		}
		d.insert(candidate)
	}

	// the key index is derived after the merge, a merge may replace the coordinates of a station
	for idx := range d.stations {
		key := d.stations[idx].GetKey()
		if _, exists := d.byKey[key]; !exists {
			d.byKey[key] = idx
		}
	}

	return d
}

// Empty returns a Directory without stations. Every lookup returns not found
func Empty() *Directory {
	return Build(nil, DefaultConfig())
}

func (d *Directory) toStation(record Record) (station.Station, bool) {
	name := strings.TrimSpace(record.Name)
	if name == "" || !isPresent(record.Latitude) || !isPresent(record.Longitude) {
		log.Debugf("[directory][method: Build] skipping incomplete station record %q", record.Name)
		return station.Station{}, false
	}

	if utils.ContainsString(name, d.config.ExcludedNames) {
		log.Debugf("[directory][method: Build] skipping excluded station %q", name)
		return station.Station{}, false
	}

	capacity := d.config.DefaultCapacity
	if record.Capacity != nil {
		capacity = *record.Capacity
	}

	return station.NewStation(name, *record.Latitude, *record.Longitude, capacity), true
}

// insert adds the candidate or merges it with a station with the same name
func (d *Directory) insert(candidate station.Station) {
	idx, exists := d.byName[candidate.Name]
	if !exists {
		d.add(candidate)
		return
	}

	if d.sameLocation(d.stations[idx], candidate) {
		if candidate.Capacity > d.stations[idx].Capacity {
			d.stations[idx] = candidate
		}
		return
	}

	candidate.Name = disambiguatedName(candidate)
	idx, exists = d.byName[candidate.Name]
	if !exists {
		d.add(candidate)
		return
	}

	if candidate.Capacity > d.stations[idx].Capacity {
		d.stations[idx] = candidate
	}
}

func (d *Directory) add(candidate station.Station) {
	d.byName[candidate.Name] = len(d.stations)
	d.stations = append(d.stations, candidate)
}

func (d *Directory) sameLocation(s1 station.Station, s2 station.Station) bool {
	return math.Abs(s1.Latitude-s2.Latitude) < d.config.Tolerance &&
		math.Abs(s1.Longitude-s2.Longitude) < d.config.Tolerance
}

// LookupByCoordinate returns the station whose rounded coordinates match exactly the rounded query
func (d *Directory) LookupByCoordinate(lat float64, lon float64) (station.Station, bool) {
	idx, ok := d.byKey[station.NewCoordinateKey(lat, lon)]
	if !ok {
		return station.Station{}, false
	}
	return d.stations[idx], true
}

// LookupByName returns the stored coordinates of the station with the given name
func (d *Directory) LookupByName(name string) (float64, float64, bool) {
	idx, ok := d.byName[strings.TrimSpace(name)]
	if !ok {
		return 0, 0, false
	}
	lat, lon := d.stations[idx].GetCoordinates()
	return lat, lon, true
}

// GetStation returns the station with the given name
func (d *Directory) GetStation(name string) (station.Station, bool) {
	idx, ok := d.byName[strings.TrimSpace(name)]
	if !ok {
		return station.Station{}, false
	}
	return d.stations[idx], true
}

// Nearest returns the closest station to the point, measured in degrees, if it is closer than maxDegrees.
// The distance returned is the great-circle distance in km
func (d *Directory) Nearest(lat float64, lon float64, maxDegrees float64) (station.Station, float64, bool) {
	bestIdx := -1
	bestDistance := math.Inf(1)
	for idx := range d.stations {
		distance := DegreeDistance(lat, lon, d.stations[idx].Latitude, d.stations[idx].Longitude)
		if distance < bestDistance {
			bestDistance = distance
			bestIdx = idx
		}
	}

	if bestIdx < 0 || bestDistance >= maxDegrees {
		return station.Station{}, 0, false
	}

	nearest := d.stations[bestIdx]
	_, km := haversine.Distance(
		haversine.Coord{Lat: lat, Lon: lon},
		haversine.Coord{Lat: nearest.Latitude, Lon: nearest.Longitude},
	)
	return nearest, km, true
}

// Stations returns a copy of the stations in insertion order
func (d *Directory) Stations() []station.Station {
	stations := make([]station.Station, len(d.stations))
	copy(stations, d.stations)
	return stations
}

func (d *Directory) Len() int {
	return len(d.stations)
}

// DegreeDistance euclidean distance between two points in degree space
func DegreeDistance(lat1 float64, lon1 float64, lat2 float64, lon2 float64) float64 {
	return math.Hypot(lat1-lat2, lon1-lon2)
}

func disambiguatedName(s station.Station) string {
	return fmt.Sprintf("%s (%.5f, %.5f)", s.Name, s.Latitude, s.Longitude)
}

func isPresent(value *float64) bool {
	return value != nil && !math.IsNaN(*value)
}
