package geography

import (
	"math"
	"sort"

	log "github.com/sirupsen/logrus"

	"bikedest/domain/business/directory"
	"bikedest/domain/entities/features"
	"bikedest/domain/entities/station"
)

const (
	DefaultReferenceLat  = -32.89
	DefaultReferenceLon  = -68.84
	DefaultNearbyRadius  = 0.01
	DefaultMaxNeighbors  = 10
	DefaultCapacity      = 15
	DefaultNearbyStation = 5

	centerBand    = 0.02
	nearBand      = 0.05
	peripheryBand = 0.1
)

// Zone ordinal classification of the distance between a point and the reference center
type Zone int

const (
	ZoneUnknown Zone = iota
	ZoneCenter
	ZoneNear
	ZonePeriphery
	ZoneFar
)

func (z Zone) String() string {
	switch z {
	case ZoneCenter:
		return "center"
	case ZoneNear:
		return "near"
	case ZonePeriphery:
		return "periphery"
	case ZoneFar:
		return "far"
	}
	return "unknown"
}

// Config parameters of the Geography Resolver
// + ReferenceLat, ReferenceLon: center used to classify zones
// + NearbyRadius: radius, in degrees, used to count nearby stations
// + MaxNeighbors: amount of nearest stations inspected when counting. Zero or less means all of them
// + DefaultCapacity: capacity returned for unknown points
// + DefaultNearbyCount: nearby count returned for unknown points
type Config struct {
	ReferenceLat       float64
	ReferenceLon       float64
	NearbyRadius       float64
	MaxNeighbors       int
	DefaultCapacity    int
	DefaultNearbyCount int
}

func DefaultConfig() Config {
	return Config{
		ReferenceLat:       DefaultReferenceLat,
		ReferenceLon:       DefaultReferenceLon,
		NearbyRadius:       DefaultNearbyRadius,
		MaxNeighbors:       DefaultMaxNeighbors,
		DefaultCapacity:    DefaultCapacity,
		DefaultNearbyCount: DefaultNearbyStation,
	}
}

// Features geographic features of the origin of a trip
type Features struct {
	Zone           Zone
	Capacity       int
	NearbyStations int
}

func (f Features) Set() features.Set {
	return features.Set{
		features.OriginZone:           float64(f.Zone),
		features.OriginCapacity:       float64(f.Capacity),
		features.OriginNearbyStations: float64(f.NearbyStations),
	}
}

// Resolver computes geographic features from a coordinate. The nearby count of every known
// station is computed when the resolver is created and never changes afterwards
type Resolver struct {
	config      Config
	directory   *directory.Directory
	nearbyCache map[station.CoordinateKey]int
}

func NewResolver(dir *directory.Directory, cfg Config) *Resolver {
	if dir == nil {
		dir = directory.Empty()
	}

	r := &Resolver{
		config:      cfg,
		directory:   dir,
		nearbyCache: make(map[station.CoordinateKey]int, dir.Len()),
	}

	for _, s := range dir.Stations() {
		key := s.GetKey()
		if _, exists := r.nearbyCache[key]; exists {
			continue
		}
		r.nearbyCache[key] = r.NearbyStationCount(s.Latitude, s.Longitude, cfg.NearbyRadius)
	}

	log.Debugf("[geography][method: NewResolver][status: OK] nearby counts computed for %d stations", len(r.nearbyCache))
	return r
}

// ClassifyZone returns the tightest band that contains the point. Missing coordinates are ZoneUnknown
func (r *Resolver) ClassifyZone(lat float64, lon float64) Zone {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return ZoneUnknown
	}

	latOffset := math.Abs(lat - r.config.ReferenceLat)
	lonOffset := math.Abs(lon - r.config.ReferenceLon)

	if latOffset < centerBand && lonOffset < centerBand {
		return ZoneCenter
	}
	if latOffset < nearBand && lonOffset < nearBand {
		return ZoneNear
	}
	if latOffset < peripheryBand && lonOffset < peripheryBand {
		return ZonePeriphery
	}
	return ZoneFar
}

// NearbyStationCount counts the known stations within radius degrees of the point, euclidean distance
// in degree space. Only the MaxNeighbors nearest stations are inspected, and when the point is itself a
// known station it is not counted
func (r *Resolver) NearbyStationCount(lat float64, lon float64, radius float64) int {
	stations := r.directory.Stations()
	if len(stations) == 0 {
		return 0
	}

	distances := make([]float64, len(stations))
	for idx := range stations {
		distances[idx] = directory.DegreeDistance(lat, lon, stations[idx].Latitude, stations[idx].Longitude)
	}
	sort.Float64s(distances)

	neighbors := len(distances)
	if r.config.MaxNeighbors > 0 && r.config.MaxNeighbors < neighbors {
		neighbors = r.config.MaxNeighbors
	}

	count := 0
	for _, distance := range distances[:neighbors] {
		if distance <= radius {
			count++
		}
	}

	if _, isStation := r.directory.LookupByCoordinate(lat, lon); isStation {
		count--
	}

	if count < 0 {
		return 0
	}
	return count
}

// NearbyAt returns the precomputed nearby count of the station at the point. Points that are not a known
// station get the default count, no live search is done
func (r *Resolver) NearbyAt(lat float64, lon float64) int {
	count, ok := r.nearbyCache[station.NewCoordinateKey(lat, lon)]
	if !ok {
		return r.config.DefaultNearbyCount
	}
	return count
}

// CapacityAt returns the capacity of the station at the point, or the default capacity
func (r *Resolver) CapacityAt(lat float64, lon float64) int {
	s, ok := r.directory.LookupByCoordinate(lat, lon)
	if !ok {
		return r.config.DefaultCapacity
	}
	return s.Capacity
}

// Resolve computes every geographic feature of the point
func (r *Resolver) Resolve(lat float64, lon float64) Features {
	return Features{
		Zone:           r.ClassifyZone(lat, lon),
		Capacity:       r.CapacityAt(lat, lon),
		NearbyStations: r.NearbyAt(lat, lon),
	}
}
