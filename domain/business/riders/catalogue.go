package riders

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	log "github.com/sirupsen/logrus"

	"bikedest/domain/entities/trip"
)

// DefaultCatalogueSize amount of riders kept when a catalogue is exported
const DefaultCatalogueSize = 50

var (
	ErrInvalidCatalogue = errors.New("invalid rider catalogue")
	ErrRiderNotFound    = errors.New("rider not found")
)

// Catalogue set of known rider profiles. It is read only once loaded
type Catalogue struct {
	profiles map[string]Profile
	keys     []string
}

// NewCatalogue creates a catalogue with the given profiles. Profiles are ordered by amount of trips,
// most active riders first, ties by key
func NewCatalogue(profiles []Profile) *Catalogue {
	c := &Catalogue{profiles: make(map[string]Profile, len(profiles))}
	for _, profile := range profiles {
		if _, exists := c.profiles[profile.Key]; !exists {
			c.keys = append(c.keys, profile.Key)
		}
		c.profiles[profile.Key] = profile
	}

	sort.SliceStable(c.keys, func(i, j int) bool {
		tripsI := c.profiles[c.keys[i]].GetTotalTrips()
		tripsJ := c.profiles[c.keys[j]].GetTotalTrips()
		if tripsI != tripsJ {
			return tripsI > tripsJ
		}
		return c.keys[i] < c.keys[j]
	})
	return c
}

// LoadCatalogue reads a catalogue file. An empty path is an empty catalogue
func LoadCatalogue(path string) (*Catalogue, error) {
	if path == "" {
		return NewCatalogue(nil), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening rider catalogue: %w", err)
	}
	defer file.Close()

	catalogue, err := ReadCatalogue(file)
	if err != nil {
		return nil, err
	}
	log.Infof("[riders][method: LoadCatalogue][status: OK] %d rider profiles loaded from %s", catalogue.Len(), path)
	return catalogue, nil
}

// ReadCatalogue reads a JSON object of rider key to history
func ReadCatalogue(reader io.Reader) (*Catalogue, error) {
	var histories map[string]trip.UserHistory
	if err := json.NewDecoder(reader).Decode(&histories); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCatalogue, err.Error())
	}

	profiles := make([]Profile, 0, len(histories))
	for key, history := range histories {
		profiles = append(profiles, NewProfile(key, history))
	}
	return NewCatalogue(profiles), nil
}

// WriteCatalogue writes the profiles of the catalogue in the format read by ReadCatalogue
func WriteCatalogue(writer io.Writer, catalogue *Catalogue) error {
	histories := make(map[string]trip.UserHistory, catalogue.Len())
	for _, profile := range catalogue.Profiles() {
		histories[profile.Key] = profile.History
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(histories); err != nil {
		return fmt.Errorf("error writing rider catalogue: %w", err)
	}
	return nil
}

func (c *Catalogue) Get(key string) (Profile, error) {
	profile, ok := c.profiles[key]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrRiderNotFound, key)
	}
	return profile, nil
}

// Profiles returns every profile, most active riders first
func (c *Catalogue) Profiles() []Profile {
	return c.Top(len(c.keys))
}

// Top returns the n most active riders
func (c *Catalogue) Top(n int) []Profile {
	if n > len(c.keys) || n < 0 {
		n = len(c.keys)
	}

	profiles := make([]Profile, 0, n)
	for _, key := range c.keys[:n] {
		profiles = append(profiles, c.profiles[key])
	}
	return profiles
}

func (c *Catalogue) Len() int {
	return len(c.keys)
}

// Complete attaches the history of the known rider to a request without one. Requests with their own
// history, or from unknown riders, are returned unchanged
func (c *Catalogue) Complete(request trip.TripRequest) trip.TripRequest {
	if c == nil || request.History != nil || request.RiderID == "" {
		return request
	}

	profile, ok := c.profiles[request.RiderID]
	if !ok {
		log.Debugf("[riders][method: Complete] unknown rider %s, population defaults will be used", request.RiderID)
		return request
	}

	request.History = profile.GetHistory()
	return request
}
