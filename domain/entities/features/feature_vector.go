package features

import (
	"encoding/json"
	"fmt"
)

// Set partial, unordered group of computed features
type Set map[string]float64

// Merge copies every feature of other into s. Existing names are overwritten
func (s Set) Merge(other Set) {
	for name, value := range other {
		s[name] = value
	}
}

// FeatureVector ordered feature values as the classifier expects them. Once built it is not modified
type FeatureVector struct {
	names  []string
	values []float64
}

type featureVectorJSON struct {
	Names  []string  `json:"names"`
	Values []float64 `json:"values"`
}

func NewFeatureVector(names []string, values []float64) (FeatureVector, error) {
	if len(names) != len(values) {
		return FeatureVector{}, fmt.Errorf("feature vector with %d names and %d values", len(names), len(values))
	}

	fv := FeatureVector{
		names:  make([]string, len(names)),
		values: make([]float64, len(values)),
	}
	copy(fv.names, names)
	copy(fv.values, values)
	return fv, nil
}

func (fv FeatureVector) Len() int {
	return len(fv.names)
}

// Names returns a copy of the feature names in positional order
func (fv FeatureVector) Names() []string {
	names := make([]string, len(fv.names))
	copy(names, fv.names)
	return names
}

// Values returns a copy of the values in positional order
func (fv FeatureVector) Values() []float64 {
	values := make([]float64, len(fv.values))
	copy(values, fv.values)
	return values
}

// Get returns the value of the feature with the given name
func (fv FeatureVector) Get(name string) (float64, bool) {
	for idx := range fv.names {
		if fv.names[idx] == name {
			return fv.values[idx], true
		}
	}
	return 0, false
}

func (fv FeatureVector) MarshalJSON() ([]byte, error) {
	return json.Marshal(featureVectorJSON{Names: fv.names, Values: fv.values})
}

func (fv *FeatureVector) UnmarshalJSON(data []byte) error {
	var raw featureVectorJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	parsed, err := NewFeatureVector(raw.Names, raw.Values)
	if err != nil {
		return err
	}
	*fv = parsed
	return nil
}
