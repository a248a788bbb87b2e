package assembler

import (
	"bikedest/domain/entities/features"
	"bikedest/domain/entities/trip"
)

// Provider partial group of features computed by one resolver
type Provider interface {
	Set() features.Set
}

// CoreFields numeric fields of the request that go to the vector unchanged
type CoreFields struct {
	OriginLat float64
	OriginLon float64
	Hour      int
	Weekday   int
	Month     int
}

func NewCoreFields(request trip.TripRequest) CoreFields {
	return CoreFields{
		OriginLat: request.OriginLat,
		OriginLon: request.OriginLon,
		Hour:      request.Hour,
		Weekday:   request.Weekday,
		Month:     request.Month,
	}
}

func (cf CoreFields) Set() features.Set {
	return features.Set{
		features.OriginLat:     cf.OriginLat,
		features.OriginLon:     cf.OriginLon,
		features.DepartureHour: float64(cf.Hour),
		features.Weekday:       float64(cf.Weekday),
		features.Month:         float64(cf.Month),
	}
}

// Assemble merges every partial group of features and projects the result onto schema.
// The vector has exactly the names of schema in the same order: names that were not computed are
// filled with 0 and returned as missing, computed names that are not in schema are dropped
func Assemble(temporal Provider, geography Provider, user Provider, core CoreFields, schema []string) (features.FeatureVector, []string) {
	merged := features.Set{}
	for _, provider := range []Provider{temporal, geography, user} {
		if provider != nil {
			merged.Merge(provider.Set())
		}
	}
	merged.Merge(core.Set())

	values := make([]float64, len(schema))
	var missing []string
	for idx, name := range schema {
		value, ok := merged[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		values[idx] = value
	}

	// names and values have the same length, the constructor cannot fail
	vector, _ := features.NewFeatureVector(schema, values)
	return vector, missing
}
