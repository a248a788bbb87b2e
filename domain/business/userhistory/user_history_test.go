package userhistory

import (
	"errors"
	"strings"
	"testing"

	"bikedest/domain/business/directory"
	"bikedest/domain/entities/features"
	"bikedest/domain/entities/trip"
)

func testDirectory() *directory.Directory {
	lat1, lon1, lat2, lon2 := -32.8895, -68.8458, -32.8790, -68.8360
	return directory.Build([]directory.Record{
		{Name: "Plaza Independencia", Latitude: &lat1, Longitude: &lon1},
		{Name: "Parque Central", Latitude: &lat2, Longitude: &lon2},
	}, directory.DefaultConfig())
}

func TestResolveWithoutHistory(t *testing.T) {
	r := NewResolver(DefaultDefaults(), features.VariantNone, nil, nil)
	got := r.Resolve(nil)

	expected := Features{
		TotalTrips:         25,
		ActiveWeeks:        10,
		TripsPerWeek:       2.5,
		AvgDurationMin:     20.0,
		DestinationVariety: 8,
		OriginVariety:      5,
		TimeConsistency:    3.0,
		AvgDistance:        0.025,
		FavoriteWeekday:    0,
		WeekdayFrequency:   [7]int{5, 4, 4, 4, 5, 3, 2},
		Destination:        Destination{Variant: features.VariantNone},
	}
	if got != expected {
		t.Errorf("Expected %+v, got %+v", expected, got)
	}

	if _, ok := got.Set()[features.FavoriteDestinationCode]; ok {
		t.Error("Expected no favorite destination feature for the none variant")
	}
}

func TestResolvePartialHistory(t *testing.T) {
	r := NewResolver(DefaultDefaults(), features.VariantNone, nil, nil)
	history := &trip.UserHistory{
		TotalTrips:   trip.Int(60),
		TripsPerWeek: trip.Float(6),
		AvgDistance:  trip.Float(0.031),
	}
	history.WeekdayFrequency[2] = trip.Int(11)

	got := r.Resolve(history)
	if got.TotalTrips != 60 || got.TripsPerWeek != 6 || got.AvgDistance != 0.031 {
		t.Errorf("Expected supplied values to pass through, got %+v", got)
	}
	if got.ActiveWeeks != 10 || got.AvgDurationMin != 20 {
		t.Errorf("Expected defaults for missing values, got %+v", got)
	}
	if got.WeekdayFrequency != [7]int{5, 4, 11, 4, 5, 3, 2} {
		t.Errorf("Unexpected weekday frequency %v", got.WeekdayFrequency)
	}
}

func TestTripsPerWeekDerivedFromHistory(t *testing.T) {
	r := NewResolver(DefaultDefaults(), features.VariantNone, nil, nil)

	tests := []struct {
		name     string
		history  *trip.UserHistory
		expected float64
	}{
		{"trips and weeks", &trip.UserHistory{TotalTrips: trip.Int(30), ActiveWeeks: trip.Int(6)}, 5},
		{"trips only", &trip.UserHistory{TotalTrips: trip.Int(40)}, 4},
		{"weeks only", &trip.UserHistory{ActiveWeeks: trip.Int(5)}, 5},
		{"zero weeks", &trip.UserHistory{TotalTrips: trip.Int(7), ActiveWeeks: trip.Int(0)}, 7},
		{"supplied rate wins", &trip.UserHistory{TotalTrips: trip.Int(30), ActiveWeeks: trip.Int(6), TripsPerWeek: trip.Float(2)}, 2},
		{"nothing supplied", &trip.UserHistory{}, 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Resolve(tt.history).TripsPerWeek; got != tt.expected {
				t.Errorf("Expected %v trips per week, got %v", tt.expected, got)
			}
		})
	}
}

func TestActiveWeeksIsAtLeastOne(t *testing.T) {
	r := NewResolver(DefaultDefaults(), features.VariantNone, nil, nil)

	for _, weeks := range []int{0, -3} {
		got := r.Resolve(&trip.UserHistory{ActiveWeeks: trip.Int(weeks)})
		if got.ActiveWeeks != 1 {
			t.Errorf("Expected active weeks 1 for %d, got %d", weeks, got.ActiveWeeks)
		}
	}
}

func TestCustomDefaults(t *testing.T) {
	defaults := DefaultDefaults()
	defaults.TotalTrips = 3
	defaults.WeekdayFrequency = []int{1, 1, 1, 1, 1, 1, 1}

	got := NewResolver(defaults, features.VariantNone, nil, nil).Resolve(nil)
	if got.TotalTrips != 3 || got.WeekdayFrequency != [7]int{1, 1, 1, 1, 1, 1, 1} {
		t.Errorf("Expected custom defaults, got %+v", got)
	}
}

func TestCategoricalDestination(t *testing.T) {
	encoder := NewLabelEncoder([]string{"Plaza Independencia", "Parque Central", "Alameda"})
	r := NewResolver(DefaultDefaults(), features.VariantCategoricalCode, testDirectory(), encoder)

	tests := []struct {
		name     string
		favorite *trip.FavoriteDestination
		code     int
		resolved bool
	}{
		{"known name", &trip.FavoriteDestination{Name: "Plaza Independencia"}, 2, true},
		{"first class", &trip.FavoriteDestination{Name: "Alameda"}, 0, true},
		{"unknown name", &trip.FavoriteDestination{Name: "Nowhere"}, 0, false},
		{"exact coordinates", &trip.FavoriteDestination{Latitude: trip.Float(-32.8790), Longitude: trip.Float(-68.8360)}, 1, true},
		{"nearby coordinates", &trip.FavoriteDestination{Latitude: trip.Float(-32.8800), Longitude: trip.Float(-68.8370)}, 1, true},
		{"far coordinates", &trip.FavoriteDestination{Latitude: trip.Float(-33.5), Longitude: trip.Float(-69.5)}, 0, false},
		{"not supplied", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(&trip.UserHistory{FavoriteDestination: tt.favorite})
			if got.Destination.Code != tt.code {
				t.Errorf("Expected code %d, got %d", tt.code, got.Destination.Code)
			}
			if got.Destination.Resolved != tt.resolved {
				t.Errorf("Expected resolved %v, got %v", tt.resolved, got.Destination.Resolved)
			}
			if got.Set()[features.FavoriteDestinationCode] != float64(tt.code) {
				t.Errorf("Expected feature %d, got %v", tt.code, got.Set()[features.FavoriteDestinationCode])
			}
		})
	}
}

func TestCategoricalDestinationWithoutEncoder(t *testing.T) {
	r := NewResolver(DefaultDefaults(), features.VariantCategoricalCode, testDirectory(), nil)
	got := r.Resolve(&trip.UserHistory{FavoriteDestination: &trip.FavoriteDestination{Name: "Parque Central"}})
	if got.Destination.Code != 0 || got.Destination.Resolved {
		t.Errorf("Expected fallback code, got %+v", got.Destination)
	}
}

func TestRawCoordinatesDestination(t *testing.T) {
	r := NewResolver(DefaultDefaults(), features.VariantRawCoordinates, testDirectory(), nil)

	t.Run("known name returns stored coordinates", func(t *testing.T) {
		got := r.Resolve(&trip.UserHistory{FavoriteDestination: &trip.FavoriteDestination{Name: "Parque Central"}})
		if got.Destination.Latitude != -32.8790 || got.Destination.Longitude != -68.8360 || !got.Destination.Resolved {
			t.Errorf("Unexpected destination %+v", got.Destination)
		}
		set := got.Set()
		if set[features.FavoriteDestinationLat] != -32.8790 || set[features.FavoriteDestinationLon] != -68.8360 {
			t.Errorf("Unexpected feature set %v", set)
		}
	})

	t.Run("unknown name returns origin", func(t *testing.T) {
		got := r.Resolve(&trip.UserHistory{FavoriteDestination: &trip.FavoriteDestination{Name: "Nowhere"}})
		if got.Destination.Latitude != 0 || got.Destination.Longitude != 0 || got.Destination.Resolved {
			t.Errorf("Unexpected destination %+v", got.Destination)
		}
	})

	t.Run("missing destination returns origin", func(t *testing.T) {
		got := r.Resolve(nil)
		if got.Destination.Latitude != 0 || got.Destination.Longitude != 0 {
			t.Errorf("Unexpected destination %+v", got.Destination)
		}
		if _, ok := got.Set()[features.FavoriteDestinationLat]; !ok {
			t.Error("Expected favorite destination latitude in feature set")
		}
	})

	t.Run("nearby coordinates snap to the station", func(t *testing.T) {
		got := r.Resolve(&trip.UserHistory{FavoriteDestination: &trip.FavoriteDestination{
			Latitude: trip.Float(-32.8800), Longitude: trip.Float(-68.8370),
		}})
		if got.Destination.Latitude != -32.8790 || got.Destination.Longitude != -68.8360 || !got.Destination.Resolved {
			t.Errorf("Expected Parque Central coordinates, got %+v", got.Destination)
		}
	})

	t.Run("coordinates outside the directory return origin", func(t *testing.T) {
		got := r.Resolve(&trip.UserHistory{FavoriteDestination: &trip.FavoriteDestination{
			Latitude: trip.Float(-40), Longitude: trip.Float(-70),
		}})
		if got.Destination.Latitude != 0 || got.Destination.Longitude != 0 || got.Destination.Resolved {
			t.Errorf("Unexpected destination %+v", got.Destination)
		}
	})
}

func TestLabelEncoder(t *testing.T) {
	t.Run("fit sorts unique classes", func(t *testing.T) {
		le := NewLabelEncoder([]string{"b", "a", "c", "a"})
		if le.Len() != 3 {
			t.Fatalf("Expected 3 classes, got %d", le.Len())
		}
		if le.Encode("a") != 0 || le.Encode("b") != 1 || le.Encode("c") != 2 || le.Encode("z") != 0 {
			t.Errorf("Unexpected codes for classes %v", le.Classes())
		}
	})

	t.Run("load from array", func(t *testing.T) {
		le, err := LoadLabelEncoder(strings.NewReader(`["Alameda", "Parque Central"]`))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if le.Encode("Parque Central") != 1 {
			t.Errorf("Expected code 1, got %d", le.Encode("Parque Central"))
		}
	})

	t.Run("load from object", func(t *testing.T) {
		le, err := LoadLabelEncoder(strings.NewReader(`{"Parque Central": 7, "Alameda": 3}`))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if le.Encode("Parque Central") != 7 || le.Encode("Alameda") != 3 {
			t.Errorf("Unexpected codes for classes %v", le.Classes())
		}
		if classes := le.Classes(); classes[0] != "Alameda" {
			t.Errorf("Expected classes in code order, got %v", classes)
		}
	})

	t.Run("invalid table", func(t *testing.T) {
		for _, input := range []string{"", "not json", `[1, 2]`} {
			if _, err := LoadLabelEncoder(strings.NewReader(input)); !errors.Is(err, ErrInvalidEncoderTable) {
				t.Errorf("Expected ErrInvalidEncoderTable for %q, got %v", input, err)
			}
		}
	})

	t.Run("lookup reports unknown names", func(t *testing.T) {
		le := NewLabelEncoder([]string{"a", "b"})
		if code, ok := le.Lookup("a"); !ok || code != 0 {
			t.Errorf("Expected known code 0, got %d %v", code, ok)
		}
		if _, ok := le.Lookup("z"); ok {
			t.Error("Expected z to be unknown")
		}
	})

	t.Run("nil encoder", func(t *testing.T) {
		var le *LabelEncoder
		if le.Encode("a") != 0 {
			t.Error("Expected code 0 from a nil encoder")
		}
	})
}
