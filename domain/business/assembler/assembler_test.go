package assembler

import (
	"reflect"
	"testing"

	"bikedest/domain/business/geography"
	"bikedest/domain/business/temporal"
	"bikedest/domain/business/userhistory"
	"bikedest/domain/entities/features"
	"bikedest/domain/entities/trip"
)

type fixedSet features.Set

func (fs fixedSet) Set() features.Set {
	return features.Set(fs)
}

func TestAssembleFollowsSchema(t *testing.T) {
	core := NewCoreFields(trip.TripRequest{OriginLat: -32.89, OriginLon: -68.84, Hour: 8, Weekday: 0, Month: 3})
	user := userhistory.NewResolver(userhistory.DefaultDefaults(), features.VariantCategoricalCode, nil, nil).Resolve(nil)
	geo := geography.Features{Zone: geography.ZoneCenter, Capacity: 15, NearbyStations: 5}

	for _, variant := range []features.Variant{features.VariantNone, features.VariantCategoricalCode, features.VariantRawCoordinates} {
		t.Run(string(variant), func(t *testing.T) {
			schema, err := features.DefaultSchema(variant)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			vector, _ := Assemble(temporal.Bucket(8, 0), geo, user, core, schema)
			if vector.Len() != len(schema) {
				t.Fatalf("Expected %d features, got %d", len(schema), vector.Len())
			}
			if !reflect.DeepEqual(vector.Names(), schema) {
				t.Errorf("Expected names %v, got %v", schema, vector.Names())
			}
		})
	}
}

func TestAssembleZeroFillsAndDrops(t *testing.T) {
	schema := []string{features.Month, "unknown_feature", features.IsPeakHour}
	extra := fixedSet{"not_in_schema": 42}

	vector, missing := Assemble(temporal.Bucket(18, 5), extra, nil, CoreFields{Month: 11}, schema)

	expected := []float64{11, 0, 1}
	if !reflect.DeepEqual(vector.Values(), expected) {
		t.Errorf("Expected values %v, got %v", expected, vector.Values())
	}
	if !reflect.DeepEqual(missing, []string{"unknown_feature"}) {
		t.Errorf("Expected unknown_feature missing, got %v", missing)
	}
	if _, ok := vector.Get("not_in_schema"); ok {
		t.Error("Expected extra feature to be dropped")
	}
}

func TestAssembleMissingInputsKeepOrder(t *testing.T) {
	schema, _ := features.DefaultSchema(features.VariantRawCoordinates)

	full, _ := Assemble(temporal.Bucket(8, 0), geography.Features{}, userhistory.Features{}, CoreFields{}, schema)
	empty, missing := Assemble(nil, nil, nil, CoreFields{}, schema)

	if !reflect.DeepEqual(full.Names(), empty.Names()) {
		t.Errorf("Expected the same names, got %v and %v", full.Names(), empty.Names())
	}
	if len(missing) != len(schema)-5 {
		t.Errorf("Expected every non core feature to be missing, got %d", len(missing))
	}
}
