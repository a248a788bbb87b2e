package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"bikedest/domain/entities/features"
)

func TestParseKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("feature_schema_variant: raw-coordinates\nnearby_radius_degrees: 0.02\n"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.FeatureSchemaVariant != features.VariantRawCoordinates || cfg.NearbyRadiusDegrees != 0.02 {
		t.Errorf("Expected parsed values, got %+v", cfg)
	}
	if cfg.ZoneReferencePoint.Latitude != -32.89 || cfg.ZoneReferencePoint.Longitude != -68.84 {
		t.Errorf("Expected default reference point, got %+v", cfg.ZoneReferencePoint)
	}
	if cfg.DefaultCapacity != 15 || cfg.DefaultNearbyCount != 5 || cfg.Defaults.TotalTrips != 25 {
		t.Errorf("Expected default values, got %+v", cfg)
	}

	schema, err := cfg.Schema()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(schema) != 29 {
		t.Errorf("Expected 29 columns, got %d", len(schema))
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown variant", "feature_schema_variant: embeddings\n"},
		{"negative radius", "nearby_radius_degrees: -1\n"},
		{"duplicated schema names", "feature_schema: [month, month]\n"},
		{"short weekday defaults", "defaults:\n  weekday_frequency: [1, 2]\n"},
		{"malformed yaml", "nearby_radius_degrees: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.input)); err == nil {
				t.Errorf("Expected an error for %q", tt.input)
			}
		})
	}
}

func TestSchemaOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FeatureSchema = []string{features.Month, features.OriginZone}

	schema, err := cfg.Schema()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	schema[0] = "changed"
	if cfg.FeatureSchema[0] != features.Month {
		t.Error("Expected Schema to return a copy")
	}
}

func TestSchemaUnknownVariant(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FeatureSchemaVariant = "embeddings"
	if _, err := cfg.Schema(); !errors.Is(err, features.ErrUnknownVariant) {
		t.Errorf("Expected ErrUnknownVariant, got %v", err)
	}
}

func TestLoadConfigEnvironmentOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte("stations_path: ./from-file.csv\n"), 0o600); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	t.Setenv(configPathEnvVar, path)
	t.Setenv(variantEnvVar, "categorical-code")
	t.Setenv(stationsPathEnvVar, "./from-env.json")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.FeatureSchemaVariant != features.VariantCategoricalCode {
		t.Errorf("Expected variant from environment, got %s", cfg.FeatureSchemaVariant)
	}
	if cfg.StationsPath != "./from-env.json" {
		t.Errorf("Expected stations path from environment, got %s", cfg.StationsPath)
	}
}

func TestDerivedConfigs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NearbyMaxNeighbors = 0

	geo := cfg.GeographyConfig()
	if geo.MaxNeighbors != 0 || geo.ReferenceLat != -32.89 || geo.DefaultNearbyCount != 5 {
		t.Errorf("Unexpected geography config %+v", geo)
	}

	dir := cfg.DirectoryConfig()
	if dir.Tolerance != 0.001 || len(dir.ExcludedNames) != 2 {
		t.Errorf("Unexpected directory config %+v", dir)
	}
}
