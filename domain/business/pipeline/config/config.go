package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"bikedest/domain/business/directory"
	"bikedest/domain/business/geography"
	"bikedest/domain/business/userhistory"
	"bikedest/domain/entities/features"
	"bikedest/utils"
)

const (
	configFilepath          = "./config/pipeline.yaml"
	configPathEnvVar        = "PIPELINE_CONFIG_PATH"
	variantEnvVar           = "FEATURE_SCHEMA_VARIANT"
	stationsPathEnvVar      = "STATIONS_PATH"
	destinationCodesEnvVar  = "DESTINATION_CODES_PATH"
	defaultBatchConcurrency = 8
)

// ReferencePoint center used to classify zones
type ReferencePoint struct {
	Latitude  float64 `yaml:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `yaml:"longitude" validate:"gte=-180,lte=180"`
}

type PipelineConfig struct {
	ZoneReferencePoint        ReferencePoint       `yaml:"zone_reference_point"`
	NearbyRadiusDegrees       float64              `yaml:"nearby_radius_degrees" validate:"gt=0"`
	NearbyMaxNeighbors        int                  `yaml:"nearby_max_neighbors" validate:"gte=0"`
	NameMatchToleranceDegrees float64              `yaml:"name_match_tolerance_degrees" validate:"gt=0"`
	FeatureSchemaVariant      features.Variant     `yaml:"feature_schema_variant" validate:"oneof=none categorical-code raw-coordinates"`
	ExcludedStationNames      []string             `yaml:"excluded_station_names"`
	DefaultCapacity           int                  `yaml:"default_capacity" validate:"gt=0"`
	DefaultNearbyCount        int                  `yaml:"default_nearby_count" validate:"gte=0"`
	Defaults                  userhistory.Defaults `yaml:"defaults"`
	FeatureSchema             []string             `yaml:"feature_schema" validate:"omitempty,unique,dive,required"`
	StationsPath              string               `yaml:"stations_path"`
	DestinationCodesPath      string               `yaml:"destination_codes_path"`
	BatchConcurrency          int                  `yaml:"batch_concurrency" validate:"gte=0"`
}

// DefaultConfig returns the configuration the classifier was trained with
func DefaultConfig() *PipelineConfig {
	dirConfig := directory.DefaultConfig()
	return &PipelineConfig{
		ZoneReferencePoint: ReferencePoint{
			Latitude:  geography.DefaultReferenceLat,
			Longitude: geography.DefaultReferenceLon,
		},
		NearbyRadiusDegrees:       geography.DefaultNearbyRadius,
		NearbyMaxNeighbors:        geography.DefaultMaxNeighbors,
		NameMatchToleranceDegrees: dirConfig.Tolerance,
		FeatureSchemaVariant:      features.VariantNone,
		ExcludedStationNames:      dirConfig.ExcludedNames,
		DefaultCapacity:           dirConfig.DefaultCapacity,
		DefaultNearbyCount:        geography.DefaultNearbyStation,
		Defaults:                  userhistory.DefaultDefaults(),
		BatchConcurrency:          defaultBatchConcurrency,
	}
}

// LoadConfig reads the pipeline config file, overlays the environment and validates the result.
// The file path can be changed with PIPELINE_CONFIG_PATH
func LoadConfig() (*PipelineConfig, error) {
	configFile, err := utils.GetConfigFile(utils.GetEnv(configPathEnvVar, configFilepath))
	if err != nil {
		return nil, err
	}

	pipelineConfig, err := Parse(configFile)
	if err != nil {
		return nil, err
	}

	if variant := os.Getenv(variantEnvVar); variant != "" {
		pipelineConfig.FeatureSchemaVariant, err = features.ParseVariant(variant)
		if err != nil {
			return nil, err
		}
	}
	pipelineConfig.StationsPath = utils.GetEnv(stationsPathEnvVar, pipelineConfig.StationsPath)
	pipelineConfig.DestinationCodesPath = utils.GetEnv(destinationCodesEnvVar, pipelineConfig.DestinationCodesPath)

	return pipelineConfig, pipelineConfig.Validate()
}

// Parse decodes a yaml document over the default configuration. Keys that are not present keep their default
func Parse(data []byte) (*PipelineConfig, error) {
	pipelineConfig := DefaultConfig()
	if err := yaml.Unmarshal(data, pipelineConfig); err != nil {
		return nil, fmt.Errorf("error parsing pipeline config file: %w", err)
	}

	if err := pipelineConfig.Validate(); err != nil {
		return nil, err
	}
	return pipelineConfig, nil
}

func (pc *PipelineConfig) Validate() error {
	if err := validator.New().Struct(pc); err != nil {
		return fmt.Errorf("invalid pipeline config: %w", err)
	}
	return nil
}

// Schema returns the configured column list, or the canonical one of the variant
func (pc *PipelineConfig) Schema() ([]string, error) {
	if len(pc.FeatureSchema) > 0 {
		schema := make([]string, len(pc.FeatureSchema))
		copy(schema, pc.FeatureSchema)
		return schema, nil
	}
	return features.DefaultSchema(pc.FeatureSchemaVariant)
}

func (pc *PipelineConfig) DirectoryConfig() directory.Config {
	return directory.Config{
		Tolerance:       pc.NameMatchToleranceDegrees,
		DefaultCapacity: pc.DefaultCapacity,
		ExcludedNames:   pc.ExcludedStationNames,
	}
}

func (pc *PipelineConfig) GeographyConfig() geography.Config {
	return geography.Config{
		ReferenceLat:       pc.ZoneReferencePoint.Latitude,
		ReferenceLon:       pc.ZoneReferencePoint.Longitude,
		NearbyRadius:       pc.NearbyRadiusDegrees,
		MaxNeighbors:       pc.NearbyMaxNeighbors,
		DefaultCapacity:    pc.DefaultCapacity,
		DefaultNearbyCount: pc.DefaultNearbyCount,
	}
}
