package main

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"bikedest/communication"
	"bikedest/utils"
)

const (
	configFilepath    = "./collector/config.yaml"
	configPathEnvVar  = "COLLECTOR_CONFIG_PATH"
	workersEnvVar     = "FEATURE_WORKERS"
	outputPathEnvVar  = "OUTPUT_PATH"
	defaultOutputPath = "./results/features.jsonl"
)

// CollectorConfig
// + ExpectedEOFs: amount of feature workers, each one forwards its own EOF
// + OutputPath: JSON-lines file with one feature envelope per line, empty means stdout
type CollectorConfig struct {
	InputExchange communication.ExchangeDeclarationConfig `yaml:"input_exchange"`
	RoutingKeys   []string                                `yaml:"routing_keys" validate:"min=1,dive,required"`
	ExpectedEOFs  int                                     `yaml:"expected_eofs" validate:"gt=0"`
	OutputPath    string                                  `yaml:"output_path"`
	RabbitURL     string                                  `yaml:"-"`
}

func LoadCollectorConfig() (*CollectorConfig, error) {
	configFile, err := utils.GetConfigFile(utils.GetEnv(configPathEnvVar, configFilepath))
	if err != nil {
		return nil, err
	}

	collectorConfig, err := ParseCollectorConfig(configFile)
	if err != nil {
		return nil, err
	}

	if workers := utils.GetEnv(workersEnvVar, ""); workers != "" {
		collectorConfig.ExpectedEOFs, err = strconv.Atoi(workers)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", workersEnvVar, err)
		}
	}
	collectorConfig.OutputPath = utils.GetEnv(outputPathEnvVar, collectorConfig.OutputPath)
	collectorConfig.RabbitURL = utils.GetEnv(communication.RabbitURLEnvVar, communication.DefaultRabbitURL)

	if err = validator.New().Struct(collectorConfig); err != nil {
		return nil, fmt.Errorf("invalid collector config: %w", err)
	}
	return collectorConfig, nil
}

func ParseCollectorConfig(data []byte) (*CollectorConfig, error) {
	collectorConfig := &CollectorConfig{
		ExpectedEOFs: 1,
		OutputPath:   defaultOutputPath,
	}
	if err := yaml.Unmarshal(data, collectorConfig); err != nil {
		return nil, fmt.Errorf("error parsing collector config file: %w", err)
	}

	if err := validator.New().Struct(collectorConfig); err != nil {
		return nil, fmt.Errorf("invalid collector config: %w", err)
	}
	return collectorConfig, nil
}
