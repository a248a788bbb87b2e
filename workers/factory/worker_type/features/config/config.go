package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"bikedest/classifier"
	"bikedest/communication"
	"bikedest/utils"
)

const (
	configFilepath   = "./workers/factory/worker_type/features/config/config.yaml"
	configPathEnvVar = "WORKER_CONFIG_PATH"
)

type FeatureWorkerConfig struct {
	InputQueueConfig    communication.QueueDeclarationConfig    `yaml:"input_queue"`
	ConsumptionConfig   communication.ConsumptionConfig         `yaml:"consumption"`
	OutputExchange      communication.ExchangeDeclarationConfig `yaml:"output_exchange"`
	OutputRoutingPrefix string                                  `yaml:"output_routing_prefix" validate:"required"`
	PublishTimeout      time.Duration                           `yaml:"publish_timeout"`
	Classifier          classifier.Config                       `yaml:"classifier"`
	TopK                int                                     `yaml:"top_k" validate:"gte=0"`
	RidersPath          string                                  `yaml:"riders_path"`
	RabbitURL           string                                  `yaml:"-"`
	ID                  int                                     `yaml:"-"`
}

func defaultConfig() *FeatureWorkerConfig {
	return &FeatureWorkerConfig{
		OutputRoutingPrefix: "features",
		PublishTimeout:      5 * time.Second,
		Classifier:          classifier.DefaultConfig(),
		TopK:                classifier.DefaultTopK,
	}
}

// LoadConfig reads the worker config file. WORKER_ID, RABBIT_URL, CLASSIFIER_URL and RIDERS_PATH
// override the file
func LoadConfig() (*FeatureWorkerConfig, error) {
	configFile, err := utils.GetConfigFile(utils.GetEnv(configPathEnvVar, configFilepath))
	if err != nil {
		return nil, err
	}

	workerConfig, err := Parse(configFile)
	if err != nil {
		return nil, err
	}

	workerConfig.RabbitURL = utils.GetEnv(communication.RabbitURLEnvVar, communication.DefaultRabbitURL)
	workerConfig.Classifier.URL = utils.GetEnv("CLASSIFIER_URL", workerConfig.Classifier.URL)
	workerConfig.RidersPath = utils.GetEnv("RIDERS_PATH", workerConfig.RidersPath)

	if rawID := os.Getenv("WORKER_ID"); rawID != "" {
		workerConfig.ID, err = strconv.Atoi(rawID)
		if err != nil {
			return nil, fmt.Errorf("invalid WORKER_ID %q: %w", rawID, err)
		}
	}

	return workerConfig, nil
}

func Parse(data []byte) (*FeatureWorkerConfig, error) {
	workerConfig := defaultConfig()
	if err := yaml.Unmarshal(data, workerConfig); err != nil {
		return nil, fmt.Errorf("error parsing Feature Worker config file: %w", err)
	}

	if err := validator.New().Struct(workerConfig); err != nil {
		return nil, fmt.Errorf("invalid Feature Worker config: %w", err)
	}
	return workerConfig, nil
}
