package factory

import (
	"context"
	"fmt"

	"bikedest/classifier"
	"bikedest/communication"
	"bikedest/domain/business/pipeline"
	pipelineConfig "bikedest/domain/business/pipeline/config"
	"bikedest/domain/business/riders"
	"bikedest/workers/factory/worker_type/features"
	featuresConfig "bikedest/workers/factory/worker_type/features/config"
)

const featureWorker = "feature-worker"

type IWorker interface {
	GetID() int
	GetType() string
	DeclareQueues() error
	DeclareExchanges() error
	ProcessInputMessages(ctx context.Context) error
	Kill() error
}

// NewWorker initialize a worker of some type.
// Possible worker types are: feature-worker
func NewWorker(workerType string) (IWorker, error) {
	if workerType == featureWorker {
		return newFeatureWorker()
	}

	return nil, fmt.Errorf("[method: NewWorker][status: error] Invalid worker type %s", workerType)
}

func newFeatureWorker() (IWorker, error) {
	cfg, err := featuresConfig.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("[method: NewWorker][status: error] error getting Feature Worker config: %w", err)
	}

	pipelineCfg, err := pipelineConfig.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("[method: NewWorker][status: error] error getting pipeline config: %w", err)
	}

	featurePipeline, err := pipeline.Load(pipelineCfg)
	if err != nil {
		return nil, fmt.Errorf("[method: NewWorker][status: error] error building pipeline: %w", err)
	}

	catalogue, err := riders.LoadCatalogue(cfg.RidersPath)
	if err != nil {
		return nil, fmt.Errorf("[method: NewWorker][status: error] error loading rider catalogue: %w", err)
	}

	var scorer classifier.Classifier
	if cfg.Classifier.URL != "" {
		scorer = classifier.NewHTTPClassifier(cfg.Classifier)
	}

	rabbitMQ, err := communication.NewRabbitMQ(cfg.RabbitURL)
	if err != nil {
		return nil, fmt.Errorf("[method: NewWorker][status: error] %w", err)
	}

	return features.NewFeatureWorker(cfg, rabbitMQ, featurePipeline, catalogue, scorer), nil
}
