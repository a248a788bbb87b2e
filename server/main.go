package main

import (
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"bikedest/classifier"
	"bikedest/domain/business/pipeline"
	pipelineConfig "bikedest/domain/business/pipeline/config"
	"bikedest/domain/business/riders"
	"bikedest/server/handler"
	"bikedest/utils"
)

// InitLogger Receives the log level to be set in logrus as a string. This method
// parses the string and set the level to the logger. If the level string is not
// valid an error is returned
func InitLogger(logLevel string) error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return err
	}

	customFormatter := &log.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   false,
	}
	log.SetFormatter(customFormatter)
	log.SetLevel(level)
	return nil
}

func main() {
	_ = godotenv.Load()

	if err := InitLogger(utils.GetEnv("LOG_LEVEL", "info")); err != nil {
		log.Fatalf("%s", err)
		return
	}

	serverConfig, err := LoadServerConfig()
	if err != nil {
		log.Errorf("Error loading server config: %s", err.Error())
		return
	}

	featuresConfig, err := pipelineConfig.LoadConfig()
	if err != nil {
		log.Errorf("Error loading pipeline config: %s", err.Error())
		return
	}

	featurePipeline, err := pipeline.Load(featuresConfig)
	if err != nil {
		log.Errorf("Error building pipeline: %s", err.Error())
		return
	}

	catalogue, err := riders.LoadCatalogue(serverConfig.RidersPath)
	if err != nil {
		log.Errorf("Error loading rider catalogue: %s", err.Error())
		return
	}

	var scorer classifier.Classifier
	if serverConfig.Classifier.URL != "" {
		scorer = classifier.NewHTTPClassifier(serverConfig.Classifier)
	} else {
		log.Warn("[server] no classifier configured, /predict is disabled")
	}

	server := NewServer(serverConfig, handler.NewHandler(featurePipeline, catalogue, scorer, serverConfig.TopK))
	err = server.Run()
	if err != nil {
		log.Errorf("Error running server: %s", err.Error())
		return
	}

	log.Debug("[server] Finish main.go")
}
