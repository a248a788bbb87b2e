package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"bikedest/communication"
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

func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return os.Stdout, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.Create(path)
}

func main() {
	_ = godotenv.Load()

	if err := InitLogger(utils.GetEnv("LOG_LEVEL", "DEBUG")); err != nil {
		log.Fatalf("%s", err)
		return
	}

	collectorConfig, err := LoadCollectorConfig()
	if err != nil {
		log.Errorf("[collector] error loading config: %s", err.Error())
		return
	}

	output, err := openOutput(collectorConfig.OutputPath)
	if err != nil {
		log.Errorf("[collector] error opening output %s: %s", collectorConfig.OutputPath, err.Error())
		return
	}
	defer output.Close()

	rabbitMQ, err := communication.NewRabbitMQ(collectorConfig.RabbitURL)
	if err != nil {
		log.Errorf("[collector] error getting RabbitMQ instance: %s", err.Error())
		return
	}

	collector := NewCollector(collectorConfig, rabbitMQ, output)
	defer func() {
		if killErr := collector.Kill(); killErr != nil {
			log.Errorf("[collector] error killing RabbitMQ instance: %s", killErr.Error())
		}
	}()

	if err = collector.DeclareExchanges(); err != nil {
		log.Errorf("[collector] error declaring exchanges: %s", err.Error())
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-utils.GetSignalChannel()
		cancel()
	}()

	if err = collector.GenerateResponse(ctx); err != nil {
		log.Errorf("[collector] %s", err.Error())
		return
	}
	log.Debug("[collector] finish main.go")
}
