package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"bikedest/utils"
	"bikedest/workers/factory"
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
	// the environment of the container wins over the file
	_ = godotenv.Load()

	if err := InitLogger(utils.GetEnv("LOG_LEVEL", "DEBUG")); err != nil {
		log.Fatalf("%s", err)
		return
	}

	workerType := os.Getenv("WORKER_TYPE")

	worker, err := factory.NewWorker(workerType)
	if err != nil {
		log.Errorf("Error creating worker: %s", err.Error())
		return
	}

	defer func() {
		if err := worker.Kill(); err != nil {
			log.Errorf("[worker: %s][workerID: %v][status: error] %s", worker.GetType(), worker.GetID(), err.Error())
		}
	}()

	if err = worker.DeclareQueues(); err != nil {
		return
	}

	if err = worker.DeclareExchanges(); err != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		signalChannel := utils.GetSignalChannel()
		<-signalChannel
		log.Infof("[worker: %s][workerID: %v] signal received, shutting down", worker.GetType(), worker.GetID())
		cancel()
	}()

	err = worker.ProcessInputMessages(ctx)
	if err != nil && ctx.Err() == nil {
		log.Errorf("[worker: %s][workerID: %v][status: error] error processing messages: %s", worker.GetType(), worker.GetID(), err.Error())
		return
	}

	log.Infof("[worker: %s][workerID: %v] finish main.go", worker.GetType(), worker.GetID())
}
