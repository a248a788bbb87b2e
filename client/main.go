package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"bikedest/communication"
	pipelineConfig "bikedest/domain/business/pipeline/config"
	"bikedest/utils"
)

const (
	configFilepath   = "./client/config/config.yaml"
	configPathEnvVar = "CLIENT_CONFIG_PATH"
	usage            = "usage: client send <requests.jsonl> | export-stations <stations.csv> <stations.json> | export-riders <trips.jsonl> <riders.json>"
)

func LoadClientConfig() (ClientConfig, error) {
	configFile, err := utils.GetConfigFile(utils.GetEnv(configPathEnvVar, configFilepath))
	if err != nil {
		return ClientConfig{}, err
	}

	return ParseClientConfig(configFile)
}

// ParseClientConfig parses a yaml client config. RABBIT_URL overrides the broker address
func ParseClientConfig(data []byte) (ClientConfig, error) {
	clientConfig := ClientConfig{
		BatchSize:      100,
		InputQueue:     "trip-requests",
		Stage:          "client",
		EOFMessage:     "eof.trips",
		PublishTimeout: 5 * time.Second,
		RiderLimit:     50,
		FeatureWorkers: 1,
	}
	if err := yaml.Unmarshal(data, &clientConfig); err != nil {
		return ClientConfig{}, fmt.Errorf("error parsing client config file: %w", err)
	}
	clientConfig.RabbitURL = utils.GetEnv(communication.RabbitURLEnvVar, communication.DefaultRabbitURL)
	if workers := utils.GetEnv("FEATURE_WORKERS", ""); workers != "" {
		parsed, err := strconv.Atoi(workers)
		if err != nil {
			return ClientConfig{}, fmt.Errorf("invalid FEATURE_WORKERS: %w", err)
		}
		clientConfig.FeatureWorkers = parsed
	}

	if err := validator.New().Struct(clientConfig); err != nil {
		return ClientConfig{}, fmt.Errorf("invalid client config: %w", err)
	}
	return clientConfig, nil
}

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
	}

	if len(os.Args) < 3 {
		log.Fatal(usage)
	}

	clientConfig, err := LoadClientConfig()
	if err != nil {
		log.Fatalf("Error loading client config: %s", err.Error())
	}

	switch command := os.Args[1]; command {
	case "send":
		err = send(clientConfig, os.Args[2])
	case "export-stations":
		err = exportStations(os.Args[2:])
	case "export-riders":
		if len(os.Args) < 4 {
			log.Fatal(usage)
		}
		_, err = ExportRiders(os.Args[2], os.Args[3], clientConfig.RiderLimit)
	default:
		log.Fatalf("unknown command %s\n%s", command, usage)
	}

	if err != nil {
		log.Errorf("[client] %s", err.Error())
		os.Exit(1)
	}
	log.Debug("Finish main.go")
}

func send(clientConfig ClientConfig, path string) error {
	input, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error opening requests file: %w", err)
	}
	defer input.Close()

	rabbitMQ, err := communication.NewRabbitMQ(clientConfig.RabbitURL)
	if err != nil {
		return err
	}
	defer func() {
		if killErr := rabbitMQ.KillBadBunny(); killErr != nil {
			log.Errorf("[client] error closing RabbitMQ connection: %s", killErr.Error())
		}
	}()

	client := NewClient(clientConfig, rabbitMQ)
	if err = client.DeclareQueues(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-utils.GetSignalChannel()
		cancel()
	}()

	_, err = client.SendTripRequests(ctx, input)
	return err
}

func exportStations(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%s", usage)
	}

	featuresConfig, err := pipelineConfig.LoadConfig()
	if err != nil {
		return err
	}

	_, err = ExportStations(args[0], args[1], featuresConfig.DirectoryConfig())
	return err
}
