package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"bikedest/classifier"
	"bikedest/server/handler"
	"bikedest/utils"
)

const (
	configFilepath   = "./server/config.yaml"
	configPathEnvVar = "SERVER_CONFIG_PATH"
)

type ServerConfig struct {
	IP              string            `yaml:"ip"`
	Port            string            `yaml:"port" validate:"required,numeric"`
	ReadTimeout     time.Duration     `yaml:"read_timeout"`
	WriteTimeout    time.Duration     `yaml:"write_timeout"`
	IdleTimeout     time.Duration     `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration     `yaml:"shutdown_timeout"`
	RidersPath      string            `yaml:"riders_path"`
	TopK            int               `yaml:"top_k" validate:"gte=0"`
	Classifier      classifier.Config `yaml:"classifier"`
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:            "8080",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		TopK:            classifier.DefaultTopK,
		Classifier:      classifier.DefaultConfig(),
	}
}

// LoadServerConfig reads the server config file. PORT, RIDERS_PATH and CLASSIFIER_URL override the file
func LoadServerConfig() (ServerConfig, error) {
	configFile, err := utils.GetConfigFile(utils.GetEnv(configPathEnvVar, configFilepath))
	if err != nil {
		return ServerConfig{}, err
	}

	serverConfig := defaultServerConfig()
	err = yaml.Unmarshal(configFile, &serverConfig)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("error parsing server config file: %w", err)
	}

	serverConfig.Port = utils.GetEnv("PORT", serverConfig.Port)
	serverConfig.RidersPath = utils.GetEnv("RIDERS_PATH", serverConfig.RidersPath)
	serverConfig.Classifier.URL = utils.GetEnv("CLASSIFIER_URL", serverConfig.Classifier.URL)

	if err = validator.New().Struct(serverConfig); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid server config: %w", err)
	}
	return serverConfig, nil
}

type Server struct {
	config     ServerConfig
	httpServer *http.Server
}

func NewServer(config ServerConfig, h *handler.Handler) *Server {
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	r.Use(loggingMiddleware)

	return &Server{
		config: config,
		httpServer: &http.Server{
			Addr:         config.IP + ":" + config.Port,
			Handler:      r,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
	}
}

// Run serves requests until a termination signal is received, then shuts down gracefully
func (s *Server) Run() error {
	serverErrors := make(chan error, 1)
	go func() {
		log.Infof("[server][method: Run][status: OK] listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	signalChannel := utils.GetSignalChannel()
	select {
	case err := <-serverErrors:
		return fmt.Errorf("error listening on %s: %w", s.httpServer.Addr, err)
	case <-signalChannel:
		log.Info("[server][method: Run] signal received, shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debugf("[server] %s %s %s", r.Method, r.RequestURI, time.Since(start))
	})
}
