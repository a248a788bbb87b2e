package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"

	"bikedest/communication"
	"bikedest/domain/entities/envelope"
	"bikedest/domain/entities/eof"
)

const collectorType = "collector"

type broker interface {
	DeclareExchanges(exchangesConfig []communication.ExchangeDeclarationConfig) error
	Bind(inputExchanges []string, routingKeys []string) error
	GetConsumerForExchange(exchangeName string) (<-chan amqp.Delivery, error)
	KillBadBunny() error
}

// Collector gathers the results of every feature worker into a JSON-lines stream. It stops once
// each worker has forwarded its EOF
type Collector struct {
	rabbitMQ broker
	config   *CollectorConfig
	output   io.Writer
	eofs     map[string]int
	results  int
}

func NewCollector(collectorConfig *CollectorConfig, rabbitMQ broker, output io.Writer) *Collector {
	return &Collector{
		rabbitMQ: rabbitMQ,
		config:   collectorConfig,
		output:   output,
		eofs:     make(map[string]int),
	}
}

func (c *Collector) getLogMessage(method string, message string, err error) string {
	if err != nil {
		return fmt.Sprintf("[handler: %s][method: %s][status: ERROR] %s: %s", collectorType, method, message, err.Error())
	}
	return fmt.Sprintf("[handler: %s][method: %s][status: OK] %s", collectorType, method, message)
}

// DeclareExchanges declares the exchange the feature workers publish in and binds an anonymous queue to it
func (c *Collector) DeclareExchanges() error {
	err := c.rabbitMQ.DeclareExchanges([]communication.ExchangeDeclarationConfig{c.config.InputExchange})
	if err != nil {
		return err
	}

	err = c.rabbitMQ.Bind([]string{c.config.InputExchange.Name}, c.config.RoutingKeys)
	if err != nil {
		return err
	}

	log.Info(c.getLogMessage("DeclareExchanges", "exchange declared and bound correctly!", nil))
	return nil
}

// Results returns the amount of feature envelopes written
func (c *Collector) Results() int {
	return c.results
}

// ReceivedEOFs returns the amount of EOF received
func (c *Collector) ReceivedEOFs() int {
	total := 0
	for _, counter := range c.eofs {
		total += counter
	}
	return total
}

// GenerateResponse consumes the results until every expected EOF arrived or the context is done
func (c *Collector) GenerateResponse(ctx context.Context) error {
	consumer, err := c.rabbitMQ.GetConsumerForExchange(c.config.InputExchange.Name)
	if err != nil {
		log.Error(c.getLogMessage("GenerateResponse", "error getting consumer", err))
		return err
	}

	encoder := json.NewEncoder(c.output)
	for {
		select {
		case <-ctx.Done():
			log.Warn(c.getLogMessage("GenerateResponse", fmt.Sprintf("stopped with %d of %d EOF received", c.ReceivedEOFs(), c.config.ExpectedEOFs), nil))
			return ctx.Err()
		case message, ok := <-consumer:
			if !ok {
				return fmt.Errorf("consumer of exchange %s closed", c.config.InputExchange.Name)
			}

			if err = c.handleMessage(encoder, message.Body); err != nil {
				log.Error(c.getLogMessage("GenerateResponse", "error handling message", err))
				continue
			}

			if c.ReceivedEOFs() >= c.config.ExpectedEOFs {
				log.Info(c.getLogMessage("GenerateResponse", fmt.Sprintf("all workers finished, %d results collected", c.results), nil))
				return nil
			}
		}
	}
}

func (c *Collector) handleMessage(encoder *json.Encoder, body []byte) error {
	var batch []envelope.FeatureEnvelope
	if err := json.Unmarshal(body, &batch); err != nil {
		return fmt.Errorf("error unmarshalling results: %w", err)
	}

	for idx := range batch {
		metadata := batch[idx].Metadata
		if eof.IsEOF(metadata) {
			c.eofs[metadata.GetMessage()] += 1
			log.Debug(c.getLogMessage("handleMessage", fmt.Sprintf("EOF received: %s", metadata.GetMessage()), nil))
			continue
		}

		if err := encoder.Encode(batch[idx]); err != nil {
			return fmt.Errorf("error writing result %s: %w", metadata.GetRequestID(), err)
		}
		c.results++
	}
	return nil
}

func (c *Collector) Kill() error {
	return c.rabbitMQ.KillBadBunny()
}
