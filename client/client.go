package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"bikedest/communication"
	"bikedest/domain/entities/envelope"
	"bikedest/domain/entities/eof"
	"bikedest/domain/entities/trip"
)

const maxLineBytes = 1 << 20

var ErrInvalidTripRequest = errors.New("invalid trip request")

type ClientConfig struct {
	BatchSize      int           `yaml:"batch_size" validate:"gt=0"`
	InputQueue     string        `yaml:"input_queue" validate:"required"`
	Stage          string        `yaml:"stage" validate:"required"`
	EOFMessage     string        `yaml:"eof_message" validate:"required"`
	PublishTimeout time.Duration `yaml:"publish_timeout"`
	RiderLimit     int           `yaml:"rider_limit" validate:"gte=0"`
	FeatureWorkers int           `yaml:"feature_workers" validate:"gte=0"`
	RabbitURL      string        `yaml:"-"`
}

type publisher interface {
	DeclareNonAnonymousQueues(queuesConfig []communication.QueueDeclarationConfig) error
	PublishMessageInQueue(ctx context.Context, queueName string, message []byte, contentType string) error
}

type Client struct {
	config    ClientConfig
	publisher publisher
	newID     func() string
}

func NewClient(clientConfig ClientConfig, p publisher) *Client {
	return &Client{
		config:    clientConfig,
		publisher: p,
		newID:     uuid.NewString,
	}
}

// SendSummary result of a send
// + Sent: trip requests published
// + Skipped: lines that could not be parsed
// + Batches: messages published, EOF excluded
type SendSummary struct {
	Sent    int
	Skipped int
	Batches int
}

// eofCopies every feature worker stops on the first EOF it reads, so each one needs its own copy
func (c *Client) eofCopies() int {
	if c.config.FeatureWorkers < 1 {
		return 1
	}
	return c.config.FeatureWorkers
}

// DeclareQueues declares the queue the feature workers consume
func (c *Client) DeclareQueues() error {
	return c.publisher.DeclareNonAnonymousQueues([]communication.QueueDeclarationConfig{
		{Name: c.config.InputQueue, Durable: true},
	})
}

// SendTripRequests reads JSON-lines trip requests and publishes them in batches. Blank lines are
// ignored and invalid lines are skipped. The stream always ends with one EOF message per feature worker
func (c *Client) SendTripRequests(ctx context.Context, reader io.Reader) (SendSummary, error) {
	var summary SendSummary
	batch := make([]envelope.TripEnvelope, 0, c.config.BatchSize)

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		request, err := parseTripRequest(line)
		if err != nil {
			log.Warnf("[client][method: SendTripRequests][status: WARNING] line %d skipped: %s", lineNumber, err.Error())
			summary.Skipped++
			continue
		}

		batch = append(batch, envelope.NewTripEnvelope(c.newID(), c.config.Stage, request))
		if len(batch) == c.config.BatchSize {
			if err = c.publish(ctx, batch); err != nil {
				return summary, err
			}
			summary.Sent += len(batch)
			summary.Batches++
			batch = batch[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("error reading trip requests: %w", err)
	}

	if len(batch) > 0 {
		if err := c.publish(ctx, batch); err != nil {
			return summary, err
		}
		summary.Sent += len(batch)
		summary.Batches++
	}

	if err := c.sendEOF(ctx); err != nil {
		return summary, err
	}

	log.Infof("[client][method: SendTripRequests][status: OK] %d requests sent in %d batches, %d lines skipped", summary.Sent, summary.Batches, summary.Skipped)
	return summary, nil
}

func parseTripRequest(line string) (trip.TripRequest, error) {
	var request trip.TripRequest
	if err := json.Unmarshal([]byte(line), &request); err != nil {
		return trip.TripRequest{}, fmt.Errorf("%w: %s", ErrInvalidTripRequest, err.Error())
	}
	return request, nil
}

func (c *Client) publish(ctx context.Context, batch []envelope.TripEnvelope) error {
	message, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("error marshalling batch: %w", err)
	}
	return c.publishInQueue(ctx, message)
}

func (c *Client) sendEOF(ctx context.Context) error {
	message, err := json.Marshal([]*eof.EOFData{eof.NewEOF(c.config.Stage, c.config.EOFMessage)})
	if err != nil {
		return fmt.Errorf("error marshalling EOF message: %w", err)
	}
	for copyIdx := 0; copyIdx < c.eofCopies(); copyIdx++ {
		if err = c.publishInQueue(ctx, message); err != nil {
			log.Errorf("[client][method: sendEOF][status: ERROR] error sending EOF message: %s", err.Error())
			return err
		}
	}
	log.Debugf("[client][method: sendEOF][status: OK] %d EOF sent: %s", c.eofCopies(), c.config.EOFMessage)
	return nil
}

func (c *Client) publishInQueue(ctx context.Context, message []byte) error {
	publishCtx := ctx
	if c.config.PublishTimeout > 0 {
		var cancel context.CancelFunc
		publishCtx, cancel = context.WithTimeout(ctx, c.config.PublishTimeout)
		defer cancel()
	}

	if err := c.publisher.PublishMessageInQueue(publishCtx, c.config.InputQueue, message, communication.ContentTypeJSON); err != nil {
		return fmt.Errorf("error publishing in queue %s: %w", c.config.InputQueue, err)
	}
	return nil
}
