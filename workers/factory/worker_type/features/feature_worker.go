package features

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"bikedest/classifier"
	"bikedest/communication"
	"bikedest/domain/business/pipeline"
	"bikedest/domain/business/riders"
	"bikedest/domain/entities/envelope"
	"bikedest/domain/entities/eof"
	"bikedest/domain/entities/trip"
	"bikedest/workers/factory/worker_type/features/config"
)

const (
	workerType         = "feature-worker"
	scoringConcurrency = 4
)

var ErrInvalidBatch = errors.New("invalid batch of trip requests")

// broker subset of communication.RabbitMQ used by the worker
type broker interface {
	DeclareNonAnonymousQueues(queuesConfig []communication.QueueDeclarationConfig) error
	DeclareExchanges(exchangesConfig []communication.ExchangeDeclarationConfig) error
	GetQueueConsumer(queueName string, consumptionConfig communication.ConsumptionConfig) (<-chan amqp.Delivery, error)
	PublishMessageInExchange(ctx context.Context, exchange string, routingKey string, message []byte, contentType string) error
	KillBadBunny() error
}

// FeatureWorker consumes batches of trip requests, transforms them into feature vectors and publishes
// the vectors, scored by the classifier when one is configured
type FeatureWorker struct {
	rabbitMQ   broker
	config     *config.FeatureWorkerConfig
	pipeline   *pipeline.Pipeline
	catalogue  *riders.Catalogue
	classifier classifier.Classifier
}

func NewFeatureWorker(
	workerConfig *config.FeatureWorkerConfig,
	rabbitMQ broker,
	featurePipeline *pipeline.Pipeline,
	catalogue *riders.Catalogue,
	scorer classifier.Classifier,
) *FeatureWorker {
	return &FeatureWorker{
		rabbitMQ:   rabbitMQ,
		config:     workerConfig,
		pipeline:   featurePipeline,
		catalogue:  catalogue,
		classifier: scorer,
	}
}

func (fw *FeatureWorker) getLogMessage(method string, message string, err error) string {
	if err != nil {
		return fmt.Sprintf("[worker: %s][workerID: %v][method: %s][status: ERROR] %s: %s", workerType, fw.GetID(), method, message, err.Error())
	}
	return fmt.Sprintf("[worker: %s][workerID: %v][method: %s][status: OK] %s", workerType, fw.GetID(), method, message)
}

func (fw *FeatureWorker) GetID() int {
	return fw.config.ID
}

func (fw *FeatureWorker) GetType() string {
	return workerType
}

// GetRoutingKey returns the routing key of the output batches: prefix.variant.workerID
func (fw *FeatureWorker) GetRoutingKey() string {
	return fmt.Sprintf("%s.%s.%v", fw.config.OutputRoutingPrefix, fw.pipeline.Variant(), fw.GetID())
}

// GetEOFString returns the message of the EOF forwarded when the stream ends
func (fw *FeatureWorker) GetEOFString() string {
	return fmt.Sprintf("eof.%s.%s", fw.config.OutputRoutingPrefix, fw.pipeline.Variant())
}

// DeclareQueues declares the input queue of the worker
func (fw *FeatureWorker) DeclareQueues() error {
	err := fw.rabbitMQ.DeclareNonAnonymousQueues([]communication.QueueDeclarationConfig{fw.config.InputQueueConfig})
	if err != nil {
		log.Error(fw.getLogMessage("DeclareQueues", "error declaring queues", err))
		return err
	}

	log.Info(fw.getLogMessage("DeclareQueues", "queues declared correctly!", nil))
	return nil
}

// DeclareExchanges declares the output exchange of the worker
func (fw *FeatureWorker) DeclareExchanges() error {
	err := fw.rabbitMQ.DeclareExchanges([]communication.ExchangeDeclarationConfig{fw.config.OutputExchange})
	if err != nil {
		log.Error(fw.getLogMessage("DeclareExchanges", "error declaring exchanges", err))
		return err
	}

	log.Info(fw.getLogMessage("DeclareExchanges", "exchanges declared correctly!", nil))
	return nil
}

// ProcessInputMessages consumes the input queue until an EOF is received or the context is done.
// Each message is a JSON array of trip envelopes and produces one JSON array of feature envelopes
func (fw *FeatureWorker) ProcessInputMessages(ctx context.Context) error {
	consumer, err := fw.rabbitMQ.GetQueueConsumer(fw.config.InputQueueConfig.Name, fw.config.ConsumptionConfig)
	if err != nil {
		log.Error(fw.getLogMessage("ProcessInputMessages", "error getting consumer", err))
		return err
	}

	log.Info(fw.getLogMessage("ProcessInputMessages", "start consuming messages", nil))

	for {
		select {
		case <-ctx.Done():
			log.Info(fw.getLogMessage("ProcessInputMessages", "context done, stop consuming", nil))
			return ctx.Err()
		case message, ok := <-consumer:
			if !ok {
				log.Info(fw.getLogMessage("ProcessInputMessages", "consumer closed", nil))
				return nil
			}

			eofReceived, err := fw.handleMessage(ctx, message.Body)
			fw.acknowledge(message, err)
			if err != nil && !errors.Is(err, ErrInvalidBatch) {
				return err
			}

			if eofReceived {
				log.Info(fw.getLogMessage("ProcessInputMessages", "EOF received, every request was processed", nil))
				return fw.sendEOF(ctx)
			}
		}
	}
}

func (fw *FeatureWorker) acknowledge(message amqp.Delivery, processingErr error) {
	if fw.config.ConsumptionConfig.AutoACK {
		return
	}

	var err error
	if processingErr != nil && errors.Is(processingErr, ErrInvalidBatch) {
		// a malformed batch is never going to be valid, it is not requeued
		err = message.Nack(false, false)
	} else {
		err = message.Ack(false)
	}

	if err != nil {
		log.Error(fw.getLogMessage("acknowledge", "error acknowledging message", err))
	}
}

// handleMessage processes one batch. Returns true if the batch contained an EOF: the requests before
// the EOF are processed and published, the rest of the batch is ignored
func (fw *FeatureWorker) handleMessage(ctx context.Context, body []byte) (bool, error) {
	var batch []envelope.TripEnvelope
	if err := json.Unmarshal(body, &batch); err != nil {
		log.Error(fw.getLogMessage("handleMessage", "error unmarshalling batch", err))
		return false, fmt.Errorf("%w: %s", ErrInvalidBatch, err.Error())
	}

	eofReceived := false
	var toProcess []envelope.TripEnvelope
	for idx := range batch {
		if eof.IsEOF(batch[idx].GetMetadata()) {
			eofReceived = true
			break
		}
		toProcess = append(toProcess, batch[idx])
	}

	results, err := fw.ProcessBatch(ctx, toProcess)
	if err != nil {
		return eofReceived, err
	}

	return eofReceived, fw.sendBatch(ctx, results)
}

// ProcessBatch transforms the requests of the batch, in the same order
func (fw *FeatureWorker) ProcessBatch(ctx context.Context, batch []envelope.TripEnvelope) ([]envelope.FeatureEnvelope, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	requests := make([]trip.TripRequest, len(batch))
	for idx := range batch {
		requests[idx] = fw.catalogue.Complete(batch[idx].Request)
	}

	vectors, err := fw.pipeline.TransformBatch(ctx, requests)
	if err != nil {
		log.Error(fw.getLogMessage("ProcessBatch", "error transforming batch", err))
		return nil, err
	}

	results := make([]envelope.FeatureEnvelope, len(batch))
	for idx := range batch {
		results[idx] = envelope.NewFeatureEnvelope(batch[idx].Metadata.GetRequestID(), workerType, fw.pipeline.Variant(), vectors[idx])
	}

	if fw.classifier != nil {
		fw.score(ctx, results)
	}

	log.Debug(fw.getLogMessage("ProcessBatch", fmt.Sprintf("%d requests transformed", len(results)), nil))
	return results, nil
}

// score adds the classifier result to every envelope. A failed prediction only leaves its envelope unscored
func (fw *FeatureWorker) score(ctx context.Context, results []envelope.FeatureEnvelope) {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(scoringConcurrency)

	for idx := range results {
		idx := idx
		group.Go(func() error {
			prediction, err := fw.classifier.PredictProba(groupCtx, results[idx].Features.Values())
			if err != nil {
				log.Warn(fw.getLogMessage("score", fmt.Sprintf("request %s not scored", results[idx].Metadata.GetRequestID()), err))
				return nil
			}
			results[idx] = results[idx].WithPrediction(prediction, fw.config.TopK)
			return nil
		})
	}
	_ = group.Wait()
}

func (fw *FeatureWorker) sendBatch(ctx context.Context, results []envelope.FeatureEnvelope) error {
	if len(results) == 0 {
		log.Debug(fw.getLogMessage("sendBatch", "nothing to send", nil))
		return nil
	}

	dataToSend, err := json.Marshal(results)
	if err != nil {
		log.Error(fw.getLogMessage("sendBatch", "error marshalling batch", err))
		return err
	}

	publishCtx, cancel := context.WithTimeout(ctx, fw.config.PublishTimeout)
	defer cancel()

	exchangeName := fw.config.OutputExchange.Name
	routingKey := fw.GetRoutingKey()
	err = fw.rabbitMQ.PublishMessageInExchange(publishCtx, exchangeName, routingKey, dataToSend, communication.ContentTypeJSON)
	if err != nil {
		log.Error(fw.getLogMessage("sendBatch", fmt.Sprintf("error publishing in exchange %s", exchangeName), err))
		return err
	}

	log.Debug(fw.getLogMessage("sendBatch", fmt.Sprintf("batch of %d sent with routing key %s", len(results), routingKey), nil))
	return nil
}

func (fw *FeatureWorker) sendEOF(ctx context.Context) error {
	eofMessage := fw.GetEOFString()
	eofData, err := json.Marshal([]*eof.EOFData{eof.NewEOF(workerType, eofMessage)})
	if err != nil {
		return fmt.Errorf("error marshalling EOF message: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, fw.config.PublishTimeout)
	defer cancel()

	err = fw.rabbitMQ.PublishMessageInExchange(publishCtx, fw.config.OutputExchange.Name, eofMessage, eofData, communication.ContentTypeJSON)
	if err != nil {
		log.Error(fw.getLogMessage("sendEOF", fmt.Sprintf("error sending EOF message: %s", eofMessage), err))
		return err
	}

	log.Info(fw.getLogMessage("sendEOF", fmt.Sprintf("EOF sent: %s", eofMessage), nil))
	return nil
}

func (fw *FeatureWorker) Kill() error {
	return fw.rabbitMQ.KillBadBunny()
}
