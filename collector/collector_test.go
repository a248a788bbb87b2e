package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"bikedest/communication"
	"bikedest/domain/entities/envelope"
	"bikedest/domain/entities/eof"
	"bikedest/domain/entities/features"
)

type fakeBroker struct {
	deliveries chan amqp.Delivery
	bound      map[string][]string
}

func newFakeBroker(bodies ...[]byte) *fakeBroker {
	deliveries := make(chan amqp.Delivery, len(bodies))
	for _, body := range bodies {
		deliveries <- amqp.Delivery{Body: body}
	}
	return &fakeBroker{deliveries: deliveries, bound: make(map[string][]string)}
}

func (fb *fakeBroker) DeclareExchanges([]communication.ExchangeDeclarationConfig) error {
	return nil
}

func (fb *fakeBroker) Bind(inputExchanges []string, routingKeys []string) error {
	for _, exchange := range inputExchanges {
		fb.bound[exchange] = routingKeys
	}
	return nil
}

func (fb *fakeBroker) GetConsumerForExchange(string) (<-chan amqp.Delivery, error) {
	return fb.deliveries, nil
}

func (fb *fakeBroker) KillBadBunny() error {
	return nil
}

func featureBatch(t *testing.T, requestIDs ...string) []byte {
	t.Helper()
	vector, err := features.NewFeatureVector([]string{"hour", "month"}, []float64{8, 3})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	batch := make([]envelope.FeatureEnvelope, 0, len(requestIDs))
	for _, requestID := range requestIDs {
		batch = append(batch, envelope.NewFeatureEnvelope(requestID, "feature-worker", features.VariantNone, vector))
	}
	body, err := json.Marshal(batch)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	return body
}

func eofMessage(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal([]*eof.EOFData{eof.NewEOF("feature-worker", "eof.features.none")})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	return body
}

func testConfig(expectedEOFs int) *CollectorConfig {
	return &CollectorConfig{
		InputExchange: communication.ExchangeDeclarationConfig{Name: "features-topic", Type: "topic"},
		RoutingKeys:   []string{"features.#", "eof.features.#"},
		ExpectedEOFs:  expectedEOFs,
	}
}

func TestGenerateResponse(t *testing.T) {
	rabbit := newFakeBroker(
		featureBatch(t, "req-1", "req-2"),
		eofMessage(t),
		[]byte("not a batch"),
		featureBatch(t, "req-3"),
		eofMessage(t),
	)
	var output bytes.Buffer
	collector := NewCollector(testConfig(2), rabbit, &output)

	if err := collector.DeclareExchanges(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(rabbit.bound["features-topic"]) != 2 {
		t.Errorf("Expected the routing keys to be bound, got %v", rabbit.bound)
	}

	if err := collector.GenerateResponse(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if collector.Results() != 3 || collector.ReceivedEOFs() != 2 {
		t.Errorf("Expected 3 results and 2 EOF, got %d and %d", collector.Results(), collector.ReceivedEOFs())
	}

	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d: %s", len(lines), output.String())
	}
	var last envelope.FeatureEnvelope
	if err := json.Unmarshal([]byte(lines[2]), &last); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if last.Metadata.RequestID != "req-3" {
		t.Errorf("Expected req-3, got %s", last.Metadata.RequestID)
	}
	if value, ok := last.Features.Get("month"); !ok || value != 3 {
		t.Errorf("Expected month 3, got %v", value)
	}
}

func TestGenerateResponseContextDone(t *testing.T) {
	rabbit := newFakeBroker(featureBatch(t, "req-1"))
	collector := NewCollector(testConfig(1), rabbit, &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := collector.GenerateResponse(ctx); err == nil {
		t.Error("Expected an error once the context is done")
	}
}

func TestParseCollectorConfig(t *testing.T) {
	collectorConfig, err := ParseCollectorConfig([]byte("input_exchange:\n  name: results\n  type: topic\nrouting_keys: [\"features.#\"]\n"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if collectorConfig.ExpectedEOFs != 1 || collectorConfig.OutputPath != defaultOutputPath {
		t.Errorf("Unexpected defaults %+v", collectorConfig)
	}

	if _, err = ParseCollectorConfig([]byte("routing_keys: []\n")); err == nil {
		t.Error("Expected an error without routing keys")
	}
}
