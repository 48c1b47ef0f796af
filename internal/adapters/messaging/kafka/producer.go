package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"judokit/internal/core/domain"
	"judokit/internal/core/ports"
)

var _ ports.MessageBroker = (*Broker)(nil)

type producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
}

// Broker is an implementation of the MessageBroker port for Kafka.
type Broker struct {
	client *kgo.Client
	prod   producer
	topic  string
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewBroker creates a new Kafka broker instance.
func NewBroker(ctx context.Context, bootstrapServers []string, topic string, logger *slog.Logger) (*Broker, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(bootstrapServers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordDeliveryTimeout(10 * time.Second),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to kafka: %w", err)
	}

	return &Broker{
		client: client,
		prod:   client,
		topic:  topic,
		logger: logger,
	}, nil
}

// OutcomeMessage is the JSON value of a record on the outcomes topic.
type OutcomeMessage struct {
	ID                string `json:"id"`
	Type              string `json:"type"`
	Status            string `json:"status"`
	ReceiptID         string `json:"receipt_id,omitempty"`
	JudoID            string `json:"judo_id,omitempty"`
	ConsumerReference string `json:"consumer_reference,omitempty"`
	PaymentReference  string `json:"payment_reference"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency,omitempty"`
	ErrorCode         *int   `json:"error_code,omitempty"`
	Message           string `json:"message,omitempty"`
	CreatedAt         string `json:"created_at"`
}

func encodeOutcome(e domain.JournalEntry) ([]byte, error) {
	msg := OutcomeMessage{
		ID:                e.ID.String(),
		Type:              e.Type.String(),
		Status:            string(e.Status),
		ReceiptID:         e.ReceiptID,
		JudoID:            e.JudoID,
		ConsumerReference: e.ConsumerReference,
		PaymentReference:  e.PaymentReference,
		Amount:            e.Amount.StringFixed(2),
		Currency:          e.Currency,
		Message:           e.Message,
		CreatedAt:         e.CreatedAt.Format(time.RFC3339),
	}
	if e.ErrorCode != nil {
		code := int(*e.ErrorCode)
		msg.ErrorCode = &code
	}
	return json.Marshal(msg)
}

// DecodeOutcome parses a record value written by PublishOutcome.
func DecodeOutcome(value []byte) (OutcomeMessage, error) {
	var msg OutcomeMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return OutcomeMessage{}, fmt.Errorf("failed to decode outcome: %w", err)
	}
	return msg, nil
}

// PublishOutcome publishes a terminal transaction outcome keyed by payment
// reference, so every attempt for one reference lands on one partition.
func (b *Broker) PublishOutcome(ctx context.Context, e domain.JournalEntry) error {
	payload, err := encodeOutcome(e)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}

	record := &kgo.Record{
		Topic: b.topic,
		Key:   []byte(e.PaymentReference),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "status", Value: []byte(e.Status)},
		},
	}

	b.wg.Add(1)
	// Produce sends a record asynchronously.
	b.prod.Produce(ctx, record, func(r *kgo.Record, err error) {
		defer b.wg.Done()
		if err != nil {
			b.logger.Error("failed to deliver outcome to kafka", "topic", r.Topic, "error", err)
			return
		}
		b.logger.Debug("outcome delivered to kafka", "topic", r.Topic, "partition", r.Partition, "offset", r.Offset)
	})

	return nil
}

// Close waits for pending deliveries and stops the producer.
func (b *Broker) Close() {
	b.logger.Info("waiting for kafka deliveries to finish")
	b.wg.Wait()
	if b.client != nil {
		b.client.Close()
	}
	b.logger.Info("kafka client stopped")
}
