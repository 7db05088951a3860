// Package kafka publishes JSON events about finished corpora.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/resilience"
)

const (
	headerEventType   = "event-type"
	headerContentType = "content-type"
	contentTypeJSON   = "application/json"
)

// Event is one announcement. Key selects the partition, Type goes into the
// event-type header and Value is encoded as JSON.
type Event struct {
	Type  string
	Key   string
	Value any
}

// MessageWriter is the part of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer MessageWriter
	policy resilience.Policy
	logger *slog.Logger
}

// NewProducer writes synchronously to topic on cfg.Brokers, waiting for all
// in-sync replicas. Retries are done by Publish, not by the writer.
func NewProducer(cfg config.KafkaConfig, topic string) *Producer {
	return NewProducerWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  1,
		RequiredAcks: kafka.RequireAll,
	}, topic)
}

func NewProducerWithWriter(w MessageWriter, topic string) *Producer {
	return &Producer{
		writer: w,
		policy: resilience.DefaultPolicy,
		logger: slog.Default().With("component", "kafka-producer", "topic", topic),
	}
}

// Publish encodes event and writes it, retrying errors the broker reports as
// temporary.
func (p *Producer) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event.Value)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event.Type, err)
	}
	msg := kafka.Message{
		Key:   []byte(event.Key),
		Value: value,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(event.Type)},
			{Key: headerContentType, Value: []byte(contentTypeJSON)},
		},
		Time: time.Now().UTC(),
	}

	err = resilience.Do(ctx, "publish "+event.Type, p.policy, func(ctx context.Context) error {
		return classify(p.writer.WriteMessages(ctx, msg))
	})
	if err != nil {
		p.logger.Error("publish failed", "type", event.Type, "key", event.Key, "error", err)
		return err
	}
	p.logger.Debug("event published", "type", event.Type, "key", event.Key, "bytes", len(value))
	return nil
}

// classify marks broker errors that will not clear on retry as permanent.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var tooLarge kafka.MessageTooLargeError
	if errors.As(err, &tooLarge) {
		return resilience.Permanent(err)
	}
	var kerr kafka.Error
	if errors.As(err, &kerr) && !kerr.Temporary() {
		return resilience.Permanent(err)
	}
	return err
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// Ping succeeds when at least one of brokers accepts a connection.
func Ping(ctx context.Context, brokers []string) error {
	if len(brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	var errs []error
	for _, b := range brokers {
		conn, err := kafka.DialContext(ctx, "tcp", b)
		if err != nil {
			errs = append(errs, fmt.Errorf("dialing %s: %w", b, err))
			continue
		}
		return conn.Close()
	}
	return errors.Join(errs...)
}
