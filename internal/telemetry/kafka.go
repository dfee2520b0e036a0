package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ps-vitor/car-comparator/internal/domain"
	"github.com/ps-vitor/car-comparator/pkg/logger"
)

const DefaultTopic = "carsearch.search.history"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes entries as JSON, keyed by client so one client's searches
// stay ordered on a partition. Writes are async: Record only reports encoding
// errors, delivery failures are logged when the batch completes.
type Kafka struct {
	w   messageWriter
	log *logger.Logger
}

func NewKafka(broker, topic string, log *logger.Logger) *Kafka {
	if topic == "" {
		topic = DefaultTopic
	}
	if log == nil {
		log = logger.Discard()
	}
	k := &Kafka{log: log}
	k.w = &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion:   k.completed,
	}
	return k
}

// completed runs on the writer's goroutine after each batch.
func (k *Kafka) completed(msgs []kafka.Message, err error) {
	if err == nil {
		return
	}
	k.log.Errorf("telemetry: %d search history events not published: %v", len(msgs), err)
}

func (k *Kafka) Record(ctx context.Context, e domain.SearchTelemetryEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return domain.InternalStoreError("encode telemetry", err)
	}
	msg := kafka.Message{
		Key:   []byte(e.ClientIdentity),
		Value: data,
		Time:  e.Timestamp,
	}
	if err := k.w.WriteMessages(ctx, msg); err != nil {
		return domain.InternalStoreError("publish telemetry", err)
	}
	return nil
}

// Close flushes pending messages.
func (k *Kafka) Close() error { return k.w.Close() }
