package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// MessagePublisher publishes ledger events to a primary topic. Keys
// carry the wallet id so per-wallet ordering survives partitioning.
type MessagePublisher interface {
	Publish(ctx context.Context, key string, value any) error
	Close() error
}

// DeadLetterPublisher parks events that redelivery can never fix,
// preserving the original payload for inspection.
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalValue []byte, reason string) error
	Close() error
}

// KafkaWriter is the slice of kafka.Writer the producers depend on,
// kept narrow so tests can substitute a mock.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
