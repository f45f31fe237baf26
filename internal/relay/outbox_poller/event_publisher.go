package outbox_poller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/credits-ledger/internal/domain/outbox"
	"github.com/credits-ledger/internal/domain/transaction"
	"github.com/credits-ledger/internal/platform/messaging/producers"
)

// EventPublisher pushes one outbox message onto the event stream and
// marks it processed.
type EventPublisher interface {
	PublishEvent(ctx context.Context, message *outbox.Message) error
}

// EventPublisherImpl implements EventPublisher on top of a Kafka
// producer.
type EventPublisherImpl struct {
	outboxRepo outbox.Repository
	producer   producers.MessagePublisher
	logger     *slog.Logger
}

// NewEventPublisher creates a new publisher
func NewEventPublisher(
	outboxRepo outbox.Repository,
	producer producers.MessagePublisher,
	logger *slog.Logger,
) EventPublisher {
	return &EventPublisherImpl{
		outboxRepo: outboxRepo,
		producer:   producer,
		logger:     logger,
	}
}

// PublishEvent publishes the posted-transaction payload keyed by wallet
// id, so all events of one wallet land on one partition in posting
// order. A payload that no longer unmarshals is parked as
// FAILED_TO_PUBLISH instead of blocking the stream.
func (p *EventPublisherImpl) PublishEvent(ctx context.Context, message *outbox.Message) error {
	var t transaction.Transaction
	if err := json.Unmarshal(message.Payload, &t); err != nil {
		p.logger.Error("Failed to unmarshal transaction from outbox payload",
			"outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, outbox.StatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error",
				"outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	if err := p.producer.Publish(ctx, message.WalletID.String(), &t); err != nil {
		return fmt.Errorf("failed to publish transaction event for outbox %d: %w", message.ID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, outbox.StatusProcessed); err != nil {
		p.logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err,
		)
		return fmt.Errorf("event for %s published, but failed to mark outbox %d as PROCESSED: %w",
			message.TransactionID, message.ID, err)
	}

	p.logger.Info("Outbox message published and marked as PROCESSED",
		"outbox_id", message.ID, "transaction_id", message.TransactionID)
	return nil
}
