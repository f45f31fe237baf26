package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/credits-ledger/internal/platform/messaging/producers"
)

// EventHandler handles incoming activity event messages from Kafka
type EventHandler struct {
	awardService AwardService
	producer     producers.DeadLetterPublisher
	logger       *slog.Logger
}

// NewEventHandler creates a new handler
func NewEventHandler(
	logger *slog.Logger,
	awardService AwardService,
	producer producers.DeadLetterPublisher,
) *EventHandler {
	return &EventHandler{
		awardService: awardService,
		producer:     producer,
		logger:       logger,
	}
}

// HandleMessage processes one Kafka message. Malformed events go to the
// DLQ and commit; transient processing failures return an error so the
// message is redelivered.
func (h *EventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event Event
	if err := json.Unmarshal(value, &event); err != nil {
		return h.parkUnprocessable(ctx, key, value, fmt.Errorf("failed to unmarshal activity event: %w", err))
	}
	if err := event.Validate(); err != nil {
		return h.parkUnprocessable(ctx, key, value, err)
	}

	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Received activity event",
		"user_id", event.UserID,
		"activity", event.Activity,
	)

	if err := h.awardService.ProcessEvent(ctx, &event); err != nil {
		logger.Error("Failed to process activity event",
			"user_id", event.UserID,
			"activity", event.Activity,
			"error", err,
		)
		return fmt.Errorf("processing activity event for user %s failed: %w", event.UserID, err)
	}

	return nil // Success, commit offset
}

// parkUnprocessable routes a permanently bad message to the DLQ. If the
// DLQ is unavailable the original error is returned and Kafka retries.
func (h *EventHandler) parkUnprocessable(ctx context.Context, key, value []byte, cause error) error {
	h.logger.Error("Unprocessable activity event",
		"error", cause,
		"message_key", string(key),
	)

	if h.producer != nil {
		if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, cause.Error()); dlqErr != nil {
			h.logger.Error("Failed to publish message to DLQ",
				"dlq_error", dlqErr,
				"original_error", cause,
				"message_key", string(key),
			)
		} else {
			return nil // Message parked, commit offset
		}
	}
	return cause
}
