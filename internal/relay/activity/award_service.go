package activity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/credits-ledger/internal/domain/earning"
	"github.com/credits-ledger/internal/domain/transaction"
)

// AwardService turns activity events into ledger awards.
type AwardService interface {
	ProcessEvent(ctx context.Context, event *Event) error
	Shutdown()
}

// Awarder is the slice of the core ledger the award service needs.
type Awarder interface {
	AwardForActivity(ctx context.Context, userID, activity string, facts earning.Context) (*transaction.Transaction, error)
}

// AwardServiceImpl is the base implementation, evaluating and posting
// one event synchronously.
type AwardServiceImpl struct {
	ledger Awarder
	logger *slog.Logger
}

// NewAwardService creates the base award service
func NewAwardService(logger *slog.Logger, ledger Awarder) *AwardServiceImpl {
	return &AwardServiceImpl{
		ledger: ledger,
		logger: logger,
	}
}

// ProcessEvent runs the event through rule evaluation. An ineligible
// event is a success: the offset commits and nothing posts.
func (s *AwardServiceImpl) ProcessEvent(ctx context.Context, event *Event) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	posted, err := s.ledger.AwardForActivity(ctx, event.UserID, event.Activity, event.Context)
	if err != nil {
		return fmt.Errorf("failed to process activity %q for user %s: %w", event.Activity, event.UserID, err)
	}

	if posted == nil {
		logger.Debug("Activity event produced no award",
			"user_id", event.UserID,
			"activity", event.Activity,
		)
		return nil
	}

	logger.Info("Activity event awarded",
		"user_id", event.UserID,
		"activity", event.Activity,
		"transaction_id", posted.ID.String(),
		"amount", posted.Amount.String(),
	)
	return nil
}

// Shutdown is a no-op for the base service.
func (s *AwardServiceImpl) Shutdown() {}
