// Package archiver mirrors posted-transaction events into the MongoDB
// archive, the query-side copy of the authoritative transaction log.
package archiver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/credits-ledger/internal/domain/transaction"
)

// Archiver consumes transaction events and writes them to the archive.
type Archiver struct {
	archive transaction.Archive
	logger  *slog.Logger
}

// NewArchiver creates a new archiver
func NewArchiver(logger *slog.Logger, archive transaction.Archive) *Archiver {
	return &Archiver{
		archive: archive,
		logger:  logger,
	}
}

// HandleMessage processes one transaction event from Kafka. Insert is
// idempotent on transaction id, so at-least-once delivery is safe.
func (a *Archiver) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var t transaction.Transaction
	if err := json.Unmarshal(value, &t); err != nil {
		a.logger.Error("Failed to unmarshal transaction event",
			"error", err,
			"message_key", string(key),
		)
		// A malformed event will never parse on redelivery either.
		return nil
	}

	if err := a.archive.Insert(ctx, &t); err != nil {
		return fmt.Errorf("failed to archive transaction %s: %w", t.ID.String(), err)
	}

	a.logger.Debug("Transaction archived",
		"transaction_id", t.ID.String(),
		"wallet_id", t.WalletID.String(),
	)
	return nil
}
