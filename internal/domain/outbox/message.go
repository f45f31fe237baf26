package outbox

import (
	"encoding/json"
	"time"

	"github.com/credits-ledger/internal/domain/transaction"
	"github.com/google/uuid"
)

// Status defines message publishing states
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusProcessed       Status = "PROCESSED"
	StatusFailedToPublish Status = "FAILED_TO_PUBLISH"
)

// Message stores a posted transaction for reliable event publishing.
// Rows are appended in the same database transaction as the ledger
// write, so the event stream never references an uncommitted record.
type Message struct {
	ID            int64           `json:"id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	WalletID      uuid.UUID       `json:"wallet_id"`
	Payload       json.RawMessage `json:"payload"`
	Status        Status          `json:"status"`
	Attempts      int             `json:"attempts"`
	CreatedAt     time.Time       `json:"created_at"`
	LastAttemptAt *time.Time      `json:"last_attempt_at,omitempty"`
}

// NewMessage wraps a posted transaction as a pending outbox row.
func NewMessage(t *transaction.Transaction) (*Message, error) {
	payload, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}

	return &Message{
		TransactionID: t.ID,
		WalletID:      t.WalletID,
		Payload:       payload,
		Status:        StatusPending,
		Attempts:      0,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// Transaction extracts the posted transaction from the payload.
func (m *Message) Transaction() (*transaction.Transaction, error) {
	var t transaction.Transaction
	if err := json.Unmarshal(m.Payload, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
