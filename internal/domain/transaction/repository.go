package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Filter narrows transaction listings. Zero values mean "no filter".
type Filter struct {
	Kind Kind
	From time.Time
	To   time.Time
}

// Repository manages the append-only transaction log. There is no
// update or delete operation on posted records; MarkReversed flips the
// reversal marker and nothing else.
type Repository interface {
	// Create appends a posted record. It rejects a duplicate id and
	// re-verifies the delta invariant before writing.
	Create(ctx context.Context, t *Transaction) error

	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	ListByWallet(ctx context.Context, walletID uuid.UUID, filter Filter, limit, offset int) ([]*Transaction, error)
	CountByWallet(ctx context.Context, walletID uuid.UUID, filter Filter) (int64, error)

	// MarkReversed sets is_reversed and reversed_by on the original
	// record, guarded so it can succeed at most once.
	MarkReversed(ctx context.Context, id uuid.UUID, reversedBy uuid.UUID) error

	// SumSignedAmounts replays a wallet's completed records into the
	// balance they imply. Used for auditing the cached wallet balance;
	// reversal pairs cancel, so the sum must equal the stored balance.
	SumSignedAmounts(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrTransactionNotFound indicates a missing transaction record
type ErrTransactionNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return "transaction not found: " + e.TransactionID.String()
}

// Is implements the errors.Is interface for ErrTransactionNotFound
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}

// ErrDuplicateTransaction indicates an append with an id that was
// already posted
type ErrDuplicateTransaction struct {
	TransactionID uuid.UUID
}

func (e ErrDuplicateTransaction) Error() string {
	return "duplicate transaction: " + e.TransactionID.String()
}

// Is implements the errors.Is interface for ErrDuplicateTransaction
func (e ErrDuplicateTransaction) Is(target error) bool {
	t, ok := target.(ErrDuplicateTransaction)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}
