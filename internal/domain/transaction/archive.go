package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Archive is the query-side mirror of the transaction log, fed
// asynchronously from the event stream. It serves audit queries that
// would otherwise scan the hot authoritative table; it is never
// consulted for balance decisions.
type Archive interface {
	// Insert stores a posted transaction, ignoring a duplicate of one
	// already archived so event redelivery stays harmless.
	Insert(ctx context.Context, t *Transaction) error

	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	GetByTimeRange(ctx context.Context, from, to time.Time, limit, offset int) ([]*Transaction, error)
	CountByWallet(ctx context.Context, walletID uuid.UUID) (int64, error)
}
