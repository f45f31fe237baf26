package wallet

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines wallet persistence operations
type Repository interface {
	Create(ctx context.Context, w *Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*Wallet, error)
	GetByUserID(ctx context.Context, userID string) (*Wallet, error)

	// LockForUpdate acquires an exclusive row lock on the wallet for the
	// duration of the enclosing transaction. All balance mutations must
	// happen while this lock is held.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Wallet, error)

	// UpdateBalance persists balance and lifetime counters. Only legal
	// while holding the wallet's row lock.
	UpdateBalance(ctx context.Context, w *Wallet) error

	SetFrozen(ctx context.Context, id uuid.UUID, frozen bool) error

	// TopEarners ranks wallets by total_earned descending, ties broken by
	// wallet id ascending for deterministic ordering.
	TopEarners(ctx context.Context, limit int) ([]*Summary, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrWalletNotFound indicates a missing wallet
type ErrWalletNotFound struct {
	WalletID uuid.UUID
}

func (e ErrWalletNotFound) Error() string {
	return "wallet not found: " + e.WalletID.String()
}

// Is implements the errors.Is interface for ErrWalletNotFound
func (e ErrWalletNotFound) Is(target error) bool {
	t, ok := target.(ErrWalletNotFound)
	if !ok {
		return false
	}
	if t.WalletID == uuid.Nil {
		return true
	}
	return e.WalletID == t.WalletID
}
