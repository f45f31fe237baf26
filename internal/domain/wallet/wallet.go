package wallet

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient credit balance")
	ErrWalletInactive      = errors.New("wallet is not active")
	ErrWalletFrozen        = errors.New("wallet is frozen")
	ErrSameWallet          = errors.New("cannot transfer to the same wallet")
	ErrEmptyUserID         = errors.New("user id cannot be empty")
)

// Wallet holds a user's credit balance together with lifetime counters.
// Exactly one wallet exists per user; wallets are never deleted, only
// deactivated or frozen.
type Wallet struct {
	ID          uuid.UUID       `json:"id"`
	UserID      string          `json:"user_id"`
	Balance     decimal.Decimal `json:"balance"`
	TotalEarned decimal.Decimal `json:"total_earned"`
	TotalSpent  decimal.Decimal `json:"total_spent"`
	IsActive    bool            `json:"is_active"`
	IsFrozen    bool            `json:"is_frozen"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewWallet creates an active, unfrozen wallet with a zero balance.
func NewWallet(userID string) (*Wallet, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	now := time.Now().UTC()
	return &Wallet{
		ID:          uuid.New(),
		UserID:      userID,
		Balance:     decimal.Zero,
		TotalEarned: decimal.Zero,
		TotalSpent:  decimal.Zero,
		IsActive:    true,
		IsFrozen:    false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CanTransact reports whether the wallet may participate in a mutating
// operation. Frozen and inactive wallets remain readable.
func (w *Wallet) CanTransact() error {
	if !w.IsActive {
		return ErrWalletInactive
	}
	if w.IsFrozen {
		return ErrWalletFrozen
	}
	return nil
}

// Credit adds the amount to the balance. The caller is responsible for
// having validated wallet state via CanTransact.
func (w *Wallet) Credit(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	w.Balance = w.Balance.Add(amount)
	w.UpdatedAt = time.Now().UTC()
	return nil
}

// Debit subtracts the amount from the balance. The balance is never
// allowed to go negative; the check and the subtraction must happen
// while the wallet row is held under an exclusive lock.
func (w *Wallet) Debit(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if w.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}

	w.Balance = w.Balance.Sub(amount)
	w.UpdatedAt = time.Now().UTC()
	return nil
}

// Summary is a leaderboard row: a wallet ranked by lifetime earnings.
type Summary struct {
	WalletID    uuid.UUID       `json:"wallet_id"`
	UserID      string          `json:"user_id"`
	TotalEarned decimal.Decimal `json:"total_earned"`
	Balance     decimal.Decimal `json:"balance"`
}
