package transaction

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrLedgerDrift means a record's balance snapshots disagree with its
	// signed amount. It indicates a store bug and is never surfaced to
	// callers as a validation failure.
	ErrLedgerDrift = errors.New("ledger drift: balance delta does not match signed amount")

	ErrAlreadyReversed = errors.New("transaction already reversed")
	ErrNotReversible   = errors.New("only completed transactions can be reversed")
)

// Kind classifies the balance-affecting event a transaction records.
type Kind string

const (
	KindEarn        Kind = "earn"
	KindSpend       Kind = "spend"
	KindTransferOut Kind = "transfer_out"
	KindTransferIn  Kind = "transfer_in"
	KindPurchase    Kind = "purchase"
	KindBonus       Kind = "bonus"
	KindAdminCredit Kind = "admin_credit"
	KindAdminDebit  Kind = "admin_debit"
	KindReversal    Kind = "reversal"
)

// IsCredit reports whether the kind increases the wallet balance.
// KindReversal takes its direction from the transaction it inverts, so
// it is not classified here.
func (k Kind) IsCredit() bool {
	switch k {
	case KindEarn, KindBonus, KindAdminCredit, KindTransferIn:
		return true
	}
	return false
}

// IsDebit reports whether the kind decreases the wallet balance.
func (k Kind) IsDebit() bool {
	switch k {
	case KindSpend, KindPurchase, KindAdminDebit, KindTransferOut:
		return true
	}
	return false
}

// CountsAsEarning reports whether the kind bumps the wallet's lifetime
// total_earned counter. Transfers and reversals move credits around
// without counting as new earnings.
func (k Kind) CountsAsEarning() bool {
	switch k {
	case KindEarn, KindBonus, KindAdminCredit:
		return true
	}
	return false
}

// CountsAsSpending reports whether the kind bumps total_spent.
func (k Kind) CountsAsSpending() bool {
	switch k {
	case KindSpend, KindPurchase, KindAdminDebit:
		return true
	}
	return false
}

func (k Kind) Valid() bool {
	switch k {
	case KindEarn, KindSpend, KindTransferOut, KindTransferIn,
		KindPurchase, KindBonus, KindAdminCredit, KindAdminDebit, KindReversal:
		return true
	}
	return false
}

// Status describes the lifecycle of a transaction record. Operations
// post directly to completed or failed; there is no externally visible
// pending state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusReversed  Status = "reversed"
)

// Transaction is an immutable record of one balance-affecting event.
// Once posted, the only mutation ever applied is setting the reversal
// marker, exactly once.
type Transaction struct {
	ID            uuid.UUID       `json:"id"`
	WalletID      uuid.UUID       `json:"wallet_id"`
	Kind          Kind            `json:"kind"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Status        Status          `json:"status"`

	// RelatedWalletID is the counterparty of a transfer.
	RelatedWalletID *uuid.UUID `json:"related_wallet_id,omitempty"`

	ReferenceID   string         `json:"reference_id,omitempty"`
	ReferenceType string         `json:"reference_type,omitempty"`
	Description   string         `json:"description"`
	Metadata      map[string]any `json:"metadata,omitempty"`

	IsReversed bool       `json:"is_reversed"`
	ReversedBy *uuid.UUID `json:"reversed_by,omitempty"`

	// CreatedBy records the acting admin for admin kinds and reversals.
	CreatedBy *uuid.UUID `json:"created_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// credited reports whether this record increased the wallet balance,
// derived from the snapshots rather than the kind so reversals are
// handled uniformly.
func (t *Transaction) credited() bool {
	return t.BalanceAfter.GreaterThanOrEqual(t.BalanceBefore)
}

// SignedAmount returns the amount with the sign of its effect on the
// wallet balance.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.credited() {
		return t.Amount
	}
	return t.Amount.Neg()
}

// VerifyDelta enforces the recorder invariant: balance_after minus
// balance_before must equal the signed amount. A violation is
// ErrLedgerDrift and must be treated as fatal by the caller.
func (t *Transaction) VerifyDelta() error {
	if !t.BalanceAfter.Sub(t.BalanceBefore).Equal(t.SignedAmount()) {
		return ErrLedgerDrift
	}
	return nil
}

// CanReverse reports whether the record is eligible for reversal.
func (t *Transaction) CanReverse() error {
	if t.IsReversed {
		return ErrAlreadyReversed
	}
	if t.Status != StatusCompleted {
		return ErrNotReversible
	}
	return nil
}
