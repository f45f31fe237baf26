package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/credits-ledger/internal/domain/transaction"
)

// Reverse undoes a completed transaction by posting a compensating
// record of the opposite direction and flipping the reversal marker on
// the original. The original record is never modified beyond that
// marker, so the audit trail keeps both sides.
//
// Reversing a credit debits the wallet and is subject to the usual
// insufficient-balance check: credits that were already spent cannot be
// clawed back below zero.
func (s *Service) Reverse(ctx context.Context, transactionID uuid.UUID, reason string, actorID *uuid.UUID) (*transaction.Transaction, error) {
	var reversal *transaction.Transaction
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		reversal, err = s.ReverseInTx(ctx, tx, transactionID, reason, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return reversal, nil
}

// ReverseInTx posts the compensating entry inside the caller's
// transaction. Exposed so refunds can bundle the reversal with their
// own bookkeeping in one unit of work.
func (s *Service) ReverseInTx(ctx context.Context, tx pgx.Tx, transactionID uuid.UUID, reason string, actorID *uuid.UUID) (*transaction.Transaction, error) {
	txns := s.txns.WithTx(tx)

	original, err := txns.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if err := original.CanReverse(); err != nil {
		return nil, err
	}

	w, err := s.wallets.WithTx(tx).LockForUpdate(ctx, original.WalletID)
	if err != nil {
		return nil, err
	}

	p := EntryParams{
		WalletID:      original.WalletID,
		Amount:        original.Amount,
		Kind:          transaction.KindReversal,
		Description:   "Reversal of " + string(original.Kind) + " transaction",
		ReferenceID:   original.ID.String(),
		ReferenceType: "reversal",
		ActorID:       actorID,
	}
	if reason != "" {
		p.Metadata = map[string]any{"reason": reason}
	}

	// The compensating entry runs against the direction of the
	// original.
	var reversal *transaction.Transaction
	if original.SignedAmount().Sign() > 0 {
		reversal, err = s.debitLocked(ctx, tx, w, p)
	} else {
		reversal, err = s.creditLocked(ctx, tx, w, p)
	}
	if err != nil {
		return nil, err
	}

	// Guarded update: a concurrent reversal of the same record loses
	// here and the whole unit of work rolls back.
	if err := txns.MarkReversed(ctx, original.ID, reversal.ID); err != nil {
		return nil, err
	}

	s.logger.Info("Transaction reversed",
		"transaction_id", original.ID.String(),
		"reversal_id", reversal.ID.String(),
		"wallet_id", original.WalletID.String(),
	)
	return reversal, nil
}
