// Package ledger implements the core ledger service: the operation
// surface that composes wallet state, the append-only transaction log,
// and the outbox under one atomic unit of work per call.
package ledger

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/credits-ledger/internal/domain/earning"
	"github.com/credits-ledger/internal/domain/outbox"
	"github.com/credits-ledger/internal/domain/transaction"
	"github.com/credits-ledger/internal/domain/wallet"
)

// DB starts database transactions. Satisfied by *pgxpool.Pool and by
// pgxmock pools in tests.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service is the core ledger service. Every mutating operation runs as
// one database transaction that holds exclusive row locks on the
// wallets it touches for the whole read-check-write sequence.
type Service struct {
	db      DB
	wallets wallet.Repository
	txns    transaction.Repository
	rules   earning.Repository
	outbox  outbox.Repository
	logger  *slog.Logger
}

// NewService creates the core ledger service
func NewService(
	db DB,
	wallets wallet.Repository,
	txns transaction.Repository,
	rules earning.Repository,
	outboxRepo outbox.Repository,
	logger *slog.Logger,
) *Service {
	return &Service{
		db:      db,
		wallets: wallets,
		txns:    txns,
		rules:   rules,
		outbox:  outboxRepo,
		logger:  logger,
	}
}

// EntryParams describes one credit or debit to post.
type EntryParams struct {
	WalletID      uuid.UUID
	Amount        decimal.Decimal
	Kind          transaction.Kind
	Description   string
	ReferenceID   string
	ReferenceType string
	Metadata      map[string]any

	// RelatedWalletID is the counterparty for transfer kinds.
	RelatedWalletID *uuid.UUID

	// ActorID records the acting admin for admin kinds and reversals.
	ActorID *uuid.UUID
}

// inTx runs fn inside one database transaction, rolling back on error
// or panic.
func (s *Service) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx err: %v, rb err: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit(ctx)
}

// GetOrCreateWallet returns the user's wallet, creating it lazily on
// first ledger interaction. Wallets are created active with a zero
// balance and are never deleted afterwards.
func (s *Service) GetOrCreateWallet(ctx context.Context, userID string) (*wallet.Wallet, error) {
	w, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if w != nil {
		return w, nil
	}

	w, err = wallet.NewWallet(userID)
	if err != nil {
		return nil, err
	}

	if err := s.wallets.Create(ctx, w); err != nil {
		// A concurrent first interaction may have won the unique
		// constraint on user_id; the existing wallet is the answer.
		existing, getErr := s.wallets.GetByUserID(ctx, userID)
		if getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}

	s.logger.Info("Wallet created", "wallet_id", w.ID.String(), "user_id", userID)
	return w, nil
}

// Credit adds credits to a wallet as one atomic unit of work.
func (s *Service) Credit(ctx context.Context, p EntryParams) (*transaction.Transaction, error) {
	if p.Amount.Sign() <= 0 {
		return nil, wallet.ErrInvalidAmount
	}
	if !p.Kind.IsCredit() {
		return nil, fmt.Errorf("kind %q is not a credit kind", p.Kind)
	}

	var posted *transaction.Transaction
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		posted, err = s.CreditInTx(ctx, tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}

	return posted, nil
}

// Debit removes credits from a wallet as one atomic unit of work. The
// insufficient-balance check happens under the wallet's row lock, so
// two concurrent debits can never both pass it.
func (s *Service) Debit(ctx context.Context, p EntryParams) (*transaction.Transaction, error) {
	if p.Amount.Sign() <= 0 {
		return nil, wallet.ErrInvalidAmount
	}
	if !p.Kind.IsDebit() {
		return nil, fmt.Errorf("kind %q is not a debit kind", p.Kind)
	}

	var posted *transaction.Transaction
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		posted, err = s.DebitInTx(ctx, tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}

	return posted, nil
}

// CreditInTx posts a credit inside the caller's transaction. Exposed so
// composed operations (transfers, purchases, reversals) share one unit
// of work.
func (s *Service) CreditInTx(ctx context.Context, tx pgx.Tx, p EntryParams) (*transaction.Transaction, error) {
	w, err := s.wallets.WithTx(tx).LockForUpdate(ctx, p.WalletID)
	if err != nil {
		return nil, err
	}
	return s.creditLocked(ctx, tx, w, p)
}

// DebitInTx posts a debit inside the caller's transaction.
func (s *Service) DebitInTx(ctx context.Context, tx pgx.Tx, p EntryParams) (*transaction.Transaction, error) {
	w, err := s.wallets.WithTx(tx).LockForUpdate(ctx, p.WalletID)
	if err != nil {
		return nil, err
	}
	return s.debitLocked(ctx, tx, w, p)
}

// creditLocked applies a credit to an already locked wallet.
func (s *Service) creditLocked(ctx context.Context, tx pgx.Tx, w *wallet.Wallet, p EntryParams) (*transaction.Transaction, error) {
	if p.Amount.Sign() <= 0 {
		return nil, wallet.ErrInvalidAmount
	}
	if err := w.CanTransact(); err != nil {
		return nil, err
	}

	balanceBefore := w.Balance
	if err := w.Credit(p.Amount); err != nil {
		return nil, err
	}
	if p.Kind.CountsAsEarning() {
		w.TotalEarned = w.TotalEarned.Add(p.Amount)
	}

	return s.post(ctx, tx, w, balanceBefore, p)
}

// debitLocked applies a debit to an already locked wallet.
func (s *Service) debitLocked(ctx context.Context, tx pgx.Tx, w *wallet.Wallet, p EntryParams) (*transaction.Transaction, error) {
	if p.Amount.Sign() <= 0 {
		return nil, wallet.ErrInvalidAmount
	}
	if err := w.CanTransact(); err != nil {
		return nil, err
	}

	balanceBefore := w.Balance
	if err := w.Debit(p.Amount); err != nil {
		return nil, err
	}
	if p.Kind.CountsAsSpending() {
		w.TotalSpent = w.TotalSpent.Add(p.Amount)
	}

	return s.post(ctx, tx, w, balanceBefore, p)
}

// post persists the updated wallet, appends the transaction record,
// and queues the outbox event, all inside the caller's transaction.
func (s *Service) post(ctx context.Context, tx pgx.Tx, w *wallet.Wallet, balanceBefore decimal.Decimal, p EntryParams) (*transaction.Transaction, error) {
	if err := s.wallets.WithTx(tx).UpdateBalance(ctx, w); err != nil {
		return nil, err
	}

	t := &transaction.Transaction{
		ID:              uuid.New(),
		WalletID:        w.ID,
		Kind:            p.Kind,
		Amount:          p.Amount,
		BalanceBefore:   balanceBefore,
		BalanceAfter:    w.Balance,
		Status:          transaction.StatusCompleted,
		RelatedWalletID: p.RelatedWalletID,
		ReferenceID:     p.ReferenceID,
		ReferenceType:   p.ReferenceType,
		Description:     p.Description,
		Metadata:        p.Metadata,
		CreatedBy:       p.ActorID,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.txns.WithTx(tx).Create(ctx, t); err != nil {
		return nil, err
	}

	message, err := outbox.NewMessage(t)
	if err != nil {
		return nil, fmt.Errorf("failed to build outbox message: %w", err)
	}
	if err := s.outbox.WithTx(tx).Create(ctx, message); err != nil {
		return nil, err
	}

	s.logger.Info("Transaction posted",
		"transaction_id", t.ID.String(),
		"wallet_id", w.ID.String(),
		"kind", string(t.Kind),
		"amount", t.Amount.String(),
		"balance_after", t.BalanceAfter.String(),
	)

	return t, nil
}

// Transfer moves credits between two wallets as one atomic unit of
// work: either both the sender's debit and the recipient's credit post,
// or neither does. Both wallet rows are locked in ascending id order so
// two opposite-direction transfers cannot deadlock.
func (s *Service) Transfer(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal, description string) (*transaction.Transaction, *transaction.Transaction, error) {
	if fromID == toID {
		return nil, nil, wallet.ErrSameWallet
	}
	if amount.Sign() <= 0 {
		return nil, nil, wallet.ErrInvalidAmount
	}

	var outTx, inTx *transaction.Transaction
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		walletsTx := s.wallets.WithTx(tx)

		// Fixed global lock order: ascending wallet id.
		first, second := fromID, toID
		if bytes.Compare(toID[:], fromID[:]) < 0 {
			first, second = toID, fromID
		}

		locked := make(map[uuid.UUID]*wallet.Wallet, 2)
		for _, id := range []uuid.UUID{first, second} {
			w, err := walletsTx.LockForUpdate(ctx, id)
			if err != nil {
				return err
			}
			locked[id] = w
		}

		var err error
		outTx, err = s.debitLocked(ctx, tx, locked[fromID], EntryParams{
			WalletID:        fromID,
			Amount:          amount,
			Kind:            transaction.KindTransferOut,
			Description:     description,
			RelatedWalletID: &toID,
		})
		if err != nil {
			return err
		}

		inTx, err = s.creditLocked(ctx, tx, locked[toID], EntryParams{
			WalletID:        toID,
			Amount:          amount,
			Kind:            transaction.KindTransferIn,
			Description:     description,
			RelatedWalletID: &fromID,
			ReferenceID:     outTx.ID.String(),
			ReferenceType:   "transfer",
		})
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	return outTx, inTx, nil
}

// GetBalance returns the wallet's current state. Reads take no
// exclusive locks; they may trail an in-flight write but never observe
// a partially applied one.
func (s *Service) GetBalance(ctx context.Context, walletID uuid.UUID) (*wallet.Wallet, error) {
	return s.wallets.GetByID(ctx, walletID)
}

// ListTransactions returns a page of the wallet's transaction history,
// newest first, with optional kind and date-range filters.
func (s *Service) ListTransactions(ctx context.Context, walletID uuid.UUID, filter transaction.Filter, page, perPage int) ([]*transaction.Transaction, int64, error) {
	if _, err := s.wallets.GetByID(ctx, walletID); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	transactions, err := s.txns.ListByWallet(ctx, walletID, filter, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.txns.CountByWallet(ctx, walletID, filter)
	if err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

// Leaderboard ranks wallets by lifetime earnings, descending, ties
// broken by wallet id for determinism.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]*wallet.Summary, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.wallets.TopEarners(ctx, limit)
}

// Overview is the wallet summary view: current state plus recent
// activity.
type Overview struct {
	Wallet             *wallet.Wallet             `json:"wallet"`
	TransactionCount   int64                      `json:"transaction_count"`
	RecentTransactions []*transaction.Transaction `json:"recent_transactions"`
}

// GetOverview returns the wallet together with its transaction count
// and the ten most recent records.
func (s *Service) GetOverview(ctx context.Context, walletID uuid.UUID) (*Overview, error) {
	w, err := s.wallets.GetByID(ctx, walletID)
	if err != nil {
		return nil, err
	}

	count, err := s.txns.CountByWallet(ctx, walletID, transaction.Filter{})
	if err != nil {
		return nil, err
	}

	recent, err := s.txns.ListByWallet(ctx, walletID, transaction.Filter{}, 10, 0)
	if err != nil {
		return nil, err
	}

	return &Overview{
		Wallet:             w,
		TransactionCount:   count,
		RecentTransactions: recent,
	}, nil
}

// SetWalletFrozen freezes or unfreezes a wallet. Frozen wallets reject
// every mutating operation, reversals included, but stay readable.
func (s *Service) SetWalletFrozen(ctx context.Context, walletID uuid.UUID, frozen bool) error {
	if err := s.wallets.SetFrozen(ctx, walletID, frozen); err != nil {
		return err
	}
	s.logger.Info("Wallet freeze state changed", "wallet_id", walletID.String(), "frozen", frozen)
	return nil
}

// AuditWallet replays the wallet's transaction log and compares it to
// the cached balance. A mismatch is ledger drift: a store bug, never
// silently corrected.
func (s *Service) AuditWallet(ctx context.Context, walletID uuid.UUID) error {
	w, err := s.wallets.GetByID(ctx, walletID)
	if err != nil {
		return err
	}

	sum, err := s.txns.SumSignedAmounts(ctx, walletID)
	if err != nil {
		return err
	}

	if !sum.Equal(w.Balance) {
		s.logger.Error("Ledger drift detected on audit",
			"wallet_id", walletID.String(),
			"cached_balance", w.Balance.String(),
			"replayed_balance", sum.String(),
		)
		return transaction.ErrLedgerDrift
	}

	return nil
}
