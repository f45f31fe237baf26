// Package postgres provides PostgreSQL implementations of the domain
// repositories. PostgreSQL is the authoritative ledger store: balance
// mutations happen under row-level exclusive locks and the transaction
// log is append-only.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/credits-ledger/internal/domain/wallet"
	"github.com/credits-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepository implements the wallet.Repository interface for PostgreSQL
type WalletRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewWalletRepository creates a new PostgreSQL wallet repository
func NewWalletRepository(logger *slog.Logger, db *persistence.PostgresDB) wallet.Repository {
	return &WalletRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so wallet reads and
// writes participate in the caller's unit of work.
func (r *WalletRepository) WithTx(tx pgx.Tx) wallet.Repository {
	return &WalletRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const walletColumns = `id, user_id, balance, total_earned, total_spent, is_active, is_frozen, created_at, updated_at`

func scanWallet(row pgx.Row) (*wallet.Wallet, error) {
	var w wallet.Wallet
	err := row.Scan(
		&w.ID,
		&w.UserID,
		&w.Balance,
		&w.TotalEarned,
		&w.TotalSpent,
		&w.IsActive,
		&w.IsFrozen,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Create stores a new wallet. The user_id unique constraint guarantees
// at most one wallet per user.
func (r *WalletRepository) Create(ctx context.Context, w *wallet.Wallet) error {
	query := `
		INSERT INTO wallets (id, user_id, balance, total_earned, total_spent, is_active, is_frozen, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.querier.Exec(ctx, query,
		w.ID,
		w.UserID,
		w.Balance,
		w.TotalEarned,
		w.TotalSpent,
		w.IsActive,
		w.IsFrozen,
		w.CreatedAt,
		w.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create wallet", "user_id", w.UserID, "error", err)
		return fmt.Errorf("failed to create wallet: %w", err)
	}

	return nil
}

// GetByID retrieves a wallet by its ID
func (r *WalletRepository) GetByID(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`

	w, err := scanWallet(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wallet.ErrWalletNotFound{WalletID: id}
		}
		r.logger.Error("Failed to get wallet", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return w, nil
}

// GetByUserID retrieves the wallet owned by a user. Returns nil, nil
// when the user has no wallet yet, letting the service create one
// lazily.
func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) (*wallet.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`

	w, err := scanWallet(r.querier.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get wallet by user ID", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get wallet by user ID: %w", err)
	}

	return w, nil
}

// LockForUpdate obtains an exclusive row lock on the wallet and returns
// its current state. Must be called within a transaction; the lock is
// held until that transaction ends.
func (r *WalletRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1 FOR UPDATE`

	w, err := scanWallet(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wallet.ErrWalletNotFound{WalletID: id}
		}
		r.logger.Error("Failed to lock wallet for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock wallet for update: %w", err)
	}

	return w, nil
}

// UpdateBalance persists the balance and lifetime counters of a locked
// wallet row.
func (r *WalletRepository) UpdateBalance(ctx context.Context, w *wallet.Wallet) error {
	query := `
		UPDATE wallets
		SET balance = $1, total_earned = $2, total_spent = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := r.querier.Exec(ctx, query,
		w.Balance,
		w.TotalEarned,
		w.TotalSpent,
		w.UpdatedAt,
		w.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update wallet balance", "id", w.ID.String(), "error", err)
		return fmt.Errorf("failed to update wallet balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return wallet.ErrWalletNotFound{WalletID: w.ID}
	}

	return nil
}

// SetFrozen toggles the frozen flag. Frozen wallets block all mutating
// operations but remain readable.
func (r *WalletRepository) SetFrozen(ctx context.Context, id uuid.UUID, frozen bool) error {
	query := `UPDATE wallets SET is_frozen = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.querier.Exec(ctx, query, frozen, id)
	if err != nil {
		r.logger.Error("Failed to set wallet frozen flag", "id", id.String(), "error", err)
		return fmt.Errorf("failed to set wallet frozen flag: %w", err)
	}

	if result.RowsAffected() == 0 {
		return wallet.ErrWalletNotFound{WalletID: id}
	}

	return nil
}

// TopEarners ranks wallets by lifetime earnings. Ties are broken by
// wallet id ascending so the ordering is deterministic.
func (r *WalletRepository) TopEarners(ctx context.Context, limit int) ([]*wallet.Summary, error) {
	query := `
		SELECT id, user_id, total_earned, balance
		FROM wallets
		WHERE is_active = TRUE
		ORDER BY total_earned DESC, id ASC
		LIMIT $1
	`

	rows, err := r.querier.Query(ctx, query, limit)
	if err != nil {
		r.logger.Error("Failed to query top earners", "error", err)
		return nil, fmt.Errorf("failed to query top earners: %w", err)
	}
	defer rows.Close()

	var summaries []*wallet.Summary
	for rows.Next() {
		var s wallet.Summary
		if err := rows.Scan(&s.WalletID, &s.UserID, &s.TotalEarned, &s.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		summaries = append(summaries, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leaderboard rows: %w", err)
	}

	return summaries, nil
}
