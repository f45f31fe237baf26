package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/credits-ledger/internal/domain/transaction"
	"github.com/credits-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// TransactionRepository implements the transaction.Repository interface
// for PostgreSQL. The transactions table is append-only: posted records
// are never updated or deleted except for the one-shot reversal marker.
type TransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) transaction.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so the record append
// commits atomically with the balance update it describes.
func (r *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const transactionColumns = `id, wallet_id, kind, amount, balance_before, balance_after, status,
		related_wallet_id, reference_id, reference_type, description, metadata,
		is_reversed, reversed_by, created_by, created_at`

func scanTransaction(row pgx.Row) (*transaction.Transaction, error) {
	var t transaction.Transaction
	err := row.Scan(
		&t.ID,
		&t.WalletID,
		&t.Kind,
		&t.Amount,
		&t.BalanceBefore,
		&t.BalanceAfter,
		&t.Status,
		&t.RelatedWalletID,
		&t.ReferenceID,
		&t.ReferenceType,
		&t.Description,
		&t.Metadata,
		&t.IsReversed,
		&t.ReversedBy,
		&t.CreatedBy,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create appends a posted transaction record. The delta invariant is
// re-verified here as the last line of defense before the write; a
// violation is ErrLedgerDrift and must abort the enclosing unit of
// work.
func (r *TransactionRepository) Create(ctx context.Context, t *transaction.Transaction) error {
	if err := t.VerifyDelta(); err != nil {
		r.logger.Error("Ledger drift detected on append",
			"transaction_id", t.ID.String(),
			"wallet_id", t.WalletID.String(),
			"kind", string(t.Kind),
			"amount", t.Amount.String(),
			"balance_before", t.BalanceBefore.String(),
			"balance_after", t.BalanceAfter.String(),
		)
		return err
	}

	query := `
		INSERT INTO transactions (id, wallet_id, kind, amount, balance_before, balance_after, status,
			related_wallet_id, reference_id, reference_type, description, metadata,
			is_reversed, reversed_by, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.querier.Exec(ctx, query,
		t.ID,
		t.WalletID,
		t.Kind,
		t.Amount,
		t.BalanceBefore,
		t.BalanceAfter,
		t.Status,
		t.RelatedWalletID,
		t.ReferenceID,
		t.ReferenceType,
		t.Description,
		t.Metadata,
		t.IsReversed,
		t.ReversedBy,
		t.CreatedBy,
		t.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return transaction.ErrDuplicateTransaction{TransactionID: t.ID}
		}
		r.logger.Error("Failed to append transaction", "id", t.ID.String(), "error", err)
		return fmt.Errorf("failed to append transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a transaction by its ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	t, err := scanTransaction(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to get transaction", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return t, nil
}

// filterClause appends WHERE fragments for the optional listing filters.
func filterClause(filter transaction.Filter, args []interface{}) (string, []interface{}) {
	clause := ""
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		clause += fmt.Sprintf(" AND kind = $%d", len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		clause += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		clause += fmt.Sprintf(" AND created_at < $%d", len(args))
	}
	return clause, args
}

// ListByWallet retrieves transactions for a wallet, newest first, with
// optional kind and date-range filters.
func (r *TransactionRepository) ListByWallet(ctx context.Context, walletID uuid.UUID, filter transaction.Filter, limit, offset int) ([]*transaction.Transaction, error) {
	args := []interface{}{walletID}
	clause, args := filterClause(filter, args)

	args = append(args, limit)
	limitPos := len(args)
	args = append(args, offset)
	offsetPos := len(args)

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE wallet_id = $1` + clause +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, limitPos, offsetPos)

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list transactions", "wallet_id", walletID.String(), "error", err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*transaction.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transaction rows: %w", err)
	}

	return transactions, nil
}

// CountByWallet counts a wallet's transactions under the same filters
// as ListByWallet, for pagination metadata.
func (r *TransactionRepository) CountByWallet(ctx context.Context, walletID uuid.UUID, filter transaction.Filter) (int64, error) {
	args := []interface{}{walletID}
	clause, args := filterClause(filter, args)

	query := `SELECT COUNT(*) FROM transactions WHERE wallet_id = $1` + clause

	var count int64
	if err := r.querier.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.logger.Error("Failed to count transactions", "wallet_id", walletID.String(), "error", err)
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	return count, nil
}

// MarkReversed flips the reversal marker on the original record. The
// is_reversed = FALSE predicate makes the flip race-free: a second
// reversal attempt matches zero rows and fails with ErrAlreadyReversed.
func (r *TransactionRepository) MarkReversed(ctx context.Context, id uuid.UUID, reversedBy uuid.UUID) error {
	query := `
		UPDATE transactions
		SET is_reversed = TRUE, reversed_by = $1
		WHERE id = $2 AND is_reversed = FALSE
	`

	result, err := r.querier.Exec(ctx, query, reversedBy, id)
	if err != nil {
		r.logger.Error("Failed to mark transaction reversed", "id", id.String(), "error", err)
		return fmt.Errorf("failed to mark transaction reversed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return transaction.ErrAlreadyReversed
	}

	return nil
}

// SumSignedAmounts replays every completed record of the wallet into
// the balance they imply. A reversed record and its reversal cancel
// exactly, so the sum always equals the current cached balance.
func (r *TransactionRepository) SumSignedAmounts(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(balance_after - balance_before), 0)
		FROM transactions
		WHERE wallet_id = $1 AND status = 'completed'
	`

	var sum decimal.Decimal
	if err := r.querier.QueryRow(ctx, query, walletID).Scan(&sum); err != nil {
		r.logger.Error("Failed to sum signed amounts", "wallet_id", walletID.String(), "error", err)
		return decimal.Zero, fmt.Errorf("failed to sum signed amounts: %w", err)
	}

	return sum, nil
}
