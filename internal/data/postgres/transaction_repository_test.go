package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credits-ledger/internal/domain/transaction"
)

func testTransaction() *transaction.Transaction {
	return &transaction.Transaction{
		ID:            uuid.New(),
		WalletID:      uuid.New(),
		Kind:          transaction.KindEarn,
		Amount:        decimal.NewFromInt(20),
		BalanceBefore: decimal.NewFromInt(100),
		BalanceAfter:  decimal.NewFromInt(120),
		Status:        transaction.StatusCompleted,
		Description:   "Daily login reward",
		CreatedAt:     time.Now(),
	}
}

func transactionRows(tr *transaction.Transaction) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "wallet_id", "kind", "amount", "balance_before", "balance_after", "status",
		"related_wallet_id", "reference_id", "reference_type", "description", "metadata",
		"is_reversed", "reversed_by", "created_by", "created_at",
	}).AddRow(
		tr.ID, tr.WalletID, tr.Kind, tr.Amount, tr.BalanceBefore, tr.BalanceAfter, tr.Status,
		tr.RelatedWalletID, tr.ReferenceID, tr.ReferenceType, tr.Description, tr.Metadata,
		tr.IsReversed, tr.ReversedBy, tr.CreatedBy, tr.CreatedAt,
	)
}

func TestTransactionRepository_Create(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionRepository{querier: mock, logger: logger}

	query := `
		INSERT INTO transactions \(id, wallet_id, kind, amount, balance_before, balance_after, status,
			related_wallet_id, reference_id, reference_type, description, metadata,
			is_reversed, reversed_by, created_by, created_at\)
		VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8, \$9, \$10, \$11, \$12, \$13, \$14, \$15, \$16\)
	`

	t.Run("success", func(t *testing.T) {
		tr := testTransaction()
		mock.ExpectExec(query).
			WithArgs(tr.ID, tr.WalletID, tr.Kind, tr.Amount, tr.BalanceBefore, tr.BalanceAfter, tr.Status,
				tr.RelatedWalletID, tr.ReferenceID, tr.ReferenceType, tr.Description, tr.Metadata,
				tr.IsReversed, tr.ReversedBy, tr.CreatedBy, tr.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.Create(ctx, tr)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("drifted record never reaches the database", func(t *testing.T) {
		tr := testTransaction()
		tr.BalanceAfter = decimal.NewFromInt(121)

		err := repo.Create(ctx, tr)
		assert.ErrorIs(t, err, transaction.ErrLedgerDrift)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate id", func(t *testing.T) {
		tr := testTransaction()
		mock.ExpectExec(query).
			WithArgs(tr.ID, tr.WalletID, tr.Kind, tr.Amount, tr.BalanceBefore, tr.BalanceAfter, tr.Status,
				tr.RelatedWalletID, tr.ReferenceID, tr.ReferenceType, tr.Description, tr.Metadata,
				tr.IsReversed, tr.ReversedBy, tr.CreatedBy, tr.CreatedAt).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err := repo.Create(ctx, tr)
		var dupErr transaction.ErrDuplicateTransaction
		assert.ErrorAs(t, err, &dupErr)
		assert.Equal(t, tr.ID, dupErr.TransactionID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		tr := testTransaction()
		dbErr := errors.New("db error")
		mock.ExpectExec(query).
			WithArgs(tr.ID, tr.WalletID, tr.Kind, tr.Amount, tr.BalanceBefore, tr.BalanceAfter, tr.Status,
				tr.RelatedWalletID, tr.ReferenceID, tr.ReferenceType, tr.Description, tr.Metadata,
				tr.IsReversed, tr.ReversedBy, tr.CreatedBy, tr.CreatedAt).
			WillReturnError(dbErr)

		err := repo.Create(ctx, tr)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to append transaction")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionRepository{querier: mock, logger: logger}
	expected := testTransaction()

	query := `SELECT id, wallet_id, kind, amount, balance_before, balance_after, status,
			related_wallet_id, reference_id, reference_type, description, metadata,
			is_reversed, reversed_by, created_by, created_at FROM transactions WHERE id = \$1`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(expected.ID).WillReturnRows(transactionRows(expected))

		tr, err := repo.GetByID(ctx, expected.ID)
		assert.NoError(t, err)
		assert.Equal(t, expected, tr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(expected.ID).WillReturnError(pgx.ErrNoRows)

		tr, err := repo.GetByID(ctx, expected.ID)
		assert.Error(t, err)
		assert.Nil(t, tr)
		var notFoundErr transaction.ErrTransactionNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, expected.ID, notFoundErr.TransactionID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_ListByWallet(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionRepository{querier: mock, logger: logger}
	walletID := uuid.New()

	t.Run("no filters", func(t *testing.T) {
		expected := testTransaction()
		expected.WalletID = walletID

		query := `SELECT id, wallet_id, kind, amount, balance_before, balance_after, status,
			related_wallet_id, reference_id, reference_type, description, metadata,
			is_reversed, reversed_by, created_by, created_at FROM transactions WHERE wallet_id = \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`

		mock.ExpectQuery(query).WithArgs(walletID, 20, 0).WillReturnRows(transactionRows(expected))

		transactions, err := repo.ListByWallet(ctx, walletID, transaction.Filter{}, 20, 0)
		require.NoError(t, err)
		require.Len(t, transactions, 1)
		assert.Equal(t, expected, transactions[0])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("kind and range filters", func(t *testing.T) {
		from := time.Now().Add(-24 * time.Hour)
		to := time.Now()
		filter := transaction.Filter{Kind: transaction.KindPurchase, From: from, To: to}

		query := `SELECT id, wallet_id, kind, amount, balance_before, balance_after, status,
			related_wallet_id, reference_id, reference_type, description, metadata,
			is_reversed, reversed_by, created_by, created_at FROM transactions WHERE wallet_id = \$1 AND kind = \$2 AND created_at >= \$3 AND created_at < \$4 ORDER BY created_at DESC LIMIT \$5 OFFSET \$6`

		mock.ExpectQuery(query).
			WithArgs(walletID, transaction.KindPurchase, from, to, 20, 40).
			WillReturnRows(pgxmock.NewRows([]string{
				"id", "wallet_id", "kind", "amount", "balance_before", "balance_after", "status",
				"related_wallet_id", "reference_id", "reference_type", "description", "metadata",
				"is_reversed", "reversed_by", "created_by", "created_at",
			}))

		transactions, err := repo.ListByWallet(ctx, walletID, filter, 20, 40)
		assert.NoError(t, err)
		assert.Empty(t, transactions)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_CountByWallet(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionRepository{querier: mock, logger: logger}
	walletID := uuid.New()

	query := `SELECT COUNT\(\*\) FROM transactions WHERE wallet_id = \$1`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(walletID).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(7)))

		count, err := repo.CountByWallet(ctx, walletID, transaction.Filter{})
		assert.NoError(t, err)
		assert.Equal(t, int64(7), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("count db error")
		mock.ExpectQuery(query).WithArgs(walletID).WillReturnError(dbErr)

		count, err := repo.CountByWallet(ctx, walletID, transaction.Filter{})
		assert.Error(t, err)
		assert.Zero(t, count)
		assert.Contains(t, err.Error(), "failed to count transactions")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_MarkReversed(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionRepository{querier: mock, logger: logger}
	id := uuid.New()
	reversedBy := uuid.New()

	query := `
		UPDATE transactions
		SET is_reversed = TRUE, reversed_by = \$1
		WHERE id = \$2 AND is_reversed = FALSE
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(reversedBy, id).WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.MarkReversed(ctx, id, reversedBy)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already reversed", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(reversedBy, id).WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.MarkReversed(ctx, id, reversedBy)
		assert.ErrorIs(t, err, transaction.ErrAlreadyReversed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_SumSignedAmounts(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionRepository{querier: mock, logger: logger}
	walletID := uuid.New()

	query := `
		SELECT COALESCE\(SUM\(balance_after - balance_before\), 0\)
		FROM transactions
		WHERE wallet_id = \$1 AND status = 'completed'
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(walletID).
			WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(decimal.NewFromInt(125)))

		sum, err := repo.SumSignedAmounts(ctx, walletID)
		assert.NoError(t, err)
		assert.True(t, sum.Equal(decimal.NewFromInt(125)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("sum db error")
		mock.ExpectQuery(query).WithArgs(walletID).WillReturnError(dbErr)

		sum, err := repo.SumSignedAmounts(ctx, walletID)
		assert.Error(t, err)
		assert.True(t, sum.IsZero())
		assert.Contains(t, err.Error(), "failed to sum signed amounts")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_WithTx(t *testing.T) {
	logger := newTestLogger()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	originalRepo := &TransactionRepository{querier: mockPool, logger: logger}

	mockPool.ExpectBegin()
	pgxTx, err := mockPool.Begin(context.Background())
	require.NoError(t, err)

	txRepo := originalRepo.WithTx(pgxTx)

	assert.NotNil(t, txRepo)
	assert.Equal(t, pgxTx, txRepo.(*TransactionRepository).querier, "Querier in new repo should be the transaction")

	assert.NoError(t, mockPool.ExpectationsWereMet())
}
