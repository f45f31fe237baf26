package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/credits-ledger/internal/domain/catalog"
	"github.com/credits-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PurchaseRepository implements the catalog.PurchaseRepository
// interface for PostgreSQL
type PurchaseRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewPurchaseRepository creates a new PostgreSQL purchase repository
func NewPurchaseRepository(logger *slog.Logger, db *persistence.PostgresDB) catalog.PurchaseRepository {
	return &PurchaseRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *PurchaseRepository) WithTx(tx pgx.Tx) catalog.PurchaseRepository {
	return &PurchaseRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const purchaseColumns = `id, wallet_id, product_id, transaction_id, quantity, total_price, is_active, purchased_at`

func scanPurchase(row pgx.Row) (*catalog.Purchase, error) {
	var p catalog.Purchase
	err := row.Scan(
		&p.ID,
		&p.WalletID,
		&p.ProductID,
		&p.TransactionID,
		&p.Quantity,
		&p.TotalPrice,
		&p.IsActive,
		&p.PurchasedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create stores a new purchase record. The transaction_id unique
// constraint ties each purchase to exactly one debit.
func (r *PurchaseRepository) Create(ctx context.Context, p *catalog.Purchase) error {
	query := `
		INSERT INTO purchases (id, wallet_id, product_id, transaction_id, quantity, total_price, is_active, purchased_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, query,
		p.ID,
		p.WalletID,
		p.ProductID,
		p.TransactionID,
		p.Quantity,
		p.TotalPrice,
		p.IsActive,
		p.PurchasedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create purchase", "id", p.ID.String(), "error", err)
		return fmt.Errorf("failed to create purchase: %w", err)
	}

	return nil
}

// GetByID retrieves a purchase by its ID
func (r *PurchaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE id = $1`

	p, err := scanPurchase(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrPurchaseNotFound{PurchaseID: id}
		}
		r.logger.Error("Failed to get purchase", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}

	return p, nil
}

// ListByWallet retrieves a wallet's purchases, newest first
func (r *PurchaseRepository) ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*catalog.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases
		WHERE wallet_id = $1
		ORDER BY purchased_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.querier.Query(ctx, query, walletID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list purchases", "wallet_id", walletID.String(), "error", err)
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []*catalog.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase row: %w", err)
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read purchase rows: %w", err)
	}

	return purchases, nil
}

// Deactivate flips the refund marker on a purchase; the row itself is
// never deleted.
func (r *PurchaseRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE purchases SET is_active = FALSE WHERE id = $1`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to deactivate purchase", "id", id.String(), "error", err)
		return fmt.Errorf("failed to deactivate purchase: %w", err)
	}

	if result.RowsAffected() == 0 {
		return catalog.ErrPurchaseNotFound{PurchaseID: id}
	}

	return nil
}
