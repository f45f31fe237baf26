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

// ProductRepository implements the catalog.ProductRepository interface
// for PostgreSQL
type ProductRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewProductRepository creates a new PostgreSQL product repository
func NewProductRepository(logger *slog.Logger, db *persistence.PostgresDB) catalog.ProductRepository {
	return &ProductRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so stock decrements
// share the purchase's unit of work.
func (r *ProductRepository) WithTx(tx pgx.Tx) catalog.ProductRepository {
	return &ProductRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const productColumns = `id, name, description, price, is_available, quantity_available, metadata, created_at, updated_at`

func scanProduct(row pgx.Row) (*catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.IsAvailable,
		&p.QuantityAvailable,
		&p.Metadata,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create stores a new product
func (r *ProductRepository) Create(ctx context.Context, p *catalog.Product) error {
	query := `
		INSERT INTO products (id, name, description, price, is_available, quantity_available, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.querier.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.Price,
		p.IsAvailable,
		p.QuantityAvailable,
		p.Metadata,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create product", "name", p.Name, "error", err)
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// GetByID retrieves a product by its ID
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrProductNotFound{ProductID: id}
		}
		r.logger.Error("Failed to get product", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return p, nil
}

// LockForUpdate obtains an exclusive row lock on the product so the
// stock check and decrement are race-free within the purchase's
// transaction.
func (r *ProductRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`

	p, err := scanProduct(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrProductNotFound{ProductID: id}
		}
		r.logger.Error("Failed to lock product for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock product for update: %w", err)
	}

	return p, nil
}

// UpdateStock persists quantity and availability of a locked product row
func (r *ProductRepository) UpdateStock(ctx context.Context, p *catalog.Product) error {
	query := `
		UPDATE products
		SET quantity_available = $1, is_available = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := r.querier.Exec(ctx, query,
		p.QuantityAvailable,
		p.IsAvailable,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update product stock", "id", p.ID.String(), "error", err)
		return fmt.Errorf("failed to update product stock: %w", err)
	}

	if result.RowsAffected() == 0 {
		return catalog.ErrProductNotFound{ProductID: p.ID}
	}

	return nil
}

// List returns products ordered by name, optionally only available ones
func (r *ProductRepository) List(ctx context.Context, availableOnly bool) ([]*catalog.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	if availableOnly {
		query += ` WHERE is_available = TRUE`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list products", "error", err)
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read product rows: %w", err)
	}

	return products, nil
}
