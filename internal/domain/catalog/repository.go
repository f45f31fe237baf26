package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository manages the product catalog
type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// LockForUpdate acquires an exclusive row lock on the product so a
	// stock decrement and the paying debit commit or roll back together.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Product, error)

	// UpdateStock persists quantity and availability. Only legal while
	// holding the product's row lock.
	UpdateStock(ctx context.Context, p *Product) error

	List(ctx context.Context, availableOnly bool) ([]*Product, error)

	WithTx(tx pgx.Tx) ProductRepository
}

// PurchaseRepository manages purchase records
type PurchaseRepository interface {
	Create(ctx context.Context, p *Purchase) error
	GetByID(ctx context.Context, id uuid.UUID) (*Purchase, error)
	ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*Purchase, error)

	// Deactivate flips the refund marker; purchase rows are never
	// deleted.
	Deactivate(ctx context.Context, id uuid.UUID) error

	WithTx(tx pgx.Tx) PurchaseRepository
}

// ErrProductNotFound indicates a missing product
type ErrProductNotFound struct {
	ProductID uuid.UUID
}

func (e ErrProductNotFound) Error() string {
	return "product not found: " + e.ProductID.String()
}

// Is implements the errors.Is interface for ErrProductNotFound
func (e ErrProductNotFound) Is(target error) bool {
	t, ok := target.(ErrProductNotFound)
	if !ok {
		return false
	}
	if t.ProductID == uuid.Nil {
		return true
	}
	return e.ProductID == t.ProductID
}

// ErrPurchaseNotFound indicates a missing purchase record
type ErrPurchaseNotFound struct {
	PurchaseID uuid.UUID
}

func (e ErrPurchaseNotFound) Error() string {
	return "purchase not found: " + e.PurchaseID.String()
}
