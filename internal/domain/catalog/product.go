package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrProductUnavailable = errors.New("product is not available")
	ErrOutOfStock         = errors.New("insufficient product stock")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
)

// Product is a marketplace item priced in credits. A nil
// QuantityAvailable means unlimited stock; a non-nil value is
// decremented atomically on purchase.
type Product struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price"`
	IsAvailable       bool            `json:"is_available"`
	QuantityAvailable *int            `json:"quantity_available,omitempty"`
	Metadata          map[string]any  `json:"metadata,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Limited reports whether the product has finite stock.
func (p *Product) Limited() bool {
	return p.QuantityAvailable != nil
}

// CheckPurchasable validates availability and stock for the requested
// quantity. Stock checks are only meaningful while the product row is
// locked.
func (p *Product) CheckPurchasable(quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if !p.IsAvailable {
		return ErrProductUnavailable
	}
	if p.Limited() && *p.QuantityAvailable < quantity {
		return ErrOutOfStock
	}
	return nil
}

// TotalPrice computes price * quantity exactly.
func (p *Product) TotalPrice(quantity int) decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(quantity)))
}

// TakeStock decrements finite stock and flips availability off when the
// last unit goes. No-op for unlimited products.
func (p *Product) TakeStock(quantity int) {
	if !p.Limited() {
		return
	}
	remaining := *p.QuantityAvailable - quantity
	p.QuantityAvailable = &remaining
	if remaining <= 0 {
		p.IsAvailable = false
	}
	p.UpdatedAt = time.Now().UTC()
}
