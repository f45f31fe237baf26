package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase joins a wallet, a product, and the debit transaction that
// paid for it. Purchases are soft-deactivated (refund marker) and never
// deleted, preserving the audit trail.
type Purchase struct {
	ID            uuid.UUID       `json:"id"`
	WalletID      uuid.UUID       `json:"wallet_id"`
	ProductID     uuid.UUID       `json:"product_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Quantity      int             `json:"quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	IsActive      bool            `json:"is_active"`
	PurchasedAt   time.Time       `json:"purchased_at"`
}

// NewPurchase builds a purchase record for a completed debit.
func NewPurchase(walletID, productID, transactionID uuid.UUID, quantity int, totalPrice decimal.Decimal) *Purchase {
	return &Purchase{
		ID:            uuid.New(),
		WalletID:      walletID,
		ProductID:     productID,
		TransactionID: transactionID,
		Quantity:      quantity,
		TotalPrice:    totalPrice,
		IsActive:      true,
		PurchasedAt:   time.Now().UTC(),
	}
}
