package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/credits-ledger/internal/domain/catalog"
	"github.com/credits-ledger/internal/domain/earning"
	"github.com/credits-ledger/internal/domain/transaction"
	"github.com/credits-ledger/internal/domain/wallet"
)

// CreateWalletRequest represents a request to get or create a user's wallet
type CreateWalletRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// WalletResponse represents a wallet in API responses
type WalletResponse struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Balance     decimal.Decimal `json:"balance"`
	TotalEarned decimal.Decimal `json:"total_earned"`
	TotalSpent  decimal.Decimal `json:"total_spent"`
	IsActive    bool            `json:"is_active"`
	IsFrozen    bool            `json:"is_frozen"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

// CreditRequest represents a request to add credits to a wallet
type CreditRequest struct {
	WalletID      string          `json:"wallet_id" binding:"required,uuid"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Kind          string          `json:"kind,omitempty" binding:"omitempty,oneof=earn bonus admin_credit"`
	Description   string          `json:"description,omitempty"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	ReferenceType string          `json:"reference_type,omitempty"`
	Metadata      map[string]any  `json:"metadata,omitempty"`
	ActorID       string          `json:"actor_id,omitempty" binding:"omitempty,uuid"`
}

// DebitRequest represents a request to spend credits from a wallet
type DebitRequest struct {
	WalletID      string          `json:"wallet_id" binding:"required,uuid"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Kind          string          `json:"kind,omitempty" binding:"omitempty,oneof=spend admin_debit"`
	Description   string          `json:"description,omitempty"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	ReferenceType string          `json:"reference_type,omitempty"`
	Metadata      map[string]any  `json:"metadata,omitempty"`
	ActorID       string          `json:"actor_id,omitempty" binding:"omitempty,uuid"`
}

// TransferRequest represents a request to move credits between wallets
type TransferRequest struct {
	FromWalletID string          `json:"from_wallet_id" binding:"required,uuid"`
	ToWalletID   string          `json:"to_wallet_id" binding:"required,uuid"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	Description  string          `json:"description,omitempty"`
}

// ReverseRequest represents a request to reverse a posted transaction
type ReverseRequest struct {
	Reason  string `json:"reason,omitempty"`
	ActorID string `json:"actor_id,omitempty" binding:"omitempty,uuid"`
}

// AwardRequest represents a reported activity to evaluate for an award
type AwardRequest struct {
	UserID   string          `json:"user_id" binding:"required"`
	Activity string          `json:"activity" binding:"required"`
	Context  earning.Context `json:"context,omitempty"`
}

// FreezeRequest represents a request to freeze or unfreeze a wallet
type FreezeRequest struct {
	Frozen *bool `json:"frozen" binding:"required"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID              string          `json:"id"`
	WalletID        string          `json:"wallet_id"`
	Kind            string          `json:"kind"`
	Amount          decimal.Decimal `json:"amount"`
	BalanceBefore   decimal.Decimal `json:"balance_before"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	Status          string          `json:"status"`
	RelatedWalletID string          `json:"related_wallet_id,omitempty"`
	ReferenceID     string          `json:"reference_id,omitempty"`
	ReferenceType   string          `json:"reference_type,omitempty"`
	Description     string          `json:"description,omitempty"`
	Metadata        map[string]any  `json:"metadata,omitempty"`
	IsReversed      bool            `json:"is_reversed"`
	ReversedBy      string          `json:"reversed_by,omitempty"`
	CreatedAt       string          `json:"created_at"`
}

// TransferResponse pairs the two sides of a completed transfer
type TransferResponse struct {
	Outgoing TransactionResponse `json:"outgoing"`
	Incoming TransactionResponse `json:"incoming"`
}

// CreateProductRequest represents a request to add a catalog product
type CreateProductRequest struct {
	Name              string          `json:"name" binding:"required"`
	Description       string          `json:"description,omitempty"`
	Price             decimal.Decimal `json:"price" binding:"required"`
	QuantityAvailable *int            `json:"quantity_available,omitempty" binding:"omitempty,min=0"`
	Metadata          map[string]any  `json:"metadata,omitempty"`
}

// PurchaseRequest represents a request to buy a product with credits
type PurchaseRequest struct {
	WalletID  string `json:"wallet_id" binding:"required,uuid"`
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity,omitempty" binding:"omitempty,min=1"`
}

// RefundRequest represents a request to refund a purchase
type RefundRequest struct {
	Reason  string `json:"reason,omitempty"`
	ActorID string `json:"actor_id,omitempty" binding:"omitempty,uuid"`
}

// CreateRuleRequest represents a request to add an earning rule
type CreateRuleRequest struct {
	Name        string              `json:"name" binding:"required"`
	Description string              `json:"description,omitempty"`
	Amount      decimal.Decimal     `json:"amount" binding:"required"`
	Conditions  []earning.Condition `json:"conditions,omitempty"`
}

// SetRuleActiveRequest toggles an earning rule
type SetRuleActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

// TransactionFilterParams represents history filter parameters
type TransactionFilterParams struct {
	Kind string `form:"kind" binding:"omitempty,oneof=earn spend transfer_out transfer_in purchase bonus admin_credit admin_debit reversal"`
	From string `form:"from" binding:"omitempty"`
	To   string `form:"to" binding:"omitempty"`
}

func mapWalletToResponse(w *wallet.Wallet) WalletResponse {
	return WalletResponse{
		ID:          w.ID.String(),
		UserID:      w.UserID,
		Balance:     w.Balance,
		TotalEarned: w.TotalEarned,
		TotalSpent:  w.TotalSpent,
		IsActive:    w.IsActive,
		IsFrozen:    w.IsFrozen,
		CreatedAt:   w.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   w.UpdatedAt.Format(time.RFC3339),
	}
}

func mapTransactionToResponse(t *transaction.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:            t.ID.String(),
		WalletID:      t.WalletID.String(),
		Kind:          string(t.Kind),
		Amount:        t.Amount,
		BalanceBefore: t.BalanceBefore,
		BalanceAfter:  t.BalanceAfter,
		Status:        string(t.Status),
		ReferenceID:   t.ReferenceID,
		ReferenceType: t.ReferenceType,
		Description:   t.Description,
		Metadata:      t.Metadata,
		IsReversed:    t.IsReversed,
		CreatedAt:     t.CreatedAt.Format(time.RFC3339),
	}
	if t.RelatedWalletID != nil {
		resp.RelatedWalletID = t.RelatedWalletID.String()
	}
	if t.ReversedBy != nil {
		resp.ReversedBy = t.ReversedBy.String()
	}
	return resp
}

func mapTransactionsToResponse(transactions []*transaction.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, 0, len(transactions))
	for _, t := range transactions {
		responses = append(responses, mapTransactionToResponse(t))
	}
	return responses
}

// ProductResponse represents a catalog product in API responses
type ProductResponse struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description,omitempty"`
	Price             decimal.Decimal `json:"price"`
	IsAvailable       bool            `json:"is_available"`
	QuantityAvailable *int            `json:"quantity_available,omitempty"`
	Metadata          map[string]any  `json:"metadata,omitempty"`
	CreatedAt         string          `json:"created_at"`
}

// PurchaseResponse represents a purchase record in API responses
type PurchaseResponse struct {
	ID            string          `json:"id"`
	WalletID      string          `json:"wallet_id"`
	ProductID     string          `json:"product_id"`
	TransactionID string          `json:"transaction_id"`
	Quantity      int             `json:"quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	IsActive      bool            `json:"is_active"`
	PurchasedAt   string          `json:"purchased_at"`
}

func mapProductToResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:                p.ID.String(),
		Name:              p.Name,
		Description:       p.Description,
		Price:             p.Price,
		IsAvailable:       p.IsAvailable,
		QuantityAvailable: p.QuantityAvailable,
		Metadata:          p.Metadata,
		CreatedAt:         p.CreatedAt.Format(time.RFC3339),
	}
}

func mapPurchaseToResponse(p *catalog.Purchase) PurchaseResponse {
	return PurchaseResponse{
		ID:            p.ID.String(),
		WalletID:      p.WalletID.String(),
		ProductID:     p.ProductID.String(),
		TransactionID: p.TransactionID.String(),
		Quantity:      p.Quantity,
		TotalPrice:    p.TotalPrice,
		IsActive:      p.IsActive,
		PurchasedAt:   p.PurchasedAt.Format(time.RFC3339),
	}
}
