package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/credits-ledger/internal/domain/catalog"
	"github.com/credits-ledger/internal/domain/earning"
	"github.com/credits-ledger/internal/domain/transaction"
	"github.com/credits-ledger/internal/domain/wallet"
	"github.com/credits-ledger/internal/ledger"
	"github.com/credits-ledger/internal/marketplace"
)

// LedgerService is the slice of the core ledger the HTTP layer depends
// on. Handlers hold the interface so they can be tested against mocks.
type LedgerService interface {
	GetOrCreateWallet(ctx context.Context, userID string) (*wallet.Wallet, error)
	GetBalance(ctx context.Context, walletID uuid.UUID) (*wallet.Wallet, error)
	GetOverview(ctx context.Context, walletID uuid.UUID) (*ledger.Overview, error)
	ListTransactions(ctx context.Context, walletID uuid.UUID, filter transaction.Filter, page, perPage int) ([]*transaction.Transaction, int64, error)
	Leaderboard(ctx context.Context, limit int) ([]*wallet.Summary, error)
	AuditWallet(ctx context.Context, walletID uuid.UUID) error
	SetWalletFrozen(ctx context.Context, walletID uuid.UUID, frozen bool) error

	Credit(ctx context.Context, p ledger.EntryParams) (*transaction.Transaction, error)
	Debit(ctx context.Context, p ledger.EntryParams) (*transaction.Transaction, error)
	Transfer(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal, description string) (*transaction.Transaction, *transaction.Transaction, error)
	Reverse(ctx context.Context, transactionID uuid.UUID, reason string, actorID *uuid.UUID) (*transaction.Transaction, error)
	AwardForActivity(ctx context.Context, userID, activity string, facts earning.Context) (*transaction.Transaction, error)

	ListRules(ctx context.Context) ([]*earning.Rule, error)
	CreateRule(ctx context.Context, rule *earning.Rule) error
	SetRuleActive(ctx context.Context, name string, active bool) error
}

// MarketplaceService is the marketplace surface the HTTP layer depends
// on.
type MarketplaceService interface {
	ListProducts(ctx context.Context, availableOnly bool) ([]*catalog.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
	CreateProduct(ctx context.Context, p *catalog.Product) error
	Purchase(ctx context.Context, walletID, productID uuid.UUID, quantity int) (*catalog.Purchase, error)
	ListPurchases(ctx context.Context, walletID uuid.UUID, page, perPage int) ([]*catalog.Purchase, error)
	RefundPurchase(ctx context.Context, purchaseID uuid.UUID, reason string, actorID *uuid.UUID) (*transaction.Transaction, error)
}

// Compile-time checks that the concrete services satisfy the handler
// interfaces.
var (
	_ LedgerService      = (*ledger.Service)(nil)
	_ MarketplaceService = (*marketplace.Service)(nil)
)
