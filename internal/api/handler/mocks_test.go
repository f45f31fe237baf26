package handler

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/credits-ledger/internal/domain/catalog"
	"github.com/credits-ledger/internal/domain/earning"
	"github.com/credits-ledger/internal/domain/transaction"
	"github.com/credits-ledger/internal/domain/wallet"
	"github.com/credits-ledger/internal/ledger"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// MockLedgerService implements LedgerService for handler tests
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) GetOrCreateWallet(ctx context.Context, userID string) (*wallet.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

func (m *MockLedgerService) GetBalance(ctx context.Context, walletID uuid.UUID) (*wallet.Wallet, error) {
	args := m.Called(ctx, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

func (m *MockLedgerService) GetOverview(ctx context.Context, walletID uuid.UUID) (*ledger.Overview, error) {
	args := m.Called(ctx, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Overview), args.Error(1)
}

func (m *MockLedgerService) ListTransactions(ctx context.Context, walletID uuid.UUID, filter transaction.Filter, page, perPage int) ([]*transaction.Transaction, int64, error) {
	args := m.Called(ctx, walletID, filter, page, perPage)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*transaction.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerService) Leaderboard(ctx context.Context, limit int) ([]*wallet.Summary, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*wallet.Summary), args.Error(1)
}

func (m *MockLedgerService) AuditWallet(ctx context.Context, walletID uuid.UUID) error {
	args := m.Called(ctx, walletID)
	return args.Error(0)
}

func (m *MockLedgerService) SetWalletFrozen(ctx context.Context, walletID uuid.UUID, frozen bool) error {
	args := m.Called(ctx, walletID, frozen)
	return args.Error(0)
}

func (m *MockLedgerService) Credit(ctx context.Context, p ledger.EntryParams) (*transaction.Transaction, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockLedgerService) Debit(ctx context.Context, p ledger.EntryParams) (*transaction.Transaction, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockLedgerService) Transfer(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal, description string) (*transaction.Transaction, *transaction.Transaction, error) {
	args := m.Called(ctx, fromID, toID, amount, description)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*transaction.Transaction), args.Get(1).(*transaction.Transaction), args.Error(2)
}

func (m *MockLedgerService) Reverse(ctx context.Context, transactionID uuid.UUID, reason string, actorID *uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, transactionID, reason, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockLedgerService) AwardForActivity(ctx context.Context, userID, activity string, facts earning.Context) (*transaction.Transaction, error) {
	args := m.Called(ctx, userID, activity, facts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockLedgerService) ListRules(ctx context.Context) ([]*earning.Rule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*earning.Rule), args.Error(1)
}

func (m *MockLedgerService) CreateRule(ctx context.Context, rule *earning.Rule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockLedgerService) SetRuleActive(ctx context.Context, name string, active bool) error {
	args := m.Called(ctx, name, active)
	return args.Error(0)
}

// MockMarketplaceService implements MarketplaceService for handler tests
type MockMarketplaceService struct {
	mock.Mock
}

func (m *MockMarketplaceService) ListProducts(ctx context.Context, availableOnly bool) ([]*catalog.Product, error) {
	args := m.Called(ctx, availableOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.Product), args.Error(1)
}

func (m *MockMarketplaceService) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockMarketplaceService) CreateProduct(ctx context.Context, p *catalog.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockMarketplaceService) Purchase(ctx context.Context, walletID, productID uuid.UUID, quantity int) (*catalog.Purchase, error) {
	args := m.Called(ctx, walletID, productID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Purchase), args.Error(1)
}

func (m *MockMarketplaceService) ListPurchases(ctx context.Context, walletID uuid.UUID, page, perPage int) ([]*catalog.Purchase, error) {
	args := m.Called(ctx, walletID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.Purchase), args.Error(1)
}

func (m *MockMarketplaceService) RefundPurchase(ctx context.Context, purchaseID uuid.UUID, reason string, actorID *uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, purchaseID, reason, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

// Interface compliance checks for the mocks themselves.
var (
	_ LedgerService      = (*MockLedgerService)(nil)
	_ MarketplaceService = (*MockMarketplaceService)(nil)
)
