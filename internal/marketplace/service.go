// Package marketplace implements the credits store: the product
// catalog and the purchase flow that spends wallet credits on items.
package marketplace

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/credits-ledger/internal/domain/catalog"
	"github.com/credits-ledger/internal/domain/transaction"
	"github.com/credits-ledger/internal/ledger"
)

// Ledger is the slice of the core ledger the marketplace composes
// with: tx-scoped posting so a purchase shares its unit of work.
type Ledger interface {
	DebitInTx(ctx context.Context, tx pgx.Tx, p ledger.EntryParams) (*transaction.Transaction, error)
	ReverseInTx(ctx context.Context, tx pgx.Tx, transactionID uuid.UUID, reason string, actorID *uuid.UUID) (*transaction.Transaction, error)
}

// Service coordinates purchases between the catalog and the core
// ledger. A purchase is one unit of work: the stock decrement, the
// wallet debit, the transaction record, and the purchase record all
// commit or roll back together.
type Service struct {
	db        ledger.DB
	products  catalog.ProductRepository
	purchases catalog.PurchaseRepository
	ledger    Ledger
	logger    *slog.Logger
}

// NewService creates the marketplace service
func NewService(
	db ledger.DB,
	products catalog.ProductRepository,
	purchases catalog.PurchaseRepository,
	ledgerSvc Ledger,
	logger *slog.Logger,
) *Service {
	return &Service{
		db:        db,
		products:  products,
		purchases: purchases,
		ledger:    ledgerSvc,
		logger:    logger,
	}
}

// Purchase spends wallet credits on a product. The product row is
// locked before the wallet so concurrent purchases of the last unit
// serialize on the stock check; on any failure nothing is left behind.
func (s *Service) Purchase(ctx context.Context, walletID, productID uuid.UUID, quantity int) (*catalog.Purchase, error) {
	if quantity < 1 {
		return nil, catalog.ErrInvalidQuantity
	}

	var purchase *catalog.Purchase
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		product, err := s.products.WithTx(tx).LockForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if err := product.CheckPurchasable(quantity); err != nil {
			return err
		}

		totalPrice := product.TotalPrice(quantity)

		debit, err := s.ledger.DebitInTx(ctx, tx, ledger.EntryParams{
			WalletID:      walletID,
			Amount:        totalPrice,
			Kind:          transaction.KindPurchase,
			Description:   "Purchase of " + product.Name,
			ReferenceID:   productID.String(),
			ReferenceType: "product",
			Metadata: map[string]any{
				"product_id":   productID.String(),
				"product_name": product.Name,
				"quantity":     quantity,
			},
		})
		if err != nil {
			return err
		}

		purchase = catalog.NewPurchase(walletID, productID, debit.ID, quantity, totalPrice)
		if err := s.purchases.WithTx(tx).Create(ctx, purchase); err != nil {
			return err
		}

		product.TakeStock(quantity)
		if err := s.products.WithTx(tx).UpdateStock(ctx, product); err != nil {
			return err
		}

		s.logger.Info("Purchase completed",
			"purchase_id", purchase.ID.String(),
			"wallet_id", walletID.String(),
			"product_id", productID.String(),
			"quantity", quantity,
			"total_price", totalPrice.String(),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return purchase, nil
}

// RefundPurchase reverses the debit behind a purchase and deactivates
// the purchase record, restoring limited stock, as one unit of work.
func (s *Service) RefundPurchase(ctx context.Context, purchaseID uuid.UUID, reason string, actorID *uuid.UUID) (*transaction.Transaction, error) {
	purchase, err := s.purchases.GetByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if !purchase.IsActive {
		return nil, transaction.ErrAlreadyReversed
	}

	var reversal *transaction.Transaction
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		product, err := s.products.WithTx(tx).LockForUpdate(ctx, purchase.ProductID)
		if err != nil {
			return err
		}

		reversal, err = s.ledger.ReverseInTx(ctx, tx, purchase.TransactionID, reason, actorID)
		if err != nil {
			return err
		}

		if err := s.purchases.WithTx(tx).Deactivate(ctx, purchase.ID); err != nil {
			return err
		}

		if product.Limited() {
			restored := *product.QuantityAvailable + purchase.Quantity
			product.QuantityAvailable = &restored
			product.IsAvailable = true
			if err := s.products.WithTx(tx).UpdateStock(ctx, product); err != nil {
				return err
			}
		}

		s.logger.Info("Purchase refunded",
			"purchase_id", purchase.ID.String(),
			"reversal_id", reversal.ID.String(),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return reversal, nil
}

// ListProducts returns the catalog, optionally filtered to available
// items.
func (s *Service) ListProducts(ctx context.Context, availableOnly bool) ([]*catalog.Product, error) {
	return s.products.List(ctx, availableOnly)
}

// GetProduct returns a single product by id.
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return s.products.GetByID(ctx, id)
}

// CreateProduct adds a product to the catalog.
func (s *Service) CreateProduct(ctx context.Context, p *catalog.Product) error {
	return s.products.Create(ctx, p)
}

// ListPurchases returns a wallet's purchase history, newest first.
func (s *Service) ListPurchases(ctx context.Context, walletID uuid.UUID, page, perPage int) ([]*catalog.Purchase, error) {
	offset := (page - 1) * perPage
	return s.purchases.ListByWallet(ctx, walletID, perPage, offset)
}

func (s *Service) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx err: %v, rb err: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit(ctx)
}
