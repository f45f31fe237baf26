// Package mongo provides the MongoDB transaction archive, the
// query-side mirror of the authoritative PostgreSQL transaction log.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/credits-ledger/internal/domain/transaction"
)

const (
	// ArchiveCollectionName is the name of the archive collection
	ArchiveCollectionName = "transaction_archive"
)

// archiveDocument is the BSON shape of an archived transaction.
// Amounts are stored as Decimal128 because decimal.Decimal has no BSON
// marshaling of its own; ids are stored as their string form so the
// collection stays readable from the shell.
type archiveDocument struct {
	TransactionID   string               `bson:"transaction_id"`
	WalletID        string               `bson:"wallet_id"`
	Kind            string               `bson:"kind"`
	Amount          primitive.Decimal128 `bson:"amount"`
	BalanceBefore   primitive.Decimal128 `bson:"balance_before"`
	BalanceAfter    primitive.Decimal128 `bson:"balance_after"`
	Status          string               `bson:"status"`
	RelatedWalletID string               `bson:"related_wallet_id,omitempty"`
	ReferenceID     string               `bson:"reference_id,omitempty"`
	ReferenceType   string               `bson:"reference_type,omitempty"`
	Description     string               `bson:"description"`
	Metadata        map[string]any       `bson:"metadata,omitempty"`
	IsReversed      bool                 `bson:"is_reversed"`
	ReversedBy      string               `bson:"reversed_by,omitempty"`
	CreatedBy       string               `bson:"created_by,omitempty"`
	CreatedAt       time.Time            `bson:"created_at"`
}

func newArchiveDocument(t *transaction.Transaction) (*archiveDocument, error) {
	amount, err := toDecimal128(t.Amount)
	if err != nil {
		return nil, err
	}
	balanceBefore, err := toDecimal128(t.BalanceBefore)
	if err != nil {
		return nil, err
	}
	balanceAfter, err := toDecimal128(t.BalanceAfter)
	if err != nil {
		return nil, err
	}

	doc := &archiveDocument{
		TransactionID: t.ID.String(),
		WalletID:      t.WalletID.String(),
		Kind:          string(t.Kind),
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		Status:        string(t.Status),
		ReferenceID:   t.ReferenceID,
		ReferenceType: t.ReferenceType,
		Description:   t.Description,
		Metadata:      t.Metadata,
		IsReversed:    t.IsReversed,
		CreatedAt:     t.CreatedAt,
	}
	if t.RelatedWalletID != nil {
		doc.RelatedWalletID = t.RelatedWalletID.String()
	}
	if t.ReversedBy != nil {
		doc.ReversedBy = t.ReversedBy.String()
	}
	if t.CreatedBy != nil {
		doc.CreatedBy = t.CreatedBy.String()
	}
	return doc, nil
}

// Transaction maps the document back to the domain record.
func (d *archiveDocument) Transaction() (*transaction.Transaction, error) {
	id, err := uuid.Parse(d.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("invalid archived transaction id %q: %w", d.TransactionID, err)
	}
	walletID, err := uuid.Parse(d.WalletID)
	if err != nil {
		return nil, fmt.Errorf("invalid archived wallet id %q: %w", d.WalletID, err)
	}
	amount, err := fromDecimal128(d.Amount)
	if err != nil {
		return nil, err
	}
	balanceBefore, err := fromDecimal128(d.BalanceBefore)
	if err != nil {
		return nil, err
	}
	balanceAfter, err := fromDecimal128(d.BalanceAfter)
	if err != nil {
		return nil, err
	}

	t := &transaction.Transaction{
		ID:            id,
		WalletID:      walletID,
		Kind:          transaction.Kind(d.Kind),
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		Status:        transaction.Status(d.Status),
		ReferenceID:   d.ReferenceID,
		ReferenceType: d.ReferenceType,
		Description:   d.Description,
		Metadata:      d.Metadata,
		IsReversed:    d.IsReversed,
		CreatedAt:     d.CreatedAt,
	}
	if d.RelatedWalletID != "" {
		related, err := uuid.Parse(d.RelatedWalletID)
		if err != nil {
			return nil, fmt.Errorf("invalid archived related wallet id %q: %w", d.RelatedWalletID, err)
		}
		t.RelatedWalletID = &related
	}
	if d.ReversedBy != "" {
		reversedBy, err := uuid.Parse(d.ReversedBy)
		if err != nil {
			return nil, fmt.Errorf("invalid archived reversed_by id %q: %w", d.ReversedBy, err)
		}
		t.ReversedBy = &reversedBy
	}
	if d.CreatedBy != "" {
		createdBy, err := uuid.Parse(d.CreatedBy)
		if err != nil {
			return nil, fmt.Errorf("invalid archived created_by id %q: %w", d.CreatedBy, err)
		}
		t.CreatedBy = &createdBy
	}
	return t, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	parsed, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("failed to convert amount %s to Decimal128: %w", d.String(), err)
	}
	return parsed, nil
}

func fromDecimal128(d primitive.Decimal128) (decimal.Decimal, error) {
	parsed, err := decimal.NewFromString(d.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to parse archived amount %s: %w", d.String(), err)
	}
	return parsed, nil
}

// ArchiveRepository implements the transaction.Archive interface for
// MongoDB
type ArchiveRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewArchiveRepository creates a new MongoDB archive repository
func NewArchiveRepository(logger *slog.Logger, db *mongo.Database) transaction.Archive {
	return &ArchiveRepository{
		db:     db,
		logger: logger,
	}
}

// Insert stores a posted transaction in the archive. Redelivered
// events are detected by transaction id and ignored.
func (r *ArchiveRepository) Insert(ctx context.Context, t *transaction.Transaction) error {
	collection := r.db.Collection(ArchiveCollectionName)

	existing, err := r.GetByID(ctx, t.ID)
	if err != nil && !errors.Is(err, transaction.ErrTransactionNotFound{}) {
		r.logger.Error("Failed to check for existing archive entry",
			"transaction_id", t.ID.String(),
			"error", err)
		return fmt.Errorf("failed to check for existing archive entry: %w", err)
	}
	if existing != nil {
		r.logger.Debug("Transaction already archived, skipping", "transaction_id", t.ID.String())
		return nil
	}

	doc, err := newArchiveDocument(t)
	if err != nil {
		return fmt.Errorf("failed to build archive document: %w", err)
	}

	if _, err := collection.InsertOne(ctx, doc); err != nil {
		r.logger.Error("Failed to archive transaction",
			"transaction_id", t.ID.String(),
			"error", err)
		return fmt.Errorf("failed to archive transaction: %w", err)
	}

	return nil
}

// GetByID retrieves an archived transaction by its id
func (r *ArchiveRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	filter := bson.M{"transaction_id": id.String()}
	var doc archiveDocument
	err := collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, transaction.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to get archived transaction",
			"transaction_id", id.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get archived transaction: %w", err)
	}

	return doc.Transaction()
}

// GetByTimeRange retrieves archived transactions posted within
// [from, to), newest first.
func (r *ArchiveRepository) GetByTimeRange(ctx context.Context, from, to time.Time, limit, offset int) ([]*transaction.Transaction, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	filter := bson.M{"created_at": bson.M{"$gte": from, "$lt": to}}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to query archive by time range", "error", err)
		return nil, fmt.Errorf("failed to query archive by time range: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []archiveDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode archived transactions: %w", err)
	}

	transactions := make([]*transaction.Transaction, 0, len(docs))
	for i := range docs {
		t, err := docs[i].Transaction()
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, nil
}

// CountByWallet counts archived transactions for a wallet
func (r *ArchiveRepository) CountByWallet(ctx context.Context, walletID uuid.UUID) (int64, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	count, err := collection.CountDocuments(ctx, bson.M{"wallet_id": walletID.String()})
	if err != nil {
		r.logger.Error("Failed to count archived transactions",
			"wallet_id", walletID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to count archived transactions: %w", err)
	}

	return count, nil
}
