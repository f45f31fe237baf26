package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/credits-ledger/internal/domain/catalog"
	"github.com/credits-ledger/internal/domain/transaction"
	"github.com/credits-ledger/internal/domain/wallet"
)

// respondDomainError maps a domain error to its HTTP status: validation
// failures are 400, missing resources 404, state conflicts 409, and
// anything unrecognized a logged 500.
func respondDomainError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, wallet.ErrInvalidAmount),
		errors.Is(err, wallet.ErrSameWallet),
		errors.Is(err, wallet.ErrEmptyUserID),
		errors.Is(err, catalog.ErrInvalidQuantity):
		RespondBadRequest(c, err.Error())

	case errors.Is(err, wallet.ErrWalletNotFound{}),
		errors.Is(err, transaction.ErrTransactionNotFound{}),
		errors.Is(err, catalog.ErrProductNotFound{}):
		RespondNotFound(c, err.Error())

	case errors.Is(err, wallet.ErrInsufficientBalance),
		errors.Is(err, wallet.ErrWalletInactive),
		errors.Is(err, wallet.ErrWalletFrozen),
		errors.Is(err, transaction.ErrAlreadyReversed),
		errors.Is(err, transaction.ErrNotReversible),
		errors.Is(err, transaction.ErrDuplicateTransaction{}),
		errors.Is(err, catalog.ErrProductUnavailable),
		errors.Is(err, catalog.ErrOutOfStock):
		RespondConflict(c, err.Error())

	default:
		var purchaseNotFound catalog.ErrPurchaseNotFound
		if errors.As(err, &purchaseNotFound) {
			RespondNotFound(c, err.Error())
			return
		}
		logger.Error("Unhandled service error", "error", err)
		RespondInternalError(c)
	}
}
