package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/credits-ledger/internal/domain/transaction"
)

// WalletHandler handles HTTP requests for wallet operations
type WalletHandler struct {
	ledgerService  LedgerService
	maxLeaderboard int
	logger         *slog.Logger
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(logger *slog.Logger, ledgerService LedgerService, maxLeaderboard int) *WalletHandler {
	return &WalletHandler{
		ledgerService:  ledgerService,
		maxLeaderboard: maxLeaderboard,
		logger:         logger,
	}
}

// Create returns the user's wallet, creating it on first contact. The
// operation is idempotent: repeated calls return the same wallet.
func (h *WalletHandler) Create(c *gin.Context) {
	var req CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	w, err := h.ledgerService.GetOrCreateWallet(c.Request.Context(), req.UserID)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapWalletToResponse(w))
}

// GetByID retrieves a wallet by its ID, returning 404 if not found
func (h *WalletHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid wallet ID")
		return
	}

	w, err := h.ledgerService.GetBalance(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapWalletToResponse(w))
}

// GetOverview returns the wallet with its transaction count and recent
// activity
func (h *WalletHandler) GetOverview(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid wallet ID")
		return
	}

	overview, err := h.ledgerService.GetOverview(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, gin.H{
		"wallet":              mapWalletToResponse(overview.Wallet),
		"transaction_count":   overview.TransactionCount,
		"recent_transactions": mapTransactionsToResponse(overview.RecentTransactions),
	})
}

// GetTransactions lists a wallet's transaction history with pagination
// and optional kind and date-range filters
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid wallet ID")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	var filterParams TransactionFilterParams
	if err := c.ShouldBindQuery(&filterParams); err != nil {
		RespondBadRequest(c, "Invalid filter parameters: "+err.Error())
		return
	}

	filter := transaction.Filter{Kind: transaction.Kind(filterParams.Kind)}
	if filterParams.From != "" {
		from, err := time.Parse(time.RFC3339, filterParams.From)
		if err != nil {
			RespondBadRequest(c, "Invalid 'from' timestamp, expected RFC3339")
			return
		}
		filter.From = from
	}
	if filterParams.To != "" {
		to, err := time.Parse(time.RFC3339, filterParams.To)
		if err != nil {
			RespondBadRequest(c, "Invalid 'to' timestamp, expected RFC3339")
			return
		}
		filter.To = to
	}

	transactions, total, err := h.ledgerService.ListTransactions(c.Request.Context(), id, filter, pagination.Page, pagination.PerPage)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondWithPaginatedData(c, 200, mapTransactionsToResponse(transactions), pagination.Page, pagination.PerPage, int(total))
}

// Leaderboard ranks wallets by lifetime earnings
func (h *WalletHandler) Leaderboard(c *gin.Context) {
	var params struct {
		Limit int `form:"limit,default=10" binding:"min=1"`
	}
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid limit parameter: "+err.Error())
		return
	}
	if params.Limit > h.maxLeaderboard {
		params.Limit = h.maxLeaderboard
	}

	summaries, err := h.ledgerService.Leaderboard(c.Request.Context(), params.Limit)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, summaries)
}

// Audit replays the wallet's transaction log against its cached balance
func (h *WalletHandler) Audit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid wallet ID")
		return
	}

	if err := h.ledgerService.AuditWallet(c.Request.Context(), id); err != nil {
		if errors.Is(err, transaction.ErrLedgerDrift) {
			RespondWithError(c, 500, "LEDGER_DRIFT", "Wallet balance does not match its transaction log")
			return
		}
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, gin.H{"wallet_id": id.String(), "consistent": true})
}

// SetFrozen freezes or unfreezes a wallet
func (h *WalletHandler) SetFrozen(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid wallet ID")
		return
	}

	var req FreezeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.ledgerService.SetWalletFrozen(c.Request.Context(), id, *req.Frozen); err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondNoContent(c)
}
