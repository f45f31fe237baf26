package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/credits-ledger/internal/domain/transaction"
	"github.com/credits-ledger/internal/ledger"
)

// TransactionHandler handles HTTP requests for ledger operations
type TransactionHandler struct {
	ledgerService LedgerService
	logger        *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, ledgerService LedgerService) *TransactionHandler {
	return &TransactionHandler{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

// Credit adds credits to a wallet
func (h *TransactionHandler) Credit(c *gin.Context) {
	var req CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	kind := transaction.Kind(req.Kind)
	if req.Kind == "" {
		kind = transaction.KindEarn
	}

	p := ledger.EntryParams{
		WalletID:      uuid.MustParse(req.WalletID),
		Amount:        req.Amount,
		Kind:          kind,
		Description:   req.Description,
		ReferenceID:   req.ReferenceID,
		ReferenceType: req.ReferenceType,
		Metadata:      req.Metadata,
	}
	if req.ActorID != "" {
		actorID := uuid.MustParse(req.ActorID)
		p.ActorID = &actorID
	}

	posted, err := h.ledgerService.Credit(c.Request.Context(), p)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapTransactionToResponse(posted))
}

// Debit removes credits from a wallet
func (h *TransactionHandler) Debit(c *gin.Context) {
	var req DebitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	kind := transaction.Kind(req.Kind)
	if req.Kind == "" {
		kind = transaction.KindSpend
	}

	p := ledger.EntryParams{
		WalletID:      uuid.MustParse(req.WalletID),
		Amount:        req.Amount,
		Kind:          kind,
		Description:   req.Description,
		ReferenceID:   req.ReferenceID,
		ReferenceType: req.ReferenceType,
		Metadata:      req.Metadata,
	}
	if req.ActorID != "" {
		actorID := uuid.MustParse(req.ActorID)
		p.ActorID = &actorID
	}

	posted, err := h.ledgerService.Debit(c.Request.Context(), p)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapTransactionToResponse(posted))
}

// Transfer moves credits between two wallets atomically
func (h *TransactionHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	outTx, inTx, err := h.ledgerService.Transfer(
		c.Request.Context(),
		uuid.MustParse(req.FromWalletID),
		uuid.MustParse(req.ToWalletID),
		req.Amount,
		req.Description,
	)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, TransferResponse{
		Outgoing: mapTransactionToResponse(outTx),
		Incoming: mapTransactionToResponse(inTx),
	})
}

// Reverse posts a compensating transaction for a completed one
func (h *TransactionHandler) Reverse(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid transaction ID")
		return
	}

	var req ReverseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	var actorID *uuid.UUID
	if req.ActorID != "" {
		parsed := uuid.MustParse(req.ActorID)
		actorID = &parsed
	}

	reversal, err := h.ledgerService.Reverse(c.Request.Context(), id, req.Reason, actorID)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapTransactionToResponse(reversal))
}

// Award evaluates a reported activity against its earning rule and
// credits the wallet when eligible. An ineligible activity returns 200
// with a null award rather than an error.
func (h *TransactionHandler) Award(c *gin.Context) {
	var req AwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	posted, err := h.ledgerService.AwardForActivity(c.Request.Context(), req.UserID, req.Activity, req.Context)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	if posted == nil {
		RespondOK(c, gin.H{"awarded": false})
		return
	}

	RespondCreated(c, gin.H{
		"awarded":     true,
		"transaction": mapTransactionToResponse(posted),
	})
}
