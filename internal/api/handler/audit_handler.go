package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/credits-ledger/internal/domain/transaction"
)

// AuditHandler serves read-only queries against the transaction
// archive, the MongoDB mirror fed from the event stream. The
// authoritative PostgreSQL log backs the wallet-scoped history
// endpoints; the archive exists for cross-wallet audit sweeps.
type AuditHandler struct {
	archive transaction.Archive
	logger  *slog.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(logger *slog.Logger, archive transaction.Archive) *AuditHandler {
	return &AuditHandler{
		archive: archive,
		logger:  logger,
	}
}

// ListByTimeRange lists archived transactions posted within [from, to),
// newest first. A missing "to" means now; a missing "from" means 24
// hours before "to".
func (h *AuditHandler) ListByTimeRange(c *gin.Context) {
	var params struct {
		From string `form:"from" binding:"omitempty"`
		To   string `form:"to" binding:"omitempty"`
	}
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	to := time.Now().UTC()
	if params.To != "" {
		parsed, err := time.Parse(time.RFC3339, params.To)
		if err != nil {
			RespondBadRequest(c, "Invalid 'to' timestamp, expected RFC3339")
			return
		}
		to = parsed
	}

	from := to.Add(-24 * time.Hour)
	if params.From != "" {
		parsed, err := time.Parse(time.RFC3339, params.From)
		if err != nil {
			RespondBadRequest(c, "Invalid 'from' timestamp, expected RFC3339")
			return
		}
		from = parsed
	}
	if !from.Before(to) {
		RespondBadRequest(c, "'from' must be before 'to'")
		return
	}

	offset := (pagination.Page - 1) * pagination.PerPage
	transactions, err := h.archive.GetByTimeRange(c.Request.Context(), from, to, pagination.PerPage, offset)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapTransactionsToResponse(transactions))
}

// GetByID retrieves one archived transaction
func (h *AuditHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid transaction ID")
		return
	}

	archived, err := h.archive.GetByID(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapTransactionToResponse(archived))
}
