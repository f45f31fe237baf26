package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/credits-ledger/internal/domain/earning"
)

// EarningHandler handles HTTP requests for the earning rule catalog
type EarningHandler struct {
	ledgerService LedgerService
	logger        *slog.Logger
}

// NewEarningHandler creates a new earning rule handler
func NewEarningHandler(logger *slog.Logger, ledgerService LedgerService) *EarningHandler {
	return &EarningHandler{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

// ListRules returns the full rule catalog
func (h *EarningHandler) ListRules(c *gin.Context) {
	rules, err := h.ledgerService.ListRules(c.Request.Context())
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, rules)
}

// CreateRule adds a rule to the catalog
func (h *EarningHandler) CreateRule(c *gin.Context) {
	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.Amount.Sign() <= 0 {
		RespondBadRequest(c, "Rule amount must be positive")
		return
	}

	now := time.Now().UTC()
	rule := &earning.Rule{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Amount:      req.Amount,
		IsActive:    true,
		Conditions:  req.Conditions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.ledgerService.CreateRule(c.Request.Context(), rule); err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, rule)
}

// SetRuleActive enables or disables a rule by name
func (h *EarningHandler) SetRuleActive(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		RespondBadRequest(c, "Rule name is required")
		return
	}

	var req SetRuleActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.ledgerService.SetRuleActive(c.Request.Context(), name, *req.Active); err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondNoContent(c)
}
