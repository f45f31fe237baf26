package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/credits-ledger/internal/domain/catalog"
)

// StoreHandler handles HTTP requests for the credits marketplace
type StoreHandler struct {
	marketplaceService MarketplaceService
	logger             *slog.Logger
}

// NewStoreHandler creates a new store handler
func NewStoreHandler(logger *slog.Logger, marketplaceService MarketplaceService) *StoreHandler {
	return &StoreHandler{
		marketplaceService: marketplaceService,
		logger:             logger,
	}
}

// ListProducts lists catalog products, available ones only unless
// include_unavailable is set
func (h *StoreHandler) ListProducts(c *gin.Context) {
	var params struct {
		IncludeUnavailable bool `form:"include_unavailable,default=false"`
	}
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	products, err := h.marketplaceService.ListProducts(c.Request.Context(), !params.IncludeUnavailable)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	responses := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		responses = append(responses, mapProductToResponse(p))
	}
	RespondOK(c, responses)
}

// GetProduct retrieves a product by its ID
func (h *StoreHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid product ID")
		return
	}

	product, err := h.marketplaceService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapProductToResponse(product))
}

// CreateProduct adds a product to the catalog
func (h *StoreHandler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.Price.Sign() <= 0 {
		RespondBadRequest(c, "Product price must be positive")
		return
	}

	now := time.Now().UTC()
	product := &catalog.Product{
		ID:                uuid.New(),
		Name:              req.Name,
		Description:       req.Description,
		Price:             req.Price,
		IsAvailable:       true,
		QuantityAvailable: req.QuantityAvailable,
		Metadata:          req.Metadata,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := h.marketplaceService.CreateProduct(c.Request.Context(), product); err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapProductToResponse(product))
}

// Purchase spends wallet credits on a product
func (h *StoreHandler) Purchase(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	purchase, err := h.marketplaceService.Purchase(
		c.Request.Context(),
		uuid.MustParse(req.WalletID),
		uuid.MustParse(req.ProductID),
		quantity,
	)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapPurchaseToResponse(purchase))
}

// ListPurchases lists a wallet's purchase history
func (h *StoreHandler) ListPurchases(c *gin.Context) {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid wallet ID")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	purchases, err := h.marketplaceService.ListPurchases(c.Request.Context(), walletID, pagination.Page, pagination.PerPage)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	responses := make([]PurchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		responses = append(responses, mapPurchaseToResponse(p))
	}
	RespondOK(c, responses)
}

// Refund reverses the debit behind a purchase and restores stock
func (h *StoreHandler) Refund(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid purchase ID")
		return
	}

	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	var actorID *uuid.UUID
	if req.ActorID != "" {
		parsed := uuid.MustParse(req.ActorID)
		actorID = &parsed
	}

	reversal, err := h.marketplaceService.RefundPurchase(c.Request.Context(), id, req.Reason, actorID)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapTransactionToResponse(reversal))
}
