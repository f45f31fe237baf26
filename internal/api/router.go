package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/credits-ledger/internal/api/handler"
	"github.com/credits-ledger/internal/api/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	walletHandler *handler.WalletHandler,
	transactionHandler *handler.TransactionHandler,
	storeHandler *handler.StoreHandler,
	earningHandler *handler.EarningHandler,
	auditHandler *handler.AuditHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Wallet operations
		wallets := v1.Group("/wallets")
		{
			wallets.POST("", walletHandler.Create)
			wallets.GET("/:id", walletHandler.GetByID)
			wallets.GET("/:id/overview", walletHandler.GetOverview)
			wallets.GET("/:id/transactions", walletHandler.GetTransactions)
			wallets.GET("/:id/purchases", storeHandler.ListPurchases)
			wallets.GET("/:id/audit", walletHandler.Audit)
			wallets.PUT("/:id/freeze", walletHandler.SetFrozen)
		}
		v1.GET("/leaderboard", walletHandler.Leaderboard)

		// Ledger operations
		transactions := v1.Group("/transactions")
		{
			transactions.POST("/credit", transactionHandler.Credit)
			transactions.POST("/debit", transactionHandler.Debit)
			transactions.POST("/transfer", transactionHandler.Transfer)
			transactions.POST("/:id/reverse", transactionHandler.Reverse)
		}
		v1.POST("/awards", transactionHandler.Award)

		// Earning rule catalog
		rules := v1.Group("/rules")
		{
			rules.GET("", earningHandler.ListRules)
			rules.POST("", earningHandler.CreateRule)
			rules.PUT("/:name/active", earningHandler.SetRuleActive)
		}

		// Marketplace operations
		products := v1.Group("/products")
		{
			products.GET("", storeHandler.ListProducts)
			products.POST("", storeHandler.CreateProduct)
			products.GET("/:id", storeHandler.GetProduct)
		}
		purchases := v1.Group("/purchases")
		{
			purchases.POST("", storeHandler.Purchase)
			purchases.POST("/:id/refund", storeHandler.Refund)
		}

		// Audit queries against the archive mirror
		audit := v1.Group("/audit")
		{
			audit.GET("/transactions", auditHandler.ListByTimeRange)
			audit.GET("/transactions/:id", auditHandler.GetByID)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
