package handler

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, loanHandler *LoanHandler, paymentHandler *LoanPaymentHandler, receiptHandler *ReceiptHandler, transactionHandler *TransactionHandler, accountHandler *AccountHandler, wsHandler *WebSocketHandler) {
	// API version 1
	api := e.Group("/api/v1")

	// Loan routes
	loans := api.Group("/loans")
	loans.POST("", loanHandler.CreateLoan)
	loans.POST("/recompute-metrics", loanHandler.RecomputeMetrics)
	loans.GET("/:id", loanHandler.GetLoan)
	loans.PUT("/:id", loanHandler.UpdateLoan)
	loans.DELETE("/:id", loanHandler.DeleteLoan)
	loans.GET("/:id/payments", paymentHandler.GetPaymentsByLoan)
	loans.GET("/:id/transactions", transactionHandler.GetTransactionsByLoan)

	// Lead routes
	leads := api.Group("/leads")
	leads.GET("/:id/loans", loanHandler.GetLoansByLead)

	// Loan payment routes
	payments := api.Group("/loan-payments")
	payments.POST("", paymentHandler.CreatePayment)
	payments.PUT("/:id", paymentHandler.UpdatePayment)
	payments.DELETE("/:id", paymentHandler.DeletePayment)

	// Batch receipt and falco compensation routes
	receipts := api.Group("/lead-payments")
	receipts.POST("", receiptHandler.CreateReceipt)
	receipts.GET("/:id", receiptHandler.GetReceipt)
	receipts.POST("/:id/compensations", receiptHandler.RegisterCompensation)
	receipts.GET("/:id/compensations", receiptHandler.GetCompensations)

	// Manual transaction routes
	transactions := api.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PATCH("/:id/amount", transactionHandler.UpdateTransactionAmount)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Account routes
	accounts := api.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetAccounts)
	accounts.GET("/:id", accountHandler.GetAccount)
	accounts.GET("/:id/verify-balance", accountHandler.VerifyBalance)

	// WebSocket endpoint
	e.GET("/ws", wsHandler.HandleWS)
}
