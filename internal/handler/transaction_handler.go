package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/solventa/solventa-backend/internal/domain"
	"github.com/solventa/solventa-backend/internal/service"
)

// TransactionHandler handles manual ledger movement HTTP requests
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// CreateTransactionRequest represents the create transaction request body
type CreateTransactionRequest struct {
	Amount               string  `json:"amount"`
	Date                 string  `json:"date"`
	Type                 string  `json:"type"`
	IncomeSource         *string `json:"incomeSource,omitempty"`
	ExpenseSource        *string `json:"expenseSource,omitempty"`
	SourceAccountID      *int32  `json:"sourceAccountId,omitempty"`
	DestinationAccountID *int32  `json:"destinationAccountId,omitempty"`
	LeadID               *int32  `json:"leadId,omitempty"`
	Description          *string `json:"description,omitempty"`
}

// UpdateTransactionAmountRequest represents the amount update request body
type UpdateTransactionAmountRequest struct {
	Amount string `json:"amount"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID                   int32   `json:"id"`
	Amount               string  `json:"amount"`
	Date                 string  `json:"date"`
	Type                 string  `json:"type"`
	IncomeSource         *string `json:"incomeSource,omitempty"`
	ExpenseSource        *string `json:"expenseSource,omitempty"`
	SourceAccountID      *int32  `json:"sourceAccountId,omitempty"`
	DestinationAccountID *int32  `json:"destinationAccountId,omitempty"`
	LoanID               *int32  `json:"loanId,omitempty"`
	LoanPaymentID        *int32  `json:"loanPaymentId,omitempty"`
	LeadID               *int32  `json:"leadId,omitempty"`
	ProfitAmount         string  `json:"profitAmount"`
	ReturnToCapital      string  `json:"returnToCapital"`
	Description          *string `json:"description,omitempty"`
	CreatedAt            string  `json:"createdAt"`
}

// CreateTransaction handles POST /api/v1/transactions
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	var req CreateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return NewValidationError(c, "Invalid date", []ValidationError{
			{Field: "date", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	transaction := &domain.Transaction{
		Amount:               amount,
		Date:                 date,
		Type:                 domain.TransactionType(req.Type),
		SourceAccountID:      req.SourceAccountID,
		DestinationAccountID: req.DestinationAccountID,
		LeadID:               req.LeadID,
		Description:          req.Description,
	}
	if req.IncomeSource != nil {
		source := domain.IncomeSource(*req.IncomeSource)
		transaction.IncomeSource = &source
	}
	if req.ExpenseSource != nil {
		source := domain.ExpenseSource(*req.ExpenseSource)
		transaction.ExpenseSource = &source
	}

	created, err := h.transactionService.CreateTransaction(transaction)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionTypeInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "type", Message: "Must be INCOME, EXPENSE, TRANSFER or INVESTMENT"},
			})
		}
		if errors.Is(err, domain.ErrSourceAccountRequired) || errors.Is(err, domain.ErrDestAccountRequired) {
			return NewValidationError(c, err.Error(), nil)
		}
		if errors.Is(err, domain.ErrAccountNotFound) {
			return NewNotFoundError(c, "Account not found")
		}
		if errors.Is(err, domain.ErrInsufficientFunds) {
			return NewConflictError(c, "The source account cannot cover this movement")
		}
		log.Error().Err(err).Msg("Failed to create transaction")
		return NewInternalError(c, "Failed to create transaction")
	}

	log.Info().Int32("transaction_id", created.ID).Str("type", string(created.Type)).Msg("Transaction created")
	return c.JSON(http.StatusCreated, toTransactionResponse(created))
}

// GetTransaction handles GET /api/v1/transactions/:id
func (h *TransactionHandler) GetTransaction(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	transaction, err := h.transactionService.GetTransaction(int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return NewNotFoundError(c, "Transaction not found")
		}
		log.Error().Err(err).Int("transaction_id", id).Msg("Failed to get transaction")
		return NewInternalError(c, "Failed to get transaction")
	}

	return c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// GetTransactionsByLoan handles GET /api/v1/loans/:id/transactions
func (h *TransactionHandler) GetTransactionsByLoan(c echo.Context) error {
	loanID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	transactions, err := h.transactionService.GetTransactionsByLoan(int32(loanID))
	if err != nil {
		log.Error().Err(err).Int("loan_id", loanID).Msg("Failed to get transactions")
		return NewInternalError(c, "Failed to get transactions")
	}

	response := make([]TransactionResponse, len(transactions))
	for i, transaction := range transactions {
		response[i] = toTransactionResponse(transaction)
	}
	return c.JSON(http.StatusOK, response)
}

// UpdateTransactionAmount handles PATCH /api/v1/transactions/:id/amount
func (h *TransactionHandler) UpdateTransactionAmount(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	var req UpdateTransactionAmountRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	updated, err := h.transactionService.UpdateTransactionAmount(int32(id), amount)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return NewNotFoundError(c, "Transaction not found")
		}
		if errors.Is(err, domain.ErrInsufficientFunds) {
			return NewConflictError(c, "The account cannot absorb the amount change")
		}
		log.Error().Err(err).Int("transaction_id", id).Msg("Failed to update transaction")
		return NewInternalError(c, "Failed to update transaction")
	}

	return c.JSON(http.StatusOK, toTransactionResponse(updated))
}

// DeleteTransaction handles DELETE /api/v1/transactions/:id
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	if err := h.transactionService.DeleteTransaction(int32(id)); err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return NewNotFoundError(c, "Transaction not found")
		}
		log.Error().Err(err).Int("transaction_id", id).Msg("Failed to delete transaction")
		return NewInternalError(c, "Failed to delete transaction")
	}

	log.Info().Int("transaction_id", id).Msg("Transaction deleted")
	return c.NoContent(http.StatusNoContent)
}

func toTransactionResponse(t *domain.Transaction) TransactionResponse {
	response := TransactionResponse{
		ID:                   t.ID,
		Amount:               t.Amount.StringFixed(2),
		Date:                 t.Date.Format("2006-01-02"),
		Type:                 string(t.Type),
		SourceAccountID:      t.SourceAccountID,
		DestinationAccountID: t.DestinationAccountID,
		LoanID:               t.LoanID,
		LoanPaymentID:        t.LoanPaymentID,
		LeadID:               t.LeadID,
		ProfitAmount:         t.ProfitAmount.StringFixed(2),
		ReturnToCapital:      t.ReturnToCapital.StringFixed(2),
		Description:          t.Description,
		CreatedAt:            t.CreatedAt.Format(time.RFC3339),
	}
	if t.IncomeSource != nil {
		source := string(*t.IncomeSource)
		response.IncomeSource = &source
	}
	if t.ExpenseSource != nil {
		source := string(*t.ExpenseSource)
		response.ExpenseSource = &source
	}
	return response
}
