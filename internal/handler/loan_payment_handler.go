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

// LoanPaymentHandler handles loan payment HTTP requests
type LoanPaymentHandler struct {
	paymentService *service.PaymentService
}

// NewLoanPaymentHandler creates a new LoanPaymentHandler
func NewLoanPaymentHandler(paymentService *service.PaymentService) *LoanPaymentHandler {
	return &LoanPaymentHandler{paymentService: paymentService}
}

// CreatePaymentRequest represents the create payment request body
type CreatePaymentRequest struct {
	LoanID        int32  `json:"loanId"`
	Amount        string `json:"amount"`
	Comission     string `json:"comission"`
	ReceivedAt    string `json:"receivedAt"`
	Type          string `json:"type,omitempty"`
	PaymentMethod string `json:"paymentMethod"`
}

// UpdatePaymentRequest represents the update payment request body
type UpdatePaymentRequest struct {
	Amount        string `json:"amount"`
	Comission     string `json:"comission"`
	ReceivedAt    string `json:"receivedAt"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID                    int32  `json:"id"`
	LoanID                int32  `json:"loanId"`
	LeadPaymentReceivedID *int32 `json:"leadPaymentReceivedId,omitempty"`
	Amount                string `json:"amount"`
	Comission             string `json:"comission"`
	ReceivedAt            string `json:"receivedAt"`
	Type                  string `json:"type"`
	PaymentMethod         string `json:"paymentMethod"`
	CreatedAt             string `json:"createdAt"`
}

// CreatePayment handles POST /api/v1/loan-payments
func (h *LoanPaymentHandler) CreatePayment(c echo.Context) error {
	var req CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	comission := decimal.Zero
	if req.Comission != "" {
		comission, err = decimal.NewFromString(req.Comission)
		if err != nil {
			return NewValidationError(c, "Invalid comission", []ValidationError{
				{Field: "comission", Message: "Must be a valid decimal number"},
			})
		}
	}

	receivedAt, err := time.Parse("2006-01-02", req.ReceivedAt)
	if err != nil {
		return NewValidationError(c, "Invalid received date", []ValidationError{
			{Field: "receivedAt", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	payment, err := h.paymentService.CreatePayment(service.CreatePaymentInput{
		LoanID:             req.LoanID,
		Amount:             amount,
		Comission:          comission,
		ReceivedAt:         receivedAt,
		Type:               domain.PaymentType(req.Type),
		PaymentMethod:      domain.PaymentMethod(req.PaymentMethod),
		ApplyLedgerEffects: true,
	})
	if err != nil {
		if errors.Is(err, domain.ErrLoanPaymentAmountInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "amount", Message: "Amount cannot be negative"},
			})
		}
		if errors.Is(err, domain.ErrPaymentMethodInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "paymentMethod", Message: "Must be CASH or MONEY_TRANSFER"},
			})
		}
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		if errors.Is(err, domain.ErrAccountNotFound) {
			return NewConflictError(c, "No collection account exists for the lead's route")
		}
		log.Error().Err(err).Int32("loan_id", req.LoanID).Msg("Failed to create payment")
		return NewInternalError(c, "Failed to create payment")
	}

	log.Info().Int32("payment_id", payment.ID).Int32("loan_id", payment.LoanID).Msg("Payment created")
	return c.JSON(http.StatusCreated, toPaymentResponse(payment))
}

// GetPaymentsByLoan handles GET /api/v1/loans/:id/payments
func (h *LoanPaymentHandler) GetPaymentsByLoan(c echo.Context) error {
	loanID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	payments, err := h.paymentService.GetPaymentsByLoan(int32(loanID))
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		log.Error().Err(err).Int("loan_id", loanID).Msg("Failed to get payments")
		return NewInternalError(c, "Failed to get payments")
	}

	response := make([]PaymentResponse, len(payments))
	for i, payment := range payments {
		response[i] = toPaymentResponse(payment)
	}
	return c.JSON(http.StatusOK, response)
}

// UpdatePayment handles PUT /api/v1/loan-payments/:id
func (h *LoanPaymentHandler) UpdatePayment(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid payment ID", nil)
	}

	var req UpdatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	comission := decimal.Zero
	if req.Comission != "" {
		comission, err = decimal.NewFromString(req.Comission)
		if err != nil {
			return NewValidationError(c, "Invalid comission", []ValidationError{
				{Field: "comission", Message: "Must be a valid decimal number"},
			})
		}
	}

	receivedAt, err := time.Parse("2006-01-02", req.ReceivedAt)
	if err != nil {
		return NewValidationError(c, "Invalid received date", []ValidationError{
			{Field: "receivedAt", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	payment, err := h.paymentService.UpdatePayment(int32(id), service.UpdatePaymentInput{
		Amount:             amount,
		Comission:          comission,
		ReceivedAt:         receivedAt,
		PaymentMethod:      domain.PaymentMethod(req.PaymentMethod),
		ApplyLedgerEffects: true,
	})
	if err != nil {
		if errors.Is(err, domain.ErrLoanPaymentNotFound) {
			return NewNotFoundError(c, "Payment not found")
		}
		if errors.Is(err, domain.ErrLoanPaymentAmountInvalid) || errors.Is(err, domain.ErrPaymentMethodInvalid) {
			return NewValidationError(c, "Validation failed", nil)
		}
		if errors.Is(err, domain.ErrInsufficientFunds) {
			return NewConflictError(c, "The account cannot absorb the payment change")
		}
		log.Error().Err(err).Int("payment_id", id).Msg("Failed to update payment")
		return NewInternalError(c, "Failed to update payment")
	}

	return c.JSON(http.StatusOK, toPaymentResponse(payment))
}

// DeletePayment handles DELETE /api/v1/loan-payments/:id
func (h *LoanPaymentHandler) DeletePayment(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid payment ID", nil)
	}

	if err := h.paymentService.DeletePayment(int32(id)); err != nil {
		if errors.Is(err, domain.ErrLoanPaymentNotFound) {
			return NewNotFoundError(c, "Payment not found")
		}
		if errors.Is(err, domain.ErrInsufficientFunds) {
			return NewConflictError(c, "Reversing the payment would overdraw the account")
		}
		log.Error().Err(err).Int("payment_id", id).Msg("Failed to delete payment")
		return NewInternalError(c, "Failed to delete payment")
	}

	log.Info().Int("payment_id", id).Msg("Payment deleted")
	return c.NoContent(http.StatusNoContent)
}

func toPaymentResponse(payment *domain.LoanPayment) PaymentResponse {
	return PaymentResponse{
		ID:                    payment.ID,
		LoanID:                payment.LoanID,
		LeadPaymentReceivedID: payment.LeadPaymentReceivedID,
		Amount:                payment.Amount.StringFixed(2),
		Comission:             payment.Comission.StringFixed(2),
		ReceivedAt:            payment.ReceivedAt.Format("2006-01-02"),
		Type:                  string(payment.Type),
		PaymentMethod:         string(payment.PaymentMethod),
		CreatedAt:             payment.CreatedAt.Format(time.RFC3339),
	}
}
