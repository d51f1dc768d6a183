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

// ReceiptHandler handles batch receipt and falco compensation HTTP requests
type ReceiptHandler struct {
	receiptService *service.ReceiptService
	falcoService   *service.FalcoService
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(receiptService *service.ReceiptService, falcoService *service.FalcoService) *ReceiptHandler {
	return &ReceiptHandler{
		receiptService: receiptService,
		falcoService:   falcoService,
	}
}

// BatchPaymentRequest is one member payment inside a receipt request
type BatchPaymentRequest struct {
	LoanID        int32  `json:"loanId"`
	Amount        string `json:"amount"`
	Comission     string `json:"comission"`
	Type          string `json:"type,omitempty"`
	PaymentMethod string `json:"paymentMethod"`
}

// CreateReceiptRequest represents the create receipt request body
type CreateReceiptRequest struct {
	LeadID         int32                 `json:"leadId"`
	ExpectedAmount string                `json:"expectedAmount"`
	CashPaidAmount string                `json:"cashPaidAmount"`
	BankPaidAmount string                `json:"bankPaidAmount"`
	ReceivedAt     string                `json:"receivedAt"`
	Payments       []BatchPaymentRequest `json:"payments"`
}

// CompensationRequest represents the falco compensation request body
type CompensationRequest struct {
	Amount     string `json:"amount"`
	ReceivedAt string `json:"receivedAt"`
}

// ReceiptResponse represents a batch receipt in API responses
type ReceiptResponse struct {
	ID             int32  `json:"id"`
	LeadID         int32  `json:"leadId"`
	ExpectedAmount string `json:"expectedAmount"`
	CashPaidAmount string `json:"cashPaidAmount"`
	BankPaidAmount string `json:"bankPaidAmount"`
	FalcoAmount    string `json:"falcoAmount"`
	PaymentStatus  string `json:"paymentStatus"`
	ReceivedAt     string `json:"receivedAt"`
	CreatedAt      string `json:"createdAt"`
}

// CompensationResponse represents a falco compensation in API responses
type CompensationResponse struct {
	ID                    int32  `json:"id"`
	LeadPaymentReceivedID int32  `json:"leadPaymentReceivedId"`
	Amount                string `json:"amount"`
	ReceivedAt            string `json:"receivedAt"`
	CreatedAt             string `json:"createdAt"`
}

// CreateReceipt handles POST /api/v1/lead-payments
func (h *ReceiptHandler) CreateReceipt(c echo.Context) error {
	var req CreateReceiptRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	expected, err := parseAmountField(req.ExpectedAmount)
	if err != nil {
		return NewValidationError(c, "Invalid expected amount", []ValidationError{
			{Field: "expectedAmount", Message: "Must be a valid decimal number"},
		})
	}
	cashPaid, err := parseAmountField(req.CashPaidAmount)
	if err != nil {
		return NewValidationError(c, "Invalid cash paid amount", []ValidationError{
			{Field: "cashPaidAmount", Message: "Must be a valid decimal number"},
		})
	}
	bankPaid, err := parseAmountField(req.BankPaidAmount)
	if err != nil {
		return NewValidationError(c, "Invalid bank paid amount", []ValidationError{
			{Field: "bankPaidAmount", Message: "Must be a valid decimal number"},
		})
	}

	receivedAt, err := time.Parse("2006-01-02", req.ReceivedAt)
	if err != nil {
		return NewValidationError(c, "Invalid received date", []ValidationError{
			{Field: "receivedAt", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	payments := make([]service.BatchPaymentInput, len(req.Payments))
	for i, p := range req.Payments {
		amount, err := decimal.NewFromString(p.Amount)
		if err != nil {
			return NewValidationError(c, "Invalid payment amount", []ValidationError{
				{Field: "payments", Message: "All amounts must be valid decimal numbers"},
			})
		}
		comission, err := parseAmountField(p.Comission)
		if err != nil {
			return NewValidationError(c, "Invalid payment comission", []ValidationError{
				{Field: "payments", Message: "All comissions must be valid decimal numbers"},
			})
		}
		payments[i] = service.BatchPaymentInput{
			LoanID:        p.LoanID,
			Amount:        amount,
			Comission:     comission,
			Type:          domain.PaymentType(p.Type),
			PaymentMethod: domain.PaymentMethod(p.PaymentMethod),
		}
	}

	receipt, err := h.receiptService.CreateReceipt(service.CreateReceiptInput{
		LeadID:         req.LeadID,
		ExpectedAmount: expected,
		CashPaidAmount: cashPaid,
		BankPaidAmount: bankPaid,
		ReceivedAt:     receivedAt,
		Payments:       payments,
	})
	if err != nil {
		if errors.Is(err, domain.ErrReceiptAmountsInvalid) {
			return NewValidationError(c, "Amounts cannot be negative", nil)
		}
		if errors.Is(err, domain.ErrLeadNotFound) {
			return NewNotFoundError(c, "Lead not found")
		}
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "A payment references a missing loan")
		}
		if errors.Is(err, domain.ErrCashFundNotFound) {
			return NewConflictError(c, "No cash fund account exists for the lead's route")
		}
		if errors.Is(err, domain.ErrPaymentMethodInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "payments", Message: "Payment method must be CASH or MONEY_TRANSFER"},
			})
		}
		log.Error().Err(err).Int32("lead_id", req.LeadID).Msg("Failed to create receipt")
		return NewInternalError(c, "Failed to create receipt")
	}

	log.Info().
		Int32("receipt_id", receipt.ID).
		Int32("lead_id", receipt.LeadID).
		Str("status", string(receipt.PaymentStatus)).
		Msg("Batch receipt created")
	return c.JSON(http.StatusCreated, toReceiptResponse(receipt))
}

// GetReceipt handles GET /api/v1/lead-payments/:id
func (h *ReceiptHandler) GetReceipt(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid receipt ID", nil)
	}

	receipt, err := h.receiptService.GetReceipt(int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrReceiptNotFound) {
			return NewNotFoundError(c, "Receipt not found")
		}
		log.Error().Err(err).Int("receipt_id", id).Msg("Failed to get receipt")
		return NewInternalError(c, "Failed to get receipt")
	}

	return c.JSON(http.StatusOK, toReceiptResponse(receipt))
}

// RegisterCompensation handles POST /api/v1/lead-payments/:id/compensations
func (h *ReceiptHandler) RegisterCompensation(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid receipt ID", nil)
	}

	var req CompensationRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	receivedAt, err := time.Parse("2006-01-02", req.ReceivedAt)
	if err != nil {
		return NewValidationError(c, "Invalid received date", []ValidationError{
			{Field: "receivedAt", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	compensation, err := h.falcoService.RegisterCompensation(service.RegisterCompensationInput{
		LeadPaymentReceivedID: int32(id),
		Amount:                amount,
		ReceivedAt:            receivedAt,
	})
	if err != nil {
		if errors.Is(err, domain.ErrCompensationAmountInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "amount", Message: "Amount must be positive"},
			})
		}
		if errors.Is(err, domain.ErrCompensationReceiptMissing) {
			return NewNotFoundError(c, "Receipt not found")
		}
		log.Error().Err(err).Int("receipt_id", id).Msg("Failed to register compensation")
		return NewInternalError(c, "Failed to register compensation")
	}

	log.Info().
		Int32("compensation_id", compensation.ID).
		Int("receipt_id", id).
		Msg("Falco compensation registered")
	return c.JSON(http.StatusCreated, toCompensationResponse(compensation))
}

// GetCompensations handles GET /api/v1/lead-payments/:id/compensations
func (h *ReceiptHandler) GetCompensations(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid receipt ID", nil)
	}

	compensations, err := h.falcoService.GetCompensations(int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrReceiptNotFound) {
			return NewNotFoundError(c, "Receipt not found")
		}
		log.Error().Err(err).Int("receipt_id", id).Msg("Failed to get compensations")
		return NewInternalError(c, "Failed to get compensations")
	}

	response := make([]CompensationResponse, len(compensations))
	for i, compensation := range compensations {
		response[i] = toCompensationResponse(compensation)
	}
	return c.JSON(http.StatusOK, response)
}

// parseAmountField parses an optional decimal field, treating "" as zero
func parseAmountField(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func toReceiptResponse(receipt *domain.LeadPaymentReceived) ReceiptResponse {
	return ReceiptResponse{
		ID:             receipt.ID,
		LeadID:         receipt.LeadID,
		ExpectedAmount: receipt.ExpectedAmount.StringFixed(2),
		CashPaidAmount: receipt.CashPaidAmount.StringFixed(2),
		BankPaidAmount: receipt.BankPaidAmount.StringFixed(2),
		FalcoAmount:    receipt.FalcoAmount.StringFixed(2),
		PaymentStatus:  string(receipt.PaymentStatus),
		ReceivedAt:     receipt.ReceivedAt.Format("2006-01-02"),
		CreatedAt:      receipt.CreatedAt.Format(time.RFC3339),
	}
}

func toCompensationResponse(compensation *domain.FalcoCompensatoryPayment) CompensationResponse {
	return CompensationResponse{
		ID:                    compensation.ID,
		LeadPaymentReceivedID: compensation.LeadPaymentReceivedID,
		Amount:                compensation.Amount.StringFixed(2),
		ReceivedAt:            compensation.ReceivedAt.Format("2006-01-02"),
		CreatedAt:             compensation.CreatedAt.Format(time.RFC3339),
	}
}
