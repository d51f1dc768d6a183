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

// LoanHandler handles loan-related HTTP requests
type LoanHandler struct {
	loanService    *service.LoanService
	metricsService *service.LoanMetricsService
}

// NewLoanHandler creates a new LoanHandler
func NewLoanHandler(loanService *service.LoanService, metricsService *service.LoanMetricsService) *LoanHandler {
	return &LoanHandler{
		loanService:    loanService,
		metricsService: metricsService,
	}
}

// CreateLoanRequest represents the create loan request body
type CreateLoanRequest struct {
	BorrowerID      int32  `json:"borrowerId"`
	LeadID          int32  `json:"leadId"`
	LoantypeID      int32  `json:"loantypeId"`
	PreviousLoanID  *int32 `json:"previousLoanId,omitempty"`
	RequestedAmount string `json:"requestedAmount"`
	AmountGived     string `json:"amountGived"`
	ComissionAmount string `json:"comissionAmount"`
	SignDate        string `json:"signDate"`
}

// UpdateLoanRequest represents the update loan request body
type UpdateLoanRequest struct {
	AmountGived     string  `json:"amountGived"`
	ComissionAmount string  `json:"comissionAmount"`
	BadDebtDate     *string `json:"badDebtDate,omitempty"`
	IsDeceased      bool    `json:"isDeceased"`
	Status          string  `json:"status,omitempty"`
}

// LoanResponse represents a loan in API responses
type LoanResponse struct {
	ID                    int32   `json:"id"`
	BorrowerID            int32   `json:"borrowerId"`
	LeadID                int32   `json:"leadId"`
	LoantypeID            int32   `json:"loantypeId"`
	PreviousLoanID        *int32  `json:"previousLoanId,omitempty"`
	RequestedAmount       string  `json:"requestedAmount"`
	AmountGived           string  `json:"amountGived"`
	ComissionAmount       string  `json:"comissionAmount"`
	SignDate              string  `json:"signDate"`
	FinishedDate          *string `json:"finishedDate,omitempty"`
	BadDebtDate           *string `json:"badDebtDate,omitempty"`
	IsDeceased            bool    `json:"isDeceased"`
	Status                string  `json:"status"`
	ProfitAmount          string  `json:"profitAmount"`
	TotalDebtAcquired     string  `json:"totalDebtAcquired"`
	ExpectedWeeklyPayment string  `json:"expectedWeeklyPayment"`
	TotalPaid             string  `json:"totalPaid"`
	PendingAmountStored   string  `json:"pendingAmountStored"`
	CreatedAt             string  `json:"createdAt"`
	UpdatedAt             string  `json:"updatedAt"`
}

// CreateLoan handles POST /api/v1/loans
func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req CreateLoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	requested, err := decimal.NewFromString(req.RequestedAmount)
	if err != nil {
		return NewValidationError(c, "Invalid requested amount", []ValidationError{
			{Field: "requestedAmount", Message: "Must be a valid decimal number"},
		})
	}

	amountGived, err := decimal.NewFromString(req.AmountGived)
	if err != nil {
		return NewValidationError(c, "Invalid amount gived", []ValidationError{
			{Field: "amountGived", Message: "Must be a valid decimal number"},
		})
	}

	comission := decimal.Zero
	if req.ComissionAmount != "" {
		comission, err = decimal.NewFromString(req.ComissionAmount)
		if err != nil {
			return NewValidationError(c, "Invalid comission amount", []ValidationError{
				{Field: "comissionAmount", Message: "Must be a valid decimal number"},
			})
		}
	}

	signDate, err := time.Parse("2006-01-02", req.SignDate)
	if err != nil {
		return NewValidationError(c, "Invalid sign date", []ValidationError{
			{Field: "signDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	loan, err := h.loanService.CreateLoan(c.Request().Context(), service.CreateLoanInput{
		BorrowerID:      req.BorrowerID,
		LeadID:          req.LeadID,
		LoantypeID:      req.LoantypeID,
		PreviousLoanID:  req.PreviousLoanID,
		RequestedAmount: requested,
		AmountGived:     amountGived,
		ComissionAmount: comission,
		SignDate:        signDate,
	})
	if err != nil {
		if errors.Is(err, domain.ErrLoanAmountInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "requestedAmount", Message: "Amount must be positive"},
			})
		}
		if errors.Is(err, domain.ErrLoanAmountGivedInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "amountGived", Message: "Amount cannot be negative"},
			})
		}
		if errors.Is(err, domain.ErrLoanComissionInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "comissionAmount", Message: "Comission cannot be negative"},
			})
		}
		if errors.Is(err, domain.ErrLeadNotFound) {
			return NewNotFoundError(c, "Lead not found")
		}
		if errors.Is(err, domain.ErrLoantypeNotFound) {
			return NewNotFoundError(c, "Loan type not found")
		}
		if errors.Is(err, domain.ErrPreviousLoanNotFound) {
			return NewNotFoundError(c, "Previous loan not found")
		}
		if errors.Is(err, domain.ErrCashFundNotFound) {
			return NewConflictError(c, "No cash fund account exists for the lead's route")
		}
		log.Error().Err(err).Int32("lead_id", req.LeadID).Msg("Failed to create loan")
		return NewInternalError(c, "Failed to create loan")
	}

	log.Info().Int32("loan_id", loan.ID).Int32("lead_id", loan.LeadID).Msg("Loan created")
	return c.JSON(http.StatusCreated, toLoanResponse(loan))
}

// GetLoan handles GET /api/v1/loans/:id
func (h *LoanHandler) GetLoan(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	loan, err := h.loanService.GetLoan(int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		log.Error().Err(err).Int("loan_id", id).Msg("Failed to get loan")
		return NewInternalError(c, "Failed to get loan")
	}

	return c.JSON(http.StatusOK, toLoanResponse(loan))
}

// GetLoansByLead handles GET /api/v1/leads/:id/loans
func (h *LoanHandler) GetLoansByLead(c echo.Context) error {
	leadID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid lead ID", nil)
	}

	loans, err := h.loanService.GetLoansByLead(int32(leadID))
	if err != nil {
		if errors.Is(err, domain.ErrLeadNotFound) {
			return NewNotFoundError(c, "Lead not found")
		}
		log.Error().Err(err).Int("lead_id", leadID).Msg("Failed to get loans")
		return NewInternalError(c, "Failed to get loans")
	}

	response := make([]LoanResponse, len(loans))
	for i, loan := range loans {
		response[i] = toLoanResponse(loan)
	}
	return c.JSON(http.StatusOK, response)
}

// UpdateLoan handles PUT /api/v1/loans/:id
func (h *LoanHandler) UpdateLoan(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	var req UpdateLoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amountGived, err := decimal.NewFromString(req.AmountGived)
	if err != nil {
		return NewValidationError(c, "Invalid amount gived", []ValidationError{
			{Field: "amountGived", Message: "Must be a valid decimal number"},
		})
	}

	comission := decimal.Zero
	if req.ComissionAmount != "" {
		comission, err = decimal.NewFromString(req.ComissionAmount)
		if err != nil {
			return NewValidationError(c, "Invalid comission amount", []ValidationError{
				{Field: "comissionAmount", Message: "Must be a valid decimal number"},
			})
		}
	}

	var badDebtDate *time.Time
	if req.BadDebtDate != nil && *req.BadDebtDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.BadDebtDate)
		if err != nil {
			return NewValidationError(c, "Invalid bad debt date", []ValidationError{
				{Field: "badDebtDate", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		badDebtDate = &parsed
	}

	loan, err := h.loanService.UpdateLoan(c.Request().Context(), int32(id), service.UpdateLoanInput{
		AmountGived:     amountGived,
		ComissionAmount: comission,
		BadDebtDate:     badDebtDate,
		IsDeceased:      req.IsDeceased,
		Status:          domain.LoanStatus(req.Status),
	})
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		if errors.Is(err, domain.ErrLoanAmountGivedInvalid) || errors.Is(err, domain.ErrLoanComissionInvalid) {
			return NewValidationError(c, "Amounts cannot be negative", nil)
		}
		if errors.Is(err, domain.ErrCashFundNotFound) {
			return NewConflictError(c, "No cash fund account exists for the lead's route")
		}
		if errors.Is(err, domain.ErrInsufficientFunds) {
			return NewConflictError(c, "The cash fund cannot cover the disbursement change")
		}
		log.Error().Err(err).Int("loan_id", id).Msg("Failed to update loan")
		return NewInternalError(c, "Failed to update loan")
	}

	return c.JSON(http.StatusOK, toLoanResponse(loan))
}

// DeleteLoan handles DELETE /api/v1/loans/:id
func (h *LoanHandler) DeleteLoan(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	if err := h.loanService.DeleteLoan(c.Request().Context(), int32(id)); err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		log.Error().Err(err).Int("loan_id", id).Msg("Failed to delete loan")
		return NewInternalError(c, "Failed to delete loan")
	}

	log.Info().Int("loan_id", id).Msg("Loan deleted")
	return c.NoContent(http.StatusNoContent)
}

// RecomputeMetrics handles POST /api/v1/loans/recompute-metrics. It runs the
// same snapshot sweep as the nightly job, for ad-hoc backfills.
func (h *LoanHandler) RecomputeMetrics(c echo.Context) error {
	recomputed, err := h.metricsService.RecomputeAll()
	if err != nil {
		log.Error().Err(err).Msg("Metrics backfill failed")
		return NewInternalError(c, "Failed to recompute loan metrics")
	}

	log.Info().Int("recomputed", recomputed).Msg("Loan metrics backfill finished")
	return c.JSON(http.StatusOK, map[string]int{"recomputed": recomputed})
}

func toLoanResponse(loan *domain.Loan) LoanResponse {
	response := LoanResponse{
		ID:                    loan.ID,
		BorrowerID:            loan.BorrowerID,
		LeadID:                loan.LeadID,
		LoantypeID:            loan.LoantypeID,
		PreviousLoanID:        loan.PreviousLoanID,
		RequestedAmount:       loan.RequestedAmount.StringFixed(2),
		AmountGived:           loan.AmountGived.StringFixed(2),
		ComissionAmount:       loan.ComissionAmount.StringFixed(2),
		SignDate:              loan.SignDate.Format("2006-01-02"),
		IsDeceased:            loan.IsDeceased,
		Status:                string(loan.Status),
		ProfitAmount:          loan.ProfitAmount.StringFixed(2),
		TotalDebtAcquired:     loan.TotalDebtAcquired.StringFixed(2),
		ExpectedWeeklyPayment: loan.ExpectedWeeklyPayment.StringFixed(2),
		TotalPaid:             loan.TotalPaid.StringFixed(2),
		PendingAmountStored:   loan.PendingAmountStored.StringFixed(2),
		CreatedAt:             loan.CreatedAt.Format(time.RFC3339),
		UpdatedAt:             loan.UpdatedAt.Format(time.RFC3339),
	}
	if loan.FinishedDate != nil {
		finished := loan.FinishedDate.Format("2006-01-02")
		response.FinishedDate = &finished
	}
	if loan.BadDebtDate != nil {
		badDebt := loan.BadDebtDate.Format("2006-01-02")
		response.BadDebtDate = &badDebt
	}
	return response
}
