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

// AccountHandler handles account HTTP requests
type AccountHandler struct {
	accountService *service.AccountService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// CreateAccountRequest represents the create account request body
type CreateAccountRequest struct {
	RouteID int32  `json:"routeId"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Amount  string `json:"amount"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID        int32  `json:"id"`
	RouteID   int32  `json:"routeId"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Amount    string `json:"amount"`
	CreatedAt string `json:"createdAt"`
}

// BalanceVerificationResponse represents a balance verification result
type BalanceVerificationResponse struct {
	AccountID       int32  `json:"accountId"`
	StoredBalance   string `json:"storedBalance"`
	ComputedBalance string `json:"computedBalance"`
	Drift           string `json:"drift"`
}

// CreateAccount handles POST /api/v1/accounts
func (h *AccountHandler) CreateAccount(c echo.Context) error {
	var req CreateAccountRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount := decimal.Zero
	if req.Amount != "" {
		parsed, err := decimal.NewFromString(req.Amount)
		if err != nil {
			return NewValidationError(c, "Invalid amount", []ValidationError{
				{Field: "amount", Message: "Must be a valid decimal number"},
			})
		}
		amount = parsed
	}

	account, err := h.accountService.CreateAccount(&domain.Account{
		RouteID: req.RouteID,
		Name:    req.Name,
		Type:    domain.AccountType(req.Type),
		Amount:  amount,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAccountNameEmpty) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "name", Message: "Name is required"},
			})
		}
		if errors.Is(err, domain.ErrAccountTypeInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "type", Message: "Invalid account type"},
			})
		}
		if errors.Is(err, domain.ErrInsufficientFunds) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "amount", Message: "Opening balance cannot be negative"},
			})
		}
		log.Error().Err(err).Int32("route_id", req.RouteID).Msg("Failed to create account")
		return NewInternalError(c, "Failed to create account")
	}

	log.Info().Int32("account_id", account.ID).Str("type", string(account.Type)).Msg("Account created")
	return c.JSON(http.StatusCreated, toAccountResponse(account))
}

// GetAccounts handles GET /api/v1/accounts
func (h *AccountHandler) GetAccounts(c echo.Context) error {
	accounts, err := h.accountService.GetAccounts()
	if err != nil {
		log.Error().Err(err).Msg("Failed to get accounts")
		return NewInternalError(c, "Failed to get accounts")
	}

	response := make([]AccountResponse, len(accounts))
	for i, account := range accounts {
		response[i] = toAccountResponse(account)
	}
	return c.JSON(http.StatusOK, response)
}

// GetAccount handles GET /api/v1/accounts/:id
func (h *AccountHandler) GetAccount(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	account, err := h.accountService.GetAccount(int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return NewNotFoundError(c, "Account not found")
		}
		log.Error().Err(err).Int("account_id", id).Msg("Failed to get account")
		return NewInternalError(c, "Failed to get account")
	}

	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// VerifyBalance handles GET /api/v1/accounts/:id/verify-balance
func (h *AccountHandler) VerifyBalance(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	verification, err := h.accountService.VerifyBalance(int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return NewNotFoundError(c, "Account not found")
		}
		log.Error().Err(err).Int("account_id", id).Msg("Failed to verify balance")
		return NewInternalError(c, "Failed to verify balance")
	}

	return c.JSON(http.StatusOK, BalanceVerificationResponse{
		AccountID:       verification.AccountID,
		StoredBalance:   verification.StoredBalance.StringFixed(2),
		ComputedBalance: verification.ComputedBalance.StringFixed(2),
		Drift:           verification.Drift.StringFixed(2),
	})
}

func toAccountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{
		ID:        account.ID,
		RouteID:   account.RouteID,
		Name:      account.Name,
		Type:      string(account.Type),
		Amount:    account.Amount.StringFixed(2),
		CreatedAt: account.CreatedAt.Format(time.RFC3339),
	}
}
