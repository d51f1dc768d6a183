package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountNameEmpty   = errors.New("account name is required")
	ErrAccountTypeInvalid = errors.New("account type is invalid")
	ErrInsufficientFunds  = errors.New("account balance cannot go negative")
)

type AccountType string

const (
	AccountTypeBank             AccountType = "BANK"
	AccountTypeOfficeCashFund   AccountType = "OFFICE_CASH_FUND"
	AccountTypeEmployeeCashFund AccountType = "EMPLOYEE_CASH_FUND"
	AccountTypePrepaidGas       AccountType = "PREPAID_GAS"
	AccountTypeTravelExpenses   AccountType = "TRAVEL_EXPENSES"
)

// ValidAccountTypes lists every account type accepted on creation
var ValidAccountTypes = map[AccountType]bool{
	AccountTypeBank:             true,
	AccountTypeOfficeCashFund:   true,
	AccountTypeEmployeeCashFund: true,
	AccountTypePrepaidGas:       true,
	AccountTypeTravelExpenses:   true,
}

// Account is a cash or bank ledger owned by a route. Amount is the persisted
// running balance; VerifyBalance recomputes it independently from the
// transaction history for drift detection.
type Account struct {
	ID        int32           `json:"id"`
	RouteID   int32           `json:"routeId"`
	Name      string          `json:"name"`
	Type      AccountType     `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (a *Account) Validate() error {
	if a.Name == "" {
		return ErrAccountNameEmpty
	}
	if !ValidAccountTypes[a.Type] {
		return ErrAccountTypeInvalid
	}
	return nil
}

type AccountRepository interface {
	Create(account *Account) (*Account, error)
	GetByID(id int32) (*Account, error)
	GetByRouteAndType(routeID int32, accountType AccountType) (*Account, error)
	GetAll() ([]*Account, error)
	// AdjustBalance atomically applies delta to the running balance.
	// Returns ErrInsufficientFunds if the result would be negative.
	AdjustBalance(id int32, delta decimal.Decimal) (*Account, error)
	// AdjustBalanceTx is the transactional variant; tx must be a pgx.Tx.
	AdjustBalanceTx(tx interface{}, id int32, delta decimal.Decimal) (*Account, error)
}
