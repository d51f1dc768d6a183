package service

import (
	"github.com/shopspring/decimal"
	"github.com/solventa/solventa-backend/internal/domain"
)

// AccountService handles cash and bank account management plus balance
// verification against the transaction history.
type AccountService struct {
	accountRepo     domain.AccountRepository
	transactionRepo domain.TransactionRepository
}

// NewAccountService creates a new AccountService
func NewAccountService(accountRepo domain.AccountRepository, transactionRepo domain.TransactionRepository) *AccountService {
	return &AccountService{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
	}
}

// CreateAccount creates a new route account
func (s *AccountService) CreateAccount(account *domain.Account) (*domain.Account, error) {
	if err := account.Validate(); err != nil {
		return nil, err
	}
	if account.Amount.IsNegative() {
		return nil, domain.ErrInsufficientFunds
	}
	return s.accountRepo.Create(account)
}

// GetAccount retrieves an account by ID
func (s *AccountService) GetAccount(id int32) (*domain.Account, error) {
	return s.accountRepo.GetByID(id)
}

// GetAccounts retrieves all accounts
func (s *AccountService) GetAccounts() ([]*domain.Account, error) {
	return s.accountRepo.GetAll()
}

// BalanceVerification compares the persisted running balance against one
// independently recomputed from the account's transaction history.
type BalanceVerification struct {
	AccountID       int32           `json:"accountId"`
	StoredBalance   decimal.Decimal `json:"storedBalance"`
	ComputedBalance decimal.Decimal `json:"computedBalance"`
	Drift           decimal.Decimal `json:"drift"`
}

// VerifyBalance recomputes an account's balance from its transactions. The
// running balance is authoritative for writes; this recomputation exists for
// reconciliation and display.
func (s *AccountService) VerifyBalance(id int32) (*BalanceVerification, error) {
	account, err := s.accountRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	sums, err := s.transactionRepo.SumByAccount(id)
	if err != nil {
		return nil, err
	}

	computed := sums.Inflows.Sub(sums.Outflows)
	return &BalanceVerification{
		AccountID:       account.ID,
		StoredBalance:   account.Amount,
		ComputedBalance: computed,
		Drift:           account.Amount.Sub(computed),
	}, nil
}
