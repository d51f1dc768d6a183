package service

import (
	"github.com/shopspring/decimal"
	"github.com/solventa/solventa-backend/internal/domain"
	"github.com/solventa/solventa-backend/internal/websocket"
)

// TransactionService applies ledger movements to account balances. It is the
// write path for manual movements (gas, travel, investments, transfers);
// loan and payment services record their own transactions alongside their
// consolidated balance math.
//
// Balance rules: EXPENSE and TRANSFER debit the source account, INCOME and
// TRANSFER (and INVESTMENT) credit the destination account. A debit that
// would drive the source negative is rejected, not clamped.
type TransactionService struct {
	transactionRepo domain.TransactionRepository
	accountRepo     domain.AccountRepository
	eventPublisher  websocket.EventPublisher
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(transactionRepo domain.TransactionRepository, accountRepo domain.AccountRepository) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		accountRepo:     accountRepo,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *TransactionService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishCreated notifies the route of the account the money landed in, or
// left, when only a source is involved.
func (s *TransactionService) publishCreated(t *domain.Transaction) {
	if s.eventPublisher == nil {
		return
	}
	accountID := t.DestinationAccountID
	if accountID == nil {
		accountID = t.SourceAccountID
	}
	if accountID == nil {
		return
	}
	account, err := s.accountRepo.GetByID(*accountID)
	if err != nil {
		return
	}
	s.eventPublisher.Publish(account.RouteID, websocket.TransactionCreated(t))
}

// CreateTransaction records a movement and applies it to the balances
func (s *TransactionService) CreateTransaction(transaction *domain.Transaction) (*domain.Transaction, error) {
	if err := transaction.Validate(); err != nil {
		return nil, err
	}

	if err := s.applyBalanceEffects(transaction, transaction.Amount); err != nil {
		return nil, err
	}

	created, err := s.transactionRepo.Create(transaction)
	if err != nil {
		// The movement was already applied; put it back
		s.reverseBalanceEffects(transaction, transaction.Amount)
		return nil, err
	}

	s.publishCreated(created)
	return created, nil
}

// UpdateTransactionAmount changes a transaction's amount, applying only the
// delta between the old and new amounts to the balances, never a full replay.
func (s *TransactionService) UpdateTransactionAmount(id int32, amount decimal.Decimal) (*domain.Transaction, error) {
	existing, err := s.transactionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	delta := amount.Sub(existing.Amount)
	if !delta.IsZero() {
		if err := s.applyBalanceEffects(existing, delta); err != nil {
			return nil, err
		}
	}

	updated, err := s.transactionRepo.UpdateAmount(id, amount, existing.Description)
	if err != nil {
		s.reverseBalanceEffects(existing, delta)
		return nil, err
	}
	return updated, nil
}

// DeleteTransaction removes a movement and reverses its balance effects
func (s *TransactionService) DeleteTransaction(id int32) error {
	existing, err := s.transactionRepo.GetByID(id)
	if err != nil {
		return err
	}

	if err := s.transactionRepo.Delete(id); err != nil {
		return err
	}
	s.reverseBalanceEffects(existing, existing.Amount)
	return nil
}

// GetTransaction retrieves a transaction by ID
func (s *TransactionService) GetTransaction(id int32) (*domain.Transaction, error) {
	return s.transactionRepo.GetByID(id)
}

// GetTransactionsByLoan retrieves every transaction tied to a loan
func (s *TransactionService) GetTransactionsByLoan(loanID int32) ([]*domain.Transaction, error) {
	return s.transactionRepo.GetByLoanID(loanID)
}

// applyBalanceEffects moves amount through the transaction's accounts. The
// source debit runs first so an insufficient balance rejects the whole
// movement before anything is credited.
func (s *TransactionService) applyBalanceEffects(t *domain.Transaction, amount decimal.Decimal) error {
	if debitsSource(t.Type) && t.SourceAccountID != nil {
		if _, err := s.accountRepo.AdjustBalance(*t.SourceAccountID, amount.Neg()); err != nil {
			return err
		}
	}
	if creditsDestination(t.Type) && t.DestinationAccountID != nil {
		if _, err := s.accountRepo.AdjustBalance(*t.DestinationAccountID, amount); err != nil {
			// Undo the source debit so a failed credit leaves no half-applied movement
			if debitsSource(t.Type) && t.SourceAccountID != nil {
				s.accountRepo.AdjustBalance(*t.SourceAccountID, amount)
			}
			return err
		}
	}
	return nil
}

func (s *TransactionService) reverseBalanceEffects(t *domain.Transaction, amount decimal.Decimal) {
	if debitsSource(t.Type) && t.SourceAccountID != nil {
		s.accountRepo.AdjustBalance(*t.SourceAccountID, amount)
	}
	if creditsDestination(t.Type) && t.DestinationAccountID != nil {
		s.accountRepo.AdjustBalance(*t.DestinationAccountID, amount.Neg())
	}
}

func debitsSource(t domain.TransactionType) bool {
	return t == domain.TransactionTypeExpense || t == domain.TransactionTypeTransfer
}

func creditsDestination(t domain.TransactionType) bool {
	return t == domain.TransactionTypeIncome || t == domain.TransactionTypeTransfer || t == domain.TransactionTypeInvestment
}
