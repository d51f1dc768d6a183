package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/solventa/solventa-backend/internal/domain"
	"github.com/solventa/solventa-backend/internal/websocket"
)

// initialProfitReferenceRate is the fixed first-pass rate used to estimate a
// new loan's profit at creation time. The estimate is replaced by the
// loantype-rate formula on the first update; reports may read profitAmount
// between the two phases, so the estimate-then-correct behavior is kept.
var initialProfitReferenceRate = decimal.NewFromFloat(0.40)

// LoanService handles the loan lifecycle: origination, renewal, updates and
// reversal on delete, plus the ledger effects of each.
type LoanService struct {
	txm             domain.TxManager
	loanRepo        domain.LoanRepository
	loantypeRepo    domain.LoantypeRepository
	leadRepo        domain.LeadRepository
	accountRepo     domain.AccountRepository
	transactionRepo domain.TransactionRepository
	metrics         *LoanMetricsService
	eventPublisher  websocket.EventPublisher
}

// NewLoanService creates a new LoanService
func NewLoanService(txm domain.TxManager, loanRepo domain.LoanRepository, loantypeRepo domain.LoantypeRepository, leadRepo domain.LeadRepository, accountRepo domain.AccountRepository, transactionRepo domain.TransactionRepository, metrics *LoanMetricsService) *LoanService {
	return &LoanService{
		txm:             txm,
		loanRepo:        loanRepo,
		loantypeRepo:    loantypeRepo,
		leadRepo:        leadRepo,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		metrics:         metrics,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *LoanService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *LoanService) publishEvent(routeID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(routeID, event)
	}
}

// CreateLoanInput contains input for originating a loan
type CreateLoanInput struct {
	BorrowerID      int32
	LeadID          int32
	LoantypeID      int32
	PreviousLoanID  *int32
	RequestedAmount decimal.Decimal
	AmountGived     decimal.Decimal
	ComissionAmount decimal.Decimal
	SignDate        time.Time
}

// CreateLoan originates a loan. In one database transaction it persists the
// loan, records the two disbursement expense transactions (amount gived and
// origination commission), debits the lead's employee cash fund, and, when
// this is a renewal, finalizes the previous loan as RENOVATED stamping its
// finished and renewed dates with the new loan's sign date.
func (s *LoanService) CreateLoan(ctx context.Context, input CreateLoanInput) (*domain.Loan, error) {
	loan := &domain.Loan{
		BorrowerID:      input.BorrowerID,
		LeadID:          input.LeadID,
		LoantypeID:      input.LoantypeID,
		PreviousLoanID:  input.PreviousLoanID,
		RequestedAmount: input.RequestedAmount,
		AmountGived:     input.AmountGived,
		ComissionAmount: input.ComissionAmount,
		SignDate:        input.SignDate,
		Status:          domain.LoanStatusActive,
		// First-pass estimate; corrected on first update
		ProfitAmount: input.RequestedAmount.Mul(initialProfitReferenceRate).Round(2),
	}
	if err := loan.Validate(); err != nil {
		return nil, err
	}

	lead, err := s.leadRepo.GetByID(input.LeadID)
	if err != nil {
		return nil, err
	}

	if _, err := s.loantypeRepo.GetByID(input.LoantypeID); err != nil {
		return nil, err
	}

	if input.PreviousLoanID != nil {
		if _, err := s.loanRepo.GetByID(*input.PreviousLoanID); err != nil {
			if errors.Is(err, domain.ErrLoanNotFound) {
				return nil, domain.ErrPreviousLoanNotFound
			}
			return nil, err
		}
	}

	// No cash fund to disburse from makes the origination meaningless
	account, err := s.accountRepo.GetByRouteAndType(lead.RouteID, domain.AccountTypeEmployeeCashFund)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrCashFundNotFound
		}
		return nil, err
	}

	var created *domain.Loan
	err = s.txm.WithinTx(ctx, func(tx interface{}) error {
		created, err = s.loanRepo.CreateTx(tx, loan)
		if err != nil {
			return err
		}

		granted := domain.ExpenseSourceLoanGranted
		grantedComission := domain.ExpenseSourceLoanGrantedComission

		if _, err := s.transactionRepo.CreateTx(tx, &domain.Transaction{
			Amount:          input.AmountGived,
			Date:            input.SignDate,
			Type:            domain.TransactionTypeExpense,
			ExpenseSource:   &granted,
			SourceAccountID: &account.ID,
			LoanID:          &created.ID,
			LeadID:          &input.LeadID,
		}); err != nil {
			return err
		}

		if _, err := s.transactionRepo.CreateTx(tx, &domain.Transaction{
			Amount:          input.ComissionAmount,
			Date:            input.SignDate,
			Type:            domain.TransactionTypeExpense,
			ExpenseSource:   &grantedComission,
			SourceAccountID: &account.ID,
			LoanID:          &created.ID,
			LeadID:          &input.LeadID,
		}); err != nil {
			return err
		}

		disbursed := input.AmountGived.Add(input.ComissionAmount)
		if _, err := s.accountRepo.AdjustBalanceTx(tx, account.ID, disbursed.Neg()); err != nil {
			return err
		}

		if input.PreviousLoanID != nil {
			signDate := input.SignDate
			if err := s.loanRepo.UpdateStatusTx(tx, *input.PreviousLoanID, domain.LoanStatusRenovated, &signDate, &signDate); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.metrics.Recompute(created.ID); err != nil {
		log.Error().Err(err).Int32("loan_id", created.ID).Msg("Metrics recompute after loan create failed")
	}

	s.publishEvent(lead.RouteID, websocket.LoanCreated(created))

	// Return the loan with its fresh snapshot when possible
	if fresh, err := s.loanRepo.GetByID(created.ID); err == nil {
		return fresh, nil
	}
	return created, nil
}

// UpdateLoanInput contains the mutable loan fields
type UpdateLoanInput struct {
	AmountGived     decimal.Decimal
	ComissionAmount decimal.Decimal
	BadDebtDate     *time.Time
	IsDeceased      bool
	Status          domain.LoanStatus
}

// UpdateLoan applies term changes. When the disbursed amount or the
// origination commission changed, the two disbursement transactions are
// updated in place and the cash fund is adjusted by the difference between
// the old and new combined totals, never by a full replay. ProfitAmount is
// replaced by the accurate full-lifecycle formula: principal times the loan
// type rate, plus the pending profit carried over from a renewed loan.
func (s *LoanService) UpdateLoan(ctx context.Context, id int32, input UpdateLoanInput) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if input.AmountGived.IsNegative() {
		return nil, domain.ErrLoanAmountGivedInvalid
	}
	if input.ComissionAmount.IsNegative() {
		return nil, domain.ErrLoanComissionInvalid
	}

	lead, err := s.leadRepo.GetByID(loan.LeadID)
	if err != nil {
		return nil, err
	}

	loantype, err := s.loantypeRepo.GetByID(loan.LoantypeID)
	if err != nil {
		return nil, err
	}

	oldTotal := loan.AmountGived.Add(loan.ComissionAmount)
	newTotal := input.AmountGived.Add(input.ComissionAmount)

	// An offsetting edit (gived up, commission down by the same amount) keeps
	// the total unchanged but must still rewrite both transactions.
	if !input.AmountGived.Equal(loan.AmountGived) || !input.ComissionAmount.Equal(loan.ComissionAmount) {
		account, err := s.accountRepo.GetByRouteAndType(lead.RouteID, domain.AccountTypeEmployeeCashFund)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return nil, domain.ErrCashFundNotFound
			}
			return nil, err
		}

		if err := s.updateDisbursementAmount(loan.ID, domain.ExpenseSourceLoanGranted, input.AmountGived); err != nil {
			return nil, err
		}
		if err := s.updateDisbursementAmount(loan.ID, domain.ExpenseSourceLoanGrantedComission, input.ComissionAmount); err != nil {
			return nil, err
		}

		// Only the delta moves; a larger disbursement takes more out of the fund
		delta := newTotal.Sub(oldTotal)
		if !delta.IsZero() {
			if _, err := s.accountRepo.AdjustBalance(account.ID, delta.Neg()); err != nil {
				return nil, err
			}
		}
	}

	loan.AmountGived = input.AmountGived
	loan.ComissionAmount = input.ComissionAmount
	loan.BadDebtDate = input.BadDebtDate
	loan.IsDeceased = input.IsDeceased
	if input.Status != "" {
		loan.Status = input.Status
	}
	loan.ProfitAmount = s.fullLifecycleProfit(loan, loantype.Rate)

	updated, err := s.loanRepo.Update(loan)
	if err != nil {
		return nil, err
	}

	if err := s.metrics.Recompute(updated.ID); err != nil {
		log.Error().Err(err).Int32("loan_id", updated.ID).Msg("Metrics recompute after loan update failed")
	}

	s.publishEvent(lead.RouteID, websocket.LoanUpdated(updated))
	return updated, nil
}

// DeleteLoan undoes an origination: removes every transaction tied to the
// loan, reactivates the previous loan of a renewal chain, and returns the
// disbursed total to the lead's cash fund. The balance restoration is
// best-effort; a missing account is logged and skipped, never a blocker.
func (s *LoanService) DeleteLoan(ctx context.Context, id int32) error {
	loan, err := s.loanRepo.GetByID(id)
	if err != nil {
		return err
	}

	if _, err := s.transactionRepo.DeleteByLoanID(loan.ID); err != nil {
		return err
	}

	if loan.PreviousLoanID != nil {
		if err := s.loanRepo.UpdateStatus(*loan.PreviousLoanID, domain.LoanStatusActive, nil, nil); err != nil {
			log.Error().Err(err).Int32("previous_loan_id", *loan.PreviousLoanID).Msg("Failed to reactivate previous loan")
		}
	}

	s.restoreDisbursedBalance(loan)

	if err := s.loanRepo.Delete(loan.ID); err != nil {
		return err
	}

	if lead, err := s.leadRepo.GetByID(loan.LeadID); err == nil {
		s.publishEvent(lead.RouteID, websocket.LoanDeleted(loan))
	}
	return nil
}

// GetLoan retrieves a loan by ID
func (s *LoanService) GetLoan(id int32) (*domain.Loan, error) {
	return s.loanRepo.GetByID(id)
}

// GetLoansByLead retrieves all loans collected by a lead
func (s *LoanService) GetLoansByLead(leadID int32) ([]*domain.Loan, error) {
	if _, err := s.leadRepo.GetByID(leadID); err != nil {
		return nil, err
	}
	return s.loanRepo.GetByLead(leadID)
}

func (s *LoanService) updateDisbursementAmount(loanID int32, source domain.ExpenseSource, amount decimal.Decimal) error {
	tx, err := s.transactionRepo.GetByLoanAndSource(loanID, source)
	if err != nil {
		return err
	}
	_, err = s.transactionRepo.UpdateAmount(tx.ID, amount, tx.Description)
	return err
}

// fullLifecycleProfit is principal * rate plus the unpaid profit inherited
// from the loan this one renews.
func (s *LoanService) fullLifecycleProfit(loan *domain.Loan, rate decimal.Decimal) decimal.Decimal {
	profit := loan.RequestedAmount.Mul(rate).Round(2)
	if loan.PreviousLoanID == nil {
		return profit
	}
	previous, err := s.loanRepo.GetByID(*loan.PreviousLoanID)
	if err != nil {
		log.Warn().Err(err).Int32("previous_loan_id", *loan.PreviousLoanID).Msg("Pending profit carryover skipped")
		return profit
	}
	carryover := PendingProfit(previous.ProfitAmount, previous.TotalDebtAcquired, previous.PendingAmountStored)
	return profit.Add(carryover)
}

func (s *LoanService) restoreDisbursedBalance(loan *domain.Loan) {
	lead, err := s.leadRepo.GetByID(loan.LeadID)
	if err != nil {
		log.Error().Err(err).Int32("loan_id", loan.ID).Msg("Balance restore skipped: lead not found")
		return
	}
	account, err := s.accountRepo.GetByRouteAndType(lead.RouteID, domain.AccountTypeEmployeeCashFund)
	if err != nil {
		log.Error().Err(err).Int32("loan_id", loan.ID).Msg("Balance restore skipped: cash fund not found")
		return
	}
	restored := loan.AmountGived.Add(loan.ComissionAmount)
	if _, err := s.accountRepo.AdjustBalance(account.ID, restored); err != nil {
		log.Error().Err(err).Int32("account_id", account.ID).Msg("Balance restore failed")
	}
}
