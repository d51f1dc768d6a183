package service

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/solventa/solventa-backend/internal/domain"
	"github.com/solventa/solventa-backend/internal/websocket"
)

// PaymentService handles collection events against loans and their ledger
// effects: one income transaction per payment, one commission expense when
// the lead earns one, and the matching account balance adjustments.
type PaymentService struct {
	paymentRepo     domain.LoanPaymentRepository
	loanRepo        domain.LoanRepository
	loantypeRepo    domain.LoantypeRepository
	leadRepo        domain.LeadRepository
	accountRepo     domain.AccountRepository
	transactionRepo domain.TransactionRepository
	metrics         *LoanMetricsService
	eventPublisher  websocket.EventPublisher
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(paymentRepo domain.LoanPaymentRepository, loanRepo domain.LoanRepository, loantypeRepo domain.LoantypeRepository, leadRepo domain.LeadRepository, accountRepo domain.AccountRepository, transactionRepo domain.TransactionRepository, metrics *LoanMetricsService) *PaymentService {
	return &PaymentService{
		paymentRepo:     paymentRepo,
		loanRepo:        loanRepo,
		loantypeRepo:    loantypeRepo,
		leadRepo:        leadRepo,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		metrics:         metrics,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *PaymentService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *PaymentService) publishEvent(routeID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(routeID, event)
	}
}

// CreatePaymentInput contains input for recording a collection event.
//
// ApplyLedgerEffects controls whether this write performs its own transaction
// upsert and balance adjustment. Batch receipt callers set it to false and do
// consolidated balance math themselves, so the per-payment path cannot
// double-apply it.
type CreatePaymentInput struct {
	LoanID                int32
	LeadPaymentReceivedID *int32
	Amount                decimal.Decimal
	Comission             decimal.Decimal
	ReceivedAt            time.Time
	Type                  domain.PaymentType
	PaymentMethod         domain.PaymentMethod
	ApplyLedgerEffects    bool
}

// CreatePayment records a payment against a loan
func (s *PaymentService) CreatePayment(input CreatePaymentInput) (*domain.LoanPayment, error) {
	payment := &domain.LoanPayment{
		LoanID:                input.LoanID,
		LeadPaymentReceivedID: input.LeadPaymentReceivedID,
		Amount:                input.Amount,
		Comission:             input.Comission,
		ReceivedAt:            input.ReceivedAt,
		Type:                  input.Type,
		PaymentMethod:         input.PaymentMethod,
	}
	if payment.Type == "" {
		payment.Type = domain.PaymentTypePayment
	}
	if err := payment.Validate(); err != nil {
		return nil, err
	}

	refs, err := s.resolvePaymentRefs(input.LoanID)
	if err != nil {
		return nil, err
	}

	created, err := s.paymentRepo.Create(payment)
	if err != nil {
		return nil, err
	}

	if err := s.upsertPaymentTransactions(created, refs); err != nil {
		return nil, err
	}

	if input.ApplyLedgerEffects {
		account, err := s.collectionAccount(refs.lead.RouteID, input.PaymentMethod)
		if err != nil {
			return nil, err
		}
		if _, err := s.accountRepo.AdjustBalance(account.ID, input.Amount); err != nil {
			return nil, err
		}
	}

	s.recomputeMetrics(created.LoanID)
	s.publishEvent(refs.lead.RouteID, websocket.PaymentCreated(created))
	return created, nil
}

// UpdatePaymentInput contains the mutable payment fields
type UpdatePaymentInput struct {
	Amount             decimal.Decimal
	Comission          decimal.Decimal
	ReceivedAt         time.Time
	PaymentMethod      domain.PaymentMethod
	ApplyLedgerEffects bool
}

// UpdatePayment edits a recorded payment. The payment's income and commission
// transactions are updated in place, never duplicated, and the account
// balance moves only by the delta against the previous amount.
func (s *PaymentService) UpdatePayment(id int32, input UpdatePaymentInput) (*domain.LoanPayment, error) {
	previous, err := s.paymentRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	refs, err := s.resolvePaymentRefs(previous.LoanID)
	if err != nil {
		return nil, err
	}

	payment := *previous
	payment.Amount = input.Amount
	payment.Comission = input.Comission
	payment.ReceivedAt = input.ReceivedAt
	if input.PaymentMethod != "" {
		payment.PaymentMethod = input.PaymentMethod
	}
	if err := payment.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.paymentRepo.Update(&payment)
	if err != nil {
		return nil, err
	}

	if err := s.upsertPaymentTransactions(updated, refs); err != nil {
		return nil, err
	}

	if input.ApplyLedgerEffects {
		if updated.PaymentMethod == previous.PaymentMethod {
			account, err := s.collectionAccount(refs.lead.RouteID, updated.PaymentMethod)
			if err != nil {
				return nil, err
			}
			delta := updated.Amount.Sub(previous.Amount)
			if !delta.IsZero() {
				if _, err := s.accountRepo.AdjustBalance(account.ID, delta); err != nil {
					return nil, err
				}
			}
		} else {
			// Method changed: the money moves between the cash and bank ledgers
			oldAccount, err := s.collectionAccount(refs.lead.RouteID, previous.PaymentMethod)
			if err != nil {
				return nil, err
			}
			newAccount, err := s.collectionAccount(refs.lead.RouteID, updated.PaymentMethod)
			if err != nil {
				return nil, err
			}
			if _, err := s.accountRepo.AdjustBalance(oldAccount.ID, previous.Amount.Neg()); err != nil {
				return nil, err
			}
			if _, err := s.accountRepo.AdjustBalance(newAccount.ID, updated.Amount); err != nil {
				return nil, err
			}
		}
	}

	s.recomputeMetrics(updated.LoanID)
	s.publishEvent(refs.lead.RouteID, websocket.PaymentUpdated(updated))
	return updated, nil
}

// DeletePayment removes a payment, reversing both of its transactions and
// the balance change it applied.
func (s *PaymentService) DeletePayment(id int32) error {
	payment, err := s.paymentRepo.GetByID(id)
	if err != nil {
		return err
	}

	refs, err := s.resolvePaymentRefs(payment.LoanID)
	if err != nil {
		return err
	}

	if income, err := s.transactionRepo.GetByPaymentAndType(payment.ID, domain.TransactionTypeIncome); err == nil {
		if err := s.transactionRepo.Delete(income.ID); err != nil {
			return err
		}
	} else if !errors.Is(err, domain.ErrTransactionNotFound) {
		return err
	}

	if expense, err := s.transactionRepo.GetByPaymentAndType(payment.ID, domain.TransactionTypeExpense); err == nil {
		if err := s.transactionRepo.Delete(expense.ID); err != nil {
			return err
		}
	} else if !errors.Is(err, domain.ErrTransactionNotFound) {
		return err
	}

	account, err := s.collectionAccount(refs.lead.RouteID, payment.PaymentMethod)
	if err != nil {
		return err
	}
	if _, err := s.accountRepo.AdjustBalance(account.ID, payment.Amount.Neg()); err != nil {
		return err
	}

	if err := s.paymentRepo.Delete(payment.ID); err != nil {
		return err
	}

	s.recomputeMetrics(payment.LoanID)
	s.publishEvent(refs.lead.RouteID, websocket.PaymentDeleted(payment))
	return nil
}

// GetPaymentsByLoan retrieves all payments for a loan
func (s *PaymentService) GetPaymentsByLoan(loanID int32) ([]*domain.LoanPayment, error) {
	if _, err := s.loanRepo.GetByID(loanID); err != nil {
		return nil, err
	}
	return s.paymentRepo.GetByLoanID(loanID)
}

// paymentRefs bundles the lookups every payment write requires. Missing any
// of them aborts the operation.
type paymentRefs struct {
	loan     *domain.Loan
	loantype *domain.Loantype
	lead     *domain.Lead
}

func (s *PaymentService) resolvePaymentRefs(loanID int32) (*paymentRefs, error) {
	loan, err := s.loanRepo.GetByID(loanID)
	if err != nil {
		return nil, err
	}
	loantype, err := s.loantypeRepo.GetByID(loan.LoantypeID)
	if err != nil {
		return nil, err
	}
	lead, err := s.leadRepo.GetByID(loan.LeadID)
	if err != nil {
		return nil, err
	}
	return &paymentRefs{loan: loan, loantype: loantype, lead: lead}, nil
}

// upsertPaymentTransactions keeps the payment's ledger records in sync:
// exactly one income transaction, and one commission expense only while the
// commission is positive. Existing records are updated in place.
func (s *PaymentService) upsertPaymentTransactions(payment *domain.LoanPayment, refs *paymentRefs) error {
	account, err := s.collectionAccount(refs.lead.RouteID, payment.PaymentMethod)
	if err != nil {
		return err
	}

	// Flat per-payment attribution for the transaction's audit fields; the
	// authoritative pending balance comes from the loan snapshot instead.
	profit := FlatPaymentProfit(payment.Amount, refs.loantype.Rate, refs.loantype.WeekDuration)
	returnToCapital := payment.Amount.Sub(profit)

	incomeSource := domain.IncomeSourceCashLoanPayment
	if payment.PaymentMethod == domain.PaymentMethodMoneyTransfer {
		incomeSource = domain.IncomeSourceBankLoanPayment
	}

	income, err := s.transactionRepo.GetByPaymentAndType(payment.ID, domain.TransactionTypeIncome)
	switch {
	case err == nil:
		income.Amount = payment.Amount
		income.Date = payment.ReceivedAt
		income.IncomeSource = &incomeSource
		income.DestinationAccountID = &account.ID
		income.ProfitAmount = profit
		income.ReturnToCapital = returnToCapital
		if _, err := s.transactionRepo.Update(income); err != nil {
			return err
		}
	case errors.Is(err, domain.ErrTransactionNotFound):
		if _, err := s.transactionRepo.Create(&domain.Transaction{
			Amount:                payment.Amount,
			Date:                  payment.ReceivedAt,
			Type:                  domain.TransactionTypeIncome,
			IncomeSource:          &incomeSource,
			DestinationAccountID:  &account.ID,
			LoanID:                &payment.LoanID,
			LoanPaymentID:         &payment.ID,
			LeadPaymentReceivedID: payment.LeadPaymentReceivedID,
			LeadID:                &refs.lead.ID,
			ProfitAmount:          profit,
			ReturnToCapital:       returnToCapital,
		}); err != nil {
			return err
		}
	default:
		return err
	}

	comissionSource := domain.ExpenseSourceLoanPaymentComission
	expense, err := s.transactionRepo.GetByPaymentAndType(payment.ID, domain.TransactionTypeExpense)
	switch {
	case err == nil:
		if payment.Comission.IsPositive() {
			expense.Amount = payment.Comission
			expense.Date = payment.ReceivedAt
			if _, err := s.transactionRepo.Update(expense); err != nil {
				return err
			}
		} else if err := s.transactionRepo.Delete(expense.ID); err != nil {
			return err
		}
	case errors.Is(err, domain.ErrTransactionNotFound):
		if !payment.Comission.IsPositive() {
			return nil
		}
		if _, err := s.transactionRepo.Create(&domain.Transaction{
			Amount:                payment.Comission,
			Date:                  payment.ReceivedAt,
			Type:                  domain.TransactionTypeExpense,
			ExpenseSource:         &comissionSource,
			SourceAccountID:       &account.ID,
			LoanID:                &payment.LoanID,
			LoanPaymentID:         &payment.ID,
			LeadPaymentReceivedID: payment.LeadPaymentReceivedID,
			LeadID:                &refs.lead.ID,
		}); err != nil {
			return err
		}
	default:
		return err
	}
	return nil
}

// collectionAccount picks the ledger a payment lands in: the route's employee
// cash fund for cash, its bank account for transfers.
func (s *PaymentService) collectionAccount(routeID int32, method domain.PaymentMethod) (*domain.Account, error) {
	accountType := domain.AccountTypeEmployeeCashFund
	if method == domain.PaymentMethodMoneyTransfer {
		accountType = domain.AccountTypeBank
	}
	return s.accountRepo.GetByRouteAndType(routeID, accountType)
}

func (s *PaymentService) recomputeMetrics(loanID int32) {
	if err := s.metrics.Recompute(loanID); err != nil {
		log.Error().Err(err).Int32("loan_id", loanID).Msg("Metrics recompute after payment write failed")
	}
}
