package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/solventa/solventa-backend/internal/domain"
	"github.com/solventa/solventa-backend/internal/websocket"
)

// ReceiptService records the daily batch a lead hands in: the expected
// collection total, what actually arrived as cash and bank transfers, the
// shortfall (falco) between them, and the member payments of the batch.
type ReceiptService struct {
	receiptRepo     domain.LeadPaymentReceivedRepository
	leadRepo        domain.LeadRepository
	accountRepo     domain.AccountRepository
	transactionRepo domain.TransactionRepository
	payments        *PaymentService
	eventPublisher  websocket.EventPublisher
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(receiptRepo domain.LeadPaymentReceivedRepository, leadRepo domain.LeadRepository, accountRepo domain.AccountRepository, transactionRepo domain.TransactionRepository, payments *PaymentService) *ReceiptService {
	return &ReceiptService{
		receiptRepo:     receiptRepo,
		leadRepo:        leadRepo,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		payments:        payments,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *ReceiptService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// BatchPaymentInput is one member payment inside a batch receipt
type BatchPaymentInput struct {
	LoanID        int32
	Amount        decimal.Decimal
	Comission     decimal.Decimal
	Type          domain.PaymentType
	PaymentMethod domain.PaymentMethod
}

// CreateReceiptInput contains input for recording a batch receipt
type CreateReceiptInput struct {
	LeadID         int32
	ExpectedAmount decimal.Decimal
	CashPaidAmount decimal.Decimal
	BankPaidAmount decimal.Decimal
	ReceivedAt     time.Time
	Payments       []BatchPaymentInput
}

// CreateReceipt records the batch. Member payments are written with ledger
// effects disabled; the receipt itself performs the consolidated balance
// math: cash collected credits the route's employee cash fund, bank
// collections credit its bank account, and a shortfall produces one
// FALCO_LOSS expense transaction and a PARTIAL status.
func (s *ReceiptService) CreateReceipt(input CreateReceiptInput) (*domain.LeadPaymentReceived, error) {
	receipt := &domain.LeadPaymentReceived{
		LeadID:         input.LeadID,
		ExpectedAmount: input.ExpectedAmount,
		CashPaidAmount: input.CashPaidAmount,
		BankPaidAmount: input.BankPaidAmount,
		ReceivedAt:     input.ReceivedAt,
	}
	if err := receipt.Validate(); err != nil {
		return nil, err
	}

	lead, err := s.leadRepo.GetByID(input.LeadID)
	if err != nil {
		return nil, err
	}

	cashAccount, err := s.accountRepo.GetByRouteAndType(lead.RouteID, domain.AccountTypeEmployeeCashFund)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrCashFundNotFound
		}
		return nil, err
	}

	falco := receipt.Shortfall()
	receipt.FalcoAmount = falco
	receipt.PaymentStatus = domain.PaymentStatusComplete
	if falco.IsPositive() {
		receipt.PaymentStatus = domain.PaymentStatusPartial
	}

	created, err := s.receiptRepo.Create(receipt)
	if err != nil {
		return nil, err
	}

	for _, p := range input.Payments {
		if _, err := s.payments.CreatePayment(CreatePaymentInput{
			LoanID:                p.LoanID,
			LeadPaymentReceivedID: &created.ID,
			Amount:                p.Amount,
			Comission:             p.Comission,
			ReceivedAt:            input.ReceivedAt,
			Type:                  p.Type,
			PaymentMethod:         p.PaymentMethod,
			ApplyLedgerEffects:    false,
		}); err != nil {
			return nil, err
		}
	}

	// Consolidated balance math, once per batch
	if input.CashPaidAmount.IsPositive() {
		if _, err := s.accountRepo.AdjustBalance(cashAccount.ID, input.CashPaidAmount); err != nil {
			return nil, err
		}
	}
	if input.BankPaidAmount.IsPositive() {
		bankAccount, err := s.accountRepo.GetByRouteAndType(lead.RouteID, domain.AccountTypeBank)
		if err != nil {
			return nil, err
		}
		if _, err := s.accountRepo.AdjustBalance(bankAccount.ID, input.BankPaidAmount); err != nil {
			return nil, err
		}
	}

	if falco.IsPositive() {
		falcoSource := domain.ExpenseSourceFalcoLoss
		description := fmt.Sprintf("Falco of %s from lead %d", falco.StringFixed(2), lead.ID)
		if _, err := s.transactionRepo.Create(&domain.Transaction{
			Amount:                falco,
			Date:                  input.ReceivedAt,
			Type:                  domain.TransactionTypeExpense,
			ExpenseSource:         &falcoSource,
			SourceAccountID:       &cashAccount.ID,
			LeadPaymentReceivedID: &created.ID,
			LeadID:                &lead.ID,
			Description:           &description,
		}); err != nil {
			return nil, err
		}
	}

	if s.eventPublisher != nil {
		s.eventPublisher.Publish(lead.RouteID, websocket.ReceiptCreated(created))
	}
	return created, nil
}

// GetReceipt retrieves a batch receipt by ID
func (s *ReceiptService) GetReceipt(id int32) (*domain.LeadPaymentReceived, error) {
	return s.receiptRepo.GetByID(id)
}
