package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/solventa/solventa-backend/internal/domain"
	"github.com/solventa/solventa-backend/internal/websocket"
)

// FalcoService tracks the repayment of a lead's shortfall. Each compensation
// shrinks the original FALCO_LOSS expense transaction (down to zero, never
// negative) and puts the handed-in money back into the route's cash fund.
type FalcoService struct {
	falcoRepo       domain.FalcoCompensatoryPaymentRepository
	receiptRepo     domain.LeadPaymentReceivedRepository
	leadRepo        domain.LeadRepository
	accountRepo     domain.AccountRepository
	transactionRepo domain.TransactionRepository
	eventPublisher  websocket.EventPublisher
}

// NewFalcoService creates a new FalcoService
func NewFalcoService(falcoRepo domain.FalcoCompensatoryPaymentRepository, receiptRepo domain.LeadPaymentReceivedRepository, leadRepo domain.LeadRepository, accountRepo domain.AccountRepository, transactionRepo domain.TransactionRepository) *FalcoService {
	return &FalcoService{
		falcoRepo:       falcoRepo,
		receiptRepo:     receiptRepo,
		leadRepo:        leadRepo,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *FalcoService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// RegisterCompensationInput contains input for a compensatory payment
type RegisterCompensationInput struct {
	LeadPaymentReceivedID int32
	Amount                decimal.Decimal
	ReceivedAt            time.Time
}

// RegisterCompensation records a compensatory payment against a receipt's
// shortfall. The compensation itself must never be lost, so it is persisted
// first; the loss-transaction reduction, cash replenishment, and status
// transition that follow are best-effort and only logged on failure.
func (s *FalcoService) RegisterCompensation(input RegisterCompensationInput) (*domain.FalcoCompensatoryPayment, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrCompensationAmountInvalid
	}

	receipt, err := s.receiptRepo.GetByID(input.LeadPaymentReceivedID)
	if err != nil {
		if errors.Is(err, domain.ErrReceiptNotFound) {
			return nil, domain.ErrCompensationReceiptMissing
		}
		return nil, err
	}

	compensation, err := s.falcoRepo.Create(&domain.FalcoCompensatoryPayment{
		LeadPaymentReceivedID: receipt.ID,
		Amount:                input.Amount,
		ReceivedAt:            input.ReceivedAt,
	})
	if err != nil {
		return nil, err
	}

	s.applyCompensationEffects(receipt, compensation)
	return compensation, nil
}

// applyCompensationEffects runs the ledger side of a compensation. Missing
// lookups are logged and skipped; the primary write already succeeded.
func (s *FalcoService) applyCompensationEffects(receipt *domain.LeadPaymentReceived, compensation *domain.FalcoCompensatoryPayment) {
	all, err := s.falcoRepo.GetByReceiptID(receipt.ID)
	if err != nil {
		log.Error().Err(err).Int32("receipt_id", receipt.ID).Msg("Falco effects skipped: compensations unavailable")
		return
	}

	totalCompensated := decimal.Zero
	for _, c := range all {
		totalCompensated = totalCompensated.Add(c.Amount)
	}

	// FalcoAmount is only zeroed once the shortfall is fully made up, so while
	// the receipt is PARTIAL it still holds the original falco amount.
	original := receipt.FalcoAmount
	remaining := original.Sub(totalCompensated)
	if remaining.IsNegative() {
		log.Warn().
			Int32("receipt_id", receipt.ID).
			Str("original", original.StringFixed(2)).
			Str("compensated", totalCompensated.StringFixed(2)).
			Msg("Falco over-compensated; excess absorbed")
		remaining = decimal.Zero
	}

	lossTx, err := s.transactionRepo.GetByReceiptAndSource(receipt.ID, domain.ExpenseSourceFalcoLoss)
	if err != nil {
		log.Error().Err(err).Int32("receipt_id", receipt.ID).Msg("Falco effects skipped: loss transaction not found")
		return
	}

	var description string
	if remaining.IsZero() {
		description = fmt.Sprintf("Falco fully compensated on %s", compensation.ReceivedAt.Format("2006-01-02"))
	} else {
		description = fmt.Sprintf("Falco partially compensated, %s remaining", remaining.StringFixed(2))
	}
	if _, err := s.transactionRepo.UpdateAmount(lossTx.ID, remaining, &description); err != nil {
		log.Error().Err(err).Int32("transaction_id", lossTx.ID).Msg("Falco loss reduction failed")
		return
	}

	lead, err := s.leadRepo.GetByID(receipt.LeadID)
	if err != nil {
		log.Error().Err(err).Int32("lead_id", receipt.LeadID).Msg("Falco cash replenishment skipped: lead not found")
		return
	}
	account, err := s.accountRepo.GetByRouteAndType(lead.RouteID, domain.AccountTypeEmployeeCashFund)
	if err != nil {
		log.Error().Err(err).Int32("route_id", lead.RouteID).Msg("Falco cash replenishment skipped: cash fund not found")
		return
	}

	// Only this payment's amount goes back, not the cumulative total
	if _, err := s.accountRepo.AdjustBalance(account.ID, compensation.Amount); err != nil {
		log.Error().Err(err).Int32("account_id", account.ID).Msg("Falco cash replenishment failed")
		return
	}

	status := domain.PaymentStatusPartial
	falcoAmount := original
	if remaining.IsZero() {
		status = domain.PaymentStatusComplete
		falcoAmount = decimal.Zero
	}
	if err := s.receiptRepo.UpdateFalcoStatus(receipt.ID, status, falcoAmount); err != nil {
		log.Error().Err(err).Int32("receipt_id", receipt.ID).Msg("Receipt status update failed")
		return
	}

	if s.eventPublisher != nil {
		s.eventPublisher.Publish(lead.RouteID, websocket.FalcoCompensated(compensation))
	}
}

// GetCompensations retrieves all compensations recorded against a receipt
func (s *FalcoService) GetCompensations(receiptID int32) ([]*domain.FalcoCompensatoryPayment, error) {
	if _, err := s.receiptRepo.GetByID(receiptID); err != nil {
		return nil, err
	}
	return s.falcoRepo.GetByReceiptID(receiptID)
}
