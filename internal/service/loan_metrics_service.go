package service

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/solventa/solventa-backend/internal/domain"
)

// LoanMetricsService recomputes the persisted derived snapshot of a loan
// (total debt, expected weekly payment, total paid, pending amount, finished
// date) from the full payment set. It always recomputes from scratch, never
// incrementally, so calling it after every write cannot accumulate drift.
type LoanMetricsService struct {
	loanRepo     domain.LoanRepository
	loantypeRepo domain.LoantypeRepository
	paymentRepo  domain.LoanPaymentRepository
}

// NewLoanMetricsService creates a new LoanMetricsService
func NewLoanMetricsService(loanRepo domain.LoanRepository, loantypeRepo domain.LoantypeRepository, paymentRepo domain.LoanPaymentRepository) *LoanMetricsService {
	return &LoanMetricsService{
		loanRepo:     loanRepo,
		loantypeRepo: loantypeRepo,
		paymentRepo:  paymentRepo,
	}
}

// Recompute recalculates and persists the loan's snapshot fields.
//
// This is a best-effort side-channel to the primary write: a missing loan is
// logged and treated as a no-op, never as a failure of the caller's write.
func (s *LoanMetricsService) Recompute(loanID int32) error {
	loan, err := s.loanRepo.GetByID(loanID)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			log.Warn().Int32("loan_id", loanID).Msg("Metrics recompute skipped: loan not found")
			return nil
		}
		return err
	}

	rate := decimal.Zero
	var weekDuration int32
	loantype, err := s.loantypeRepo.GetByID(loan.LoantypeID)
	if err == nil {
		rate = loantype.Rate
		weekDuration = loantype.WeekDuration
	} else if !errors.Is(err, domain.ErrLoantypeNotFound) {
		return err
	}

	payments, err := s.paymentRepo.GetByLoanID(loanID)
	if err != nil {
		return err
	}

	totalDebt := loan.RequestedAmount.Mul(decimal.NewFromInt(1).Add(rate)).Round(2)

	expectedWeekly := decimal.Zero
	if weekDuration > 0 {
		expectedWeekly = totalDebt.Div(decimal.NewFromInt32(weekDuration)).Round(2)
	}

	totalPaid := decimal.Zero
	for _, p := range payments {
		totalPaid = totalPaid.Add(p.Amount)
	}

	pending := totalDebt.Sub(totalPaid)
	if pending.IsNegative() {
		pending = decimal.Zero
	}

	snapshot := domain.LoanSnapshot{
		TotalDebtAcquired:     totalDebt,
		ExpectedWeeklyPayment: expectedWeekly,
		TotalPaid:             totalPaid,
		PendingAmountStored:   pending,
		FinishedDate:          loan.FinishedDate,
	}

	// A fully paid loan is finished as of its last collection, not as of the
	// moment this recompute happened to run.
	if totalPaid.GreaterThanOrEqual(totalDebt) && loan.FinishedDate == nil && len(payments) > 0 {
		last := lastPaymentTime(payments)
		snapshot.FinishedDate = &last
	}

	return s.loanRepo.UpdateSnapshot(loanID, snapshot)
}

// RecomputeAll recomputes the snapshot of every active loan. Individual
// failures are logged and skipped so one bad loan cannot stall the sweep.
// Used by the nightly reconciliation job and the backfill endpoint.
func (s *LoanMetricsService) RecomputeAll() (int, error) {
	ids, err := s.loanRepo.GetActiveIDs()
	if err != nil {
		return 0, err
	}

	recomputed := 0
	for _, id := range ids {
		if err := s.Recompute(id); err != nil {
			log.Error().Err(err).Int32("loan_id", id).Msg("Metrics recompute failed")
			continue
		}
		recomputed++
	}
	return recomputed, nil
}

func lastPaymentTime(payments []*domain.LoanPayment) (latest time.Time) {
	for _, p := range payments {
		at := p.ReceivedAt
		if at.IsZero() {
			at = p.CreatedAt
		}
		if at.After(latest) {
			latest = at
		}
	}
	return latest
}
