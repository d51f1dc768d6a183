package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrLoanNotFound           = errors.New("loan not found")
	ErrLoanAmountInvalid      = errors.New("requested amount must be positive")
	ErrLoanAmountGivedInvalid = errors.New("amount gived cannot be negative")
	ErrLoanComissionInvalid   = errors.New("comission amount cannot be negative")
	ErrLoanLeadRequired       = errors.New("lead is required")
	ErrLoanLoantypeRequired   = errors.New("loan type is required")
	ErrCashFundNotFound       = errors.New("employee cash fund account not found for lead route")
	ErrPreviousLoanNotFound   = errors.New("previous loan not found")
)

type LoanStatus string

const (
	LoanStatusActive    LoanStatus = "ACTIVE"
	LoanStatusFinished  LoanStatus = "FINISHED"
	LoanStatusRenovated LoanStatus = "RENOVATED"
	LoanStatusCancelled LoanStatus = "CANCELLED"
)

// Loan is a lending agreement. The four snapshot fields (TotalDebtAcquired,
// ExpectedWeeklyPayment, TotalPaid, PendingAmountStored) are persisted derived
// values, recomputed from the full payment set after every payment write.
type Loan struct {
	ID              int32           `json:"id"`
	BorrowerID      int32           `json:"borrowerId"`
	LeadID          int32           `json:"leadId"`
	LoantypeID      int32           `json:"loantypeId"`
	PreviousLoanID  *int32          `json:"previousLoanId,omitempty"`
	RequestedAmount decimal.Decimal `json:"requestedAmount"`
	AmountGived     decimal.Decimal `json:"amountGived"`
	ComissionAmount decimal.Decimal `json:"comissionAmount"`
	SignDate        time.Time       `json:"signDate"`
	FinishedDate    *time.Time      `json:"finishedDate,omitempty"`
	RenewedDate     *time.Time      `json:"renewedDate,omitempty"`
	BadDebtDate     *time.Time      `json:"badDebtDate,omitempty"`
	IsDeceased      bool            `json:"isDeceased"`
	Status          LoanStatus      `json:"status"`
	ProfitAmount    decimal.Decimal `json:"profitAmount"`

	TotalDebtAcquired     decimal.Decimal `json:"totalDebtAcquired"`
	ExpectedWeeklyPayment decimal.Decimal `json:"expectedWeeklyPayment"`
	TotalPaid             decimal.Decimal `json:"totalPaid"`
	PendingAmountStored   decimal.Decimal `json:"pendingAmountStored"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (l *Loan) Validate() error {
	if l.RequestedAmount.LessThanOrEqual(decimal.Zero) {
		return ErrLoanAmountInvalid
	}
	if l.AmountGived.IsNegative() {
		return ErrLoanAmountGivedInvalid
	}
	if l.ComissionAmount.IsNegative() {
		return ErrLoanComissionInvalid
	}
	if l.LeadID <= 0 {
		return ErrLoanLeadRequired
	}
	if l.LoantypeID <= 0 {
		return ErrLoanLoantypeRequired
	}
	return nil
}

// IsSettled reports whether the debt snapshot shows the loan fully paid.
func (l *Loan) IsSettled() bool {
	return l.TotalPaid.GreaterThanOrEqual(l.TotalDebtAcquired) && l.TotalDebtAcquired.IsPositive()
}

// LoanSnapshot carries the derived fields persisted by the metrics recompute.
type LoanSnapshot struct {
	TotalDebtAcquired     decimal.Decimal
	ExpectedWeeklyPayment decimal.Decimal
	TotalPaid             decimal.Decimal
	PendingAmountStored   decimal.Decimal
	FinishedDate          *time.Time
}

type LoanRepository interface {
	Create(loan *Loan) (*Loan, error)
	CreateTx(tx interface{}, loan *Loan) (*Loan, error)
	GetByID(id int32) (*Loan, error)
	GetByLead(leadID int32) ([]*Loan, error)
	GetActiveIDs() ([]int32, error)
	Update(loan *Loan) (*Loan, error)
	UpdateSnapshot(id int32, snapshot LoanSnapshot) error
	// UpdateStatus sets the lifecycle status together with the finished and
	// renewed dates; nil clears either date (reactivation of a renewed loan).
	UpdateStatus(id int32, status LoanStatus, finishedDate, renewedDate *time.Time) error
	UpdateStatusTx(tx interface{}, id int32, status LoanStatus, finishedDate, renewedDate *time.Time) error
	Delete(id int32) error
}
