package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrLoanPaymentNotFound      = errors.New("loan payment not found")
	ErrLoanPaymentAmountInvalid = errors.New("payment amount cannot be negative")
	ErrPaymentMethodInvalid     = errors.New("payment method is invalid")
)

type PaymentType string

const (
	PaymentTypePayment         PaymentType = "PAYMENT"
	PaymentTypeExtraCollection PaymentType = "EXTRA_COLLECTION"
)

type PaymentMethod string

const (
	PaymentMethodCash          PaymentMethod = "CASH"
	PaymentMethodMoneyTransfer PaymentMethod = "MONEY_TRANSFER"
)

// LoanPayment is a single collection event against a loan. Each payment owns
// at most one INCOME transaction (the amount) and one EXPENSE transaction
// (the lead's collection commission, when positive).
type LoanPayment struct {
	ID                    int32           `json:"id"`
	LoanID                int32           `json:"loanId"`
	LeadPaymentReceivedID *int32          `json:"leadPaymentReceivedId,omitempty"`
	Amount                decimal.Decimal `json:"amount"`
	Comission             decimal.Decimal `json:"comission"`
	ReceivedAt            time.Time       `json:"receivedAt"`
	Type                  PaymentType     `json:"type"`
	PaymentMethod         PaymentMethod   `json:"paymentMethod"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

func (p *LoanPayment) Validate() error {
	if p.Amount.IsNegative() {
		return ErrLoanPaymentAmountInvalid
	}
	if p.PaymentMethod != PaymentMethodCash && p.PaymentMethod != PaymentMethodMoneyTransfer {
		return ErrPaymentMethodInvalid
	}
	return nil
}

type LoanPaymentRepository interface {
	Create(payment *LoanPayment) (*LoanPayment, error)
	GetByID(id int32) (*LoanPayment, error)
	GetByLoanID(loanID int32) ([]*LoanPayment, error)
	Update(payment *LoanPayment) (*LoanPayment, error)
	Delete(id int32) error
}
