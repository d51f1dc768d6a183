package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrReceiptNotFound            = errors.New("lead payment receipt not found")
	ErrReceiptAmountsInvalid      = errors.New("receipt amounts cannot be negative")
	ErrCompensationAmountInvalid  = errors.New("compensation amount must be positive")
	ErrCompensationReceiptMissing = errors.New("compensation requires a receipt")
)

type PaymentStatus string

const (
	PaymentStatusComplete PaymentStatus = "COMPLETE"
	PaymentStatusPartial  PaymentStatus = "PARTIAL"
)

// LeadPaymentReceived is the batch receipt for what a lead handed in on a
// collection day. FalcoAmount is the shortfall between what was expected and
// what actually came in as cash plus bank transfers.
type LeadPaymentReceived struct {
	ID             int32           `json:"id"`
	LeadID         int32           `json:"leadId"`
	ExpectedAmount decimal.Decimal `json:"expectedAmount"`
	CashPaidAmount decimal.Decimal `json:"cashPaidAmount"`
	BankPaidAmount decimal.Decimal `json:"bankPaidAmount"`
	FalcoAmount    decimal.Decimal `json:"falcoAmount"`
	PaymentStatus  PaymentStatus   `json:"paymentStatus"`
	ReceivedAt     time.Time       `json:"receivedAt"`
	CreatedAt      time.Time       `json:"createdAt"`
}

func (r *LeadPaymentReceived) Validate() error {
	if r.ExpectedAmount.IsNegative() || r.CashPaidAmount.IsNegative() || r.BankPaidAmount.IsNegative() {
		return ErrReceiptAmountsInvalid
	}
	return nil
}

// Shortfall derives the falco amount: expected minus collected, floored at 0.
func (r *LeadPaymentReceived) Shortfall() decimal.Decimal {
	falco := r.ExpectedAmount.Sub(r.CashPaidAmount.Add(r.BankPaidAmount))
	if falco.IsNegative() {
		return decimal.Zero
	}
	return falco
}

// FalcoCompensatoryPayment is a later repayment of a previously recorded
// shortfall on a batch receipt.
type FalcoCompensatoryPayment struct {
	ID                    int32           `json:"id"`
	LeadPaymentReceivedID int32           `json:"leadPaymentReceivedId"`
	Amount                decimal.Decimal `json:"amount"`
	ReceivedAt            time.Time       `json:"receivedAt"`
	CreatedAt             time.Time       `json:"createdAt"`
}

type LeadPaymentReceivedRepository interface {
	Create(receipt *LeadPaymentReceived) (*LeadPaymentReceived, error)
	GetByID(id int32) (*LeadPaymentReceived, error)
	UpdateFalcoStatus(id int32, status PaymentStatus, falcoAmount decimal.Decimal) error
}

type FalcoCompensatoryPaymentRepository interface {
	Create(payment *FalcoCompensatoryPayment) (*FalcoCompensatoryPayment, error)
	GetByReceiptID(receiptID int32) ([]*FalcoCompensatoryPayment, error)
}
