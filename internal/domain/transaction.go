package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrTransactionTypeInvalid = errors.New("transaction type is invalid")
	ErrSourceAccountRequired  = errors.New("source account is required for this transaction type")
	ErrDestAccountRequired    = errors.New("destination account is required for this transaction type")
)

type TransactionType string

const (
	TransactionTypeIncome     TransactionType = "INCOME"
	TransactionTypeExpense    TransactionType = "EXPENSE"
	TransactionTypeTransfer   TransactionType = "TRANSFER"
	TransactionTypeInvestment TransactionType = "INVESTMENT"
)

type IncomeSource string

const (
	IncomeSourceCashLoanPayment IncomeSource = "CASH_LOAN_PAYMENT"
	IncomeSourceBankLoanPayment IncomeSource = "BANK_LOAN_PAYMENT"
	IncomeSourceMoneyInvestment IncomeSource = "MONEY_INVESTMENT"
)

type ExpenseSource string

const (
	ExpenseSourceLoanGranted          ExpenseSource = "LOAN_GRANTED"
	ExpenseSourceLoanGrantedComission ExpenseSource = "LOAN_GRANTED_COMISSION"
	ExpenseSourceLoanPaymentComission ExpenseSource = "LOAN_PAYMENT_COMISSION"
	ExpenseSourceFalcoLoss            ExpenseSource = "FALCO_LOSS"
	ExpenseSourceGasoline             ExpenseSource = "GASOLINE"
	ExpenseSourceTravel               ExpenseSource = "TRAVEL_EXPENSES"
)

// Transaction is an atomic ledger movement. EXPENSE/TRANSFER decrease the
// source account; INCOME/TRANSFER increase the destination account. The
// source balance must never go negative as a result of applying one.
//
// ProfitAmount/ReturnToCapital are per-payment attribution fields carried on
// loan-payment income transactions for reporting; the authoritative pending
// balance math lives on the loan snapshot instead.
type Transaction struct {
	ID                    int32           `json:"id"`
	Amount                decimal.Decimal `json:"amount"`
	Date                  time.Time       `json:"date"`
	Type                  TransactionType `json:"type"`
	IncomeSource          *IncomeSource   `json:"incomeSource,omitempty"`
	ExpenseSource         *ExpenseSource  `json:"expenseSource,omitempty"`
	SourceAccountID       *int32          `json:"sourceAccountId,omitempty"`
	DestinationAccountID  *int32          `json:"destinationAccountId,omitempty"`
	LoanID                *int32          `json:"loanId,omitempty"`
	LoanPaymentID         *int32          `json:"loanPaymentId,omitempty"`
	LeadPaymentReceivedID *int32          `json:"leadPaymentReceivedId,omitempty"`
	LeadID                *int32          `json:"leadId,omitempty"`
	ProfitAmount          decimal.Decimal `json:"profitAmount"`
	ReturnToCapital       decimal.Decimal `json:"returnToCapital"`
	Description           *string         `json:"description,omitempty"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

func (t *Transaction) Validate() error {
	switch t.Type {
	case TransactionTypeExpense:
		if t.SourceAccountID == nil {
			return ErrSourceAccountRequired
		}
	case TransactionTypeIncome, TransactionTypeInvestment:
		if t.DestinationAccountID == nil {
			return ErrDestAccountRequired
		}
	case TransactionTypeTransfer:
		if t.SourceAccountID == nil {
			return ErrSourceAccountRequired
		}
		if t.DestinationAccountID == nil {
			return ErrDestAccountRequired
		}
	default:
		return ErrTransactionTypeInvalid
	}
	return nil
}

// AccountLedgerSums aggregates the transaction history of one account.
type AccountLedgerSums struct {
	Inflows  decimal.Decimal
	Outflows decimal.Decimal
}

type TransactionRepository interface {
	Create(transaction *Transaction) (*Transaction, error)
	CreateTx(tx interface{}, transaction *Transaction) (*Transaction, error)
	GetByID(id int32) (*Transaction, error)
	GetByLoanID(loanID int32) ([]*Transaction, error)
	// GetByLoanAndSource finds the single disbursement-side transaction of a
	// loan by expense source (LOAN_GRANTED, LOAN_GRANTED_COMISSION).
	GetByLoanAndSource(loanID int32, source ExpenseSource) (*Transaction, error)
	// GetByPaymentAndType finds the single transaction a payment owns for the
	// given type. Supports the idempotent upsert contract.
	GetByPaymentAndType(paymentID int32, txType TransactionType) (*Transaction, error)
	// GetByReceiptAndSource finds a batch receipt's expense transaction, used
	// to locate the original FALCO_LOSS record.
	GetByReceiptAndSource(receiptID int32, source ExpenseSource) (*Transaction, error)
	Update(transaction *Transaction) (*Transaction, error)
	UpdateAmount(id int32, amount decimal.Decimal, description *string) (*Transaction, error)
	Delete(id int32) error
	DeleteByLoanID(loanID int32) (int64, error)
	SumByAccount(accountID int32) (*AccountLedgerSums, error)
}
