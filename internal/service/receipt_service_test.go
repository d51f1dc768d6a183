package service

import (
	"errors"
	"testing"
	"time"

	"github.com/solventa/solventa-backend/internal/domain"
)

func TestCreateReceipt_Complete(t *testing.T) {
	env := newTestEnv()
	loanA := env.addActiveLoan("3000")
	loanB := env.addActiveLoan("2000")

	receipt, err := env.receiptSvc.CreateReceipt(CreateReceiptInput{
		LeadID:         env.lead.ID,
		ExpectedAmount: dec("600"),
		CashPaidAmount: dec("400"),
		BankPaidAmount: dec("200"),
		ReceivedAt:     time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		Payments: []BatchPaymentInput{
			{LoanID: loanA.ID, Amount: dec("300"), PaymentMethod: domain.PaymentMethodCash},
			{LoanID: loanA.ID, Amount: dec("100"), PaymentMethod: domain.PaymentMethodCash},
			{LoanID: loanB.ID, Amount: dec("200"), PaymentMethod: domain.PaymentMethodMoneyTransfer},
		},
	})
	if err != nil {
		t.Fatalf("CreateReceipt failed: %v", err)
	}

	if receipt.PaymentStatus != domain.PaymentStatusComplete {
		t.Errorf("Expected COMPLETE, got %s", receipt.PaymentStatus)
	}
	if !receipt.FalcoAmount.IsZero() {
		t.Errorf("Expected no falco, got %s", receipt.FalcoAmount.String())
	}

	// Balance math happens once for the batch, not per member payment
	if !env.cashFund.Amount.Equal(dec("10400")) {
		t.Errorf("Expected cash fund at 10400, got %s", env.cashFund.Amount.String())
	}
	if !env.bank.Amount.Equal(dec("5200")) {
		t.Errorf("Expected bank at 5200, got %s", env.bank.Amount.String())
	}

	paymentsA, _ := env.payments.GetByLoanID(loanA.ID)
	if len(paymentsA) != 2 {
		t.Errorf("Expected 2 payments on the first loan, got %d", len(paymentsA))
	}
	for _, p := range paymentsA {
		if p.LeadPaymentReceivedID == nil || *p.LeadPaymentReceivedID != receipt.ID {
			t.Errorf("Expected payment linked to receipt %d", receipt.ID)
		}
	}

	// Member payment snapshots still recomputed
	refreshed, _ := env.loans.GetByID(loanA.ID)
	if !refreshed.TotalPaid.Equal(dec("400")) {
		t.Errorf("Expected total paid 400 on first loan, got %s", refreshed.TotalPaid.String())
	}

	if _, err := env.transactions.GetByReceiptAndSource(receipt.ID, domain.ExpenseSourceFalcoLoss); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("Expected no falco loss transaction, got %v", err)
	}
}

func TestCreateReceipt_ShortfallRecordsFalco(t *testing.T) {
	env := newTestEnv()
	loan := env.addActiveLoan("3000")

	receipt, err := env.receiptSvc.CreateReceipt(CreateReceiptInput{
		LeadID:         env.lead.ID,
		ExpectedAmount: dec("600"),
		CashPaidAmount: dec("350"),
		ReceivedAt:     time.Now(),
		Payments: []BatchPaymentInput{
			{LoanID: loan.ID, Amount: dec("350"), PaymentMethod: domain.PaymentMethodCash},
		},
	})
	if err != nil {
		t.Fatalf("CreateReceipt failed: %v", err)
	}

	if receipt.PaymentStatus != domain.PaymentStatusPartial {
		t.Errorf("Expected PARTIAL, got %s", receipt.PaymentStatus)
	}
	if !receipt.FalcoAmount.Equal(dec("250")) {
		t.Errorf("Expected falco 250, got %s", receipt.FalcoAmount.String())
	}

	lossTx, err := env.transactions.GetByReceiptAndSource(receipt.ID, domain.ExpenseSourceFalcoLoss)
	if err != nil {
		t.Fatalf("Falco loss transaction missing: %v", err)
	}
	if !lossTx.Amount.Equal(dec("250")) {
		t.Errorf("Expected falco loss of 250, got %s", lossTx.Amount.String())
	}

	// Only the money that actually arrived credits the fund
	if !env.cashFund.Amount.Equal(dec("10350")) {
		t.Errorf("Expected cash fund at 10350, got %s", env.cashFund.Amount.String())
	}
}

func TestCreateReceipt_OverCollectionIsComplete(t *testing.T) {
	env := newTestEnv()

	receipt, err := env.receiptSvc.CreateReceipt(CreateReceiptInput{
		LeadID:         env.lead.ID,
		ExpectedAmount: dec("600"),
		CashPaidAmount: dec("700"),
		ReceivedAt:     time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateReceipt failed: %v", err)
	}

	if receipt.PaymentStatus != domain.PaymentStatusComplete {
		t.Errorf("Expected COMPLETE, got %s", receipt.PaymentStatus)
	}
	if !receipt.FalcoAmount.IsZero() {
		t.Errorf("Expected falco floored at zero, got %s", receipt.FalcoAmount.String())
	}
}

func TestCreateReceipt_NegativeAmounts(t *testing.T) {
	env := newTestEnv()

	_, err := env.receiptSvc.CreateReceipt(CreateReceiptInput{
		LeadID:         env.lead.ID,
		ExpectedAmount: dec("-600"),
		ReceivedAt:     time.Now(),
	})
	if !errors.Is(err, domain.ErrReceiptAmountsInvalid) {
		t.Errorf("Expected ErrReceiptAmountsInvalid, got %v", err)
	}
}

func TestCreateReceipt_MissingLead(t *testing.T) {
	env := newTestEnv()

	_, err := env.receiptSvc.CreateReceipt(CreateReceiptInput{
		LeadID:         42,
		ExpectedAmount: dec("600"),
		ReceivedAt:     time.Now(),
	})
	if !errors.Is(err, domain.ErrLeadNotFound) {
		t.Errorf("Expected ErrLeadNotFound, got %v", err)
	}
}
