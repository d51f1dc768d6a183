package service

import (
	"errors"
	"testing"
	"time"

	"github.com/solventa/solventa-backend/internal/domain"
)

// seedFalcoReceipt records a batch receipt whose shortfall leaves a falco of
// the given size, going through the real receipt path so the loss transaction
// exists the way production writes it.
func seedFalcoReceipt(t *testing.T, env *testEnv, expected, collected string) *domain.LeadPaymentReceived {
	t.Helper()
	receipt, err := env.receiptSvc.CreateReceipt(CreateReceiptInput{
		LeadID:         env.lead.ID,
		ExpectedAmount: dec(expected),
		CashPaidAmount: dec(collected),
		ReceivedAt:     time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Seeding receipt failed: %v", err)
	}
	return receipt
}

func TestRegisterCompensation_FullInOnePayment(t *testing.T) {
	env := newTestEnv()
	receipt := seedFalcoReceipt(t, env, "600", "100") // falco 500
	fundAfterReceipt := env.cashFund.Amount

	_, err := env.falcoSvc.RegisterCompensation(RegisterCompensationInput{
		LeadPaymentReceivedID: receipt.ID,
		Amount:                dec("500"),
		ReceivedAt:            time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("RegisterCompensation failed: %v", err)
	}

	lossTx, _ := env.transactions.GetByReceiptAndSource(receipt.ID, domain.ExpenseSourceFalcoLoss)
	if !lossTx.Amount.IsZero() {
		t.Errorf("Expected loss transaction reduced to zero, got %s", lossTx.Amount.String())
	}

	refreshed, _ := env.receipts.GetByID(receipt.ID)
	if refreshed.PaymentStatus != domain.PaymentStatusComplete {
		t.Errorf("Expected COMPLETE, got %s", refreshed.PaymentStatus)
	}
	if !refreshed.FalcoAmount.IsZero() {
		t.Errorf("Expected falco amount zeroed, got %s", refreshed.FalcoAmount.String())
	}

	if !env.cashFund.Amount.Equal(fundAfterReceipt.Add(dec("500"))) {
		t.Errorf("Expected cash fund credited with 500, got %s", env.cashFund.Amount.String())
	}
}

func TestRegisterCompensation_TwoPartials(t *testing.T) {
	env := newTestEnv()
	receipt := seedFalcoReceipt(t, env, "600", "100") // falco 500

	_, err := env.falcoSvc.RegisterCompensation(RegisterCompensationInput{
		LeadPaymentReceivedID: receipt.ID,
		Amount:                dec("300"),
		ReceivedAt:            time.Now(),
	})
	if err != nil {
		t.Fatalf("First compensation failed: %v", err)
	}

	lossTx, _ := env.transactions.GetByReceiptAndSource(receipt.ID, domain.ExpenseSourceFalcoLoss)
	if !lossTx.Amount.Equal(dec("200")) {
		t.Errorf("Expected loss at 200 after first payment, got %s", lossTx.Amount.String())
	}

	refreshed, _ := env.receipts.GetByID(receipt.ID)
	if refreshed.PaymentStatus != domain.PaymentStatusPartial {
		t.Errorf("Expected PARTIAL after first payment, got %s", refreshed.PaymentStatus)
	}
	// The original shortfall stays on the receipt until it is fully made up
	if !refreshed.FalcoAmount.Equal(dec("500")) {
		t.Errorf("Expected falco amount kept at 500, got %s", refreshed.FalcoAmount.String())
	}

	_, err = env.falcoSvc.RegisterCompensation(RegisterCompensationInput{
		LeadPaymentReceivedID: receipt.ID,
		Amount:                dec("200"),
		ReceivedAt:            time.Now(),
	})
	if err != nil {
		t.Fatalf("Second compensation failed: %v", err)
	}

	lossTx, _ = env.transactions.GetByReceiptAndSource(receipt.ID, domain.ExpenseSourceFalcoLoss)
	if !lossTx.Amount.IsZero() {
		t.Errorf("Expected loss at zero after second payment, got %s", lossTx.Amount.String())
	}

	refreshed, _ = env.receipts.GetByID(receipt.ID)
	if refreshed.PaymentStatus != domain.PaymentStatusComplete {
		t.Errorf("Expected COMPLETE after second payment, got %s", refreshed.PaymentStatus)
	}
	if !refreshed.FalcoAmount.IsZero() {
		t.Errorf("Expected falco amount zeroed, got %s", refreshed.FalcoAmount.String())
	}
}

func TestRegisterCompensation_OverCompensationAbsorbed(t *testing.T) {
	env := newTestEnv()
	receipt := seedFalcoReceipt(t, env, "600", "500") // falco 100
	fundAfterReceipt := env.cashFund.Amount

	_, err := env.falcoSvc.RegisterCompensation(RegisterCompensationInput{
		LeadPaymentReceivedID: receipt.ID,
		Amount:                dec("150"),
		ReceivedAt:            time.Now(),
	})
	if err != nil {
		t.Fatalf("RegisterCompensation failed: %v", err)
	}

	lossTx, _ := env.transactions.GetByReceiptAndSource(receipt.ID, domain.ExpenseSourceFalcoLoss)
	if !lossTx.Amount.IsZero() {
		t.Errorf("Expected loss clamped at zero, got %s", lossTx.Amount.String())
	}

	refreshed, _ := env.receipts.GetByID(receipt.ID)
	if refreshed.PaymentStatus != domain.PaymentStatusComplete {
		t.Errorf("Expected COMPLETE, got %s", refreshed.PaymentStatus)
	}

	// The full handed-in amount still lands in the fund
	if !env.cashFund.Amount.Equal(fundAfterReceipt.Add(dec("150"))) {
		t.Errorf("Expected cash fund credited with 150, got %s", env.cashFund.Amount.String())
	}
}

func TestRegisterCompensation_NonPositiveAmount(t *testing.T) {
	env := newTestEnv()
	receipt := seedFalcoReceipt(t, env, "600", "100")

	_, err := env.falcoSvc.RegisterCompensation(RegisterCompensationInput{
		LeadPaymentReceivedID: receipt.ID,
		Amount:                dec("0"),
		ReceivedAt:            time.Now(),
	})
	if !errors.Is(err, domain.ErrCompensationAmountInvalid) {
		t.Errorf("Expected ErrCompensationAmountInvalid, got %v", err)
	}
}

func TestRegisterCompensation_MissingReceipt(t *testing.T) {
	env := newTestEnv()

	_, err := env.falcoSvc.RegisterCompensation(RegisterCompensationInput{
		LeadPaymentReceivedID: 99,
		Amount:                dec("100"),
		ReceivedAt:            time.Now(),
	})
	if !errors.Is(err, domain.ErrCompensationReceiptMissing) {
		t.Errorf("Expected ErrCompensationReceiptMissing, got %v", err)
	}
}

func TestRegisterCompensation_PersistsEvenWhenLossTxMissing(t *testing.T) {
	env := newTestEnv()
	receipt := env.receipts.AddReceipt(&domain.LeadPaymentReceived{
		LeadID:         env.lead.ID,
		ExpectedAmount: dec("600"),
		CashPaidAmount: dec("100"),
		FalcoAmount:    dec("500"),
		PaymentStatus:  domain.PaymentStatusPartial,
	})

	// No loss transaction was ever recorded; the compensation must still land
	compensation, err := env.falcoSvc.RegisterCompensation(RegisterCompensationInput{
		LeadPaymentReceivedID: receipt.ID,
		Amount:                dec("200"),
		ReceivedAt:            time.Now(),
	})
	if err != nil {
		t.Fatalf("RegisterCompensation failed: %v", err)
	}

	stored, err := env.falcos.GetByReceiptID(receipt.ID)
	if err != nil || len(stored) != 1 {
		t.Fatalf("Expected 1 stored compensation, got %d (err %v)", len(stored), err)
	}
	if compensation.ID == 0 {
		t.Errorf("Expected compensation assigned an ID")
	}
}

func TestGetCompensations_MissingReceipt(t *testing.T) {
	env := newTestEnv()

	_, err := env.falcoSvc.GetCompensations(99)
	if !errors.Is(err, domain.ErrReceiptNotFound) {
		t.Errorf("Expected ErrReceiptNotFound, got %v", err)
	}
}
