package service

import (
	"errors"
	"testing"
	"time"

	"github.com/solventa/solventa-backend/internal/domain"
)

func TestCreateAccount_Validation(t *testing.T) {
	env := newTestEnv()

	_, err := env.accountSvc.CreateAccount(&domain.Account{RouteID: 7, Type: domain.AccountTypeBank})
	if !errors.Is(err, domain.ErrAccountNameEmpty) {
		t.Errorf("Expected ErrAccountNameEmpty, got %v", err)
	}

	_, err = env.accountSvc.CreateAccount(&domain.Account{RouteID: 7, Name: "Caja", Type: "PIGGY_BANK"})
	if !errors.Is(err, domain.ErrAccountTypeInvalid) {
		t.Errorf("Expected ErrAccountTypeInvalid, got %v", err)
	}

	_, err = env.accountSvc.CreateAccount(&domain.Account{
		RouteID: 7,
		Name:    "Caja",
		Type:    domain.AccountTypeOfficeCashFund,
		Amount:  dec("-1"),
	})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("Expected ErrInsufficientFunds, got %v", err)
	}
}

func TestVerifyBalance(t *testing.T) {
	env := newTestEnv()
	account, err := env.accountSvc.CreateAccount(&domain.Account{
		RouteID: 7,
		Name:    "Gasolina",
		Type:    domain.AccountTypePrepaidGas,
	})
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	investment := domain.IncomeSourceMoneyInvestment
	if _, err := env.txSvc.CreateTransaction(&domain.Transaction{
		Amount:               dec("2000"),
		Date:                 time.Now(),
		Type:                 domain.TransactionTypeInvestment,
		IncomeSource:         &investment,
		DestinationAccountID: &account.ID,
	}); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	gasoline := domain.ExpenseSourceGasoline
	if _, err := env.txSvc.CreateTransaction(&domain.Transaction{
		Amount:          dec("450"),
		Date:            time.Now(),
		Type:            domain.TransactionTypeExpense,
		ExpenseSource:   &gasoline,
		SourceAccountID: &account.ID,
	}); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	verification, err := env.accountSvc.VerifyBalance(account.ID)
	if err != nil {
		t.Fatalf("VerifyBalance failed: %v", err)
	}

	if !verification.StoredBalance.Equal(dec("1550")) {
		t.Errorf("Expected stored balance 1550, got %s", verification.StoredBalance.String())
	}
	if !verification.ComputedBalance.Equal(dec("1550")) {
		t.Errorf("Expected computed balance 1550, got %s", verification.ComputedBalance.String())
	}
	if !verification.Drift.IsZero() {
		t.Errorf("Expected no drift, got %s", verification.Drift.String())
	}
}

func TestVerifyBalance_DetectsDrift(t *testing.T) {
	env := newTestEnv()

	// The seeded fund has an opening balance with no transaction history
	verification, err := env.accountSvc.VerifyBalance(env.cashFund.ID)
	if err != nil {
		t.Fatalf("VerifyBalance failed: %v", err)
	}

	if !verification.Drift.Equal(dec("10000")) {
		t.Errorf("Expected drift 10000, got %s", verification.Drift.String())
	}
}

func TestVerifyBalance_MissingAccount(t *testing.T) {
	env := newTestEnv()

	_, err := env.accountSvc.VerifyBalance(99)
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound, got %v", err)
	}
}
