package service

import (
	"github.com/solventa/solventa-backend/internal/domain"
	"github.com/solventa/solventa-backend/internal/testutil"
)

// testEnv wires every service against in-memory repositories with one route,
// one lead, one loan type and the route's cash fund and bank accounts seeded.
type testEnv struct {
	loans        *testutil.MockLoanRepository
	loantypes    *testutil.MockLoantypeRepository
	leads        *testutil.MockLeadRepository
	accounts     *testutil.MockAccountRepository
	transactions *testutil.MockTransactionRepository
	payments     *testutil.MockLoanPaymentRepository
	receipts     *testutil.MockLeadPaymentReceivedRepository
	falcos       *testutil.MockFalcoRepository

	metrics    *LoanMetricsService
	loanSvc    *LoanService
	paymentSvc *PaymentService
	receiptSvc *ReceiptService
	falcoSvc   *FalcoService
	txSvc      *TransactionService
	accountSvc *AccountService

	lead     *domain.Lead
	loantype *domain.Loantype
	cashFund *domain.Account
	bank     *domain.Account
}

func newTestEnv() *testEnv {
	env := &testEnv{
		loans:        testutil.NewMockLoanRepository(),
		loantypes:    testutil.NewMockLoantypeRepository(),
		leads:        testutil.NewMockLeadRepository(),
		accounts:     testutil.NewMockAccountRepository(),
		transactions: testutil.NewMockTransactionRepository(),
		payments:     testutil.NewMockLoanPaymentRepository(),
		receipts:     testutil.NewMockLeadPaymentReceivedRepository(),
		falcos:       testutil.NewMockFalcoRepository(),
	}

	env.lead = env.leads.AddLead(&domain.Lead{ID: 1, RouteID: 7, FullName: "Maria Perez"})
	env.loantype = env.loantypes.AddLoantype(&domain.Loantype{
		ID:           1,
		Name:         "14 semanas",
		Rate:         dec("0.40"),
		WeekDuration: 14,
	})
	env.cashFund = env.accounts.AddAccount(&domain.Account{
		RouteID: 7,
		Name:    "Fondo de ruta 7",
		Type:    domain.AccountTypeEmployeeCashFund,
		Amount:  dec("10000"),
	})
	env.bank = env.accounts.AddAccount(&domain.Account{
		RouteID: 7,
		Name:    "Banco ruta 7",
		Type:    domain.AccountTypeBank,
		Amount:  dec("5000"),
	})

	env.metrics = NewLoanMetricsService(env.loans, env.loantypes, env.payments)
	env.loanSvc = NewLoanService(testutil.NoopTxManager{}, env.loans, env.loantypes, env.leads, env.accounts, env.transactions, env.metrics)
	env.paymentSvc = NewPaymentService(env.payments, env.loans, env.loantypes, env.leads, env.accounts, env.transactions, env.metrics)
	env.receiptSvc = NewReceiptService(env.receipts, env.leads, env.accounts, env.transactions, env.paymentSvc)
	env.falcoSvc = NewFalcoService(env.falcos, env.receipts, env.leads, env.accounts, env.transactions)
	env.txSvc = NewTransactionService(env.transactions, env.accounts)
	env.accountSvc = NewAccountService(env.accounts, env.transactions)
	return env
}

// addActiveLoan seeds a loan directly, bypassing the origination side effects
func (env *testEnv) addActiveLoan(requested string) *domain.Loan {
	return env.loans.AddLoan(&domain.Loan{
		BorrowerID:      1,
		LeadID:          env.lead.ID,
		LoantypeID:      env.loantype.ID,
		RequestedAmount: dec(requested),
		AmountGived:     dec(requested),
		Status:          domain.LoanStatusActive,
	})
}
