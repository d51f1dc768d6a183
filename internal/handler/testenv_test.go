package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/solventa/solventa-backend/internal/domain"
	"github.com/solventa/solventa-backend/internal/service"
	"github.com/solventa/solventa-backend/internal/testutil"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// handlerEnv wires every handler against services backed by in-memory
// repositories, with one route, lead, loan type and the route's accounts
// seeded.
type handlerEnv struct {
	echo *echo.Echo

	loans        *testutil.MockLoanRepository
	accounts     *testutil.MockAccountRepository
	transactions *testutil.MockTransactionRepository
	payments     *testutil.MockLoanPaymentRepository
	receipts     *testutil.MockLeadPaymentReceivedRepository

	loanHandler        *LoanHandler
	paymentHandler     *LoanPaymentHandler
	receiptHandler     *ReceiptHandler
	transactionHandler *TransactionHandler
	accountHandler     *AccountHandler

	lead     *domain.Lead
	cashFund *domain.Account
	bank     *domain.Account
}

func newHandlerEnv() *handlerEnv {
	loans := testutil.NewMockLoanRepository()
	loantypes := testutil.NewMockLoantypeRepository()
	leads := testutil.NewMockLeadRepository()
	accounts := testutil.NewMockAccountRepository()
	transactions := testutil.NewMockTransactionRepository()
	payments := testutil.NewMockLoanPaymentRepository()
	receipts := testutil.NewMockLeadPaymentReceivedRepository()
	falcos := testutil.NewMockFalcoRepository()

	env := &handlerEnv{
		echo:         echo.New(),
		loans:        loans,
		accounts:     accounts,
		transactions: transactions,
		payments:     payments,
		receipts:     receipts,
	}

	env.lead = leads.AddLead(&domain.Lead{ID: 1, RouteID: 7, FullName: "Maria Perez"})
	loantypes.AddLoantype(&domain.Loantype{
		ID:           1,
		Name:         "14 semanas",
		Rate:         dec("0.40"),
		WeekDuration: 14,
	})
	env.cashFund = accounts.AddAccount(&domain.Account{
		RouteID: 7,
		Name:    "Fondo de ruta 7",
		Type:    domain.AccountTypeEmployeeCashFund,
		Amount:  dec("10000"),
	})
	env.bank = accounts.AddAccount(&domain.Account{
		RouteID: 7,
		Name:    "Banco ruta 7",
		Type:    domain.AccountTypeBank,
		Amount:  dec("5000"),
	})

	metrics := service.NewLoanMetricsService(loans, loantypes, payments)
	loanSvc := service.NewLoanService(testutil.NoopTxManager{}, loans, loantypes, leads, accounts, transactions, metrics)
	paymentSvc := service.NewPaymentService(payments, loans, loantypes, leads, accounts, transactions, metrics)
	receiptSvc := service.NewReceiptService(receipts, leads, accounts, transactions, paymentSvc)
	falcoSvc := service.NewFalcoService(falcos, receipts, leads, accounts, transactions)
	txSvc := service.NewTransactionService(transactions, accounts)
	accountSvc := service.NewAccountService(accounts, transactions)

	env.loanHandler = NewLoanHandler(loanSvc, metrics)
	env.paymentHandler = NewLoanPaymentHandler(paymentSvc)
	env.receiptHandler = NewReceiptHandler(receiptSvc, falcoSvc)
	env.transactionHandler = NewTransactionHandler(txSvc)
	env.accountHandler = NewAccountHandler(accountSvc)
	return env
}

// addActiveLoan seeds a loan directly, bypassing the origination side effects
func (env *handlerEnv) addActiveLoan(requested string) *domain.Loan {
	return env.loans.AddLoan(&domain.Loan{
		BorrowerID:      1,
		LeadID:          env.lead.ID,
		LoantypeID:      1,
		RequestedAmount: dec(requested),
		AmountGived:     dec(requested),
		Status:          domain.LoanStatusActive,
	})
}

// newJSONContext builds an echo context for a JSON request body
func (env *handlerEnv) newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	return env.echo.NewContext(req, rec), rec
}
