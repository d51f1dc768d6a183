package testutil

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/solventa/solventa-backend/internal/domain"
)

// NoopTxManager runs the function directly without a real database
// transaction. Good enough for service tests against in-memory repos.
type NoopTxManager struct{}

// WithinTx runs fn with a nil tx handle
func (NoopTxManager) WithinTx(ctx context.Context, fn func(tx interface{}) error) error {
	return fn(nil)
}

// MockAccountRepository is an in-memory implementation of domain.AccountRepository
type MockAccountRepository struct {
	Accounts map[int32]*domain.Account
	NextID   int32
}

// NewMockAccountRepository creates a new MockAccountRepository
func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		Accounts: make(map[int32]*domain.Account),
		NextID:   1,
	}
}

// AddAccount seeds an account (helper for tests)
func (m *MockAccountRepository) AddAccount(account *domain.Account) *domain.Account {
	if account.ID == 0 {
		account.ID = m.NextID
		m.NextID++
	} else if account.ID >= m.NextID {
		m.NextID = account.ID + 1
	}
	m.Accounts[account.ID] = account
	return account
}

// Create creates a new account
func (m *MockAccountRepository) Create(account *domain.Account) (*domain.Account, error) {
	account.ID = m.NextID
	m.NextID++
	account.CreatedAt = time.Now()
	m.Accounts[account.ID] = account
	return account, nil
}

// GetByID retrieves an account by ID
func (m *MockAccountRepository) GetByID(id int32) (*domain.Account, error) {
	if account, ok := m.Accounts[id]; ok {
		return account, nil
	}
	return nil, domain.ErrAccountNotFound
}

// GetByRouteAndType retrieves the account a route owns for a type
func (m *MockAccountRepository) GetByRouteAndType(routeID int32, accountType domain.AccountType) (*domain.Account, error) {
	for _, account := range m.Accounts {
		if account.RouteID == routeID && account.Type == accountType {
			return account, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

// GetAll retrieves all accounts
func (m *MockAccountRepository) GetAll() ([]*domain.Account, error) {
	accounts := make([]*domain.Account, 0, len(m.Accounts))
	for _, account := range m.Accounts {
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// AdjustBalance applies delta, rejecting a negative result
func (m *MockAccountRepository) AdjustBalance(id int32, delta decimal.Decimal) (*domain.Account, error) {
	account, ok := m.Accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	next := account.Amount.Add(delta)
	if next.IsNegative() {
		return nil, domain.ErrInsufficientFunds
	}
	account.Amount = next
	return account, nil
}

// AdjustBalanceTx applies delta within a (noop) transaction
func (m *MockAccountRepository) AdjustBalanceTx(tx interface{}, id int32, delta decimal.Decimal) (*domain.Account, error) {
	return m.AdjustBalance(id, delta)
}

// MockLeadRepository is an in-memory implementation of domain.LeadRepository
type MockLeadRepository struct {
	Leads map[int32]*domain.Lead
}

// NewMockLeadRepository creates a new MockLeadRepository
func NewMockLeadRepository() *MockLeadRepository {
	return &MockLeadRepository{Leads: make(map[int32]*domain.Lead)}
}

// AddLead seeds a lead (helper for tests)
func (m *MockLeadRepository) AddLead(lead *domain.Lead) *domain.Lead {
	m.Leads[lead.ID] = lead
	return lead
}

// GetByID retrieves a lead by ID
func (m *MockLeadRepository) GetByID(id int32) (*domain.Lead, error) {
	if lead, ok := m.Leads[id]; ok {
		return lead, nil
	}
	return nil, domain.ErrLeadNotFound
}

// MockLoantypeRepository is an in-memory implementation of domain.LoantypeRepository
type MockLoantypeRepository struct {
	Loantypes map[int32]*domain.Loantype
}

// NewMockLoantypeRepository creates a new MockLoantypeRepository
func NewMockLoantypeRepository() *MockLoantypeRepository {
	return &MockLoantypeRepository{Loantypes: make(map[int32]*domain.Loantype)}
}

// AddLoantype seeds a loan type (helper for tests)
func (m *MockLoantypeRepository) AddLoantype(loantype *domain.Loantype) *domain.Loantype {
	m.Loantypes[loantype.ID] = loantype
	return loantype
}

// GetByID retrieves a loan type by ID
func (m *MockLoantypeRepository) GetByID(id int32) (*domain.Loantype, error) {
	if loantype, ok := m.Loantypes[id]; ok {
		return loantype, nil
	}
	return nil, domain.ErrLoantypeNotFound
}

// MockLoanRepository is an in-memory implementation of domain.LoanRepository
type MockLoanRepository struct {
	Loans  map[int32]*domain.Loan
	NextID int32
}

// NewMockLoanRepository creates a new MockLoanRepository
func NewMockLoanRepository() *MockLoanRepository {
	return &MockLoanRepository{
		Loans:  make(map[int32]*domain.Loan),
		NextID: 1,
	}
}

// AddLoan seeds a loan (helper for tests)
func (m *MockLoanRepository) AddLoan(loan *domain.Loan) *domain.Loan {
	if loan.ID == 0 {
		loan.ID = m.NextID
		m.NextID++
	} else if loan.ID >= m.NextID {
		m.NextID = loan.ID + 1
	}
	m.Loans[loan.ID] = loan
	return loan
}

// Create creates a new loan
func (m *MockLoanRepository) Create(loan *domain.Loan) (*domain.Loan, error) {
	loan.ID = m.NextID
	m.NextID++
	loan.CreatedAt = time.Now()
	m.Loans[loan.ID] = loan
	return loan, nil
}

// CreateTx creates a new loan within a (noop) transaction
func (m *MockLoanRepository) CreateTx(tx interface{}, loan *domain.Loan) (*domain.Loan, error) {
	return m.Create(loan)
}

// GetByID retrieves a loan by ID
func (m *MockLoanRepository) GetByID(id int32) (*domain.Loan, error) {
	if loan, ok := m.Loans[id]; ok {
		return loan, nil
	}
	return nil, domain.ErrLoanNotFound
}

// GetByLead retrieves all loans for a lead
func (m *MockLoanRepository) GetByLead(leadID int32) ([]*domain.Loan, error) {
	loans := make([]*domain.Loan, 0)
	for _, loan := range m.Loans {
		if loan.LeadID == leadID {
			loans = append(loans, loan)
		}
	}
	return loans, nil
}

// GetActiveIDs retrieves the IDs of every active loan
func (m *MockLoanRepository) GetActiveIDs() ([]int32, error) {
	ids := make([]int32, 0)
	for _, loan := range m.Loans {
		if loan.Status == domain.LoanStatusActive {
			ids = append(ids, loan.ID)
		}
	}
	return ids, nil
}

// Update updates a loan
func (m *MockLoanRepository) Update(loan *domain.Loan) (*domain.Loan, error) {
	if _, ok := m.Loans[loan.ID]; !ok {
		return nil, domain.ErrLoanNotFound
	}
	loan.UpdatedAt = time.Now()
	m.Loans[loan.ID] = loan
	return loan, nil
}

// UpdateSnapshot persists the derived snapshot fields
func (m *MockLoanRepository) UpdateSnapshot(id int32, snapshot domain.LoanSnapshot) error {
	loan, ok := m.Loans[id]
	if !ok {
		return domain.ErrLoanNotFound
	}
	loan.TotalDebtAcquired = snapshot.TotalDebtAcquired
	loan.ExpectedWeeklyPayment = snapshot.ExpectedWeeklyPayment
	loan.TotalPaid = snapshot.TotalPaid
	loan.PendingAmountStored = snapshot.PendingAmountStored
	loan.FinishedDate = snapshot.FinishedDate
	return nil
}

// UpdateStatus updates a loan's status and its finished and renewed dates
func (m *MockLoanRepository) UpdateStatus(id int32, status domain.LoanStatus, finishedDate, renewedDate *time.Time) error {
	loan, ok := m.Loans[id]
	if !ok {
		return domain.ErrLoanNotFound
	}
	loan.Status = status
	loan.FinishedDate = finishedDate
	loan.RenewedDate = renewedDate
	return nil
}

// UpdateStatusTx updates status within a (noop) transaction
func (m *MockLoanRepository) UpdateStatusTx(tx interface{}, id int32, status domain.LoanStatus, finishedDate, renewedDate *time.Time) error {
	return m.UpdateStatus(id, status, finishedDate, renewedDate)
}

// Delete removes a loan
func (m *MockLoanRepository) Delete(id int32) error {
	if _, ok := m.Loans[id]; !ok {
		return domain.ErrLoanNotFound
	}
	delete(m.Loans, id)
	return nil
}

// MockLoanPaymentRepository is an in-memory implementation of domain.LoanPaymentRepository
type MockLoanPaymentRepository struct {
	Payments map[int32]*domain.LoanPayment
	NextID   int32
}

// NewMockLoanPaymentRepository creates a new MockLoanPaymentRepository
func NewMockLoanPaymentRepository() *MockLoanPaymentRepository {
	return &MockLoanPaymentRepository{
		Payments: make(map[int32]*domain.LoanPayment),
		NextID:   1,
	}
}

// AddPayment seeds a payment (helper for tests)
func (m *MockLoanPaymentRepository) AddPayment(payment *domain.LoanPayment) *domain.LoanPayment {
	if payment.ID == 0 {
		payment.ID = m.NextID
		m.NextID++
	} else if payment.ID >= m.NextID {
		m.NextID = payment.ID + 1
	}
	m.Payments[payment.ID] = payment
	return payment
}

// Create creates a new payment
func (m *MockLoanPaymentRepository) Create(payment *domain.LoanPayment) (*domain.LoanPayment, error) {
	payment.ID = m.NextID
	m.NextID++
	payment.CreatedAt = time.Now()
	m.Payments[payment.ID] = payment
	return payment, nil
}

// GetByID retrieves a payment by ID
func (m *MockLoanPaymentRepository) GetByID(id int32) (*domain.LoanPayment, error) {
	if payment, ok := m.Payments[id]; ok {
		return payment, nil
	}
	return nil, domain.ErrLoanPaymentNotFound
}

// GetByLoanID retrieves all payments for a loan
func (m *MockLoanPaymentRepository) GetByLoanID(loanID int32) ([]*domain.LoanPayment, error) {
	payments := make([]*domain.LoanPayment, 0)
	for _, payment := range m.Payments {
		if payment.LoanID == loanID {
			payments = append(payments, payment)
		}
	}
	return payments, nil
}

// Update updates a payment
func (m *MockLoanPaymentRepository) Update(payment *domain.LoanPayment) (*domain.LoanPayment, error) {
	if _, ok := m.Payments[payment.ID]; !ok {
		return nil, domain.ErrLoanPaymentNotFound
	}
	payment.UpdatedAt = time.Now()
	m.Payments[payment.ID] = payment
	return payment, nil
}

// Delete removes a payment
func (m *MockLoanPaymentRepository) Delete(id int32) error {
	if _, ok := m.Payments[id]; !ok {
		return domain.ErrLoanPaymentNotFound
	}
	delete(m.Payments, id)
	return nil
}

// MockTransactionRepository is an in-memory implementation of domain.TransactionRepository
type MockTransactionRepository struct {
	Transactions map[int32]*domain.Transaction
	NextID       int32
}

// NewMockTransactionRepository creates a new MockTransactionRepository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		Transactions: make(map[int32]*domain.Transaction),
		NextID:       1,
	}
}

// Create creates a new transaction
func (m *MockTransactionRepository) Create(transaction *domain.Transaction) (*domain.Transaction, error) {
	transaction.ID = m.NextID
	m.NextID++
	transaction.CreatedAt = time.Now()
	m.Transactions[transaction.ID] = transaction
	return transaction, nil
}

// CreateTx creates a transaction within a (noop) transaction
func (m *MockTransactionRepository) CreateTx(tx interface{}, transaction *domain.Transaction) (*domain.Transaction, error) {
	return m.Create(transaction)
}

// GetByID retrieves a transaction by ID
func (m *MockTransactionRepository) GetByID(id int32) (*domain.Transaction, error) {
	if transaction, ok := m.Transactions[id]; ok {
		return transaction, nil
	}
	return nil, domain.ErrTransactionNotFound
}

// GetByLoanID retrieves every transaction tied to a loan
func (m *MockTransactionRepository) GetByLoanID(loanID int32) ([]*domain.Transaction, error) {
	transactions := make([]*domain.Transaction, 0)
	for _, transaction := range m.Transactions {
		if transaction.LoanID != nil && *transaction.LoanID == loanID {
			transactions = append(transactions, transaction)
		}
	}
	return transactions, nil
}

// GetByLoanAndSource finds a loan's transaction by expense source
func (m *MockTransactionRepository) GetByLoanAndSource(loanID int32, source domain.ExpenseSource) (*domain.Transaction, error) {
	for _, transaction := range m.Transactions {
		if transaction.LoanID != nil && *transaction.LoanID == loanID &&
			transaction.ExpenseSource != nil && *transaction.ExpenseSource == source {
			return transaction, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

// GetByPaymentAndType finds the transaction a payment owns for a type
func (m *MockTransactionRepository) GetByPaymentAndType(paymentID int32, txType domain.TransactionType) (*domain.Transaction, error) {
	for _, transaction := range m.Transactions {
		if transaction.LoanPaymentID != nil && *transaction.LoanPaymentID == paymentID && transaction.Type == txType {
			return transaction, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

// GetByReceiptAndSource finds a receipt's expense transaction by source
func (m *MockTransactionRepository) GetByReceiptAndSource(receiptID int32, source domain.ExpenseSource) (*domain.Transaction, error) {
	for _, transaction := range m.Transactions {
		if transaction.LeadPaymentReceivedID != nil && *transaction.LeadPaymentReceivedID == receiptID &&
			transaction.ExpenseSource != nil && *transaction.ExpenseSource == source {
			return transaction, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

// Update updates a transaction
func (m *MockTransactionRepository) Update(transaction *domain.Transaction) (*domain.Transaction, error) {
	if _, ok := m.Transactions[transaction.ID]; !ok {
		return nil, domain.ErrTransactionNotFound
	}
	transaction.UpdatedAt = time.Now()
	m.Transactions[transaction.ID] = transaction
	return transaction, nil
}

// UpdateAmount updates a transaction's amount and description
func (m *MockTransactionRepository) UpdateAmount(id int32, amount decimal.Decimal, description *string) (*domain.Transaction, error) {
	transaction, ok := m.Transactions[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	transaction.Amount = amount
	transaction.Description = description
	transaction.UpdatedAt = time.Now()
	return transaction, nil
}

// Delete removes a transaction
func (m *MockTransactionRepository) Delete(id int32) error {
	if _, ok := m.Transactions[id]; !ok {
		return domain.ErrTransactionNotFound
	}
	delete(m.Transactions, id)
	return nil
}

// DeleteByLoanID removes every transaction tied to a loan
func (m *MockTransactionRepository) DeleteByLoanID(loanID int32) (int64, error) {
	var deleted int64
	for id, transaction := range m.Transactions {
		if transaction.LoanID != nil && *transaction.LoanID == loanID {
			delete(m.Transactions, id)
			deleted++
		}
	}
	return deleted, nil
}

// SumByAccount aggregates an account's transaction history
func (m *MockTransactionRepository) SumByAccount(accountID int32) (*domain.AccountLedgerSums, error) {
	sums := &domain.AccountLedgerSums{
		Inflows:  decimal.Zero,
		Outflows: decimal.Zero,
	}
	for _, t := range m.Transactions {
		if t.DestinationAccountID != nil && *t.DestinationAccountID == accountID {
			sums.Inflows = sums.Inflows.Add(t.Amount)
		}
		if t.SourceAccountID != nil && *t.SourceAccountID == accountID {
			sums.Outflows = sums.Outflows.Add(t.Amount)
		}
	}
	return sums, nil
}

// CountByPayment counts transactions owned by a payment (helper for tests)
func (m *MockTransactionRepository) CountByPayment(paymentID int32) int {
	count := 0
	for _, t := range m.Transactions {
		if t.LoanPaymentID != nil && *t.LoanPaymentID == paymentID {
			count++
		}
	}
	return count
}

// MockLeadPaymentReceivedRepository is an in-memory implementation of domain.LeadPaymentReceivedRepository
type MockLeadPaymentReceivedRepository struct {
	Receipts map[int32]*domain.LeadPaymentReceived
	NextID   int32
}

// NewMockLeadPaymentReceivedRepository creates a new MockLeadPaymentReceivedRepository
func NewMockLeadPaymentReceivedRepository() *MockLeadPaymentReceivedRepository {
	return &MockLeadPaymentReceivedRepository{
		Receipts: make(map[int32]*domain.LeadPaymentReceived),
		NextID:   1,
	}
}

// AddReceipt seeds a receipt (helper for tests)
func (m *MockLeadPaymentReceivedRepository) AddReceipt(receipt *domain.LeadPaymentReceived) *domain.LeadPaymentReceived {
	if receipt.ID == 0 {
		receipt.ID = m.NextID
		m.NextID++
	} else if receipt.ID >= m.NextID {
		m.NextID = receipt.ID + 1
	}
	m.Receipts[receipt.ID] = receipt
	return receipt
}

// Create creates a new receipt
func (m *MockLeadPaymentReceivedRepository) Create(receipt *domain.LeadPaymentReceived) (*domain.LeadPaymentReceived, error) {
	receipt.ID = m.NextID
	m.NextID++
	receipt.CreatedAt = time.Now()
	m.Receipts[receipt.ID] = receipt
	return receipt, nil
}

// GetByID retrieves a receipt by ID
func (m *MockLeadPaymentReceivedRepository) GetByID(id int32) (*domain.LeadPaymentReceived, error) {
	if receipt, ok := m.Receipts[id]; ok {
		return receipt, nil
	}
	return nil, domain.ErrReceiptNotFound
}

// UpdateFalcoStatus updates a receipt's payment status and falco amount
func (m *MockLeadPaymentReceivedRepository) UpdateFalcoStatus(id int32, status domain.PaymentStatus, falcoAmount decimal.Decimal) error {
	receipt, ok := m.Receipts[id]
	if !ok {
		return domain.ErrReceiptNotFound
	}
	receipt.PaymentStatus = status
	receipt.FalcoAmount = falcoAmount
	return nil
}

// MockFalcoRepository is an in-memory implementation of domain.FalcoCompensatoryPaymentRepository
type MockFalcoRepository struct {
	Compensations map[int32]*domain.FalcoCompensatoryPayment
	NextID        int32
}

// NewMockFalcoRepository creates a new MockFalcoRepository
func NewMockFalcoRepository() *MockFalcoRepository {
	return &MockFalcoRepository{
		Compensations: make(map[int32]*domain.FalcoCompensatoryPayment),
		NextID:        1,
	}
}

// Create creates a new compensation
func (m *MockFalcoRepository) Create(payment *domain.FalcoCompensatoryPayment) (*domain.FalcoCompensatoryPayment, error) {
	payment.ID = m.NextID
	m.NextID++
	payment.CreatedAt = time.Now()
	m.Compensations[payment.ID] = payment
	return payment, nil
}

// GetByReceiptID retrieves all compensations for a receipt
func (m *MockFalcoRepository) GetByReceiptID(receiptID int32) ([]*domain.FalcoCompensatoryPayment, error) {
	compensations := make([]*domain.FalcoCompensatoryPayment, 0)
	for _, c := range m.Compensations {
		if c.LeadPaymentReceivedID == receiptID {
			compensations = append(compensations, c)
		}
	}
	return compensations, nil
}
