package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/solventa/solventa-backend/internal/domain"
)

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, amount, transaction_date, transaction_type,
	income_source, expense_source, source_account_id, destination_account_id,
	loan_id, loan_payment_id, lead_payment_received_id, lead_id,
	profit_amount, return_to_capital, description, created_at, updated_at`

// Create creates a new transaction
func (r *TransactionRepository) Create(transaction *domain.Transaction) (*domain.Transaction, error) {
	return r.createTransaction(r.pool, transaction)
}

// CreateTx creates a transaction within a database transaction
func (r *TransactionRepository) CreateTx(tx interface{}, transaction *domain.Transaction) (*domain.Transaction, error) {
	pgxTx, err := asPgxTx(tx)
	if err != nil {
		return nil, err
	}
	return r.createTransaction(pgxTx, transaction)
}

func (r *TransactionRepository) createTransaction(db dbtx, t *domain.Transaction) (*domain.Transaction, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(t.Amount)
	if err != nil {
		return nil, err
	}
	profit, err := decimalToPgNumeric(t.ProfitAmount)
	if err != nil {
		return nil, err
	}
	returnToCapital, err := decimalToPgNumeric(t.ReturnToCapital)
	if err != nil {
		return nil, err
	}

	incomeSource := pgtype.Text{}
	if t.IncomeSource != nil {
		incomeSource.String = string(*t.IncomeSource)
		incomeSource.Valid = true
	}
	expenseSource := pgtype.Text{}
	if t.ExpenseSource != nil {
		expenseSource.String = string(*t.ExpenseSource)
		expenseSource.Valid = true
	}
	description := pgtype.Text{}
	if t.Description != nil {
		description.String = *t.Description
		description.Valid = true
	}

	row := db.QueryRow(ctx, `
		INSERT INTO transactions (amount, transaction_date, transaction_type,
			income_source, expense_source, source_account_id, destination_account_id,
			loan_id, loan_payment_id, lead_payment_received_id, lead_id,
			profit_amount, return_to_capital, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+transactionColumns,
		amount, t.Date, string(t.Type), incomeSource, expenseSource,
		optionalInt4(t.SourceAccountID), optionalInt4(t.DestinationAccountID),
		optionalInt4(t.LoanID), optionalInt4(t.LoanPaymentID),
		optionalInt4(t.LeadPaymentReceivedID), optionalInt4(t.LeadID),
		profit, returnToCapital, description)
	return scanTransaction(row)
}

// GetByID retrieves a transaction by ID
func (r *TransactionRepository) GetByID(id int32) (*domain.Transaction, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	transaction, err := scanTransaction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return transaction, nil
}

// GetByLoanID retrieves every transaction tied to a loan
func (r *TransactionRepository) GetByLoanID(loanID int32) ([]*domain.Transaction, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE loan_id = $1
		ORDER BY transaction_date, id`, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// GetByLoanAndSource finds a loan's transaction by expense source
func (r *TransactionRepository) GetByLoanAndSource(loanID int32, source domain.ExpenseSource) (*domain.Transaction, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE loan_id = $1 AND expense_source = $2
		ORDER BY id LIMIT 1`, loanID, string(source))
	transaction, err := scanTransaction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return transaction, nil
}

// GetByPaymentAndType finds the transaction a payment owns for a type
func (r *TransactionRepository) GetByPaymentAndType(paymentID int32, txType domain.TransactionType) (*domain.Transaction, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE loan_payment_id = $1 AND transaction_type = $2
		ORDER BY id LIMIT 1`, paymentID, string(txType))
	transaction, err := scanTransaction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return transaction, nil
}

// GetByReceiptAndSource finds a batch receipt's expense transaction by source
func (r *TransactionRepository) GetByReceiptAndSource(receiptID int32, source domain.ExpenseSource) (*domain.Transaction, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE lead_payment_received_id = $1 AND expense_source = $2
		ORDER BY id LIMIT 1`, receiptID, string(source))
	transaction, err := scanTransaction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return transaction, nil
}

// Update updates a transaction's mutable fields
func (r *TransactionRepository) Update(t *domain.Transaction) (*domain.Transaction, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(t.Amount)
	if err != nil {
		return nil, err
	}
	profit, err := decimalToPgNumeric(t.ProfitAmount)
	if err != nil {
		return nil, err
	}
	returnToCapital, err := decimalToPgNumeric(t.ReturnToCapital)
	if err != nil {
		return nil, err
	}

	incomeSource := pgtype.Text{}
	if t.IncomeSource != nil {
		incomeSource.String = string(*t.IncomeSource)
		incomeSource.Valid = true
	}
	description := pgtype.Text{}
	if t.Description != nil {
		description.String = *t.Description
		description.Valid = true
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE transactions
		SET amount = $2, transaction_date = $3, income_source = $4,
			destination_account_id = $5, profit_amount = $6, return_to_capital = $7,
			description = $8, updated_at = now()
		WHERE id = $1
		RETURNING `+transactionColumns,
		t.ID, amount, t.Date, incomeSource, optionalInt4(t.DestinationAccountID),
		profit, returnToCapital, description)
	updated, err := scanTransaction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return updated, nil
}

// UpdateAmount updates a transaction's amount and description
func (r *TransactionRepository) UpdateAmount(id int32, amount decimal.Decimal, description *string) (*domain.Transaction, error) {
	ctx := context.Background()

	pgAmount, err := decimalToPgNumeric(amount)
	if err != nil {
		return nil, err
	}
	pgDescription := pgtype.Text{}
	if description != nil {
		pgDescription.String = *description
		pgDescription.Valid = true
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE transactions
		SET amount = $2, description = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+transactionColumns,
		id, pgAmount, pgDescription)
	updated, err := scanTransaction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a transaction
func (r *TransactionRepository) Delete(id int32) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// DeleteByLoanID removes every transaction tied to a loan
func (r *TransactionRepository) DeleteByLoanID(loanID int32) (int64, error) {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE loan_id = $1`, loanID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// SumByAccount aggregates the transaction history of an account
func (r *TransactionRepository) SumByAccount(accountID int32) (*domain.AccountLedgerSums, error) {
	ctx := context.Background()

	var inflows, outflows pgtype.Numeric
	err := r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE destination_account_id = $1), 0),
			COALESCE(SUM(amount) FILTER (WHERE source_account_id = $1), 0)
		FROM transactions
		WHERE destination_account_id = $1 OR source_account_id = $1`, accountID).
		Scan(&inflows, &outflows)
	if err != nil {
		return nil, err
	}
	return &domain.AccountLedgerSums{
		Inflows:  pgNumericToDecimal(inflows),
		Outflows: pgNumericToDecimal(outflows),
	}, nil
}

func optionalInt4(v *int32) pgtype.Int4 {
	out := pgtype.Int4{}
	if v != nil {
		out.Int32 = *v
		out.Valid = true
	}
	return out
}

func collectTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	transactions := make([]*domain.Transaction, 0)
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, transaction)
	}
	return transactions, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t               domain.Transaction
		amount          pgtype.Numeric
		date            pgtype.Timestamptz
		txType          string
		incomeSource    pgtype.Text
		expenseSource   pgtype.Text
		sourceAccount   pgtype.Int4
		destAccount     pgtype.Int4
		loanID          pgtype.Int4
		paymentID       pgtype.Int4
		receiptID       pgtype.Int4
		leadID          pgtype.Int4
		profit          pgtype.Numeric
		returnToCapital pgtype.Numeric
		description     pgtype.Text
		createdAt       pgtype.Timestamptz
		updatedAt       pgtype.Timestamptz
	)
	err := row.Scan(&t.ID, &amount, &date, &txType, &incomeSource, &expenseSource,
		&sourceAccount, &destAccount, &loanID, &paymentID, &receiptID, &leadID,
		&profit, &returnToCapital, &description, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	t.Amount = pgNumericToDecimal(amount)
	t.Date = date.Time
	t.Type = domain.TransactionType(txType)
	if incomeSource.Valid {
		source := domain.IncomeSource(incomeSource.String)
		t.IncomeSource = &source
	}
	if expenseSource.Valid {
		source := domain.ExpenseSource(expenseSource.String)
		t.ExpenseSource = &source
	}
	if sourceAccount.Valid {
		t.SourceAccountID = &sourceAccount.Int32
	}
	if destAccount.Valid {
		t.DestinationAccountID = &destAccount.Int32
	}
	if loanID.Valid {
		t.LoanID = &loanID.Int32
	}
	if paymentID.Valid {
		t.LoanPaymentID = &paymentID.Int32
	}
	if receiptID.Valid {
		t.LeadPaymentReceivedID = &receiptID.Int32
	}
	if leadID.Valid {
		t.LeadID = &leadID.Int32
	}
	t.ProfitAmount = pgNumericToDecimal(profit)
	t.ReturnToCapital = pgNumericToDecimal(returnToCapital)
	if description.Valid {
		t.Description = &description.String
	}
	t.CreatedAt = createdAt.Time
	t.UpdatedAt = updatedAt.Time
	return &t, nil
}
