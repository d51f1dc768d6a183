package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/solventa/solventa-backend/internal/domain"
)

// LoanRepository implements domain.LoanRepository using PostgreSQL
type LoanRepository struct {
	pool *pgxpool.Pool
}

// NewLoanRepository creates a new LoanRepository
func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

const loanColumns = `id, borrower_id, lead_id, loantype_id, previous_loan_id,
	requested_amount, amount_gived, comission_amount, sign_date, finished_date,
	renewed_date, bad_debt_date, is_deceased, status, profit_amount,
	total_debt_acquired, expected_weekly_payment, total_paid, pending_amount_stored,
	created_at, updated_at`

// Create creates a new loan
func (r *LoanRepository) Create(loan *domain.Loan) (*domain.Loan, error) {
	return r.createLoan(r.pool, loan)
}

// CreateTx creates a new loan within a transaction
func (r *LoanRepository) CreateTx(tx interface{}, loan *domain.Loan) (*domain.Loan, error) {
	pgxTx, err := asPgxTx(tx)
	if err != nil {
		return nil, err
	}
	return r.createLoan(pgxTx, loan)
}

func (r *LoanRepository) createLoan(db dbtx, loan *domain.Loan) (*domain.Loan, error) {
	ctx := context.Background()

	requested, err := decimalToPgNumeric(loan.RequestedAmount)
	if err != nil {
		return nil, err
	}
	amountGived, err := decimalToPgNumeric(loan.AmountGived)
	if err != nil {
		return nil, err
	}
	comission, err := decimalToPgNumeric(loan.ComissionAmount)
	if err != nil {
		return nil, err
	}
	profit, err := decimalToPgNumeric(loan.ProfitAmount)
	if err != nil {
		return nil, err
	}

	previousLoanID := pgtype.Int4{}
	if loan.PreviousLoanID != nil {
		previousLoanID.Int32 = *loan.PreviousLoanID
		previousLoanID.Valid = true
	}

	row := db.QueryRow(ctx, `
		INSERT INTO loans (borrower_id, lead_id, loantype_id, previous_loan_id,
			requested_amount, amount_gived, comission_amount, sign_date, status,
			profit_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+loanColumns,
		loan.BorrowerID, loan.LeadID, loan.LoantypeID, previousLoanID,
		requested, amountGived, comission, loan.SignDate, string(loan.Status),
		profit)
	return scanLoan(row)
}

// GetByID retrieves a loan by ID
func (r *LoanRepository) GetByID(id int32) (*domain.Loan, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+loanColumns+` FROM loans WHERE id = $1`, id)
	loan, err := scanLoan(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

// GetByLead retrieves all loans collected by a lead, newest first
func (r *LoanRepository) GetByLead(leadID int32) ([]*domain.Loan, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+loanColumns+` FROM loans
		WHERE lead_id = $1
		ORDER BY sign_date DESC, id DESC`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	loans := make([]*domain.Loan, 0)
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

// GetActiveIDs retrieves the IDs of every active loan
func (r *LoanRepository) GetActiveIDs() ([]int32, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM loans WHERE status = $1 ORDER BY id`, string(domain.LoanStatusActive))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int32, 0)
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Update updates a loan's mutable fields
func (r *LoanRepository) Update(loan *domain.Loan) (*domain.Loan, error) {
	ctx := context.Background()

	amountGived, err := decimalToPgNumeric(loan.AmountGived)
	if err != nil {
		return nil, err
	}
	comission, err := decimalToPgNumeric(loan.ComissionAmount)
	if err != nil {
		return nil, err
	}
	profit, err := decimalToPgNumeric(loan.ProfitAmount)
	if err != nil {
		return nil, err
	}

	badDebtDate := pgtype.Timestamptz{}
	if loan.BadDebtDate != nil {
		badDebtDate.Time = *loan.BadDebtDate
		badDebtDate.Valid = true
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE loans
		SET amount_gived = $2, comission_amount = $3, bad_debt_date = $4,
			is_deceased = $5, status = $6, profit_amount = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+loanColumns,
		loan.ID, amountGived, comission, badDebtDate, loan.IsDeceased,
		string(loan.Status), profit)
	updated, err := scanLoan(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return updated, nil
}

// UpdateSnapshot persists the derived snapshot fields
func (r *LoanRepository) UpdateSnapshot(id int32, snapshot domain.LoanSnapshot) error {
	ctx := context.Background()

	totalDebt, err := decimalToPgNumeric(snapshot.TotalDebtAcquired)
	if err != nil {
		return err
	}
	expectedWeekly, err := decimalToPgNumeric(snapshot.ExpectedWeeklyPayment)
	if err != nil {
		return err
	}
	totalPaid, err := decimalToPgNumeric(snapshot.TotalPaid)
	if err != nil {
		return err
	}
	pending, err := decimalToPgNumeric(snapshot.PendingAmountStored)
	if err != nil {
		return err
	}

	finishedDate := pgtype.Timestamptz{}
	if snapshot.FinishedDate != nil {
		finishedDate.Time = *snapshot.FinishedDate
		finishedDate.Valid = true
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE loans
		SET total_debt_acquired = $2, expected_weekly_payment = $3, total_paid = $4,
			pending_amount_stored = $5, finished_date = $6, updated_at = now()
		WHERE id = $1`,
		id, totalDebt, expectedWeekly, totalPaid, pending, finishedDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

// UpdateStatus updates a loan's status and its finished and renewed dates
func (r *LoanRepository) UpdateStatus(id int32, status domain.LoanStatus, finishedDate, renewedDate *time.Time) error {
	return r.updateStatus(r.pool, id, status, finishedDate, renewedDate)
}

// UpdateStatusTx is the transactional variant of UpdateStatus
func (r *LoanRepository) UpdateStatusTx(tx interface{}, id int32, status domain.LoanStatus, finishedDate, renewedDate *time.Time) error {
	pgxTx, err := asPgxTx(tx)
	if err != nil {
		return err
	}
	return r.updateStatus(pgxTx, id, status, finishedDate, renewedDate)
}

func (r *LoanRepository) updateStatus(db dbtx, id int32, status domain.LoanStatus, finishedDate, renewedDate *time.Time) error {
	ctx := context.Background()

	pgFinished := pgtype.Timestamptz{}
	if finishedDate != nil {
		pgFinished.Time = *finishedDate
		pgFinished.Valid = true
	}
	pgRenewed := pgtype.Timestamptz{}
	if renewedDate != nil {
		pgRenewed.Time = *renewedDate
		pgRenewed.Valid = true
	}

	tag, err := db.Exec(ctx, `
		UPDATE loans
		SET status = $2, finished_date = $3, renewed_date = $4, updated_at = now()
		WHERE id = $1`,
		id, string(status), pgFinished, pgRenewed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

// Delete removes a loan
func (r *LoanRepository) Delete(id int32) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `DELETE FROM loans WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var (
		loan           domain.Loan
		previousLoanID pgtype.Int4
		requested      pgtype.Numeric
		amountGived    pgtype.Numeric
		comission      pgtype.Numeric
		signDate       pgtype.Timestamptz
		finishedDate   pgtype.Timestamptz
		renewedDate    pgtype.Timestamptz
		badDebtDate    pgtype.Timestamptz
		status         string
		profit         pgtype.Numeric
		totalDebt      pgtype.Numeric
		expectedWeekly pgtype.Numeric
		totalPaid      pgtype.Numeric
		pending        pgtype.Numeric
		createdAt      pgtype.Timestamptz
		updatedAt      pgtype.Timestamptz
	)
	err := row.Scan(&loan.ID, &loan.BorrowerID, &loan.LeadID, &loan.LoantypeID,
		&previousLoanID, &requested, &amountGived, &comission, &signDate,
		&finishedDate, &renewedDate, &badDebtDate, &loan.IsDeceased, &status,
		&profit, &totalDebt, &expectedWeekly, &totalPaid, &pending,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if previousLoanID.Valid {
		loan.PreviousLoanID = &previousLoanID.Int32
	}
	loan.RequestedAmount = pgNumericToDecimal(requested)
	loan.AmountGived = pgNumericToDecimal(amountGived)
	loan.ComissionAmount = pgNumericToDecimal(comission)
	loan.SignDate = signDate.Time
	if finishedDate.Valid {
		loan.FinishedDate = &finishedDate.Time
	}
	if renewedDate.Valid {
		loan.RenewedDate = &renewedDate.Time
	}
	if badDebtDate.Valid {
		loan.BadDebtDate = &badDebtDate.Time
	}
	loan.Status = domain.LoanStatus(status)
	loan.ProfitAmount = pgNumericToDecimal(profit)
	loan.TotalDebtAcquired = pgNumericToDecimal(totalDebt)
	loan.ExpectedWeeklyPayment = pgNumericToDecimal(expectedWeekly)
	loan.TotalPaid = pgNumericToDecimal(totalPaid)
	loan.PendingAmountStored = pgNumericToDecimal(pending)
	loan.CreatedAt = createdAt.Time
	loan.UpdatedAt = updatedAt.Time
	return &loan, nil
}
