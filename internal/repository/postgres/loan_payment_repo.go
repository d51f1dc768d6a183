package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/solventa/solventa-backend/internal/domain"
)

// LoanPaymentRepository implements domain.LoanPaymentRepository using PostgreSQL
type LoanPaymentRepository struct {
	pool *pgxpool.Pool
}

// NewLoanPaymentRepository creates a new LoanPaymentRepository
func NewLoanPaymentRepository(pool *pgxpool.Pool) *LoanPaymentRepository {
	return &LoanPaymentRepository{pool: pool}
}

const loanPaymentColumns = `id, loan_id, lead_payment_received_id, amount,
	comission, received_at, payment_type, payment_method, created_at, updated_at`

// Create creates a new payment
func (r *LoanPaymentRepository) Create(payment *domain.LoanPayment) (*domain.LoanPayment, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(payment.Amount)
	if err != nil {
		return nil, err
	}
	comission, err := decimalToPgNumeric(payment.Comission)
	if err != nil {
		return nil, err
	}

	receiptID := pgtype.Int4{}
	if payment.LeadPaymentReceivedID != nil {
		receiptID.Int32 = *payment.LeadPaymentReceivedID
		receiptID.Valid = true
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO loan_payments (loan_id, lead_payment_received_id, amount,
			comission, received_at, payment_type, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+loanPaymentColumns,
		payment.LoanID, receiptID, amount, comission, payment.ReceivedAt,
		string(payment.Type), string(payment.PaymentMethod))
	return scanLoanPayment(row)
}

// GetByID retrieves a payment by ID
func (r *LoanPaymentRepository) GetByID(id int32) (*domain.LoanPayment, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+loanPaymentColumns+` FROM loan_payments WHERE id = $1`, id)
	payment, err := scanLoanPayment(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrLoanPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

// GetByLoanID retrieves all payments for a loan, oldest first
func (r *LoanPaymentRepository) GetByLoanID(loanID int32) ([]*domain.LoanPayment, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+loanPaymentColumns+` FROM loan_payments
		WHERE loan_id = $1
		ORDER BY received_at, id`, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]*domain.LoanPayment, 0)
	for rows.Next() {
		payment, err := scanLoanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

// Update updates a payment
func (r *LoanPaymentRepository) Update(payment *domain.LoanPayment) (*domain.LoanPayment, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(payment.Amount)
	if err != nil {
		return nil, err
	}
	comission, err := decimalToPgNumeric(payment.Comission)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE loan_payments
		SET amount = $2, comission = $3, received_at = $4, payment_method = $5,
			updated_at = now()
		WHERE id = $1
		RETURNING `+loanPaymentColumns,
		payment.ID, amount, comission, payment.ReceivedAt, string(payment.PaymentMethod))
	updated, err := scanLoanPayment(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrLoanPaymentNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a payment
func (r *LoanPaymentRepository) Delete(id int32) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `DELETE FROM loan_payments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanPaymentNotFound
	}
	return nil
}

func scanLoanPayment(row pgx.Row) (*domain.LoanPayment, error) {
	var (
		payment     domain.LoanPayment
		receiptID   pgtype.Int4
		amount      pgtype.Numeric
		comission   pgtype.Numeric
		receivedAt  pgtype.Timestamptz
		paymentType string
		method      string
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
	)
	err := row.Scan(&payment.ID, &payment.LoanID, &receiptID, &amount, &comission,
		&receivedAt, &paymentType, &method, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if receiptID.Valid {
		payment.LeadPaymentReceivedID = &receiptID.Int32
	}
	payment.Amount = pgNumericToDecimal(amount)
	payment.Comission = pgNumericToDecimal(comission)
	payment.ReceivedAt = receivedAt.Time
	payment.Type = domain.PaymentType(paymentType)
	payment.PaymentMethod = domain.PaymentMethod(method)
	payment.CreatedAt = createdAt.Time
	payment.UpdatedAt = updatedAt.Time
	return &payment, nil
}
