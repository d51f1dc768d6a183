package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/solventa/solventa-backend/internal/domain"
)

// FalcoRepository implements domain.FalcoCompensatoryPaymentRepository using
// PostgreSQL
type FalcoRepository struct {
	pool *pgxpool.Pool
}

// NewFalcoRepository creates a new FalcoRepository
func NewFalcoRepository(pool *pgxpool.Pool) *FalcoRepository {
	return &FalcoRepository{pool: pool}
}

const falcoColumns = `id, lead_payment_received_id, amount, received_at, created_at`

// Create creates a new compensatory payment
func (r *FalcoRepository) Create(payment *domain.FalcoCompensatoryPayment) (*domain.FalcoCompensatoryPayment, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(payment.Amount)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO falco_compensatory_payments (lead_payment_received_id, amount, received_at)
		VALUES ($1, $2, $3)
		RETURNING `+falcoColumns,
		payment.LeadPaymentReceivedID, amount, payment.ReceivedAt)
	return scanFalcoPayment(row)
}

// GetByReceiptID retrieves all compensations for a receipt, oldest first
func (r *FalcoRepository) GetByReceiptID(receiptID int32) ([]*domain.FalcoCompensatoryPayment, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+falcoColumns+` FROM falco_compensatory_payments
		WHERE lead_payment_received_id = $1
		ORDER BY received_at, id`, receiptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]*domain.FalcoCompensatoryPayment, 0)
	for rows.Next() {
		payment, err := scanFalcoPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

func scanFalcoPayment(row pgx.Row) (*domain.FalcoCompensatoryPayment, error) {
	var (
		payment    domain.FalcoCompensatoryPayment
		amount     pgtype.Numeric
		receivedAt pgtype.Timestamptz
		createdAt  pgtype.Timestamptz
	)
	err := row.Scan(&payment.ID, &payment.LeadPaymentReceivedID, &amount, &receivedAt, &createdAt)
	if err != nil {
		return nil, err
	}
	payment.Amount = pgNumericToDecimal(amount)
	payment.ReceivedAt = receivedAt.Time
	payment.CreatedAt = createdAt.Time
	return &payment, nil
}
