package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/solventa/solventa-backend/internal/domain"
)

// LeadPaymentReceivedRepository implements domain.LeadPaymentReceivedRepository
// using PostgreSQL
type LeadPaymentReceivedRepository struct {
	pool *pgxpool.Pool
}

// NewLeadPaymentReceivedRepository creates a new LeadPaymentReceivedRepository
func NewLeadPaymentReceivedRepository(pool *pgxpool.Pool) *LeadPaymentReceivedRepository {
	return &LeadPaymentReceivedRepository{pool: pool}
}

const receiptColumns = `id, lead_id, expected_amount, cash_paid_amount,
	bank_paid_amount, falco_amount, payment_status, received_at, created_at`

// Create creates a new batch receipt
func (r *LeadPaymentReceivedRepository) Create(receipt *domain.LeadPaymentReceived) (*domain.LeadPaymentReceived, error) {
	ctx := context.Background()

	expected, err := decimalToPgNumeric(receipt.ExpectedAmount)
	if err != nil {
		return nil, err
	}
	cashPaid, err := decimalToPgNumeric(receipt.CashPaidAmount)
	if err != nil {
		return nil, err
	}
	bankPaid, err := decimalToPgNumeric(receipt.BankPaidAmount)
	if err != nil {
		return nil, err
	}
	falco, err := decimalToPgNumeric(receipt.FalcoAmount)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO lead_payments_received (lead_id, expected_amount,
			cash_paid_amount, bank_paid_amount, falco_amount, payment_status,
			received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+receiptColumns,
		receipt.LeadID, expected, cashPaid, bankPaid, falco,
		string(receipt.PaymentStatus), receipt.ReceivedAt)
	return scanReceipt(row)
}

// GetByID retrieves a batch receipt by ID
func (r *LeadPaymentReceivedRepository) GetByID(id int32) (*domain.LeadPaymentReceived, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+receiptColumns+` FROM lead_payments_received WHERE id = $1`, id)
	receipt, err := scanReceipt(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrReceiptNotFound
		}
		return nil, err
	}
	return receipt, nil
}

// UpdateFalcoStatus updates a receipt's payment status and falco amount
func (r *LeadPaymentReceivedRepository) UpdateFalcoStatus(id int32, status domain.PaymentStatus, falcoAmount decimal.Decimal) error {
	ctx := context.Background()

	falco, err := decimalToPgNumeric(falcoAmount)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE lead_payments_received
		SET payment_status = $2, falco_amount = $3
		WHERE id = $1`,
		id, string(status), falco)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReceiptNotFound
	}
	return nil
}

func scanReceipt(row pgx.Row) (*domain.LeadPaymentReceived, error) {
	var (
		receipt    domain.LeadPaymentReceived
		expected   pgtype.Numeric
		cashPaid   pgtype.Numeric
		bankPaid   pgtype.Numeric
		falco      pgtype.Numeric
		status     string
		receivedAt pgtype.Timestamptz
		createdAt  pgtype.Timestamptz
	)
	err := row.Scan(&receipt.ID, &receipt.LeadID, &expected, &cashPaid, &bankPaid,
		&falco, &status, &receivedAt, &createdAt)
	if err != nil {
		return nil, err
	}

	receipt.ExpectedAmount = pgNumericToDecimal(expected)
	receipt.CashPaidAmount = pgNumericToDecimal(cashPaid)
	receipt.BankPaidAmount = pgNumericToDecimal(bankPaid)
	receipt.FalcoAmount = pgNumericToDecimal(falco)
	receipt.PaymentStatus = domain.PaymentStatus(status)
	receipt.ReceivedAt = receivedAt.Time
	receipt.CreatedAt = createdAt.Time
	return &receipt, nil
}
