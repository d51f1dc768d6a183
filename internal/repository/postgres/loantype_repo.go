package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/solventa/solventa-backend/internal/domain"
)

// LoantypeRepository implements domain.LoantypeRepository using PostgreSQL
type LoantypeRepository struct {
	pool *pgxpool.Pool
}

// NewLoantypeRepository creates a new LoantypeRepository
func NewLoantypeRepository(pool *pgxpool.Pool) *LoantypeRepository {
	return &LoantypeRepository{pool: pool}
}

// GetByID retrieves a loan type by ID
func (r *LoantypeRepository) GetByID(id int32) (*domain.Loantype, error) {
	ctx := context.Background()

	var (
		loantype  domain.Loantype
		rate      pgtype.Numeric
		createdAt pgtype.Timestamptz
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, rate, week_duration, created_at FROM loantypes WHERE id = $1`, id).
		Scan(&loantype.ID, &loantype.Name, &rate, &loantype.WeekDuration, &createdAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrLoantypeNotFound
		}
		return nil, err
	}
	loantype.Rate = pgNumericToDecimal(rate)
	loantype.CreatedAt = createdAt.Time
	return &loantype, nil
}
