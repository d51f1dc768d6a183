package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/solventa/solventa-backend/internal/domain"
)

// LeadRepository implements domain.LeadRepository using PostgreSQL
type LeadRepository struct {
	pool *pgxpool.Pool
}

// NewLeadRepository creates a new LeadRepository
func NewLeadRepository(pool *pgxpool.Pool) *LeadRepository {
	return &LeadRepository{pool: pool}
}

// GetByID retrieves a lead by ID
func (r *LeadRepository) GetByID(id int32) (*domain.Lead, error) {
	ctx := context.Background()

	var (
		lead      domain.Lead
		createdAt pgtype.Timestamptz
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, route_id, full_name, created_at FROM leads WHERE id = $1`, id).
		Scan(&lead.ID, &lead.RouteID, &lead.FullName, &createdAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrLeadNotFound
		}
		return nil, err
	}
	lead.CreatedAt = createdAt.Time
	return &lead, nil
}
