package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TxManager implements domain.TxManager over a pgx connection pool.
type TxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager creates a new TxManager
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// WithinTx runs fn inside one database transaction. The transaction commits
// when fn returns nil and rolls back otherwise.
func (m *TxManager) WithinTx(ctx context.Context, fn func(tx interface{}) error) error {
	pgxTx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer pgxTx.Rollback(ctx)

	if err := fn(pgxTx); err != nil {
		return err
	}
	return pgxTx.Commit(ctx)
}
