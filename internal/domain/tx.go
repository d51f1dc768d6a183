package domain

import "context"

// TxManager runs a function inside one all-or-nothing database transaction.
// The tx handle passed to fn is backend-specific (pgx.Tx in production) and is
// forwarded to the repositories' *Tx methods.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(tx interface{}) error) error
}
