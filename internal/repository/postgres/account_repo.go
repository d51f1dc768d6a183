package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/solventa/solventa-backend/internal/domain"
)

// AccountRepository implements domain.AccountRepository using PostgreSQL
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `id, route_id, name, account_type, amount, created_at, updated_at`

// Create creates a new account
func (r *AccountRepository) Create(account *domain.Account) (*domain.Account, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(account.Amount)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (route_id, name, account_type, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING `+accountColumns,
		account.RouteID, account.Name, string(account.Type), amount)
	return scanAccount(row)
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(id int32) (*domain.Account, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	account, err := scanAccount(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// GetByRouteAndType retrieves the account a route owns for a type
func (r *AccountRepository) GetByRouteAndType(routeID int32, accountType domain.AccountType) (*domain.Account, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE route_id = $1 AND account_type = $2
		ORDER BY id LIMIT 1`, routeID, string(accountType))
	account, err := scanAccount(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// GetAll retrieves all accounts
func (r *AccountRepository) GetAll() ([]*domain.Account, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+accountColumns+` FROM accounts ORDER BY route_id, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// AdjustBalance atomically applies delta to the running balance. The WHERE
// guard makes the database reject a movement that would drive the balance
// negative, regardless of concurrent writers.
func (r *AccountRepository) AdjustBalance(id int32, delta decimal.Decimal) (*domain.Account, error) {
	return r.adjustBalance(r.pool, id, delta)
}

// AdjustBalanceTx is the transactional variant of AdjustBalance
func (r *AccountRepository) AdjustBalanceTx(tx interface{}, id int32, delta decimal.Decimal) (*domain.Account, error) {
	pgxTx, err := asPgxTx(tx)
	if err != nil {
		return nil, err
	}
	return r.adjustBalance(pgxTx, id, delta)
}

func (r *AccountRepository) adjustBalance(db dbtx, id int32, delta decimal.Decimal) (*domain.Account, error) {
	ctx := context.Background()

	pgDelta, err := decimalToPgNumeric(delta)
	if err != nil {
		return nil, err
	}

	row := db.QueryRow(ctx, `
		UPDATE accounts
		SET amount = amount + $2, updated_at = now()
		WHERE id = $1 AND amount + $2 >= 0
		RETURNING `+accountColumns,
		id, pgDelta)
	account, err := scanAccount(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			// Either the account is missing or the guard rejected the delta
			if exists, checkErr := r.accountExists(db, id); checkErr == nil && !exists {
				return nil, domain.ErrAccountNotFound
			}
			return nil, domain.ErrInsufficientFunds
		}
		return nil, err
	}
	return account, nil
}

func (r *AccountRepository) accountExists(db dbtx, id int32) (bool, error) {
	ctx := context.Background()
	var exists bool
	err := db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account     domain.Account
		accountType string
		amount      pgtype.Numeric
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
	)
	if err := row.Scan(&account.ID, &account.RouteID, &account.Name, &accountType, &amount, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	account.Type = domain.AccountType(accountType)
	account.Amount = pgNumericToDecimal(amount)
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time
	return &account, nil
}
