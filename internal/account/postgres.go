package account

import (
	"context"
	"database/sql"
	"time"

	"github.com/vanshpatelx/Opinex/internal/db"
)

const queryTimeout = 5 * time.Second

type PostgresRepository struct {
	db *db.DB
}

func NewPostgresRepository(db *db.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var a Account
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, password, type, created_at
		FROM accounts
		WHERE email = $1
	`, email).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Type, &a.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &a, nil
}

// Insert applies an account idempotently. A duplicate email leaves the
// existing row untouched and returns false; both fresh and duplicate
// application share this single code path.
func (r *PostgresRepository) Insert(ctx context.Context, a *Account) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, password, type, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING
	`, a.ID, a.Email, a.PasswordHash, a.Type, a.CreatedAt)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
