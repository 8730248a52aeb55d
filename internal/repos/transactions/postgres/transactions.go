package transactions

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"spinbank/internal/repos/transactions"
)

var _ transactions.Transactions = (*transactionsRepo)(nil)

type transactionsRepo struct{ db *sql.DB }

func New(db *sql.DB) *transactionsRepo {
	return &transactionsRepo{db: db}
}

func (r *transactionsRepo) Insert(tx *sql.Tx, rec *transactions.Transaction) error {
	err := tx.QueryRow(`
		INSERT INTO transactions (id, user_id, type, status, amount, description, destination, settle_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, rec.ID, rec.UserID, rec.Type, rec.Status, rec.Amount,
		rec.Description, rec.Destination, rec.SettleAt,
	).Scan(&rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return transactions.ErrDuplicateTransaction
			}
		}

		return fmt.Errorf("insert transaction: %w", err)
	}

	return nil
}
