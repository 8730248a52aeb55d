package users

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"spinbank/internal/repos/users"
)

func (r *usersRepo) LockAndGetBalance(tx *sql.Tx, userID uint64) (decimal.Decimal, error) {
	var balance decimal.Decimal

	err := tx.QueryRow(`
		SELECT balance
		FROM users
		WHERE id = $1
		FOR UPDATE
	`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, users.ErrUserNotFound
		}

		return decimal.Zero, fmt.Errorf("lock/get balance: %w", err)
	}

	return balance, nil
}
