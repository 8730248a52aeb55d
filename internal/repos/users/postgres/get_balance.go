package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"spinbank/internal/repos/users"
)

func (r *usersRepo) GetBalance(ctx context.Context, userID uint64) (decimal.Decimal, error) {
	var balance decimal.Decimal

	err := r.db.QueryRowContext(ctx, `
		SELECT balance
		FROM users
		WHERE id = $1
	`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, users.ErrUserNotFound
		}

		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}
