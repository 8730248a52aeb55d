package transactions

import (
	"context"
	"fmt"

	"spinbank/internal/repos/transactions"
)

func (r *transactionsRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]transactions.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, type, status, amount, description, destination, settle_at, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []transactions.Transaction

	for rows.Next() {
		var rec transactions.Transaction

		err = rows.Scan(&rec.ID, &rec.UserID, &rec.Type, &rec.Status, &rec.Amount,
			&rec.Description, &rec.Destination, &rec.SettleAt, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}

		out = append(out, rec)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return out, nil
}
