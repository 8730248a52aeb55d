package transactions

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"spinbank/internal/repos/transactions"
)

// NextDueWithdrawal claims one pending withdrawal whose settle_at has passed.
// SKIP LOCKED keeps competing workers from claiming the same row; the claim
// is held until the surrounding transaction ends.
func (r *transactionsRepo) NextDueWithdrawal(tx *sql.Tx, now time.Time) (*transactions.Transaction, error) {
	var rec transactions.Transaction

	err := tx.QueryRow(`
		SELECT id, user_id, type, status, amount, description, destination, settle_at, created_at
		FROM transactions
		WHERE type = 'withdrawal'
		  AND status = 'pending'
		  AND settle_at <= $1
		ORDER BY settle_at
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`, now).Scan(&rec.ID, &rec.UserID, &rec.Type, &rec.Status, &rec.Amount,
		&rec.Description, &rec.Destination, &rec.SettleAt, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("next due withdrawal: %w", err)
	}

	return &rec, nil
}
